package models

import "time"

// Membership is a room's per-client record, separate from the client's own
// top-level record.
type Membership struct {
	PublicKey string    `json:"public_key"`
	LastSeen  time.Time `json:"last_seen"`
}

// Message is a room-scoped broadcast. PublicKey is copied from the sender at
// send time and never re-fetched.
type Message struct {
	FromClient string    `json:"from_client"`
	Text       string    `json:"text"`
	Signature  string    `json:"signature,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	PublicKey  string    `json:"public_key"`
}

// Room is keyed by its name in the rooms collection. Messages are kept in
// insertion order, which is chronological.
type Room struct {
	Clients      map[string]Membership `json:"clients"`
	Messages     []Message             `json:"messages"`
	CreatedAt    time.Time             `json:"created_at"`
	LastActivity time.Time             `json:"last_activity"`
}

func NewRoom(now time.Time) Room {
	return Room{
		Clients:      make(map[string]Membership),
		Messages:     []Message{},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Normalize fills in the defaults a decoded record may be missing.
func (r *Room) Normalize() {
	if r.Clients == nil {
		r.Clients = make(map[string]Membership)
	}
	if r.Messages == nil {
		r.Messages = []Message{}
	}
}
