package models

import "time"

// Client is a registered identity. The record itself carries no id: the
// clients collection is keyed by it.
type Client struct {
	PublicKey string    `json:"public_key"`
	RoomID    string    `json:"room_id,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
}

func NewClient(publicKey string, now time.Time) Client {
	return Client{PublicKey: publicKey, LastSeen: now, CreatedAt: now}
}

// Online reports whether the client counts as present given the client TTL.
func (c Client) Online(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.LastSeen) <= ttl
}
