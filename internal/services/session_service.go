package services

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/Nick-Maro/DockerChat/app/config"
	"github.com/Nick-Maro/DockerChat/internal/models"
	"github.com/Nick-Maro/DockerChat/internal/ports"

	"github.com/google/uuid"
)

// SessionService owns the client half of the state machine: registration,
// presence refresh, room membership transitions and disconnect.
type SessionService struct {
	store  ports.IEntityStore
	ttl    config.TTLConfig
	logger *slog.Logger
}

func NewSessionService(store ports.IEntityStore, ttl config.TTLConfig, logger *slog.Logger) *SessionService {
	return &SessionService{store: store, ttl: ttl, logger: logger}
}

// ClientSummary is the list_clients view of another client.
type ClientSummary struct {
	ClientID string    `json:"client_id"`
	RoomID   string    `json:"room_id,omitempty"`
	LastSeen time.Time `json:"last_seen"`
	Online   bool      `json:"online"`
}

// Register creates or overwrites the client record. A missing id gets a fresh
// UUID. The new record always starts outside any room.
func (s *SessionService) Register(clientID, publicKey string) (string, error) {
	if publicKey == "" {
		return "", ErrInvalidInput
	}

	if clientID == "" {
		clientID = uuid.NewString()
	}

	clients := s.store.Clients()
	clients[clientID] = models.NewClient(publicKey, time.Now())
	s.store.PutClients(clients)

	s.logger.Info("client registered", "clientID", clientID)
	return clientID, nil
}

// Heartbeat refreshes last_seen and nothing else.
func (s *SessionService) Heartbeat(clientID string) error {
	clients := s.store.Clients()
	client, ok := clients[clientID]
	if !ok {
		return ErrUnregisteredClient
	}

	client.LastSeen = time.Now()
	clients[clientID] = client
	s.store.PutClients(clients)

	return nil
}

// JoinRoom attaches the client to the named room, creating the room lazily.
// Returns the member count after the join.
func (s *SessionService) JoinRoom(clientID, roomName string) (int, error) {
	now := time.Now()

	clients := s.store.Clients()
	client, ok := clients[clientID]
	if !ok {
		return 0, ErrUnregisteredClient
	}

	previous := client.RoomID
	client.RoomID = roomName
	client.LastSeen = now
	clients[clientID] = client
	s.store.PutClients(clients)

	rooms := s.store.Rooms()

	// switching rooms must not leave a membership behind: a client is a
	// member of exactly the room its room_id names
	if previous != "" && previous != roomName {
		if old, ok := rooms[previous]; ok {
			if _, member := old.Clients[clientID]; member {
				delete(old.Clients, clientID)
				old.LastActivity = now
				rooms[previous] = old
			}
		}
	}

	room, ok := rooms[roomName]
	if !ok {
		room = models.NewRoom(now)
	}
	room.Clients[clientID] = models.Membership{PublicKey: client.PublicKey, LastSeen: now}
	room.LastActivity = now
	rooms[roomName] = room
	s.store.PutRooms(rooms)

	s.logger.Info("client joined room", "clientID", clientID, "room", roomName, "members", len(room.Clients))
	return len(room.Clients), nil
}

// LeaveRoom detaches the client from its current room. A client with no room
// is a no-op success. Returns the name of the room that was left, if any.
func (s *SessionService) LeaveRoom(clientID string) (string, error) {
	now := time.Now()

	clients := s.store.Clients()
	client, ok := clients[clientID]
	if !ok {
		return "", ErrUnregisteredClient
	}

	left := client.RoomID
	if left != "" {
		rooms := s.store.Rooms()
		if room, ok := rooms[left]; ok {
			if _, member := room.Clients[clientID]; member {
				delete(room.Clients, clientID)
				room.LastActivity = now
				rooms[left] = room
				s.store.PutRooms(rooms)
			}
		}
	}

	client.RoomID = ""
	client.LastSeen = now
	clients[clientID] = client
	s.store.PutClients(clients)

	if left != "" {
		s.logger.Info("client left room", "clientID", clientID, "room", left)
	}
	return left, nil
}

// Disconnect removes the client entirely. Every room is scanned for residual
// membership, not just the client's current room_id, so stale cross-references
// cannot survive.
func (s *SessionService) Disconnect(clientID string) error {
	now := time.Now()

	clients := s.store.Clients()
	if _, ok := clients[clientID]; !ok {
		return ErrUnregisteredClient
	}

	rooms := s.store.Rooms()
	for name, room := range rooms {
		if _, member := room.Clients[clientID]; member {
			delete(room.Clients, clientID)
			room.LastActivity = now
			rooms[name] = room
		}
	}
	s.store.PutRooms(rooms)

	delete(clients, clientID)
	s.store.PutClients(clients)

	s.logger.Info("client disconnected", "clientID", clientID)
	return nil
}

// ListClients returns every client other than the caller, annotated with
// presence derived from last_seen and the client TTL.
func (s *SessionService) ListClients(requestingID string) ([]ClientSummary, error) {
	now := time.Now()

	clients := s.store.Clients()
	client, ok := clients[requestingID]
	if !ok {
		return nil, ErrUnregisteredClient
	}

	client.LastSeen = now
	clients[requestingID] = client
	s.store.PutClients(clients)

	summaries := make([]ClientSummary, 0, len(clients)-1)
	for id, c := range clients {
		if id == requestingID {
			continue
		}
		summaries = append(summaries, ClientSummary{
			ClientID: id,
			RoomID:   c.RoomID,
			LastSeen: c.LastSeen,
			Online:   c.Online(now, s.ttl.Client),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ClientID < summaries[j].ClientID
	})

	return summaries, nil
}

// Known reports whether the id belongs to a registered client.
func (s *SessionService) Known(clientID string) bool {
	_, ok := s.store.Clients()[clientID]
	return ok
}

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnregisteredClient = errors.New("unregistered client")
	ErrNoActiveRoom       = errors.New("you aren't connected to any room")
	ErrUnknownRecipient   = errors.New("recipient client not found")
)
