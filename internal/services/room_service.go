package services

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Nick-Maro/DockerChat/internal/models"
	"github.com/Nick-Maro/DockerChat/internal/ports"
)

// RoomService handles room-broadcast messaging and the room listing.
type RoomService struct {
	store  ports.IEntityStore
	logger *slog.Logger
	sink   ports.IEventSink
}

func NewRoomService(store ports.IEntityStore, logger *slog.Logger) *RoomService {
	return &RoomService{store: store, logger: logger}
}

// SetEventSink attaches the live fan-out. Optional; nil means no push events.
func (s *RoomService) SetEventSink(sink ports.IEventSink) {
	s.sink = sink
}

// RoomSummary is the list_rooms view of a room.
type RoomSummary struct {
	Name         string    `json:"name"`
	Clients      int       `json:"clients"`
	Messages     int       `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SendMessage appends a message to the sender's current room, creating the
// room if it vanished, and returns the room name. The sender's public key is
// copied onto the message at send time.
func (s *RoomService) SendMessage(clientID, text, signature string) (string, error) {
	now := time.Now()

	clients := s.store.Clients()
	client, ok := clients[clientID]
	if !ok {
		return "", ErrUnregisteredClient
	}

	client.LastSeen = now
	clients[clientID] = client
	s.store.PutClients(clients)

	if client.RoomID == "" {
		return "", ErrNoActiveRoom
	}

	message := models.Message{
		FromClient: clientID,
		Text:       text,
		Signature:  signature,
		Timestamp:  now,
		PublicKey:  client.PublicKey,
	}

	rooms := s.store.Rooms()
	room, ok := rooms[client.RoomID]
	if !ok {
		room = models.NewRoom(now)
	}
	room.Messages = append(room.Messages, message)
	room.LastActivity = now
	rooms[client.RoomID] = room
	s.store.PutRooms(rooms)

	s.notifyRoom(client.RoomID, room, message)

	s.logger.Info("message sent", "clientID", clientID, "room", client.RoomID)
	return client.RoomID, nil
}

func (s *RoomService) notifyRoom(roomName string, room models.Room, message models.Message) {
	if s.sink == nil {
		return
	}

	event := map[string]interface{}{
		"type":        "room_message",
		"room_name":   roomName,
		"from_client": message.FromClient,
		"text":        message.Text,
		"timestamp":   message.Timestamp,
	}

	for memberID := range room.Clients {
		if memberID != message.FromClient {
			s.sink.PublishToClient(memberID, event)
		}
	}
}

// GetMessages returns the caller's room messages in insertion order.
func (s *RoomService) GetMessages(clientID string) (string, []models.Message, error) {
	now := time.Now()

	clients := s.store.Clients()
	client, ok := clients[clientID]
	if !ok {
		return "", nil, ErrUnregisteredClient
	}

	client.LastSeen = now
	clients[clientID] = client
	s.store.PutClients(clients)

	if client.RoomID == "" {
		return "", nil, ErrNoActiveRoom
	}

	messages := []models.Message{}
	if room, ok := s.store.Rooms()[client.RoomID]; ok {
		messages = room.Messages
	}

	return client.RoomID, messages, nil
}

// ListRooms is unauthenticated; every room is summarized.
func (s *RoomService) ListRooms() []RoomSummary {
	rooms := s.store.Rooms()

	summaries := make([]RoomSummary, 0, len(rooms))
	for name, room := range rooms {
		summaries = append(summaries, RoomSummary{
			Name:         name,
			Clients:      len(room.Clients),
			Messages:     len(room.Messages),
			CreatedAt:    room.CreatedAt,
			LastActivity: room.LastActivity,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})

	return summaries
}
