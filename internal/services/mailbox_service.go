package services

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Nick-Maro/DockerChat/internal/models"
	"github.com/Nick-Maro/DockerChat/internal/ports"

	"github.com/google/uuid"
)

// MailboxService handles directed messages and their read receipts.
type MailboxService struct {
	store  ports.IEntityStore
	logger *slog.Logger
	sink   ports.IEventSink
}

func NewMailboxService(store ports.IEntityStore, logger *slog.Logger) *MailboxService {
	return &MailboxService{store: store, logger: logger}
}

func (s *MailboxService) SetEventSink(sink ports.IEventSink) {
	s.sink = sink
}

// PrivateMessageView is a mailbox entry as returned to the caller. Read holds
// the value the flag had when the mailbox was fetched, before the flip.
type PrivateMessageView struct {
	ID         string    `json:"id"`
	FromClient string    `json:"from_client"`
	ToClient   string    `json:"to_client"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
	Direction  string    `json:"direction"`
}

// SendPrivate stores a new unread message and returns its id.
func (s *MailboxService) SendPrivate(fromID, toID, text, signature string) (string, error) {
	now := time.Now()

	clients := s.store.Clients()
	sender, ok := clients[fromID]
	if !ok {
		return "", ErrUnregisteredClient
	}
	if _, ok := clients[toID]; !ok {
		return "", ErrUnknownRecipient
	}

	sender.LastSeen = now
	clients[fromID] = sender
	s.store.PutClients(clients)

	message := models.PrivateMessage{
		ID:         uuid.NewString(),
		FromClient: fromID,
		ToClient:   toID,
		Text:       text,
		Signature:  signature,
		Timestamp:  now,
	}

	msgs := s.store.PrivateMessages()
	msgs[message.ID] = message
	s.store.PutPrivateMessages(msgs)

	if s.sink != nil {
		s.sink.PublishToClient(toID, map[string]interface{}{
			"type":        "private_message",
			"message_id":  message.ID,
			"from_client": fromID,
			"text":        text,
			"timestamp":   now,
		})
	}

	s.logger.Info("private message sent", "from", fromID, "to", toID, "messageID", message.ID)
	return message.ID, nil
}

// GetMailbox returns every message the client sent or received, oldest first.
// Viewing implies acknowledging: each returned entry where the caller is the
// recipient flips to read, though the returned view still shows the old flag.
func (s *MailboxService) GetMailbox(clientID string) ([]PrivateMessageView, error) {
	now := time.Now()

	clients := s.store.Clients()
	client, ok := clients[clientID]
	if !ok {
		return nil, ErrUnregisteredClient
	}

	client.LastSeen = now
	clients[clientID] = client
	s.store.PutClients(clients)

	msgs := s.store.PrivateMessages()

	views := []PrivateMessageView{}
	for id, msg := range msgs {
		if msg.ToClient != clientID && msg.FromClient != clientID {
			continue
		}

		direction := "sent"
		if msg.ToClient == clientID {
			direction = "received"
		}

		views = append(views, PrivateMessageView{
			ID:         id,
			FromClient: msg.FromClient,
			ToClient:   msg.ToClient,
			Text:       msg.Text,
			Timestamp:  msg.Timestamp,
			Read:       msg.Read,
			Direction:  direction,
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Timestamp.Equal(views[j].Timestamp) {
			return views[i].ID < views[j].ID
		}
		return views[i].Timestamp.Before(views[j].Timestamp)
	})

	flipped := false
	for _, view := range views {
		if view.Direction == "received" && !view.Read {
			msg := msgs[view.ID]
			msg.Read = true
			msgs[view.ID] = msg
			flipped = true
		}
	}
	if flipped {
		s.store.PutPrivateMessages(msgs)
	}

	return views, nil
}
