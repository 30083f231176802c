package repositories

// PROPRIETARY AND CONFIDENTIAL
// This code contains trade secrets and confidential material of Finimen Sniper / FSC.
// Any unauthorized use, disclosure, or duplication is strictly prohibited.
// © 2025 Finimen Sniper / FSC. All rights reserved.

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Nick-Maro/DockerChat/internal/models"
	"github.com/Nick-Maro/DockerChat/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	keyClients         = "clients"
	keyRooms           = "rooms"
	keyPrivateMessages = "private_messages"
)

// EntityStore keeps the three collections in a shared blob tier when one is
// reachable, mirrored into process memory. The mirror is the source of truth
// in local-only mode and the fallback when a shared read fails mid-flight.
// A put replaces the whole collection: keys absent from the new value are gone.
type EntityStore struct {
	tier   ports.IBlobTier
	logger *slog.Logger

	// incremented on swallowed shared-tier write errors, may be nil
	tierErrors prometheus.Counter

	mu       sync.RWMutex
	clients  map[string]models.Client
	rooms    map[string]models.Room
	privates map[string]models.PrivateMessage
}

// NewEntityStore probes the tier once. If the probe fails the process stays in
// local-only mode for its whole lifetime, matching the startup contract.
func NewEntityStore(tier ports.IBlobTier, logger *slog.Logger, tierErrors prometheus.Counter) *EntityStore {
	s := &EntityStore{
		tier:       tier,
		logger:     logger,
		tierErrors: tierErrors,
		clients:    make(map[string]models.Client),
		rooms:      make(map[string]models.Room),
		privates:   make(map[string]models.PrivateMessage),
	}

	if tier != nil {
		if err := tier.Ping(); err != nil {
			logger.Warn("shared tier unreachable, using local storage", "error", err)
			s.tier = nil
		} else {
			logger.Info("connected to shared tier")
		}
	}

	return s
}

func (s *EntityStore) SharedTierAvailable() bool {
	return s.tier != nil
}

// load returns the raw blob for key, or nil when the tier is absent, the key
// is missing, or the read failed. ok distinguishes "use the blob" from "fall
// back to the mirror".
func (s *EntityStore) load(key string) (raw []byte, ok bool) {
	if s.tier == nil {
		return nil, false
	}

	val, err := s.tier.Get(key)
	if err != nil {
		s.logger.Warn("shared tier read failed, serving local mirror", "key", key, "error", err)
		if s.tierErrors != nil {
			s.tierErrors.Inc()
		}
		return nil, false
	}

	return []byte(val), true
}

// persist writes the serialized collection to the shared tier, swallowing any
// error. Availability beats consistency here: the mirror always has the value.
func (s *EntityStore) persist(key string, value interface{}) {
	if s.tier == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to serialize collection", "key", key, "error", err)
		return
	}

	if err := s.tier.Set(key, string(data)); err != nil {
		s.logger.Warn("shared tier write failed, kept in local mirror", "key", key, "error", err)
		if s.tierErrors != nil {
			s.tierErrors.Inc()
		}
	}
}

func (s *EntityStore) Clients() map[string]models.Client {
	if raw, ok := s.load(keyClients); ok {
		clients := make(map[string]models.Client)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &clients); err != nil {
				s.logger.Warn("corrupt clients collection, treating as empty", "error", err)
				return make(map[string]models.Client)
			}
		}
		return clients
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make(map[string]models.Client, len(s.clients))
	for id, c := range s.clients {
		clients[id] = c
	}
	return clients
}

func (s *EntityStore) PutClients(clients map[string]models.Client) {
	s.persist(keyClients, clients)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients = make(map[string]models.Client, len(clients))
	for id, c := range clients {
		s.clients[id] = c
	}
}

func (s *EntityStore) Rooms() map[string]models.Room {
	if raw, ok := s.load(keyRooms); ok {
		rooms := make(map[string]models.Room)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rooms); err != nil {
				s.logger.Warn("corrupt rooms collection, treating as empty", "error", err)
				return make(map[string]models.Room)
			}
		}
		for name, room := range rooms {
			room.Normalize()
			rooms[name] = room
		}
		return rooms
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make(map[string]models.Room, len(s.rooms))
	for name, r := range s.rooms {
		rooms[name] = r
	}
	return rooms
}

func (s *EntityStore) PutRooms(rooms map[string]models.Room) {
	s.persist(keyRooms, rooms)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms = make(map[string]models.Room, len(rooms))
	for name, r := range rooms {
		s.rooms[name] = r
	}
}

func (s *EntityStore) PrivateMessages() map[string]models.PrivateMessage {
	if raw, ok := s.load(keyPrivateMessages); ok {
		msgs := make(map[string]models.PrivateMessage)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &msgs); err != nil {
				s.logger.Warn("corrupt private messages collection, treating as empty", "error", err)
				return make(map[string]models.PrivateMessage)
			}
		}
		return msgs
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := make(map[string]models.PrivateMessage, len(s.privates))
	for id, m := range s.privates {
		msgs[id] = m
	}
	return msgs
}

func (s *EntityStore) PutPrivateMessages(msgs map[string]models.PrivateMessage) {
	s.persist(keyPrivateMessages, msgs)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.privates = make(map[string]models.PrivateMessage, len(msgs))
	for id, m := range msgs {
		s.privates[id] = m
	}
}
