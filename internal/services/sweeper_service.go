package services

import (
	"log/slog"
	"time"

	"github.com/Nick-Maro/DockerChat/app/config"
	"github.com/Nick-Maro/DockerChat/internal/models"
	"github.com/Nick-Maro/DockerChat/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
)

// SweeperService runs the cascading TTL eviction over one snapshot of all
// three collections, then persists the result. Order matters: expired clients
// first (with membership cascade), then message filtering, then room removal,
// then private messages.
type SweeperService struct {
	store     ports.IEntityStore
	ttl       config.TTLConfig
	logger    *slog.Logger
	evictions *prometheus.CounterVec // labeled by entity, may be nil
}

func NewSweeperService(store ports.IEntityStore, ttl config.TTLConfig, logger *slog.Logger, evictions *prometheus.CounterVec) *SweeperService {
	return &SweeperService{store: store, ttl: ttl, logger: logger, evictions: evictions}
}

// SweepReport counts what one pass removed.
type SweepReport struct {
	Clients         int
	RoomMessages    int
	Rooms           int
	PrivateMessages int
}

func (r SweepReport) Empty() bool {
	return r.Clients == 0 && r.RoomMessages == 0 && r.Rooms == 0 && r.PrivateMessages == 0
}

func (s *SweeperService) Sweep() SweepReport {
	now := time.Now()
	var report SweepReport

	clients := s.store.Clients()
	rooms := s.store.Rooms()
	privates := s.store.PrivateMessages()

	// 1-2: expired clients, cascading into every room's membership.
	// Room message history is untouched by this step.
	var expired []string
	for id, client := range clients {
		if now.Sub(client.LastSeen) > s.ttl.Client {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(clients, id)
		for name, room := range rooms {
			if _, member := room.Clients[id]; member {
				delete(room.Clients, id)
				rooms[name] = room
			}
		}
	}
	report.Clients = len(expired)

	// 3: drop room messages past the message TTL.
	for name, room := range rooms {
		kept := make([]models.Message, 0, len(room.Messages))
		for _, msg := range room.Messages {
			if now.Sub(msg.Timestamp) <= s.ttl.Message {
				kept = append(kept, msg)
			}
		}
		report.RoomMessages += len(room.Messages) - len(kept)
		room.Messages = kept
		rooms[name] = room
	}

	// 4: remove rooms that are empty or stale.
	for name, room := range rooms {
		if len(room.Clients) == 0 || now.Sub(room.LastActivity) > s.ttl.Room {
			delete(rooms, name)
			report.Rooms++
		}
	}

	// 5: expired private messages go regardless of read state.
	for id, msg := range privates {
		if now.Sub(msg.Timestamp) > s.ttl.Message {
			delete(privates, id)
			report.PrivateMessages++
		}
	}

	// 6: persist everything in one pass.
	s.store.PutClients(clients)
	s.store.PutRooms(rooms)
	s.store.PutPrivateMessages(privates)

	if !report.Empty() {
		s.logger.Debug("sweep evicted entities",
			"clients", report.Clients,
			"roomMessages", report.RoomMessages,
			"rooms", report.Rooms,
			"privateMessages", report.PrivateMessages)
	}

	if s.evictions != nil {
		s.evictions.WithLabelValues("client").Add(float64(report.Clients))
		s.evictions.WithLabelValues("room_message").Add(float64(report.RoomMessages))
		s.evictions.WithLabelValues("room").Add(float64(report.Rooms))
		s.evictions.WithLabelValues("private_message").Add(float64(report.PrivateMessages))
	}

	return report
}
