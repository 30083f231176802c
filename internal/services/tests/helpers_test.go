package services_test

import (
	"log/slog"
	"time"

	"github.com/Nick-Maro/DockerChat/app/config"
	"github.com/Nick-Maro/DockerChat/internal/repositories"
	"github.com/Nick-Maro/DockerChat/internal/services"
)

var testTTL = config.TTLConfig{
	Client:  3600 * time.Second,
	Room:    7200 * time.Second,
	Message: 86400 * time.Second,
}

type fixture struct {
	store    *repositories.EntityStore
	sweeper  *services.SweeperService
	sessions *services.SessionService
	rooms    *services.RoomService
	mailbox  *services.MailboxService
	disp     *services.Dispatcher
}

// newFixture wires the whole core against a local-only store.
func newFixture() *fixture {
	logger := slog.Default()
	store := repositories.NewEntityStore(nil, logger, nil)

	sweeper := services.NewSweeperService(store, testTTL, logger, nil)
	sessions := services.NewSessionService(store, testTTL, logger)
	rooms := services.NewRoomService(store, logger)
	mailbox := services.NewMailboxService(store, logger)
	disp := services.NewDispatcher(store, sweeper, sessions, rooms, mailbox, testTTL, logger)

	return &fixture{
		store:    store,
		sweeper:  sweeper,
		sessions: sessions,
		rooms:    rooms,
		mailbox:  mailbox,
		disp:     disp,
	}
}

// register is a shortcut that fails the fixture silently; tests assert on the
// calls they actually care about.
func (f *fixture) register(id string) string {
	registered, _ := f.sessions.Register(id, "-----BEGIN PUBLIC KEY-----\ntest\n-----END PUBLIC KEY-----")
	return registered
}
