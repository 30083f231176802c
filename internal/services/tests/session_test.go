package services_test

import (
	"testing"
	"time"

	"github.com/Nick-Maro/DockerChat/internal/models"
	"github.com/Nick-Maro/DockerChat/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestSession_Register(t *testing.T) {
	ts := []struct {
		name       string
		clientID   string
		publicKey  string
		expectedID string
		expectErr  error
	}{
		{
			name:       "Supplied id is kept",
			clientID:   "a1",
			publicKey:  "pem",
			expectedID: "a1",
		},
		{
			name:      "Missing id gets a generated one",
			clientID:  "",
			publicKey: "pem",
		},
		{
			name:      "Missing public key is rejected",
			clientID:  "a1",
			publicKey: "",
			expectErr: services.ErrInvalidInput,
		},
	}

	for _, tt := range ts {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			id, err := f.sessions.Register(tt.clientID, tt.publicKey)

			if tt.expectErr != nil {
				assert.Equal(t, tt.expectErr, err)
				assert.Empty(t, f.store.Clients())
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, id)
			if tt.expectedID != "" {
				assert.Equal(t, tt.expectedID, id)
			}

			client, ok := f.store.Clients()[id]
			assert.True(t, ok)
			assert.Equal(t, tt.publicKey, client.PublicKey)
			assert.Empty(t, client.RoomID)
		})
	}
}

func TestSession_RegisterOverwriteResetsRoom(t *testing.T) {
	f := newFixture()

	f.register("a1")
	_, err := f.sessions.JoinRoom("a1", "lobby")
	assert.NoError(t, err)

	f.register("a1")

	client := f.store.Clients()["a1"]
	assert.Empty(t, client.RoomID, "re-registration starts outside any room")
}

func TestSession_HeartbeatRefreshesOnlyLastSeen(t *testing.T) {
	f := newFixture()

	f.register("a1")
	_, err := f.sessions.JoinRoom("a1", "lobby")
	assert.NoError(t, err)

	before := f.store.Clients()["a1"]

	assert.NoError(t, f.sessions.Heartbeat("a1"))
	assert.NoError(t, f.sessions.Heartbeat("a1"))

	after := f.store.Clients()["a1"]
	assert.Equal(t, before.RoomID, after.RoomID)
	assert.Equal(t, before.PublicKey, after.PublicKey)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.False(t, after.LastSeen.Before(before.LastSeen))

	room := f.store.Rooms()["lobby"]
	assert.Len(t, room.Clients, 1)
	assert.Empty(t, room.Messages)
}

func TestSession_HeartbeatUnknownClient(t *testing.T) {
	f := newFixture()

	err := f.sessions.Heartbeat("ghost")
	assert.Equal(t, services.ErrUnregisteredClient, err)
}

func TestSession_JoinRoomCreatesRoomLazily(t *testing.T) {
	f := newFixture()
	f.register("a1")

	members, err := f.sessions.JoinRoom("a1", "lobby")
	assert.NoError(t, err)
	assert.Equal(t, 1, members)

	room, ok := f.store.Rooms()["lobby"]
	assert.True(t, ok)
	_, member := room.Clients["a1"]
	assert.True(t, member)
	assert.Equal(t, "lobby", f.store.Clients()["a1"].RoomID)
}

func TestSession_JoinSecondRoomMovesMembership(t *testing.T) {
	f := newFixture()
	f.register("a1")
	f.register("b1")

	_, err := f.sessions.JoinRoom("b1", "lobby")
	assert.NoError(t, err)
	_, err = f.sessions.JoinRoom("a1", "lobby")
	assert.NoError(t, err)
	_, err = f.sessions.JoinRoom("a1", "den")
	assert.NoError(t, err)

	rooms := f.store.Rooms()
	_, inLobby := rooms["lobby"].Clients["a1"]
	_, inDen := rooms["den"].Clients["a1"]
	assert.False(t, inLobby, "membership must follow room_id")
	assert.True(t, inDen)
	assert.Equal(t, "den", f.store.Clients()["a1"].RoomID)
}

func TestSession_LeaveRoom(t *testing.T) {
	f := newFixture()
	f.register("a1")
	f.register("b1")
	f.sessions.JoinRoom("a1", "lobby")
	f.sessions.JoinRoom("b1", "lobby")

	left, err := f.sessions.LeaveRoom("a1")
	assert.NoError(t, err)
	assert.Equal(t, "lobby", left)

	assert.Empty(t, f.store.Clients()["a1"].RoomID)
	room := f.store.Rooms()["lobby"]
	_, member := room.Clients["a1"]
	assert.False(t, member)
}

func TestSession_LeaveRoomWithoutRoomIsNoop(t *testing.T) {
	f := newFixture()
	f.register("a1")

	left, err := f.sessions.LeaveRoom("a1")
	assert.NoError(t, err)
	assert.Empty(t, left)
}

func TestSession_DisconnectScansAllRooms(t *testing.T) {
	f := newFixture()
	f.register("a1")
	f.register("b1")
	f.sessions.JoinRoom("b1", "lobby")
	f.sessions.JoinRoom("a1", "lobby")

	// plant a stale membership in a room the client's room_id does not name
	rooms := f.store.Rooms()
	stale := models.NewRoom(time.Now())
	stale.Clients["a1"] = models.Membership{PublicKey: "pem", LastSeen: time.Now()}
	rooms["stale-room"] = stale
	f.store.PutRooms(rooms)

	assert.NoError(t, f.sessions.Disconnect("a1"))

	_, ok := f.store.Clients()["a1"]
	assert.False(t, ok)

	for name, room := range f.store.Rooms() {
		_, member := room.Clients["a1"]
		assert.False(t, member, "residual membership in %s", name)
	}
}

func TestSession_ListClients(t *testing.T) {
	f := newFixture()
	f.register("a1")
	f.register("b1")

	// c1 registered an hour and a bit ago and never came back
	clients := f.store.Clients()
	stale := models.NewClient("pem", time.Now().Add(-(testTTL.Client + time.Minute)))
	clients["c1"] = stale
	f.store.PutClients(clients)

	summaries, err := f.sessions.ListClients("a1")
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)

	assert.Equal(t, "b1", summaries[0].ClientID)
	assert.True(t, summaries[0].Online)
	assert.Equal(t, "c1", summaries[1].ClientID)
	assert.False(t, summaries[1].Online)
}

func TestSession_UnknownClientCausesNoMutation(t *testing.T) {
	f := newFixture()
	f.register("a1")
	f.sessions.JoinRoom("a1", "lobby")

	clientsBefore := f.store.Clients()
	roomsBefore := f.store.Rooms()

	_, err := f.sessions.JoinRoom("ghost", "lobby")
	assert.Equal(t, services.ErrUnregisteredClient, err)

	_, err = f.rooms.SendMessage("ghost", "x", "")
	assert.Equal(t, services.ErrUnregisteredClient, err)

	_, err = f.sessions.LeaveRoom("ghost")
	assert.Equal(t, services.ErrUnregisteredClient, err)

	err = f.sessions.Heartbeat("ghost")
	assert.Equal(t, services.ErrUnregisteredClient, err)

	assert.Equal(t, clientsBefore, f.store.Clients())
	assert.Equal(t, roomsBefore, f.store.Rooms())
}
