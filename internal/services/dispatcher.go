package services

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Nick-Maro/DockerChat/app/config"
	"github.com/Nick-Maro/DockerChat/internal/ports"
)

// Envelope is the JSON command envelope consumed by the dispatcher.
type Envelope struct {
	Command   string `json:"command"`
	ClientID  string `json:"client_id"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// command is the parsed shape of the envelope verb. Arguments are split off
// once here; the handlers never re-parse raw strings.
type command struct {
	verb      string
	room      string
	text      string
	recipient string
	args      bool
	valid     bool
}

var availableCommands = []string{
	"upload_public_key",
	"join_room:ROOM_NAME",
	"send_message:TEXT",
	"send_private:CLIENT_ID:MESSAGE",
	"get_messages",
	"get_private_messages",
	"list_rooms",
	"list_clients",
	"leave_room",
	"heartbeat",
	"disconnect",
}

var ErrMalformedPrivate = errors.New("command format: send_private:CLIENT_ID:MESSAGE")

// Verb returns the bare verb of a raw command string, for logging and metrics.
func Verb(raw string) string {
	verb, _, _ := strings.Cut(raw, ":")
	return verb
}

func parseCommand(raw string) command {
	verb, rest, hasArgs := strings.Cut(raw, ":")

	switch verb {
	case "join_room":
		if !hasArgs || rest == "" {
			return command{verb: verb}
		}
		return command{verb: verb, room: rest, valid: true}

	case "send_message":
		if !hasArgs {
			return command{verb: verb}
		}
		return command{verb: verb, text: rest, valid: true}

	case "send_private":
		recipient, text, ok := strings.Cut(rest, ":")
		if !hasArgs || !ok || recipient == "" {
			return command{verb: verb, args: hasArgs}
		}
		return command{verb: verb, recipient: recipient, text: text, args: true, valid: true}

	case "upload_public_key", "get_messages", "get_private_messages",
		"list_rooms", "list_clients", "leave_room", "heartbeat", "disconnect":
		if hasArgs {
			return command{verb: verb}
		}
		return command{verb: verb, valid: true}
	}

	return command{verb: verb}
}

// Dispatcher routes parsed commands to the services, always sweeping first so
// a just-expired client cannot pass the identity checks of the same request.
// Its mutex is the single-writer serialization point: within one process,
// sweep, mutation and persistence of a command never interleave with another.
type Dispatcher struct {
	mu       sync.Mutex
	store    ports.IEntityStore
	sweeper  *SweeperService
	sessions *SessionService
	rooms    *RoomService
	mailbox  *MailboxService
	ttl      config.TTLConfig
	logger   *slog.Logger
}

func NewDispatcher(store ports.IEntityStore, sweeper *SweeperService, sessions *SessionService,
	rooms *RoomService, mailbox *MailboxService, ttl config.TTLConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		sweeper:  sweeper,
		sessions: sessions,
		rooms:    rooms,
		mailbox:  mailbox,
		ttl:      ttl,
		logger:   logger,
	}
}

// RunSweep is a sweep outside any command, used by the background ticker.
func (d *Dispatcher) RunSweep() SweepReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sweeper.Sweep()
}

// Dispatch runs one command end to end and builds the response payload.
// Domain failures come back as an error; an unknown or malformed verb is not
// an error, it returns the list of supported commands.
func (d *Dispatcher) Dispatch(env Envelope) (map[string]interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sweeper.Sweep()

	cmd := parseCommand(env.Command)
	if !cmd.valid {
		// an arity mistake on a known verb deserves the format hint,
		// a bare unknown verb gets the command list
		if cmd.verb == "send_private" && cmd.args {
			return nil, ErrMalformedPrivate
		}
		return d.unknownCommand(env.Command), nil
	}

	switch cmd.verb {
	case "upload_public_key":
		if env.PublicKey == "" {
			return d.unknownCommand(env.Command), nil
		}
		clientID, err := d.sessions.Register(env.ClientID, env.PublicKey)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command":   env.Command,
			"message":   "Client registered with success!",
			"client_id": clientID,
			"status":    "registered",
			"ttl_info": map[string]interface{}{
				"client_ttl_hours":  int(d.ttl.Client.Hours()),
				"message_ttl_hours": int(d.ttl.Message.Hours()),
			},
		}, nil

	case "join_room":
		members, err := d.sessions.JoinRoom(env.ClientID, cmd.room)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command":         env.Command,
			"message":         "Joined room '" + cmd.room + "'",
			"room_name":       cmd.room,
			"clients_in_room": members,
		}, nil

	case "send_message":
		roomName, err := d.rooms.SendMessage(env.ClientID, cmd.text, env.Signature)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command":      env.Command,
			"message":      "Message sent in room '" + roomName + "'",
			"room_name":    roomName,
			"message_text": cmd.text,
		}, nil

	case "send_private":
		messageID, err := d.mailbox.SendPrivate(env.ClientID, cmd.recipient, cmd.text, env.Signature)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command":    env.Command,
			"message":    "Private message sent to " + cmd.recipient,
			"message_id": messageID,
			"to_client":  cmd.recipient,
		}, nil

	case "get_messages":
		roomName, messages, err := d.rooms.GetMessages(env.ClientID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command":        env.Command,
			"room_name":      roomName,
			"messages":       messages,
			"total_messages": len(messages),
		}, nil

	case "get_private_messages":
		views, err := d.mailbox.GetMailbox(env.ClientID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command":          env.Command,
			"private_messages": views,
			"total_messages":   len(views),
		}, nil

	case "list_rooms":
		return map[string]interface{}{
			"command": env.Command,
			"message": "List of available rooms",
			"rooms":   d.rooms.ListRooms(),
		}, nil

	case "list_clients":
		summaries, err := d.sessions.ListClients(env.ClientID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command":       env.Command,
			"message":       "List of available clients",
			"clients":       summaries,
			"total_clients": len(summaries),
		}, nil

	case "leave_room":
		left, err := d.sessions.LeaveRoom(env.ClientID)
		if err != nil {
			return nil, err
		}
		message := "Not in any room"
		if left != "" {
			message = "Left the room '" + left + "'"
		}
		return map[string]interface{}{
			"command": env.Command,
			"message": message,
		}, nil

	case "heartbeat":
		if err := d.sessions.Heartbeat(env.ClientID); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command":       env.Command,
			"message":       "Heartbeat received",
			"client_status": "alive",
		}, nil

	case "disconnect":
		if err := d.sessions.Disconnect(env.ClientID); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"command": env.Command,
			"message": "Client " + env.ClientID + " disconnected and removed",
		}, nil
	}

	return d.unknownCommand(env.Command), nil
}

func (d *Dispatcher) unknownCommand(raw string) map[string]interface{} {
	d.logger.Debug("unknown command", "command", raw)
	return map[string]interface{}{
		"command":            raw,
		"message":            "Unknown command",
		"available_commands": availableCommands,
	}
}

// Status sweeps and reports the aggregate view of the three collections.
func (d *Dispatcher) Status() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sweeper.Sweep()
	now := time.Now()

	clients := d.store.Clients()
	rooms := d.store.Rooms()
	privates := d.store.PrivateMessages()

	online := 0
	for _, client := range clients {
		if client.Online(now, d.ttl.Client) {
			online++
		}
	}

	roomViews := make(map[string]interface{}, len(rooms))
	for name, room := range rooms {
		roomViews[name] = map[string]interface{}{
			"clients":       len(room.Clients),
			"messages":      len(room.Messages),
			"created_at":    room.CreatedAt,
			"last_activity": room.LastActivity,
		}
	}

	return map[string]interface{}{
		"shared_tier_available":  d.store.SharedTierAvailable(),
		"total_clients":          len(clients),
		"online_clients":         online,
		"total_rooms":            len(rooms),
		"total_private_messages": len(privates),
		"ttl_config": map[string]interface{}{
			"client_ttl_seconds":  int(d.ttl.Client.Seconds()),
			"room_ttl_seconds":    int(d.ttl.Room.Seconds()),
			"message_ttl_seconds": int(d.ttl.Message.Seconds()),
		},
		"rooms": roomViews,
	}
}
