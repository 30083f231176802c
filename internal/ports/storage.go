package ports

import "github.com/Nick-Maro/DockerChat/internal/models"

// IEntityStore is the dual-tier store for the three persisted collections.
// Reads never fail visibly; writes are best effort against the shared tier
// and authoritative against the local mirror.
type IEntityStore interface {
	Clients() map[string]models.Client
	PutClients(clients map[string]models.Client)

	Rooms() map[string]models.Room
	PutRooms(rooms map[string]models.Room)

	PrivateMessages() map[string]models.PrivateMessage
	PutPrivateMessages(msgs map[string]models.PrivateMessage)

	SharedTierAvailable() bool
}

// IBlobTier is one serialized-blob-per-key backend, the shape of the shared
// tier. Get returns "" with a nil error when the key is absent.
type IBlobTier interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Ping() error
}
