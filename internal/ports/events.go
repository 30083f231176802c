package ports

// IEventSink receives live events for connected clients. The services publish
// through it so the websocket hub stays optional.
type IEventSink interface {
	PublishToClient(clientID string, event map[string]interface{})
}
