package models

import "time"

// PrivateMessage is a directed message between two clients. The signature is
// stored and returned verbatim; the server never verifies it.
type PrivateMessage struct {
	ID         string    `json:"id"`
	FromClient string    `json:"from_client"`
	ToClient   string    `json:"to_client"`
	Text       string    `json:"text"`
	Signature  string    `json:"signature,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
}
