package amqp

import (
	"encoding/json"
	"time"
)

// UserPurgeMessage asks the worker to remove every record left behind
// by a deprovisioned user. It carries only the external identifier; the
// worker deletes whatever exists at processing time.
type UserPurgeMessage struct {
	ExternalID string    `json:"externalId"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewUserPurgeMessage creates a purge message for the given owner
func NewUserPurgeMessage(externalID string) *UserPurgeMessage {
	return &UserPurgeMessage{
		ExternalID: externalID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *UserPurgeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// UserPurgeMessageFromJSON creates a message from JSON bytes
func UserPurgeMessageFromJSON(data []byte) (*UserPurgeMessage, error) {
	var msg UserPurgeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
