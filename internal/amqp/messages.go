package amqp

import (
	"encoding/json"
	"time"

	"saldo/internal/core"
)

// StateSavedMessage announces that a new version of the state blob was
// persisted. It carries counts only, never the data itself.
type StateSavedMessage struct {
	Version            int64     `json:"version"`
	Transactions       int       `json:"transactions"`
	RecurringTemplates int       `json:"recurring_templates"`
	Categories         int       `json:"categories"`
	Timestamp          time.Time `json:"timestamp"`
}

func NewStateSavedMessage(version int64, snap core.Snapshot) *StateSavedMessage {
	return &StateSavedMessage{
		Version:            version,
		Transactions:       len(snap.Transactions),
		RecurringTemplates: len(snap.RecurringTemplates),
		Categories:         len(snap.Categories),
		Timestamp:          time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StateSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func StateSavedMessageFromJSON(data []byte) (*StateSavedMessage, error) {
	var msg StateSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
