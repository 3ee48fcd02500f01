package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Change operations carried by a RecordChange.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
	ChangeCleared = "cleared"
)

// RecordChange announces that a ledger collection changed. It carries only
// the kind and id; consumers read the record itself from the store.
type RecordChange struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id,omitempty"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordChange stamps a change with the current time.
func NewRecordChange(kind, id, operation string) RecordChange {
	return RecordChange{
		Kind:      kind,
		ID:        id,
		Operation: operation,
		Timestamp: time.Now().UTC(),
	}
}

func (m RecordChange) Validate() error {
	if m.Kind == "" {
		return errors.New("record change without kind")
	}
	switch m.Operation {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
		if m.ID == "" {
			return errors.New("record change without id")
		}
	case ChangeCleared:
	default:
		return errors.New("unknown record change operation " + m.Operation)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m RecordChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeFromJSON decodes and validates a message body.
func RecordChangeFromJSON(data []byte) (RecordChange, error) {
	var msg RecordChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return RecordChange{}, err
	}
	if err := msg.Validate(); err != nil {
		return RecordChange{}, err
	}
	return msg, nil
}
