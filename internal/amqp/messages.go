package amqp

import (
	"encoding/json"
	"time"
)

// ChangeEvent announces that a record in a collection was written. It carries
// only the coordinates; consumers fetch the current state from the store, so
// a stale or duplicated event is harmless.
type ChangeEvent struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeEvent(collection, op, id string) *ChangeEvent {
	return &ChangeEvent{
		Collection: collection,
		Op:         op,
		ID:         id,
		Timestamp:  time.Now(),
	}
}

func (m *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var msg ChangeEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
