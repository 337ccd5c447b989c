package amqp

import (
	"testing"
	"time"
)

func TestNewChangeEvent(t *testing.T) {
	msg := NewChangeEvent("expenses", "update", "abc-123")

	if msg.Collection != "expenses" {
		t.Errorf("Collection = %v, want expenses", msg.Collection)
	}
	if msg.Op != "update" {
		t.Errorf("Op = %v, want update", msg.Op)
	}
	if msg.ID != "abc-123" {
		t.Errorf("ID = %v, want abc-123", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestChangeEvent_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ChangeEvent{
		Collection: "duo_banks",
		Op:         "create",
		ID:         "goal-1",
		Timestamp:  timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ChangeEventFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ChangeEventFromJSON() error = %v", err)
	}

	if parsed.Collection != msg.Collection {
		t.Errorf("Parsed Collection = %v, want %v", parsed.Collection, msg.Collection)
	}
	if parsed.Op != msg.Op {
		t.Errorf("Parsed Op = %v, want %v", parsed.Op, msg.Op)
	}
	if parsed.ID != msg.ID {
		t.Errorf("Parsed ID = %v, want %v", parsed.ID, msg.ID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestChangeEvent_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"collection": 42}`)

	if _, err := ChangeEventFromJSON(invalidJSON); err == nil {
		t.Error("ChangeEventFromJSON() should fail with invalid JSON")
	}
}
