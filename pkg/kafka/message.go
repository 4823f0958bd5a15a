package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a produced event with its metadata.
type Message struct {
	Key       string            // Partition key (car id), keeps per-car ordering
	Value     []byte            // JSON-encoded payload
	Headers   map[string]string // Message headers
	Timestamp time.Time
}

// Header keys shared by every event on the vehicle stream.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
	HeaderTimestamp = "timestamp"
)

// NewEventMessage builds a message for the vehicle event stream. The value
// is JSON-encoded and a fresh event id is attached.
func NewEventMessage(eventType, key, source string, value any) (Message, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode event payload: %w", err)
	}

	now := time.Now().UTC()
	return Message{
		Key:   key,
		Value: data,
		Headers: map[string]string{
			HeaderEventID:   uuid.NewString(),
			HeaderEventType: eventType,
			HeaderSource:    source,
			HeaderTimestamp: now.Format(time.RFC3339),
		},
		Timestamp: now,
	}, nil
}
