package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is the wire form of a record change.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Collection string          `json:"collection"`
	RecordID   int             `json:"record_id"`
	Record     json.RawMessage `json:"record,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// encodeMessage encodes a message to bytes.
func encodeMessage(msg *Message) ([]byte, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

// decodeMessage decodes bytes to a message.
func decodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}
