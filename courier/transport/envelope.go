package transport

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Envelope is the wire wrapper out-of-process adapters put around a
// message. Message IDs are ULIDs so a queue's contents sort by send time.
type Envelope struct {
	MessageID string          `json:"messageId"`
	Address   string          `json:"address,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Headers   Headers         `json:"headers,omitempty"`
	SentAt    time.Time       `json:"sentAt"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a message for transmission.
func NewEnvelope(address, kind string, headers Headers, message any) (Envelope, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		MessageID: ulid.Make().String(),
		Address:   address,
		Kind:      kind,
		Headers:   headers,
		SentAt:    time.Now().UTC(),
		Payload:   payload,
	}, nil
}
