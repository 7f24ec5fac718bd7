// Package protocol defines the JSON messages of the progress stream.
package protocol

import "midiautomate/internal/automate"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeProgress carries one line of operator-facing progress text
	TypeProgress MessageType = "progress"

	// TypeState is sent when the runner changes state, and to every new client
	TypeState MessageType = "state"

	// TypeOutcome is sent once when a run ends
	TypeOutcome MessageType = "outcome"

	// TypeAbort is sent by a client to abort the current run
	TypeAbort MessageType = "abort"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ProgressPayload is the payload for TypeProgress
type ProgressPayload struct {
	Text string `json:"text"`
}

// StatePayload is the payload for TypeState and the body of GET /api/status
type StatePayload struct {
	State string `json:"state"`
	Total int    `json:"total"`
	Last  string `json:"last,omitempty"`
	// Outcome is the result of the previous run, if any
	Outcome *OutcomePayload `json:"outcome,omitempty"`
}

// OutcomePayload is the payload for TypeOutcome
type OutcomePayload struct {
	Status         string  `json:"status"`
	Reason         string  `json:"reason,omitempty"`
	Rows           int     `json:"rows"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	AverageSeconds float64 `json:"average_seconds"`
}

// NewOutcome converts a run outcome for the wire.
func NewOutcome(out automate.Outcome) *OutcomePayload {
	return &OutcomePayload{
		Status:         out.Status.String(),
		Reason:         out.Reason,
		Rows:           out.Rows,
		ElapsedSeconds: out.Elapsed.Seconds(),
		AverageSeconds: out.Average().Seconds(),
	}
}
