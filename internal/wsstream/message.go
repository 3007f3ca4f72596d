// Package wsstream streams StageEvent progress notifications (stage
// started/finished, retry, error) for a running solving session to a
// connected benchmark dashboard, the Go analogue of the teacher's
// workflow-execution WebSocket observer.
package wsstream

import "time"

// Event types (server -> client), one per stage transition a dashboard
// cares about.
const (
	EventStageStarted  = "stage.started"
	EventStageFinished = "stage.finished"
	EventStageRetrying = "stage.retrying"
	EventSessionFailed = "session.failed"
	EventSessionSolved = "session.solved"
)

// Command types (client -> server).
const (
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
)

// StageEvent is a single progress notification for one solving session.
type StageEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`

	Stage         string `json:"stage,omitempty"`
	AttemptNumber int    `json:"attempt_number,omitempty"`
	Error         string `json:"error,omitempty"`
	DurationMs    int64  `json:"duration_ms,omitempty"`
}

// NewStageEvent constructs a StageEvent stamped with the current time.
func NewStageEvent(eventType, sessionID string) *StageEvent {
	return &StageEvent{Type: eventType, Timestamp: time.Now(), SessionID: sessionID}
}

// Command represents a subscription command sent by a connected client.
type Command struct {
	Action    string `json:"action"`
	SessionID string `json:"session_id"`
}

// Response is a reply to a client Command.
type Response struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newSuccessResponse(responseType, message string) *Response {
	return &Response{Type: responseType, Success: true, Message: message}
}

func newErrorResponse(responseType, errorMsg string) *Response {
	return &Response{Type: responseType, Success: false, Error: errorMsg}
}
