package audit

import "time"

// Event records one flow transition or terminal result. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	Coordinator string    `json:"coordinator"`
	Action      string    `json:"action"`
	Step        string    `json:"step,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// Actions emitted by the flows.
const (
	ActionSessionStarted  = "session_started"
	ActionSessionRejected = "session_rejected"
	ActionStepEntered     = "step_entered"
	ActionErrorRouted     = "error_routed"
	ActionSessionFinished = "session_finished"
)
