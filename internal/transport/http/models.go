package httptransport

import (
	"encoding/json"

	"identhub/internal/domain"
	"identhub/internal/flow"
)

type startRequest struct {
	SessionURL string `json:"session_url"`
}

type startResponse struct {
	SessionID string     `json:"session_id"`
	Token     string     `json:"token"`
	Screen    *flow.View `json:"screen,omitempty"`
}

type eventRequest struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const resultPending = "pending"

type resultError struct {
	Kind    domain.ErrorKind    `json:"kind"`
	Status  int                 `json:"status,omitempty"`
	Modules []string            `json:"modules,omitempty"`
	Detail  *domain.ErrorDetail `json:"detail,omitempty"`
}

type resultResponse struct {
	Result         string                 `json:"result"`
	Identification *domain.Identification `json:"identification,omitempty"`
	Error          *resultError           `json:"error,omitempty"`
}

func toResultResponse(r domain.SessionResult) resultResponse {
	resp := resultResponse{Result: r.Kind.String(), Identification: r.Identification}
	if r.Err != nil {
		resp.Error = &resultError{
			Kind:    r.Err.Kind,
			Status:  r.Err.Status,
			Modules: r.Err.Modules,
			Detail:  r.Err.Detail,
		}
	}
	return resp
}

// Stream message types.
const (
	messageView   = "view"
	messageError  = "error"
	messageResult = "result"
	messagePong   = "pong"
	messageEvent  = "event"
	messagePing   = "ping"
)

type clientMessage struct {
	Type    string          `json:"type"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type serverMessage struct {
	Type             string          `json:"type"`
	View             *flow.View      `json:"view,omitempty"`
	Result           *resultResponse `json:"result,omitempty"`
	Error            string          `json:"error,omitempty"`
	ErrorDescription string          `json:"error_description,omitempty"`
}
