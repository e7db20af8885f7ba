package websocket

import "github.com/apexlabs/ntamock-backend/internal/model"

// Client → server

// Action is the verb of a client message.
type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionSnapshot Action = "snapshot"
	ActionPing     Action = "ping"
)

// Request is any client message. Answer carries an answer action, Navigate
// a pointer move; both are validated with the same rules as the REST API.
type Request struct {
	Action   Action                 `json:"action"`
	Answer   *model.ActionRequest   `json:"answer,omitempty"`
	Navigate *model.NavigateRequest `json:"navigate,omitempty"`
}

// Server → client. Session updates are sent as session.Event values.

// Event labels a control message.
type Event string

const (
	EventError Event = "error"
	EventPong  Event = "pong"
)

// ErrorResponse reports a refused message. Code matches the REST error codes.
type ErrorResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Event Event `json:"event"`
}
