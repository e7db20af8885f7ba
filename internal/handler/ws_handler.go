package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/middleware"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/response"
	"github.com/apexlabs/ntamock-backend/internal/service"
	"github.com/apexlabs/ntamock-backend/internal/session"
	ws "github.com/apexlabs/ntamock-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation. An
// empty allow list permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live session to the student and accepts answer
// actions over the same socket.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/student/sessions/:id/stream?token=...
// Sends the current snapshot, then every state, tick, stage and completion
// event until the session closes or the client disconnects.
func (h *WSHandler) SessionStream(c *gin.Context) {
	studentID := middleware.SubjectID(c)
	sess, err := h.sessionService.Owned(studentID, c.Param("id"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close("bye")

	wsLog := h.log.With().
		Str("student_id", studentID).
		Str("session_id", sess.ID).
		Logger()
	wsLog.Info().Msg("Student connected")

	events, cancel := sess.Subscribe()
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go conn.KeepAlive(done)

	if err := conn.WriteTyped(session.Event{Kind: session.EventState, Snapshot: sess.Snapshot()}); err != nil {
		return
	}

	// Forward session events. The channel closes when the session closes.
	go func() {
		for ev := range events {
			if err := conn.WriteTyped(ev); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, stopping forwarder")
				raw.Close()
				return
			}
		}
		conn.Close("session closed")
	}()

	for {
		var req ws.Request
		if err := conn.ReadRequest(&req); err != nil {
			if ws.IsUnexpectedClose(err) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.dispatch(c.Request.Context(), conn, sess, &req)
	}
}

// dispatch applies one client message. State changes reach the client
// through the subscription; only failures are answered directly.
func (h *WSHandler) dispatch(ctx context.Context, conn *ws.Conn, sess *session.Session, req *ws.Request) {
	var err error

	switch req.Action {
	case ws.ActionPing:
		_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		return

	case ws.ActionSnapshot:
		_ = conn.WriteTyped(session.Event{Kind: session.EventState, Snapshot: sess.Snapshot()})
		return

	case ws.ActionAnswer:
		if req.Answer == nil || binding.Validator.ValidateStruct(req.Answer) != nil {
			writeWSError(conn, response.ErrValidation)
			return
		}
		_, err = h.sessionService.Act(sess.Student().ID, sess.ID, req.Answer)

	case ws.ActionNavigate:
		if req.Navigate == nil || binding.Validator.ValidateStruct(req.Navigate) != nil {
			writeWSError(conn, response.ErrValidation)
			return
		}
		_, err = h.sessionService.Navigate(sess.Student().ID, sess.ID, req.Navigate)

	case ws.ActionSubmit:
		if !sess.Submit(ctx, model.TriggerManual) {
			err = service.ErrAlreadySubmitting
		}

	default:
		writeWSError(conn, response.ErrInvalidPayload)
		return
	}

	if err != nil {
		_, code := classify(err)
		writeWSError(conn, code)
	}
}

func writeWSError(conn *ws.Conn, code response.ErrCode) {
	_ = conn.WriteError(string(code), response.GetMessage(code))
}
