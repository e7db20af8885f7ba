package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/response"
	"github.com/apexlabs/ntamock-backend/internal/service"
	"github.com/apexlabs/ntamock-backend/internal/store"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second
)

// ChangeSubscriber is the read side of the change feed.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, collection store.Collection, fn func(store.Change)) (*store.Subscription, error)
}

// MonitorHandler serves the admin results board and live session list.
type MonitorHandler struct {
	feed           ChangeSubscriber
	resultService  *service.ResultService
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	feed ChangeSubscriber,
	resultService *service.ResultService,
	sessionService *service.SessionService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		feed:           feed,
		resultService:  resultService,
		sessionService: sessionService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// ListResults godoc
// GET /api/v1/admin/results[?exam_id=]
// Results newest first.
func (h *MonitorHandler) ListResults(c *gin.Context) {
	results, err := h.resultService.List(c.Request.Context(), c.Query("exam_id"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ListSessions godoc
// GET /api/v1/admin/sessions
// Live sessions with palette counts and running score.
func (h *MonitorHandler) ListSessions(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"sessions": h.sessionService.List()})
}

// ResultsStream godoc
// GET /api/v1/admin/results/stream[?exam_id=]
// Server-sent events: a snapshot first, then every new result as it is
// stored, plus a periodic refresh of live sessions.
func (h *MonitorHandler) ResultsStream(c *gin.Context) {
	reqCtx := c.Request.Context()
	examID := c.Query("exam_id")

	results, err := h.resultService.List(reqCtx, examID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	changes := make(chan store.Change, 32)
	sub, err := h.feed.Subscribe(reqCtx, store.Results, func(ch store.Change) {
		select {
		case changes <- ch:
		default:
			h.log.Warn().Str("result_id", ch.ID).Msg("Results stream lagging, dropping change")
		}
	})
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.writeEvent(c, "snapshot", gin.H{
		"results":  results,
		"sessions": h.sessionService.List(),
	})

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	h.log.Info().Str("exam_id", examID).Msg("Admin attached to results stream")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Admin detached from results stream")
			return

		case ch := <-changes:
			h.sendResult(c, reqCtx, ch.ID, examID)

		case <-refresh.C:
			h.writeEvent(c, "sessions", h.sessionService.List())

		case <-keepAlive.C:
			h.writeEvent(c, "ping", gin.H{})
		}
	}
}

func (h *MonitorHandler) sendResult(c *gin.Context, parent context.Context, id, examID string) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	res, err := h.resultService.Get(ctx, id)
	if err != nil {
		h.log.Warn().Err(err).Str("result_id", id).Msg("Failed to load announced result")
		return
	}
	if examID != "" && res.ExamID != examID {
		return
	}
	h.writeEvent(c, "result", res)
}

func (h *MonitorHandler) writeEvent(c *gin.Context, name string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	c.Writer.WriteString("event: " + name + "\ndata: ")
	c.Writer.Write(payload)
	c.Writer.WriteString("\n\n")
	c.Writer.Flush()
}
