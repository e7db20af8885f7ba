package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/session"
)

const metricsInterval = 7 * time.Second

// QueueDepther reports how many results wait to be persisted.
type QueueDepther interface {
	Depth(ctx context.Context) (int64, error)
}

// SessionLister lists live sessions.
type SessionLister interface {
	List() []session.Overview
}

// SystemHandler streams process and pipeline metrics via SSE.
type SystemHandler struct {
	queue     QueueDepther
	sessions  SessionLister
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(queue QueueDepther, sessions SessionLister, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		queue:     queue,
		sessions:  sessions,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`
	StartedAt int64  `json:"started_at"`

	Goroutines  int    `json:"goroutines"`
	HeapAlloc   uint64 `json:"heap_alloc"`
	HeapSys     uint64 `json:"heap_sys"`
	NumGC       uint32 `json:"num_gc"`
	AppRSSBytes uint64 `json:"app_rss_bytes"`
	GoVersion   string `json:"go_version"`
	NumCPU      int    `json:"num_cpu"`

	LiveSessions int            `json:"live_sessions"`
	Submitting   map[string]int `json:"submitting"`
	QueueResults int64          `json:"queue_results"`
}

// SystemMetricsSSE godoc
// GET /api/v1/admin/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Admin connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	h.writeMetrics(c, h.collect(reqCtx))

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Admin disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c, h.collect(reqCtx))
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context, m systemMetrics) {
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.Writer.WriteString("data: ")
	c.Writer.Write(data)
	c.Writer.WriteString("\n\n")
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	m := systemMetrics{
		Timestamp:  time.Now().Unix(),
		StartedAt:  h.startTime.Unix(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		Submitting: map[string]int{},
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.HeapAlloc = ms.HeapAlloc
	m.HeapSys = ms.Sys
	m.NumGC = ms.NumGC
	m.AppRSSBytes, _ = readProcessRSS()

	for _, ov := range h.sessions.List() {
		if ov.View != model.ViewTestInterface {
			continue
		}
		m.LiveSessions++
		if ov.Stage != model.StageIdle {
			m.Submitting[string(ov.Stage)]++
		}
	}

	qctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if depth, err := h.queue.Depth(qctx); err == nil {
		m.QueueResults = depth
	} else {
		h.log.Debug().Err(err).Msg("Queue depth unavailable")
	}
	return m
}

// readProcessRSS reads VmRSS from /proc/self/status.
func readProcessRSS() (uint64, error) {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	return 0, fmt.Errorf("VmRSS not found")
}
