package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/engine"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/response"
	"github.com/apexlabs/ntamock-backend/internal/service"
	"github.com/apexlabs/ntamock-backend/internal/session"
	"github.com/apexlabs/ntamock-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"unknown roll", service.ErrRollNumberNotFound, http.StatusNotFound, response.ErrRollNumberNotFound},
		{"wrapped lock", fmt.Errorf("act: %w", session.ErrSessionLocked), http.StatusConflict, response.ErrSessionLocked},
		{"double submit", service.ErrAlreadySubmitting, http.StatusConflict, response.ErrAlreadySubmitting},
		{"bad option", engine.ErrInvalidOption, http.StatusBadRequest, response.ErrInvalidAction},
		{"other owner", session.ErrNotOwner, http.StatusForbidden, response.ErrNotSessionOwner},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classify(tt.err)
			if status != tt.status || code != tt.code {
				t.Errorf("classify() = %d %s, want %d %s", status, code, tt.status, tt.code)
			}
		})
	}
}

func TestBindJSONReportsFields(t *testing.T) {
	r := gin.New()
	r.POST("/nav", func(c *gin.Context) {
		var req model.NavigateRequest
		if !bindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"valid", `{"direction":"jump","index":3}`, http.StatusNoContent, ""},
		{"bad direction", `{"direction":"sideways"}`, http.StatusBadRequest, "direction"},
		{"missing direction", `{"index":1}`, http.StatusBadRequest, "direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/nav", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.field == "" {
				return
			}
			var body response.Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error == nil || body.Error.Code != response.ErrValidation {
				t.Fatalf("error = %+v", body.Error)
			}
			if _, ok := body.Error.Fields[tt.field]; !ok {
				t.Errorf("fields %v missing %q", body.Error.Fields, tt.field)
			}
		})
	}
}

type fixedDepth struct {
	n   int64
	err error
}

func (f fixedDepth) Depth(context.Context) (int64, error) { return f.n, f.err }

type fixedSessions []session.Overview

func (f fixedSessions) List() []session.Overview { return f }

func TestSystemCollect(t *testing.T) {
	sessions := fixedSessions{
		{SessionID: "a", View: model.ViewTestInterface, Stage: model.StageIdle},
		{SessionID: "b", View: model.ViewTestInterface, Stage: model.StageSyncing},
		{SessionID: "c", View: model.ViewResultSummary, Stage: model.StageIdle},
	}

	h := NewSystemHandler(fixedDepth{n: 7}, sessions, zerolog.Nop())
	m := h.collect(t.Context())

	if m.LiveSessions != 2 {
		t.Errorf("LiveSessions = %d, want 2", m.LiveSessions)
	}
	if m.Submitting[string(model.StageSyncing)] != 1 || len(m.Submitting) != 1 {
		t.Errorf("Submitting = %v", m.Submitting)
	}
	if m.QueueResults != 7 {
		t.Errorf("QueueResults = %d, want 7", m.QueueResults)
	}

	h = NewSystemHandler(fixedDepth{err: errors.New("redis down")}, fixedSessions{}, zerolog.Nop())
	if m := h.collect(t.Context()); m.QueueResults != 0 {
		t.Errorf("QueueResults on error = %d", m.QueueResults)
	}
}
