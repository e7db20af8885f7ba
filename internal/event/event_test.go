package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

func TestDisabledPublisherDropsEvents(t *testing.T) {
	p, err := NewAMQPPublisher("", "mocktest.events", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAMQPPublisher: %v", err)
	}
	if p.Enabled() {
		t.Fatal("publisher without URL should be disabled")
	}
	if err := p.PublishResult(context.Background(), &model.Result{ID: "r1"}); err != nil {
		t.Errorf("PublishResult = %v, want nil", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestResultRecordedShape(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := NewResultRecorded(&model.Result{
		ID: "r1", StudentID: "s1", ExamID: "e1", Score: 8, TotalQuestions: 3, Timestamp: at,
	})

	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["event_type"] != string(TypeResultRecorded) {
		t.Errorf("event_type = %v", got["event_type"])
	}
	if got["score"] != float64(8) {
		t.Errorf("score = %v, want 8", got["score"])
	}
}
