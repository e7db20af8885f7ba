package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

func chatReply(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

const fencedReply = "```json\n" + `{
  "mcqs": [
    {"text": "Find $x$", "options": ["1","2","3","4"], "correctAnswer": "2", "difficulty": "easy"},
    {"text": "Three options only", "options": ["1","2","3"], "correctAnswer": "0", "difficulty": "HARD"},
    {"text": "Letter key", "options": ["a","b","c","d"], "correctAnswer": "B", "difficulty": "MEDIUM"}
  ],
  "nats": [
    {"text": "Compute $\\pi$", "correctAnswer": 3.14, "difficulty": "HARD"},
    {"text": "Not numeric", "correctAnswer": "about five"}
  ]
}` + "\n```"

func newTestClient(url string) *Client {
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "test-model",
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	}, zerolog.Nop())
}

func TestGenerateAssignsSequentialIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write(chatReply(t, fencedReply))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	draft, err := c.Generate(context.Background(), Request{
		Subjects: []model.Subject{model.SubjectPhysics, model.SubjectMathematics},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(draft.Questions) != 6 {
		t.Fatalf("got %d questions, want 6", len(draft.Questions))
	}
	if draft.Skipped != 4 {
		t.Errorf("skipped = %d, want 4", draft.Skipped)
	}
	for i, q := range draft.Questions {
		if q.ID != i+1 {
			t.Errorf("question %d has id %d", i, q.ID)
		}
		if err := q.Validate(); err != nil {
			t.Errorf("invalid question: %v", err)
		}
	}

	first := draft.Questions[0]
	if first.Subject != model.SubjectPhysics || first.Section != model.SectionA || first.Difficulty != model.DifficultyEasy {
		t.Errorf("unexpected first question %+v", first)
	}
	if draft.Questions[1].CorrectAnswer != "1" {
		t.Errorf("letter key mapped to %q", draft.Questions[1].CorrectAnswer)
	}
	natQ := draft.Questions[2]
	if natQ.Type != model.QuestionTypeNAT || natQ.Section != model.SectionB || natQ.CorrectAnswer != "3.14" {
		t.Errorf("unexpected NAT %+v", natQ)
	}
	if draft.Questions[3].Subject != model.SubjectMathematics {
		t.Errorf("subject order not kept")
	}
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		wantCalls int32
		wantErr   error
	}{
		{"recovers after two 429s", 2, 3, nil},
		{"gives up after retries", 100, 4, ErrRateLimited},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tc.failures {
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.Write(chatReply(t, fencedReply))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Generate(context.Background(), Request{
				Subjects: []model.Subject{model.SubjectChemistry},
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if calls.Load() != tc.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tc.wantCalls)
			}
		})
	}
}

func TestGenerateToleratesMalformedReplies(t *testing.T) {
	replies := []string{
		"I cannot comply.",
		`Sure! Here it is: {"mcqs": [{"text": "ok", "options": ["a","b","c","d"], "correctAnswer": "3"}]} Hope that helps.`,
	}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := calls.Add(1) - 1
		w.Write(chatReply(t, replies[i]))
	}))
	defer srv.Close()

	draft, err := newTestClient(srv.URL).Generate(context.Background(), Request{
		Subjects: []model.Subject{model.SubjectPhysics, model.SubjectChemistry},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(draft.Questions) != 1 || draft.Questions[0].ID != 1 || draft.Questions[0].Subject != model.SubjectChemistry {
		t.Errorf("unexpected draft %+v", draft.Questions)
	}
	if draft.Questions[0].Difficulty != model.DifficultyMedium {
		t.Errorf("missing difficulty defaulted to %s", draft.Questions[0].Difficulty)
	}
}

func TestGenerateEmptyDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply(t, `{"mcqs": [], "nats": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), Request{
		Subjects: []model.Subject{model.SubjectPhysics},
	})
	if !errors.Is(err, ErrEmptyDraft) {
		t.Errorf("err = %v, want ErrEmptyDraft", err)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), Request{
		Subjects: []model.Subject{model.SubjectPhysics},
	})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	c := NewClient(Config{}, zerolog.Nop())
	if c.IsAvailable() {
		t.Fatal("client without key reports available")
	}
	if _, err := c.Generate(context.Background(), Request{Subjects: []model.Subject{model.SubjectPhysics}}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestResolveSubjects(t *testing.T) {
	tests := []struct {
		name    string
		paper   PaperType
		input   []string
		want    int
		wantErr error
	}{
		{"default paper 1", Paper1, nil, 3, nil},
		{"default paper 2", Paper2, nil, 3, nil},
		{"subset with duplicate", Paper1, []string{"Physics", "Physics"}, 1, nil},
		{"wrong paper", Paper1, []string{"Aptitude"}, 0, ErrSubjectNotInPaper},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveSubjects(tc.paper, tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if len(got) != tc.want {
				t.Errorf("got %d subjects, want %d", len(got), tc.want)
			}
		})
	}
}
