package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/metrics"
	"github.com/apexlabs/ntamock-backend/internal/model"
)

const systemPrompt = "You are a specialized exam generator. Always output valid JSON."

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	cfg        Config
	log        zerolog.Logger
}

// NewClient creates a Client, filling unset config with defaults.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MCQPerSubject <= 0 {
		cfg.MCQPerSubject = 20
	}
	if cfg.NATPerSubject <= 0 {
		cfg.NATPerSubject = 10
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        log.With().Str("component", "question_generator").Logger(),
	}
}

// IsAvailable reports whether an API key is configured.
func (c *Client) IsAvailable() bool {
	return c.cfg.APIKey != ""
}

// Generate asks for each subject in turn and numbers the questions
// sequentially across subjects. A subject whose reply cannot be parsed
// contributes no questions; the draft fails only if nothing was usable.
func (c *Client) Generate(ctx context.Context, req Request) (*Draft, error) {
	if !c.IsAvailable() {
		return nil, ErrNotConfigured
	}
	if len(req.Subjects) == 0 {
		return nil, ErrNoSubjects
	}
	if req.MCQPerSubject <= 0 {
		req.MCQPerSubject = c.cfg.MCQPerSubject
	}
	if req.NATPerSubject <= 0 {
		req.NATPerSubject = c.cfg.NATPerSubject
	}

	started := time.Now()
	defer func() { metrics.GeneratorDuration.Observe(time.Since(started).Seconds()) }()

	draft := &Draft{Subjects: req.Subjects}
	nextID := 1

	for _, sub := range req.Subjects {
		content, err := c.complete(ctx, buildPrompt(sub, req.MCQPerSubject, req.NATPerSubject))
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", sub, err)
		}

		payload, err := decodePayload(content)
		if err != nil {
			c.log.Warn().Err(err).Str("subject", string(sub)).Msg("Unparseable generator reply, skipping subject")
			continue
		}

		questions, skipped := payload.toQuestions(sub, &nextID)
		draft.Questions = append(draft.Questions, questions...)
		draft.Skipped += skipped

		c.log.Info().
			Str("subject", string(sub)).
			Int("questions", len(questions)).
			Int("skipped", skipped).
			Msg("Subject generated")
	}

	if len(draft.Questions) == 0 {
		return nil, ErrEmptyDraft
	}
	return draft, nil
}

// complete sends one prompt, retrying 429 responses with doubling backoff.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	delay := c.cfg.Backoff
	for attempt := 0; ; attempt++ {
		status, respBody, err := c.post(ctx, body)
		if err != nil {
			metrics.GeneratorRequests.WithLabelValues("error").Inc()
			return "", err
		}

		if status == http.StatusTooManyRequests {
			metrics.GeneratorRequests.WithLabelValues("rate_limited").Inc()
			if attempt >= c.cfg.MaxRetries {
				return "", ErrRateLimited
			}
			c.log.Warn().Int("attempt", attempt+1).Dur("backoff", delay).Msg("Generator rate limited, backing off")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
			continue
		}

		var chat chatResponse
		decodeErr := json.Unmarshal(respBody, &chat)

		if status != http.StatusOK {
			metrics.GeneratorRequests.WithLabelValues("error").Inc()
			if decodeErr == nil && chat.Error != nil && chat.Error.Message != "" {
				return "", fmt.Errorf("%w: %s", ErrUpstream, chat.Error.Message)
			}
			return "", fmt.Errorf("%w: status %d", ErrUpstream, status)
		}
		if decodeErr != nil {
			metrics.GeneratorRequests.WithLabelValues("error").Inc()
			return "", fmt.Errorf("%w: parse response: %v", ErrUpstream, decodeErr)
		}
		if chat.Error != nil {
			metrics.GeneratorRequests.WithLabelValues("error").Inc()
			return "", fmt.Errorf("%w: %s", ErrUpstream, chat.Error.Message)
		}
		if len(chat.Choices) == 0 {
			metrics.GeneratorRequests.WithLabelValues("error").Inc()
			return "", fmt.Errorf("%w: empty choices", ErrUpstream)
		}

		metrics.GeneratorRequests.WithLabelValues("ok").Inc()
		return chat.Choices[0].Message.Content, nil
	}
}

func (c *Client) post(ctx context.Context, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func buildPrompt(sub model.Subject, mcqs, nats int) string {
	return fmt.Sprintf(`Act as a subject matter expert for the NTA JEE Main examination.
Write exactly %[1]d questions for the subject: %[2]s.

PATTERN:
- SECTION A: %[3]d multiple choice questions with a single correct option.
- SECTION B: %[4]d numerical answer type questions.

FORMATTING:
- Use LaTeX for all mathematical symbols, units and equations ($ for inline, $$ for block).
- Difficulty mix: 20%% EASY, 60%% MEDIUM, 20%% HARD.
- Output strictly JSON.

JSON SCHEMA:
{
  "mcqs": [{"text": "...", "options": ["...", "...", "...", "..."], "correctAnswer": "0-3", "difficulty": "EASY|MEDIUM|HARD"}],
  "nats": [{"text": "...", "correctAnswer": "numerical_value", "difficulty": "EASY|MEDIUM|HARD"}]
}`, mcqs+nats, sub, mcqs, nats)
}
