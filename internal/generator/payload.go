package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

var errNoJSONObject = errors.New("no JSON object in reply")

type aiPayload struct {
	MCQs []json.RawMessage `json:"mcqs"`
	NATs []json.RawMessage `json:"nats"`
}

type aiQuestion struct {
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	CorrectAnswer flexString `json:"correctAnswer"`
	Difficulty    string     `json:"difficulty"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("correctAnswer: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// cleanJSONContent strips markdown code fences around a reply.
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// decodePayload parses a reply, falling back to the outermost {...} span
// when the model wrapped the object in prose.
func decodePayload(content string) (*aiPayload, error) {
	content = cleanJSONContent(content)

	var p aiPayload
	if err := json.Unmarshal([]byte(content), &p); err == nil {
		return &p, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, errNoJSONObject
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &p, nil
}

// toQuestions converts valid items and counts the rest as skipped.
func (p *aiPayload) toQuestions(sub model.Subject, nextID *int) ([]model.Question, int) {
	out := make([]model.Question, 0, len(p.MCQs)+len(p.NATs))
	skipped := 0

	add := func(raw json.RawMessage, typ model.QuestionType, section model.Section) {
		var item aiQuestion
		if err := json.Unmarshal(raw, &item); err != nil {
			skipped++
			return
		}

		q := model.Question{
			ID:            *nextID,
			Subject:       sub,
			Type:          typ,
			Difficulty:    normalizeDifficulty(item.Difficulty),
			Section:       section,
			Text:          strings.TrimSpace(item.Text),
			CorrectAnswer: string(item.CorrectAnswer),
		}
		if typ == model.QuestionTypeMCQ {
			q.Options = item.Options
			q.CorrectAnswer = normalizeOptionKey(q.CorrectAnswer)
		} else if _, err := strconv.ParseFloat(q.CorrectAnswer, 64); err != nil {
			skipped++
			return
		}

		if err := q.Validate(); err != nil {
			skipped++
			return
		}
		*nextID++
		out = append(out, q)
	}

	for _, raw := range p.MCQs {
		add(raw, model.QuestionTypeMCQ, model.SectionA)
	}
	for _, raw := range p.NATs {
		add(raw, model.QuestionTypeNAT, model.SectionB)
	}
	return out, skipped
}

func normalizeDifficulty(raw string) model.Difficulty {
	switch d := model.Difficulty(strings.ToUpper(strings.TrimSpace(raw))); d {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
		return d
	}
	return model.DifficultyMedium
}

// normalizeOptionKey maps letter keys (A-D) onto option indexes.
func normalizeOptionKey(key string) string {
	if len(key) == 1 {
		if c := strings.ToUpper(key)[0]; c >= 'A' && c <= 'D' {
			return strconv.Itoa(int(c - 'A'))
		}
	}
	return key
}
