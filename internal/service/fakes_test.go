package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/apexlabs/ntamock-backend/internal/generator"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/repository"
)

type memExams struct {
	mu    sync.Mutex
	exams map[string]*model.Exam
	reads int
}

func newMemExams(exams ...*model.Exam) *memExams {
	m := &memExams{exams: make(map[string]*model.Exam)}
	for _, e := range exams {
		m.exams[e.ID] = e
	}
	return m
}

func (m *memExams) Upsert(_ context.Context, e *model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.exams[e.ID] = e
	return nil
}

func (m *memExams) GetByID(_ context.Context, id string) (*model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	e, ok := m.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (m *memExams) Latest(ctx context.Context) (*model.Exam, error) {
	all, _ := m.List(ctx)
	if len(all) == 0 {
		return nil, repository.ErrNotFound
	}
	return &all[0], nil
}

func (m *memExams) List(context.Context) ([]model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Exam, 0, len(m.exams))
	for _, e := range m.exams {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memExams) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.exams, id)
	return nil
}

type memCache struct {
	mu       sync.Mutex
	defs     map[string]*model.Exam
	payloads map[string]*model.ExamPayload
}

func newMemCache() *memCache {
	return &memCache{defs: map[string]*model.Exam{}, payloads: map[string]*model.ExamPayload{}}
}

func (c *memCache) Put(_ context.Context, e *model.Exam, p *model.ExamPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[e.ID] = e
	c.payloads[e.ID] = p
	return nil
}

func (c *memCache) Definition(_ context.Context, id string) (*model.Exam, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.defs[id]; ok {
		return e, nil
	}
	return nil, ErrCacheMiss
}

func (c *memCache) Payload(_ context.Context, id string) (*model.ExamPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.payloads[id]; ok {
		return p, nil
	}
	return nil, ErrCacheMiss
}

func (c *memCache) Evict(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.defs, id)
	delete(c.payloads, id)
	return nil
}

type memStudents struct {
	mu       sync.Mutex
	students map[string]*model.Student
}

func newMemStudents(students ...*model.Student) *memStudents {
	m := &memStudents{students: make(map[string]*model.Student)}
	for _, s := range students {
		m.students[s.ID] = s
	}
	return m
}

func (m *memStudents) Upsert(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.students {
		if id != s.ID && other.RollNumber == s.RollNumber {
			return repository.ErrDuplicateRollNumber
		}
	}
	m.students[s.ID] = s
	return nil
}

func (m *memStudents) GetByID(_ context.Context, id string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memStudents) GetByRollNumber(_ context.Context, roll string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.RollNumber == roll {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStudents) List(context.Context) ([]model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memStudents) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.students, id)
	return nil
}

type nopEvents struct{ saved int }

func (*nopEvents) PublishResult(context.Context, *model.Result) error { return nil }
func (e *nopEvents) PublishExamSaved(context.Context, *model.Exam) error {
	e.saved++
	return nil
}

type stubProvider struct {
	available bool
	draft     *generator.Draft
	err       error
	got       generator.Request
}

func (p *stubProvider) IsAvailable() bool { return p.available }

func (p *stubProvider) Generate(_ context.Context, req generator.Request) (*generator.Draft, error) {
	p.got = req
	return p.draft, p.err
}

func sampleExam(id string, created time.Time) *model.Exam {
	return &model.Exam{
		ID:              id,
		Name:            "Mock " + id,
		DurationMinutes: 180,
		CreatedAt:       created,
		Questions: []model.Question{
			{ID: 1, Subject: model.SubjectPhysics, Type: model.QuestionTypeMCQ, Difficulty: model.DifficultyEasy,
				Section: model.SectionA, Text: "Force is $F = ma$", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "2"},
			{ID: 2, Subject: model.SubjectMathematics, Type: model.QuestionTypeNAT, Difficulty: model.DifficultyHard,
				Section: model.SectionB, Text: "Evaluate $$\\int_0^1 x\\,dx$$", CorrectAnswer: "0.5"},
		},
	}
}

func sampleSaveRequest() *model.SaveExamRequest {
	return &model.SaveExamRequest{
		Name:            "Full Mock",
		DurationMinutes: 180,
		Questions: []model.QuestionInput{
			{ID: 1, Subject: "Physics", Type: "MCQ", Difficulty: "EASY", Section: "A",
				Text: "Pick one", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "1"},
			{ID: 2, Subject: "Chemistry", Type: "NAT", Difficulty: "MEDIUM", Section: "B",
				Text: "How many?", CorrectAnswer: " 4 "},
		},
	}
}
