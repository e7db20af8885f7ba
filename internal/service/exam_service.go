package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/event"
	"github.com/apexlabs/ntamock-backend/internal/generator"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/render"
	"github.com/apexlabs/ntamock-backend/internal/repository"
)

// Exam errors.
var (
	ErrExamNotFound    = errors.New("exam not found")
	ErrInvalidExam     = errors.New("invalid exam")
	ErrNoExamAvailable = errors.New("no exam available")
)

// DefaultExamMinutes is the duration given to generated drafts.
const DefaultExamMinutes = 180

// GeneratedExam is an unsaved draft paper.
type GeneratedExam struct {
	Exam    *model.Exam `json:"exam"`
	Skipped int         `json:"skipped"`
}

// ExamService handles exam authoring, caching and generation.
type ExamService struct {
	exams     ExamStore
	cache     ExamCache
	events    event.Publisher
	generator generator.Provider
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams ExamStore,
	cache ExamCache,
	events event.Publisher,
	gen generator.Provider,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		exams:     exams,
		cache:     cache,
		events:    events,
		generator: gen,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// Save creates or replaces an exam. An empty id creates a new one.
func (s *ExamService) Save(ctx context.Context, id string, req *model.SaveExamRequest) (*model.Exam, error) {
	if id == "" {
		id = uuid.NewString()
	}
	exam := req.ToExam(id)
	if err := exam.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExam, err)
	}

	if err := s.exams.Upsert(ctx, exam); err != nil {
		return nil, fmt.Errorf("save exam: %w", err)
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID).Msg("Failed to warm exam cache")
	}
	if err := s.events.PublishExamSaved(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID).Msg("Failed to publish exam event")
	}

	s.log.Info().
		Str("exam_id", exam.ID).
		Int("questions", len(exam.Questions)).
		Msg("Exam saved")
	return exam, nil
}

// Get returns the full exam, answer keys included.
func (s *ExamService) Get(ctx context.Context, id string) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	return exam, err
}

// List returns exam summaries, newest first.
func (s *ExamService) List(ctx context.Context) ([]model.ExamSummary, error) {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ExamSummary, len(exams))
	for i := range exams {
		out[i] = exams[i].Summary()
	}
	return out, nil
}

// Delete removes an exam and its cache entries.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if err := s.exams.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExamNotFound
		}
		return err
	}
	if err := s.cache.Evict(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id).Msg("Failed to evict exam cache")
	}
	s.log.Info().Str("exam_id", id).Msg("Exam deleted")
	return nil
}

// WarmExamCache stores the definition and the rendered paper of exam.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	return s.cache.Put(ctx, exam, BuildPayload(exam))
}

// PrewarmAllCaches loads every exam into the cache at startup.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exams[i].ID).Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(exams)).Msg("Prewarming complete")
	return nil
}

// LoadForSession returns the exam a session should run. An empty id picks
// the newest exam. The cache is tried first.
func (s *ExamService) LoadForSession(ctx context.Context, id string) (*model.Exam, error) {
	if id == "" {
		exam, err := s.exams.Latest(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoExamAvailable
		}
		return exam, err
	}

	exam, err := s.cache.Definition(ctx, id)
	if err == nil {
		return exam, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.log.Warn().Err(err).Str("exam_id", id).Msg("Exam cache read failed, using database")
	}

	exam, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id).Msg("Failed to warm exam cache")
	}
	return exam, nil
}

// Payload returns the rendered paper without answer keys.
func (s *ExamService) Payload(ctx context.Context, id string) (*model.ExamPayload, error) {
	payload, err := s.cache.Payload(ctx, id)
	if err == nil {
		return payload, nil
	}

	exam, err := s.LoadForSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildPayload(exam), nil
}

// Generate drafts a paper with the question generator. The draft is not
// saved; the author reviews it and saves it through Save.
func (s *ExamService) Generate(ctx context.Context, req *model.GenerateExamRequest) (*GeneratedExam, error) {
	if s.generator == nil || !s.generator.IsAvailable() {
		return nil, generator.ErrNotConfigured
	}

	subjects, err := generator.ResolveSubjects(generator.PaperType(req.PaperType), req.Subjects)
	if err != nil {
		return nil, err
	}

	draft, err := s.generator.Generate(ctx, generator.Request{Subjects: subjects})
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = "JEE-MAIN Full Mock - " + time.Now().Format("2 Jan 2006")
	}
	minutes := req.DurationMinutes
	if minutes == 0 {
		minutes = DefaultExamMinutes
	}

	s.log.Info().
		Str("paper_type", req.PaperType).
		Int("questions", len(draft.Questions)).
		Int("skipped", draft.Skipped).
		Msg("Draft generated")

	return &GeneratedExam{
		Exam: &model.Exam{
			ID:              uuid.NewString(),
			Name:            name,
			DurationMinutes: minutes,
			Questions:       draft.Questions,
		},
		Skipped: draft.Skipped,
	}, nil
}

// BuildPayload renders exam into the student-facing paper.
func BuildPayload(exam *model.Exam) *model.ExamPayload {
	questions := make([]model.QuestionForStudent, len(exam.Questions))
	for i, q := range exam.Questions {
		qs := model.QuestionForStudent{
			ID:         q.ID,
			Subject:    q.Subject,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			Section:    q.Section,
			Text:       q.Text,
			TextHTML:   render.HTML(q.Text),
		}
		if len(q.Options) > 0 {
			qs.Options = append([]string(nil), q.Options...)
			qs.OptionHTML = make([]string, len(q.Options))
			for j, opt := range q.Options {
				qs.OptionHTML[j] = render.HTML(opt)
			}
		}
		questions[i] = qs
	}

	return &model.ExamPayload{
		ExamID:          exam.ID,
		Name:            exam.Name,
		DurationMinutes: exam.DurationMinutes,
		Questions:       questions,
	}
}
