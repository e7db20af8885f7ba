package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/store"
)

// ExamRepository handles exam data access. Questions live in a JSONB column
// so a paper is read and written as one document.
type ExamRepository struct {
	pool *pgxpool.Pool
	feed store.Publisher
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool, feed store.Publisher) *ExamRepository {
	return &ExamRepository{pool: pool, feed: feed}
}

const examColumns = `id, name, duration_minutes, questions, created_at`

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	var raw []byte
	if err := row.Scan(&e.ID, &e.Name, &e.DurationMinutes, &raw, &e.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal(raw, &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions for exam %s: %w", e.ID, err)
	}
	return e, nil
}

// Upsert inserts or replaces an exam by ID. CreatedAt is set from the row.
func (r *ExamRepository) Upsert(ctx context.Context, e *model.Exam) error {
	raw, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO exams (id, name, duration_minutes, questions)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     duration_minutes = EXCLUDED.duration_minutes,
		     questions = EXCLUDED.questions,
		     updated_at = CURRENT_TIMESTAMP
		 RETURNING created_at`,
		e.ID, e.Name, e.DurationMinutes, raw,
	).Scan(&e.CreatedAt)
	if err != nil {
		return err
	}

	r.feed.Publish(ctx, store.Change{Collection: store.Exams, Op: store.OpUpsert, ID: e.ID})
	return nil
}

// GetByID retrieves an exam with its full question list.
func (r *ExamRepository) GetByID(ctx context.Context, id string) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// Latest returns the most recently created exam.
func (r *ExamRepository) Latest(ctx context.Context) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams ORDER BY created_at DESC LIMIT 1`))
}

// List returns every exam, newest first.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := make([]model.Exam, 0)
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// Delete removes an exam. Results referencing it are kept.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.feed.Publish(ctx, store.Change{Collection: store.Exams, Op: store.OpDelete, ID: id})
	return nil
}
