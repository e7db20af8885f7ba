package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/store"
)

// ResultRepository persists submitted scores. Results are append-only.
type ResultRepository struct {
	pool *pgxpool.Pool
	feed store.Publisher
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool, feed store.Publisher) *ResultRepository {
	return &ResultRepository{pool: pool, feed: feed}
}

const resultColumns = `id, student_id, student_name, exam_id, exam_name, score, total_questions, submitted_at`

func scanResult(row pgx.Row) (*model.Result, error) {
	res := &model.Result{}
	if err := row.Scan(&res.ID, &res.StudentID, &res.StudentName, &res.ExamID, &res.ExamName,
		&res.Score, &res.TotalQuestions, &res.Timestamp); err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

func prepareResult(res *model.Result) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now().UTC()
	}
}

// Append stores one result, assigning an ID when missing. Re-appending an
// existing ID is ignored so requeued results are not duplicated.
func (r *ResultRepository) Append(ctx context.Context, res *model.Result) error {
	prepareResult(res)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO results (`+resultColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		res.ID, res.StudentID, res.StudentName, res.ExamID, res.ExamName,
		res.Score, res.TotalQuestions, res.Timestamp,
	)
	if err != nil {
		return err
	}

	r.feed.Publish(ctx, store.Change{Collection: store.Results, Op: store.OpInsert, ID: res.ID})
	return nil
}

// AppendBatch stores many results in one statement.
func (r *ResultRepository) AppendBatch(ctx context.Context, batch []*model.Result) error {
	if len(batch) == 0 {
		return nil
	}

	n := len(batch)
	ids := make([]string, n)
	studentIDs := make([]string, n)
	studentNames := make([]string, n)
	examIDs := make([]string, n)
	examNames := make([]string, n)
	scores := make([]int32, n)
	totals := make([]int32, n)
	stamps := make([]time.Time, n)

	for i, res := range batch {
		prepareResult(res)
		ids[i] = res.ID
		studentIDs[i] = res.StudentID
		studentNames[i] = res.StudentName
		examIDs[i] = res.ExamID
		examNames[i] = res.ExamName
		scores[i] = int32(res.Score)
		totals[i] = int32(res.TotalQuestions)
		stamps[i] = res.Timestamp
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO results (`+resultColumns+`)
		 SELECT * FROM UNNEST(
			$1::text[], $2::text[], $3::text[], $4::text[], $5::text[],
			$6::int[], $7::int[], $8::timestamptz[]
		 )
		 ON CONFLICT (id) DO NOTHING`,
		ids, studentIDs, studentNames, examIDs, examNames, scores, totals, stamps,
	)
	if err != nil {
		return err
	}

	for _, res := range batch {
		r.feed.Publish(ctx, store.Change{Collection: store.Results, Op: store.OpInsert, ID: res.ID})
	}
	return nil
}

// List returns results newest first, optionally filtered by exam.
func (r *ResultRepository) List(ctx context.Context, examID string) ([]model.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results`
	var args []any
	if examID != "" {
		query += ` WHERE exam_id = $1`
		args = append(args, examID)
	}
	query += ` ORDER BY submitted_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]model.Result, 0)
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// GetByID retrieves a single result.
func (r *ResultRepository) GetByID(ctx context.Context, id string) (*model.Result, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE id = $1`, id))
}
