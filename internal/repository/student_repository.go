package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/store"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
	feed store.Publisher
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool, feed store.Publisher) *StudentRepository {
	return &StudentRepository{pool: pool, feed: feed}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	s := &model.Student{}
	if err := row.Scan(&s.ID, &s.Name, &s.RollNumber, &s.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT id, name, roll_number, created_at FROM students WHERE id = $1`, id))
}

// GetByRollNumber retrieves a student by their unique roll number.
func (r *StudentRepository) GetByRollNumber(ctx context.Context, roll string) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT id, name, roll_number, created_at FROM students WHERE roll_number = $1`, roll))
}

// List returns all students ordered by roll number.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, roll_number, created_at FROM students ORDER BY roll_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// Upsert inserts a student or updates name and roll number of an existing ID.
func (r *StudentRepository) Upsert(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (id, name, roll_number)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, roll_number = EXCLUDED.roll_number
		 RETURNING created_at`,
		s.ID, s.Name, s.RollNumber,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRollNumber
		}
		return err
	}

	r.feed.Publish(ctx, store.Change{Collection: store.Students, Op: store.OpUpsert, ID: s.ID})
	return nil
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.feed.Publish(ctx, store.Change{Collection: store.Students, Op: store.OpDelete, ID: id})
	return nil
}
