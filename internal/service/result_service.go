package service

import (
	"context"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

// ResultService reads persisted results for the dashboard.
type ResultService struct {
	results ResultReader
}

// NewResultService creates a new ResultService.
func NewResultService(results ResultReader) *ResultService {
	return &ResultService{results: results}
}

// List returns results newest first. An empty examID lists all exams.
func (s *ResultService) List(ctx context.Context, examID string) ([]model.Result, error) {
	return s.results.List(ctx, examID)
}

// Get returns a single result.
func (s *ResultService) Get(ctx context.Context, id string) (*model.Result, error) {
	return s.results.GetByID(ctx, id)
}
