package storage

import (
	"context"

	"nkscape/internal/model"
)

// Store defines the persistence operations for run records and their
// per-round numeric series.
type Store interface {
	Init(ctx context.Context) error
	SaveRunSummary(ctx context.Context, summary model.RunSummary) error
	GetRunSummary(ctx context.Context, id string) (model.RunSummary, bool, error)
	ListRunSummaries(ctx context.Context) ([]model.RunSummary, error)
	SavePerformanceHistory(ctx context.Context, runID string, history []float64) error
	GetPerformanceHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveSynchronyHistory(ctx context.Context, runID string, history []float64) error
	GetSynchronyHistory(ctx context.Context, runID string) ([]float64, bool, error)
}
