package repository

import (
	"context"

	"github.com/RMahshie/tscmscan/pkg/models"
)

// SummaryRepository defines the interface for persisting batch run summaries
type SummaryRepository interface {
	Save(ctx context.Context, summary *models.BatchSummary) error
	Load(ctx context.Context) (*models.BatchSummary, error)
}
