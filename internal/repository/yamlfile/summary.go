package yamlfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/RMahshie/tscmscan/internal/repository"
	"github.com/RMahshie/tscmscan/pkg/models"
)

// SummaryRepository implements repository.SummaryRepository as a single YAML file
type SummaryRepository struct {
	path string
}

// NewSummaryRepository creates a repository writing to path
func NewSummaryRepository(path string) repository.SummaryRepository {
	return &SummaryRepository{path: path}
}

// Save replaces the summary file with summary
func (r *SummaryRepository) Save(ctx context.Context, summary *models.BatchSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	return nil
}

// Load reads the summary file back
func (r *SummaryRepository) Load(ctx context.Context) (*models.BatchSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: summary %s", models.ErrNotFound, r.path)
		}
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}

	var summary models.BatchSummary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &summary, nil
}
