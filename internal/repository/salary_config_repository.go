package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-backoffice-api/internal/models"
)

// SalaryConfigRepository manages the ordered salary rule table.
type SalaryConfigRepository struct {
	db *sqlx.DB
}

// NewSalaryConfigRepository constructs a SalaryConfigRepository.
func NewSalaryConfigRepository(db *sqlx.DB) *SalaryConfigRepository {
	return &SalaryConfigRepository{db: db}
}

// ListOrdered returns all salary rules in position order. Resolution walks
// this list and takes the first match.
func (r *SalaryConfigRepository) ListOrdered(ctx context.Context) ([]models.SalaryConfig, error) {
	const query = `SELECT id, department, level, frequency, amount, position, created_at, updated_at
        FROM salary_configs ORDER BY position ASC, created_at ASC`
	var configs []models.SalaryConfig
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list salary configs: %w", err)
	}
	return configs, nil
}

// FindByID fetches a salary rule by ID.
func (r *SalaryConfigRepository) FindByID(ctx context.Context, id string) (*models.SalaryConfig, error) {
	const query = `SELECT id, department, level, frequency, amount, position, created_at, updated_at
        FROM salary_configs WHERE id = $1`
	var config models.SalaryConfig
	if err := r.db.GetContext(ctx, &config, query, id); err != nil {
		return nil, err
	}
	return &config, nil
}

// Create inserts a new salary rule at the end of the list.
func (r *SalaryConfigRepository) Create(ctx context.Context, config *models.SalaryConfig) error {
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	config.CreatedAt = now
	config.UpdatedAt = now
	if config.Position == 0 {
		var maxPosition int
		if err := r.db.GetContext(ctx, &maxPosition, `SELECT COALESCE(MAX(position), 0) FROM salary_configs`); err != nil {
			return fmt.Errorf("next salary config position: %w", err)
		}
		config.Position = maxPosition + 1
	}
	const query = `INSERT INTO salary_configs (id, department, level, frequency, amount, position, created_at, updated_at)
        VALUES (:id, :department, :level, :frequency, :amount, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("create salary config: %w", err)
	}
	return nil
}

// Update modifies an existing salary rule.
func (r *SalaryConfigRepository) Update(ctx context.Context, config *models.SalaryConfig) error {
	config.UpdatedAt = time.Now().UTC()
	const query = `UPDATE salary_configs SET department = :department, level = :level, frequency = :frequency, amount = :amount, position = :position, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("update salary config: %w", err)
	}
	return nil
}

// Delete removes a salary rule.
func (r *SalaryConfigRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM salary_configs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete salary config: %w", err)
	}
	return nil
}
