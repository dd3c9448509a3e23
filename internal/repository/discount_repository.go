package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-backoffice-api/internal/models"
)

// DiscountRepository manages persistence for discounts.
type DiscountRepository struct {
	db *sqlx.DB
}

// NewDiscountRepository constructs a DiscountRepository.
func NewDiscountRepository(db *sqlx.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// List returns discounts, optionally scoped to a category or to active ones.
func (r *DiscountRepository) List(ctx context.Context, category models.DiscountCategory, activeOnly bool) ([]models.Discount, error) {
	query := `SELECT id, name, category, type, value, active, created_at, updated_at FROM discounts WHERE 1=1`
	args := []interface{}{}
	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", len(args)+1)
		args = append(args, category)
	}
	if activeOnly {
		query += " AND active = true"
	}
	query += " ORDER BY created_at DESC"

	var discounts []models.Discount
	if err := r.db.SelectContext(ctx, &discounts, query, args...); err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	return discounts, nil
}

// FindByID fetches a discount by ID.
func (r *DiscountRepository) FindByID(ctx context.Context, id string) (*models.Discount, error) {
	const query = `SELECT id, name, category, type, value, active, created_at, updated_at FROM discounts WHERE id = $1`
	var discount models.Discount
	if err := r.db.GetContext(ctx, &discount, query, id); err != nil {
		return nil, err
	}
	return &discount, nil
}

// Create inserts a new discount.
func (r *DiscountRepository) Create(ctx context.Context, discount *models.Discount) error {
	if discount.ID == "" {
		discount.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	discount.CreatedAt = now
	discount.UpdatedAt = now
	const query = `INSERT INTO discounts (id, name, category, type, value, active, created_at, updated_at)
        VALUES (:id, :name, :category, :type, :value, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, discount); err != nil {
		return fmt.Errorf("create discount: %w", err)
	}
	return nil
}

// Update modifies an existing discount.
func (r *DiscountRepository) Update(ctx context.Context, discount *models.Discount) error {
	discount.UpdatedAt = time.Now().UTC()
	const query = `UPDATE discounts SET name = :name, category = :category, type = :type, value = :value, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, discount); err != nil {
		return fmt.Errorf("update discount: %w", err)
	}
	return nil
}

// Delete removes a discount. Past fee payments keep their frozen discount
// amount so deletion never rewrites history.
func (r *DiscountRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM discounts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	return nil
}
