package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wisal-aid/coupon-service/internal/models"
)

// DistributionRepo is read-only from this service's point of view; campaign
// management belongs to another subsystem.
type DistributionRepo struct {
	db *sql.DB
}

func NewDistributionRepo(db *sql.DB) *DistributionRepo {
	return &DistributionRepo{db: db}
}

func (r *DistributionRepo) FindByID(ctx context.Context, id string) (*models.Distribution, error) {
	query := `
		SELECT id, institution_id, coupon_template_id, title, status, start_date, end_date
		FROM distributions
		WHERE id = $1
	`

	var d models.Distribution
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.InstitutionID,
		&d.CouponTemplateID,
		&d.Title,
		&d.Status,
		&d.StartDate,
		&d.EndDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
