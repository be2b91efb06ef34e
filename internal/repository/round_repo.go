package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wisal-aid/coupon-service/internal/apperr"
	"github.com/wisal-aid/coupon-service/internal/models"
)

type RoundRepo struct {
	db *sql.DB
}

func NewRoundRepo(db *sql.DB) *RoundRepo {
	return &RoundRepo{db: db}
}

func (r *RoundRepo) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (id, distribution_id, round_number, coupon_count, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		round.ID,
		round.DistributionID,
		round.RoundNumber,
		round.CouponCount,
		round.StartDate,
		round.EndDate,
		round.Status,
	).Scan(&round.CreatedAt, &round.UpdatedAt)

	if isUniqueViolation(err, roundNumberConstraint) {
		return apperr.New(apperr.Conflict, "Round With Same Number Is Found")
	}
	return err
}

func (r *RoundRepo) FindByID(ctx context.Context, id string) (*models.Round, error) {
	query := `
		SELECT id, distribution_id, round_number, coupon_count, start_date, end_date, status, created_at, updated_at
		FROM rounds
		WHERE id = $1
	`

	var round models.Round
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&round.ID,
		&round.DistributionID,
		&round.RoundNumber,
		&round.CouponCount,
		&round.StartDate,
		&round.EndDate,
		&round.Status,
		&round.CreatedAt,
		&round.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &round, nil
}

// FindWithContext loads a round joined with its distribution, coupon template
// and institution. The template type feeds the coupon code generator.
func (r *RoundRepo) FindWithContext(ctx context.Context, id string) (*models.RoundContext, error) {
	query := `
		SELECT r.id, r.distribution_id, r.round_number, r.coupon_count, r.start_date, r.end_date,
		       r.status, r.created_at, r.updated_at,
		       d.id, d.title,
		       ct.id, ct.name, ct.type,
		       i.name
		FROM rounds r
		JOIN distributions d ON d.id = r.distribution_id
		JOIN coupon_templates ct ON ct.id = d.coupon_template_id
		JOIN institutions i ON i.id = d.institution_id
		WHERE r.id = $1
	`

	var rc models.RoundContext
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rc.ID,
		&rc.DistributionID,
		&rc.RoundNumber,
		&rc.CouponCount,
		&rc.StartDate,
		&rc.EndDate,
		&rc.Status,
		&rc.CreatedAt,
		&rc.UpdatedAt,
		&rc.Distribution.ID,
		&rc.Distribution.Title,
		&rc.Template.ID,
		&rc.Template.Name,
		&rc.Template.Type,
		&rc.Institution,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rc, nil
}

func (r *RoundRepo) ListByDistribution(ctx context.Context, distributionID string) ([]models.RoundSummary, error) {
	query := `
		SELECT r.id, r.distribution_id, r.round_number, r.coupon_count, r.start_date, r.end_date,
		       r.status, r.created_at, r.updated_at,
		       COUNT(a.id)
		FROM rounds r
		LEFT JOIN allocations a ON a.round_id = r.id
		WHERE r.distribution_id = $1
		GROUP BY r.id
		ORDER BY r.round_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, distributionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RoundSummary
	for rows.Next() {
		var rs models.RoundSummary
		if err := rows.Scan(
			&rs.ID,
			&rs.DistributionID,
			&rs.RoundNumber,
			&rs.CouponCount,
			&rs.StartDate,
			&rs.EndDate,
			&rs.Status,
			&rs.CreatedAt,
			&rs.UpdatedAt,
			&rs.AllocationCount,
		); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (r *RoundRepo) Update(ctx context.Context, round *models.Round) error {
	query := `
		UPDATE rounds
		SET round_number = $2,
		    coupon_count = $3,
		    start_date = $4,
		    end_date = $5,
		    status = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		round.ID,
		round.RoundNumber,
		round.CouponCount,
		round.StartDate,
		round.EndDate,
		round.Status,
	).Scan(&round.UpdatedAt)

	if isUniqueViolation(err, roundNumberConstraint) {
		return apperr.New(apperr.Conflict, "Round With Same Number Is Found")
	}
	return err
}

func (r *RoundRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rounds WHERE id = $1`, id)
	return err
}
