package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wisal-aid/coupon-service/internal/apperr"
	"github.com/wisal-aid/coupon-service/internal/models"
)

type AllocationRepo struct {
	db *sql.DB
}

func NewAllocationRepo(db *sql.DB) *AllocationRepo {
	return &AllocationRepo{db: db}
}

func (r *AllocationRepo) CountByRound(ctx context.Context, roundID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM allocations WHERE round_id = $1`, roundID,
	).Scan(&count)
	return count, err
}

// CreateBatch inserts a batch of allocations atomically. The round row is
// locked for the duration of the transaction so that the capacity check and
// the insert cannot interleave with a concurrent batch against the same round;
// two concurrent callers can never jointly exceed coupon_count.
func (r *AllocationRepo) CreateBatch(ctx context.Context, roundID string, allocs []models.Allocation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	err = tx.QueryRowContext(ctx,
		`SELECT coupon_count FROM rounds WHERE id = $1 FOR UPDATE`, roundID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.NotFound, "Round Not Found")
		}
		return err
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM allocations WHERE round_id = $1`, roundID,
	).Scan(&existing)
	if err != nil {
		return err
	}

	if existing+len(allocs) > capacity {
		return apperr.Newf(apperr.Conflict,
			"Number of beneficiaries exceed the number of Coupons %d", capacity-existing)
	}

	const cols = 6
	values := make([]string, 0, len(allocs))
	args := make([]any, 0, len(allocs)*cols)
	for i, a := range allocs {
		base := i * cols
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, a.ID, roundID, a.BeneficiaryID, a.CouponCode, a.Status, a.ExpiresAt)
	}

	query := `INSERT INTO allocations (id, round_id, beneficiary_id, coupon_code, status, expires_at) VALUES ` +
		strings.Join(values, ", ")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, couponCodeConstraint) {
			return ErrCodeCollision
		}
		if isUniqueViolation(err, roundBeneficiaryConstraint) {
			return apperr.New(apperr.Conflict, "Beneficiary Already Allocated In This Round")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx commit: %w", err)
	}
	committed = true
	return nil
}

func (r *AllocationRepo) FindByCode(ctx context.Context, couponCode string) (*models.Allocation, error) {
	query := `
		SELECT id, round_id, beneficiary_id, coupon_code, status, expires_at, delivered_at, delivered_by, created_at
		FROM allocations
		WHERE coupon_code = $1
	`

	var a models.Allocation
	err := r.db.QueryRowContext(ctx, query, couponCode).Scan(
		&a.ID,
		&a.RoundID,
		&a.BeneficiaryID,
		&a.CouponCode,
		&a.Status,
		&a.ExpiresAt,
		&a.DeliveredAt,
		&a.DeliveredBy,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// MarkDelivered flips a PENDING allocation to DELIVERED. The status predicate
// makes the update a compare-and-swap: of two concurrent deliveries of the
// same coupon, exactly one sees a row affected.
func (r *AllocationRepo) MarkDelivered(ctx context.Context, id string, now time.Time, deliveredBy *string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE allocations
		SET status = $2, delivered_at = $3, delivered_by = $4
		WHERE id = $1 AND status = $5
	`, id, models.AllocationDelivered, now, deliveredBy, models.AllocationPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReceiptByCode loads the full delivery context for a coupon code.
func (r *AllocationRepo) ReceiptByCode(ctx context.Context, couponCode string) (*models.DeliveryReceipt, error) {
	query := `
		SELECT a.id, a.round_id, a.beneficiary_id, a.coupon_code, a.status, a.expires_at,
		       a.delivered_at, a.delivered_by, a.created_at,
		       b.id, b.full_name, b.national_id, b.phone,
		       r.round_number, r.coupon_count, r.start_date, r.end_date, r.status,
		       d.id, d.title,
		       ct.id, ct.name, ct.type,
		       i.name
		FROM allocations a
		JOIN beneficiaries b ON b.id = a.beneficiary_id
		JOIN rounds r ON r.id = a.round_id
		JOIN distributions d ON d.id = r.distribution_id
		JOIN coupon_templates ct ON ct.id = d.coupon_template_id
		JOIN institutions i ON i.id = d.institution_id
		WHERE a.coupon_code = $1
	`

	var rec models.DeliveryReceipt
	err := r.db.QueryRowContext(ctx, query, couponCode).Scan(
		&rec.ID,
		&rec.RoundID,
		&rec.BeneficiaryID,
		&rec.CouponCode,
		&rec.Status,
		&rec.ExpiresAt,
		&rec.DeliveredAt,
		&rec.DeliveredBy,
		&rec.CreatedAt,
		&rec.Beneficiary.ID,
		&rec.Beneficiary.FullName,
		&rec.Beneficiary.NationalID,
		&rec.Beneficiary.Phone,
		&rec.Round.RoundNumber,
		&rec.Round.CouponCount,
		&rec.Round.StartDate,
		&rec.Round.EndDate,
		&rec.Round.Status,
		&rec.Distribution.ID,
		&rec.Distribution.Title,
		&rec.Template.ID,
		&rec.Template.Name,
		&rec.Template.Type,
		&rec.Institution,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListByRound returns all allocations for a round with beneficiary summaries,
// oldest first.
func (r *AllocationRepo) ListByRound(ctx context.Context, roundID string) ([]models.AllocationWithBeneficiary, error) {
	query := `
		SELECT a.id, a.round_id, a.beneficiary_id, a.coupon_code, a.status, a.expires_at,
		       a.delivered_at, a.delivered_by, a.created_at,
		       b.id, b.full_name, b.national_id, b.phone
		FROM allocations a
		JOIN beneficiaries b ON b.id = a.beneficiary_id
		WHERE a.round_id = $1
		ORDER BY a.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AllocationWithBeneficiary
	for rows.Next() {
		var a models.AllocationWithBeneficiary
		if err := rows.Scan(
			&a.ID,
			&a.RoundID,
			&a.BeneficiaryID,
			&a.CouponCode,
			&a.Status,
			&a.ExpiresAt,
			&a.DeliveredAt,
			&a.DeliveredBy,
			&a.CreatedAt,
			&a.Beneficiary.ID,
			&a.Beneficiary.FullName,
			&a.Beneficiary.NationalID,
			&a.Beneficiary.Phone,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListStatusesByRound returns only the status column for a round, enough for
// counting delivery stats without dragging the beneficiary join along.
func (r *AllocationRepo) ListStatusesByRound(ctx context.Context, roundID string) ([]models.AllocationStatus, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status FROM allocations WHERE round_id = $1`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AllocationStatus
	for rows.Next() {
		var s models.AllocationStatus
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
