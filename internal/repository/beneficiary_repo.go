package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/wisal-aid/coupon-service/internal/models"
)

type BeneficiaryRepo struct {
	db *sql.DB
}

func NewBeneficiaryRepo(db *sql.DB) *BeneficiaryRepo {
	return &BeneficiaryRepo{db: db}
}

// FindActiveByIDs returns the active beneficiaries among ids. Inactive or
// unknown ids are simply absent from the result; the caller compares lengths.
func (r *BeneficiaryRepo) FindActiveByIDs(ctx context.Context, ids []string) ([]models.Beneficiary, error) {
	query := `
		SELECT id, full_name, national_id, phone, active
		FROM beneficiaries
		WHERE id = ANY($1) AND active = TRUE
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Beneficiary
	for rows.Next() {
		var b models.Beneficiary
		if err := rows.Scan(&b.ID, &b.FullName, &b.NationalID, &b.Phone, &b.Active); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
