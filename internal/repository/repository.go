package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Constraint names from the schema in pkg/db.
const (
	couponCodeConstraint       = "allocations_coupon_code_key"
	roundBeneficiaryConstraint = "allocations_round_beneficiary_key"
	roundNumberConstraint      = "rounds_distribution_round_number_key"
)

// ErrCodeCollision signals that a proposed coupon code already exists; the
// allocation engine regenerates the batch and retries.
var ErrCodeCollision = errors.New("coupon code already exists")

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}
