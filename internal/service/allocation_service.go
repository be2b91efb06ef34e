package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wisal-aid/coupon-service/internal/apperr"
	"github.com/wisal-aid/coupon-service/internal/cache"
	"github.com/wisal-aid/coupon-service/internal/coupon"
	"github.com/wisal-aid/coupon-service/internal/models"
	"github.com/wisal-aid/coupon-service/internal/repository"
)

// Stores required by the services (interfaces to allow mocking).

type RoundStore interface {
	Create(ctx context.Context, round *models.Round) error
	FindByID(ctx context.Context, id string) (*models.Round, error)
	FindWithContext(ctx context.Context, id string) (*models.RoundContext, error)
	ListByDistribution(ctx context.Context, distributionID string) ([]models.RoundSummary, error)
	Update(ctx context.Context, round *models.Round) error
	Delete(ctx context.Context, id string) error
}

type AllocationStore interface {
	CountByRound(ctx context.Context, roundID string) (int, error)
	CreateBatch(ctx context.Context, roundID string, allocs []models.Allocation) error
	FindByCode(ctx context.Context, couponCode string) (*models.Allocation, error)
	MarkDelivered(ctx context.Context, id string, now time.Time, deliveredBy *string) (bool, error)
	ReceiptByCode(ctx context.Context, couponCode string) (*models.DeliveryReceipt, error)
	ListByRound(ctx context.Context, roundID string) ([]models.AllocationWithBeneficiary, error)
	ListStatusesByRound(ctx context.Context, roundID string) ([]models.AllocationStatus, error)
}

type BeneficiaryStore interface {
	FindActiveByIDs(ctx context.Context, ids []string) ([]models.Beneficiary, error)
}

type DistributionStore interface {
	FindByID(ctx context.Context, id string) (*models.Distribution, error)
}

// codeRetries bounds how often a batch is regenerated after a coupon code
// collides with an already-issued one. With 8 random base36 characters a
// single retry is already rare.
const codeRetries = 3

type AllocationService struct {
	rounds        RoundStore
	allocations   AllocationStore
	beneficiaries BeneficiaryStore
	roundCache    *cache.RoundContextCache
	log           *logrus.Logger
	now           func() time.Time
}

func NewAllocationService(
	rounds RoundStore,
	allocations AllocationStore,
	beneficiaries BeneficiaryStore,
	roundCache *cache.RoundContextCache,
	log *logrus.Logger,
) *AllocationService {
	return &AllocationService{
		rounds:        rounds,
		allocations:   allocations,
		beneficiaries: beneficiaries,
		roundCache:    roundCache,
		log:           log,
		now:           time.Now,
	}
}

// Allocate assigns one freshly coded coupon to each beneficiary in the batch.
// The capacity check here produces the user-facing remaining-count message;
// the authoritative check runs again inside the store's transaction while the
// round row is locked, so concurrent batches cannot oversubscribe the round.
func (s *AllocationService) Allocate(ctx context.Context, roundID string, beneficiaryIDs []string) (*models.AllocationBatchResult, error) {
	if len(beneficiaryIDs) == 0 {
		return nil, apperr.New(apperr.Validation, "beneficiaryIds must not be empty")
	}
	if hasDuplicates(beneficiaryIDs) {
		return nil, apperr.New(apperr.Validation, "Duplicate beneficiary ids in request")
	}

	rc, err := s.roundContext(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, apperr.New(apperr.NotFound, "Round Not Found")
	}

	existing, err := s.allocations.CountByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if existing+len(beneficiaryIDs) > rc.CouponCount {
		return nil, apperr.Newf(apperr.Conflict,
			"Number of beneficiaries exceed the number of Coupons %d", rc.CouponCount-existing)
	}

	active, err := s.beneficiaries.FindActiveByIDs(ctx, beneficiaryIDs)
	if err != nil {
		return nil, err
	}
	if len(active) != len(beneficiaryIDs) {
		return nil, apperr.New(apperr.NotFound, "Some Beneficiaries No Found Or Not Active")
	}

	expiresAt := rc.EndDate
	for attempt := 0; attempt < codeRetries; attempt++ {
		allocs := make([]models.Allocation, 0, len(beneficiaryIDs))
		for _, beneficiaryID := range beneficiaryIDs {
			allocs = append(allocs, models.Allocation{
				ID:            uuid.NewString(),
				RoundID:       roundID,
				BeneficiaryID: beneficiaryID,
				CouponCode:    coupon.Generate(rc.Template.Type, rc.RoundNumber),
				Status:        models.AllocationPending,
				ExpiresAt:     &expiresAt,
			})
		}

		err = s.allocations.CreateBatch(ctx, roundID, allocs)
		if errors.Is(err, repository.ErrCodeCollision) {
			s.log.WithFields(logrus.Fields{
				"round_id": roundID,
				"attempt":  attempt + 1,
			}).Warn("coupon code collision, regenerating batch")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.WithFields(logrus.Fields{
			"round_id": roundID,
			"count":    len(allocs),
		}).Info("allocated coupons")
		return &models.AllocationBatchResult{Count: len(allocs)}, nil
	}

	return nil, apperr.New(apperr.Internal, "Could Not Generate Unique Coupon Codes")
}

// Deliver moves an allocation from PENDING to DELIVERED. Expiry is evaluated
// lazily, at transition time only. The final update is conditional on the
// current status, so a lost race reports the same conflict as a repeat call.
func (s *AllocationService) Deliver(ctx context.Context, couponCode string, deliveredBy string) (*models.DeliveryReceipt, error) {
	if couponCode == "" {
		return nil, apperr.New(apperr.Validation, "couponCode is required")
	}

	alloc, err := s.allocations.FindByCode(ctx, couponCode)
	if err != nil {
		return nil, err
	}
	if alloc == nil {
		return nil, apperr.New(apperr.NotFound, "Invalid Coupon Code")
	}

	if alloc.Status == models.AllocationDelivered {
		return nil, apperr.New(apperr.Conflict, "This Coupon Is Already DELIVERED")
	}

	now := s.now()
	if alloc.ExpiresAt != nil && now.After(*alloc.ExpiresAt) {
		return nil, apperr.New(apperr.Conflict, "Expired Coupon")
	}

	var by *string
	if deliveredBy != "" {
		by = &deliveredBy
	}
	ok, err := s.allocations.MarkDelivered(ctx, alloc.ID, now, by)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another deliverer won the race between our read and the update.
		return nil, apperr.New(apperr.Conflict, "This Coupon Is Already DELIVERED")
	}

	s.log.WithFields(logrus.Fields{
		"coupon_code": couponCode,
		"round_id":    alloc.RoundID,
	}).Info("coupon delivered")

	receipt, err := s.allocations.ReceiptByCode(ctx, couponCode)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, apperr.New(apperr.NotFound, "Invalid Coupon Code")
	}
	return receipt, nil
}

func (s *AllocationService) GetRoundAllocations(ctx context.Context, roundID string) ([]models.AllocationWithBeneficiary, error) {
	return s.allocations.ListByRound(ctx, roundID)
}

func (s *AllocationService) GetDeliveryStats(ctx context.Context, roundID string) (*models.DeliveryStats, error) {
	statuses, err := s.allocations.ListStatusesByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	stats := &models.DeliveryStats{Total: len(statuses)}
	for _, st := range statuses {
		switch st {
		case models.AllocationDelivered:
			stats.Delivered++
		case models.AllocationPending:
			stats.Pending++
		}
	}
	if stats.Total > 0 {
		stats.DeliveryRate = float64(stats.Delivered) / float64(stats.Total) * 100
	}
	return stats, nil
}

func (s *AllocationService) SearchByCouponCode(ctx context.Context, couponCode string) (*models.DeliveryReceipt, error) {
	receipt, err := s.allocations.ReceiptByCode(ctx, couponCode)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, apperr.New(apperr.NotFound, "Round Beneficiary Not Found!")
	}
	return receipt, nil
}

func (s *AllocationService) roundContext(ctx context.Context, roundID string) (*models.RoundContext, error) {
	if rc, ok := s.roundCache.Get(roundID); ok {
		return rc, nil
	}
	rc, err := s.rounds.FindWithContext(ctx, roundID)
	if err != nil || rc == nil {
		return rc, err
	}
	s.roundCache.Set(roundID, rc)
	return rc, nil
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
