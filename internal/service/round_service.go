package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wisal-aid/coupon-service/internal/apperr"
	"github.com/wisal-aid/coupon-service/internal/cache"
	"github.com/wisal-aid/coupon-service/internal/models"
)

// AllocationReader is the slice of the allocation store the round lifecycle
// needs: counts for the delete guard, statuses for round stats.
type AllocationReader interface {
	CountByRound(ctx context.Context, roundID string) (int, error)
	ListStatusesByRound(ctx context.Context, roundID string) ([]models.AllocationStatus, error)
}

type CreateRoundInput struct {
	RoundNumber int
	CouponCount int
	StartDate   *time.Time
	EndDate     time.Time
}

type UpdateRoundInput struct {
	RoundNumber *int
	CouponCount *int
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *models.RoundStatus
}

type RoundService struct {
	rounds        RoundStore
	distributions DistributionStore
	allocations   AllocationReader
	roundCache    *cache.RoundContextCache
	log           *logrus.Logger
}

func NewRoundService(
	rounds RoundStore,
	distributions DistributionStore,
	allocations AllocationReader,
	roundCache *cache.RoundContextCache,
	log *logrus.Logger,
) *RoundService {
	return &RoundService{
		rounds:        rounds,
		distributions: distributions,
		allocations:   allocations,
		roundCache:    roundCache,
		log:           log,
	}
}

func (s *RoundService) Create(ctx context.Context, distributionID string, in CreateRoundInput) (*models.Round, error) {
	if in.RoundNumber < 1 {
		return nil, apperr.New(apperr.Validation, "roundNumber must be at least 1")
	}
	if in.CouponCount < 1 {
		return nil, apperr.New(apperr.Validation, "couponCount must be at least 1")
	}
	if in.EndDate.IsZero() {
		return nil, apperr.New(apperr.Validation, "endDate is required")
	}
	if in.StartDate != nil && in.StartDate.After(in.EndDate) {
		return nil, apperr.New(apperr.Validation, "EndDate Should Be After StartDate")
	}

	dist, err := s.distributions.FindByID(ctx, distributionID)
	if err != nil {
		return nil, err
	}
	if dist == nil {
		return nil, apperr.New(apperr.NotFound, "Distribution Not Found")
	}

	round := &models.Round{
		ID:             uuid.NewString(),
		DistributionID: distributionID,
		RoundNumber:    in.RoundNumber,
		CouponCount:    in.CouponCount,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Status:         models.RoundActive,
	}

	// Duplicate round numbers within the distribution are caught by the
	// store's unique constraint and surface as a Conflict.
	if err := s.rounds.Create(ctx, round); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"round_id":        round.ID,
		"distribution_id": distributionID,
		"round_number":    round.RoundNumber,
		"coupon_count":    round.CouponCount,
	}).Info("round created")
	return round, nil
}

func (s *RoundService) FindAll(ctx context.Context, distributionID string) ([]models.RoundSummary, error) {
	dist, err := s.distributions.FindByID(ctx, distributionID)
	if err != nil {
		return nil, err
	}
	if dist == nil {
		return nil, apperr.New(apperr.NotFound, "Distribution Not Found")
	}
	return s.rounds.ListByDistribution(ctx, distributionID)
}

func (s *RoundService) FindOne(ctx context.Context, id string) (*models.RoundContext, error) {
	rc, err := s.rounds.FindWithContext(ctx, id)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, apperr.New(apperr.NotFound, "Round Not Found")
	}
	return rc, nil
}

func (s *RoundService) Update(ctx context.Context, id string, in UpdateRoundInput) (*models.Round, error) {
	round, err := s.rounds.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, apperr.New(apperr.NotFound, "Round Not Found")
	}

	if in.RoundNumber != nil {
		if *in.RoundNumber < 1 {
			return nil, apperr.New(apperr.Validation, "roundNumber must be at least 1")
		}
		round.RoundNumber = *in.RoundNumber
	}
	if in.CouponCount != nil {
		if *in.CouponCount < 1 {
			return nil, apperr.New(apperr.Validation, "couponCount must be at least 1")
		}
		// Shrinking capacity below what is already allocated would leave the
		// round oversubscribed. Raising it is always safe, so only a decrease
		// needs the count.
		if *in.CouponCount < round.CouponCount {
			allocated, err := s.allocations.CountByRound(ctx, id)
			if err != nil {
				return nil, err
			}
			if *in.CouponCount < allocated {
				return nil, apperr.Newf(apperr.Conflict,
					"Cant Reduce couponCount Below Existing Allocations (%d)", allocated)
			}
		}
		round.CouponCount = *in.CouponCount
	}
	if in.StartDate != nil {
		round.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		round.EndDate = *in.EndDate
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.New(apperr.Validation, "status must be ACTIVE or COMPLETED")
		}
		round.Status = *in.Status
	}

	if round.StartDate != nil && round.StartDate.After(round.EndDate) {
		return nil, apperr.New(apperr.Validation, "EndDate Should Be After StartDate")
	}

	if err := s.rounds.Update(ctx, round); err != nil {
		return nil, err
	}

	s.roundCache.Invalidate(id)
	return round, nil
}

func (s *RoundService) Delete(ctx context.Context, id string) error {
	round, err := s.rounds.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if round == nil {
		return apperr.New(apperr.NotFound, "Round Not Found")
	}

	count, err := s.allocations.CountByRound(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.New(apperr.Conflict, "Cant Delete This Round (it contains allocations)")
	}

	if err := s.rounds.Delete(ctx, id); err != nil {
		return err
	}
	s.roundCache.Invalidate(id)
	s.log.WithField("round_id", id).Info("round deleted")
	return nil
}

// GetRoundStats reports capacity consumed (utilization) alongside capacity
// delivered; the two rates answer different operational questions.
func (s *RoundService) GetRoundStats(ctx context.Context, id string) (*models.RoundStats, error) {
	round, err := s.rounds.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, apperr.New(apperr.NotFound, "Round Not Found")
	}

	statuses, err := s.allocations.ListStatusesByRound(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &models.RoundStats{
		RoundNumber:      round.RoundNumber,
		TotalAllocations: len(statuses),
	}
	for _, st := range statuses {
		switch st {
		case models.AllocationDelivered:
			stats.Delivered++
		case models.AllocationPending:
			stats.Pending++
		}
	}
	if round.CouponCount > 0 {
		stats.UtilizationRate = float64(stats.TotalAllocations) / float64(round.CouponCount) * 100
	}
	if stats.TotalAllocations > 0 {
		stats.DeliveryRate = float64(stats.Delivered) / float64(stats.TotalAllocations) * 100
	}
	return stats, nil
}
