package service

import (
	"context"
	"testing"
	"time"

	"github.com/wisal-aid/coupon-service/internal/apperr"
	"github.com/wisal-aid/coupon-service/internal/cache"
	"github.com/wisal-aid/coupon-service/internal/models"
)

func newRoundService(rounds *fakeRoundStore, dists *fakeDistributionStore, allocs *fakeAllocationStore) (*RoundService, *cache.RoundContextCache) {
	roundCache := cache.NewRoundContextCache()
	return NewRoundService(rounds, dists, allocs, roundCache, testLogger()), roundCache
}

func TestCreateRound(t *testing.T) {
	rounds := newFakeRoundStore()
	svc, _ := newRoundService(rounds, newFakeDistributionStore("dist-1"), newFakeAllocationStore())

	end := time.Date(2024, 4, 30, 23, 59, 59, 0, time.UTC)
	round, err := svc.Create(context.Background(), "dist-1", CreateRoundInput{
		RoundNumber: 1,
		CouponCount: 100,
		EndDate:     end,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if round.ID == "" {
		t.Fatal("expected generated id")
	}
	if round.Status != models.RoundActive {
		t.Fatalf("expected ACTIVE, got %s", round.Status)
	}
	if len(rounds.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(rounds.created))
	}
}

func TestCreateRoundValidation(t *testing.T) {
	svc, _ := newRoundService(newFakeRoundStore(), newFakeDistributionStore("dist-1"), newFakeAllocationStore())

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		in      CreateRoundInput
		message string
	}{
		{
			name:    "round number below one",
			in:      CreateRoundInput{RoundNumber: 0, CouponCount: 10, EndDate: end},
			message: "roundNumber must be at least 1",
		},
		{
			name:    "coupon count below one",
			in:      CreateRoundInput{RoundNumber: 1, CouponCount: 0, EndDate: end},
			message: "couponCount must be at least 1",
		},
		{
			name:    "missing end date",
			in:      CreateRoundInput{RoundNumber: 1, CouponCount: 10},
			message: "endDate is required",
		},
		{
			name:    "end before start",
			in:      CreateRoundInput{RoundNumber: 1, CouponCount: 10, StartDate: &start, EndDate: end},
			message: "EndDate Should Be After StartDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "dist-1", tt.in)
			if !apperr.Is(err, apperr.Validation) {
				t.Fatalf("expected Validation, got %v", err)
			}
			if apperr.Message(err) != tt.message {
				t.Fatalf("expected %q, got %q", tt.message, apperr.Message(err))
			}
		})
	}
}

func TestCreateRoundDistributionNotFound(t *testing.T) {
	svc, _ := newRoundService(newFakeRoundStore(), newFakeDistributionStore(), newFakeAllocationStore())

	_, err := svc.Create(context.Background(), "missing", CreateRoundInput{
		RoundNumber: 1,
		CouponCount: 10,
		EndDate:     time.Now().Add(time.Hour),
	})
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if apperr.Message(err) != "Distribution Not Found" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}
}

func TestCreateRoundDuplicateNumber(t *testing.T) {
	rounds := newFakeRoundStore()
	rounds.createErr = apperr.New(apperr.Conflict, "Round With Same Number Is Found")
	svc, _ := newRoundService(rounds, newFakeDistributionStore("dist-1"), newFakeAllocationStore())

	_, err := svc.Create(context.Background(), "dist-1", CreateRoundInput{
		RoundNumber: 1,
		CouponCount: 10,
		EndDate:     time.Now().Add(time.Hour),
	})
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestUpdateRound(t *testing.T) {
	rounds := newFakeRoundStore()
	rounds.rounds["round-1"] = &models.Round{
		ID:          "round-1",
		RoundNumber: 1,
		CouponCount: 10,
		EndDate:     time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		Status:      models.RoundActive,
	}
	svc, roundCache := newRoundService(rounds, newFakeDistributionStore(), newFakeAllocationStore())
	roundCache.Set("round-1", &models.RoundContext{})

	newCount := 20
	round, err := svc.Update(context.Background(), "round-1", UpdateRoundInput{CouponCount: &newCount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if round.CouponCount != 20 {
		t.Fatalf("expected coupon count 20, got %d", round.CouponCount)
	}
	if _, ok := roundCache.Get("round-1"); ok {
		t.Fatal("expected cache entry invalidated after update")
	}
}

func TestUpdateRoundCannotShrinkBelowAllocations(t *testing.T) {
	rounds := newFakeRoundStore()
	rounds.rounds["round-1"] = &models.Round{
		ID:          "round-1",
		RoundNumber: 1,
		CouponCount: 10,
		Status:      models.RoundActive,
	}
	allocs := newFakeAllocationStore()
	allocs.counts["round-1"] = 5
	svc, _ := newRoundService(rounds, newFakeDistributionStore(), allocs)

	lower := 1
	_, err := svc.Update(context.Background(), "round-1", UpdateRoundInput{CouponCount: &lower})
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if apperr.Message(err) != "Cant Reduce couponCount Below Existing Allocations (5)" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}
	if len(rounds.updated) != 0 {
		t.Fatal("expected no update persisted")
	}

	// Shrinking down to exactly the allocated count is still fine.
	exact := 5
	round, err := svc.Update(context.Background(), "round-1", UpdateRoundInput{CouponCount: &exact})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if round.CouponCount != 5 {
		t.Fatalf("expected coupon count 5, got %d", round.CouponCount)
	}
}

func TestUpdateRoundStatusValidation(t *testing.T) {
	rounds := newFakeRoundStore()
	rounds.rounds["round-1"] = &models.Round{
		ID:          "round-1",
		RoundNumber: 1,
		CouponCount: 10,
		Status:      models.RoundActive,
	}
	svc, _ := newRoundService(rounds, newFakeDistributionStore(), newFakeAllocationStore())

	bad := models.RoundStatus("PAUSED")
	_, err := svc.Update(context.Background(), "round-1", UpdateRoundInput{Status: &bad})
	if !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected Validation, got %v", err)
	}
	if apperr.Message(err) != "status must be ACTIVE or COMPLETED" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}

	done := models.RoundCompleted
	round, err := svc.Update(context.Background(), "round-1", UpdateRoundInput{Status: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if round.Status != models.RoundCompleted {
		t.Fatalf("expected COMPLETED, got %s", round.Status)
	}
}

func TestUpdateRoundDateValidation(t *testing.T) {
	rounds := newFakeRoundStore()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rounds.rounds["round-1"] = &models.Round{
		ID:          "round-1",
		RoundNumber: 1,
		CouponCount: 10,
		StartDate:   &start,
		EndDate:     time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	svc, _ := newRoundService(rounds, newFakeDistributionStore(), newFakeAllocationStore())

	badEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Update(context.Background(), "round-1", UpdateRoundInput{EndDate: &badEnd})
	if !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected Validation, got %v", err)
	}
	if apperr.Message(err) != "EndDate Should Be After StartDate" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}
}

func TestUpdateRoundNotFound(t *testing.T) {
	svc, _ := newRoundService(newFakeRoundStore(), newFakeDistributionStore(), newFakeAllocationStore())

	_, err := svc.Update(context.Background(), "missing", UpdateRoundInput{})
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDeleteRoundBlockedByAllocations(t *testing.T) {
	rounds := newFakeRoundStore()
	rounds.rounds["round-1"] = &models.Round{ID: "round-1"}
	allocs := newFakeAllocationStore()
	allocs.counts["round-1"] = 3
	svc, _ := newRoundService(rounds, newFakeDistributionStore(), allocs)

	err := svc.Delete(context.Background(), "round-1")
	if !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if len(rounds.deleted) != 0 {
		t.Fatal("expected no delete while allocations exist")
	}
}

func TestDeleteRound(t *testing.T) {
	rounds := newFakeRoundStore()
	rounds.rounds["round-1"] = &models.Round{ID: "round-1"}
	svc, roundCache := newRoundService(rounds, newFakeDistributionStore(), newFakeAllocationStore())
	roundCache.Set("round-1", &models.RoundContext{})

	if err := svc.Delete(context.Background(), "round-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(rounds.deleted) != 1 || rounds.deleted[0] != "round-1" {
		t.Fatalf("expected round-1 deleted, got %v", rounds.deleted)
	}
	if _, ok := roundCache.Get("round-1"); ok {
		t.Fatal("expected cache entry invalidated after delete")
	}
}

func TestGetRoundStats(t *testing.T) {
	rounds := newFakeRoundStore()
	rounds.rounds["round-1"] = &models.Round{ID: "round-1", RoundNumber: 2, CouponCount: 4}
	allocs := newFakeAllocationStore()
	allocs.statuses["round-1"] = []models.AllocationStatus{
		models.AllocationDelivered,
		models.AllocationPending,
	}
	svc, _ := newRoundService(rounds, newFakeDistributionStore(), allocs)

	stats, err := svc.GetRoundStats(context.Background(), "round-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.RoundNumber != 2 {
		t.Fatalf("expected round number 2, got %d", stats.RoundNumber)
	}
	if stats.TotalAllocations != 2 || stats.Delivered != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.UtilizationRate != 50 {
		t.Fatalf("expected utilization 50, got %f", stats.UtilizationRate)
	}
	if stats.DeliveryRate != 50 {
		t.Fatalf("expected delivery rate 50, got %f", stats.DeliveryRate)
	}
}

func TestGetRoundStatsEmptyRound(t *testing.T) {
	rounds := newFakeRoundStore()
	rounds.rounds["round-1"] = &models.Round{ID: "round-1", RoundNumber: 1, CouponCount: 10}
	svc, _ := newRoundService(rounds, newFakeDistributionStore(), newFakeAllocationStore())

	stats, err := svc.GetRoundStats(context.Background(), "round-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.UtilizationRate != 0 || stats.DeliveryRate != 0 {
		t.Fatalf("expected zero rates, got %+v", stats)
	}
}

func TestFindAllRequiresDistribution(t *testing.T) {
	svc, _ := newRoundService(newFakeRoundStore(), newFakeDistributionStore(), newFakeAllocationStore())

	_, err := svc.FindAll(context.Background(), "missing")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestFindOneNotFound(t *testing.T) {
	svc, _ := newRoundService(newFakeRoundStore(), newFakeDistributionStore(), newFakeAllocationStore())

	_, err := svc.FindOne(context.Background(), "missing")
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if apperr.Message(err) != "Round Not Found" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}
}
