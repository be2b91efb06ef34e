package service

import (
	"context"
	"time"

	"github.com/wisal-aid/coupon-service/internal/models"
	"github.com/wisal-aid/coupon-service/internal/repository"
)

type fakeRoundStore struct {
	rounds   map[string]*models.Round
	contexts map[string]*models.RoundContext
	created  []*models.Round
	updated  []*models.Round
	deleted  []string
	lists    map[string][]models.RoundSummary

	createErr error
	updateErr error
}

func newFakeRoundStore() *fakeRoundStore {
	return &fakeRoundStore{
		rounds:   make(map[string]*models.Round),
		contexts: make(map[string]*models.RoundContext),
		lists:    make(map[string][]models.RoundSummary),
	}
}

func (f *fakeRoundStore) Create(ctx context.Context, round *models.Round) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, round)
	f.rounds[round.ID] = round
	return nil
}

func (f *fakeRoundStore) FindByID(ctx context.Context, id string) (*models.Round, error) {
	return f.rounds[id], nil
}

func (f *fakeRoundStore) FindWithContext(ctx context.Context, id string) (*models.RoundContext, error) {
	return f.contexts[id], nil
}

func (f *fakeRoundStore) ListByDistribution(ctx context.Context, distributionID string) ([]models.RoundSummary, error) {
	return f.lists[distributionID], nil
}

func (f *fakeRoundStore) Update(ctx context.Context, round *models.Round) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, round)
	return nil
}

func (f *fakeRoundStore) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.rounds, id)
	return nil
}

type fakeAllocationStore struct {
	counts   map[string]int
	byCode   map[string]*models.Allocation
	receipts map[string]*models.DeliveryReceipt
	statuses map[string][]models.AllocationStatus
	byRound  map[string][]models.AllocationWithBeneficiary

	batches      [][]models.Allocation
	collisions   int // CreateBatch fails with ErrCodeCollision this many times
	markOK       bool
	markedID     string
	markedAt     time.Time
	markedBy     *string
	createErr    error
	markCalled   int
	createCalled int
}

func newFakeAllocationStore() *fakeAllocationStore {
	return &fakeAllocationStore{
		counts:   make(map[string]int),
		byCode:   make(map[string]*models.Allocation),
		receipts: make(map[string]*models.DeliveryReceipt),
		statuses: make(map[string][]models.AllocationStatus),
		byRound:  make(map[string][]models.AllocationWithBeneficiary),
		markOK:   true,
	}
}

func (f *fakeAllocationStore) CountByRound(ctx context.Context, roundID string) (int, error) {
	return f.counts[roundID], nil
}

func (f *fakeAllocationStore) CreateBatch(ctx context.Context, roundID string, allocs []models.Allocation) error {
	f.createCalled++
	if f.collisions > 0 {
		f.collisions--
		return repository.ErrCodeCollision
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.batches = append(f.batches, allocs)
	f.counts[roundID] += len(allocs)
	return nil
}

func (f *fakeAllocationStore) FindByCode(ctx context.Context, couponCode string) (*models.Allocation, error) {
	return f.byCode[couponCode], nil
}

func (f *fakeAllocationStore) MarkDelivered(ctx context.Context, id string, now time.Time, deliveredBy *string) (bool, error) {
	f.markCalled++
	f.markedID = id
	f.markedAt = now
	f.markedBy = deliveredBy
	return f.markOK, nil
}

func (f *fakeAllocationStore) ReceiptByCode(ctx context.Context, couponCode string) (*models.DeliveryReceipt, error) {
	return f.receipts[couponCode], nil
}

func (f *fakeAllocationStore) ListByRound(ctx context.Context, roundID string) ([]models.AllocationWithBeneficiary, error) {
	return f.byRound[roundID], nil
}

func (f *fakeAllocationStore) ListStatusesByRound(ctx context.Context, roundID string) ([]models.AllocationStatus, error) {
	return f.statuses[roundID], nil
}

type fakeBeneficiaryStore struct {
	active map[string]models.Beneficiary
}

func newFakeBeneficiaryStore(ids ...string) *fakeBeneficiaryStore {
	f := &fakeBeneficiaryStore{active: make(map[string]models.Beneficiary)}
	for _, id := range ids {
		f.active[id] = models.Beneficiary{ID: id, FullName: "Beneficiary " + id, Active: true}
	}
	return f
}

func (f *fakeBeneficiaryStore) FindActiveByIDs(ctx context.Context, ids []string) ([]models.Beneficiary, error) {
	var out []models.Beneficiary
	for _, id := range ids {
		if b, ok := f.active[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeDistributionStore struct {
	distributions map[string]*models.Distribution
}

func newFakeDistributionStore(ids ...string) *fakeDistributionStore {
	f := &fakeDistributionStore{distributions: make(map[string]*models.Distribution)}
	for _, id := range ids {
		f.distributions[id] = &models.Distribution{ID: id, Title: "Distribution " + id}
	}
	return f
}

func (f *fakeDistributionStore) FindByID(ctx context.Context, id string) (*models.Distribution, error) {
	return f.distributions[id], nil
}
