package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dominv "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-batches/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-batches/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

// staleStore reports more stock than the batches hold, as if another request deducted
// between selection and application.
type staleStore struct {
	dominv.Store
	extra int
}

func (s staleStore) ListByProduct(ctx context.Context, productID int64) ([]dominv.Batch, error) {
	batches, err := s.Store.ListByProduct(ctx, productID)
	for i := range batches {
		batches[i].Quantity += s.extra
	}
	return batches, err
}

type staleRepository struct {
	*memory.BatchRepository
	extra int
}

func (r staleRepository) Atomically(ctx context.Context, fn func(ctx context.Context, tx dominv.Store) error) error {
	return r.BatchRepository.Atomically(ctx, func(ctx context.Context, tx dominv.Store) error {
		return fn(ctx, staleStore{Store: tx, extra: r.extra})
	})
}

type ReserveInventorySuite struct {
	suite.Suite
	repo      *memory.BatchRepository
	publisher *recordingPublisher
	uc        *ReserveInventoryUseCase
}

func (s *ReserveInventorySuite) SetupTest() {
	s.repo = memory.NewBatchRepository()
	ctx := context.Background()
	s.Require().NoError(s.repo.Add(ctx, &dominv.Batch{ID: 1, ProductID: 1001, ProductName: "Laptop", Quantity: 50, ExpiryDate: time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)}))
	s.Require().NoError(s.repo.Add(ctx, &dominv.Batch{ID: 2, ProductID: 1001, ProductName: "Laptop", Quantity: 30, ExpiryDate: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)}))
	s.publisher = &recordingPublisher{}
	s.uc = NewReserveInventoryUseCase(s.repo, nil, "", s.publisher, observability.Nop())
}

func (s *ReserveInventorySuite) quantities() map[int64]int {
	batches, err := s.repo.ListByProduct(context.Background(), 1001)
	s.Require().NoError(err)
	out := map[int64]int{}
	for _, b := range batches {
		out[b.ID] = b.Quantity
	}
	return out
}

func (s *ReserveInventorySuite) TestReserveFromEarliestBatch() {
	res, err := s.uc.Execute(context.Background(), ReserveInventoryInput{ProductID: 1001, Quantity: 20})

	s.Require().NoError(err)
	s.Equal([]int64{1}, res.BatchIDs)
	s.Equal(MessageReserved, res.Message)
	s.Equal(map[int64]int{1: 30, 2: 30}, s.quantities())
}

func (s *ReserveInventorySuite) TestReserveAcrossBatches() {
	res, err := s.uc.Execute(context.Background(), ReserveInventoryInput{ProductID: 1001, Quantity: 60})

	s.Require().NoError(err)
	s.Equal([]int64{1, 2}, res.BatchIDs)
	s.Equal(map[int64]int{1: 0, 2: 20}, s.quantities())

	s.Require().Len(s.publisher.events, 1)
	evt, ok := s.publisher.events[0].(dominv.InventoryReservedEvent)
	s.Require().True(ok)
	s.Equal(60, evt.Quantity)
	s.Equal(dominv.StrategyFIFO, evt.Strategy)
}

func (s *ReserveInventorySuite) TestInsufficientInventoryChangesNothing() {
	_, err := s.uc.Execute(context.Background(), ReserveInventoryInput{ProductID: 1001, Quantity: 100})

	s.ErrorIs(err, dominv.ErrInsufficientInventory)
	s.Equal(map[int64]int{1: 50, 2: 30}, s.quantities())
	s.Empty(s.publisher.events)
}

func (s *ReserveInventorySuite) TestUnknownProduct() {
	_, err := s.uc.Execute(context.Background(), ReserveInventoryInput{ProductID: 9999, Quantity: 1})

	s.ErrorIs(err, dominv.ErrProductNotFound)
}

func (s *ReserveInventorySuite) TestNonPositiveQuantity() {
	_, err := s.uc.Execute(context.Background(), ReserveInventoryInput{ProductID: 1001, Quantity: 0})

	s.ErrorIs(err, dominv.ErrInvalidQuantity)
}

func (s *ReserveInventorySuite) TestBatchShrankAfterSelectionRollsBack() {
	uc := NewReserveInventoryUseCase(staleRepository{BatchRepository: s.repo, extra: 5}, nil, dominv.StrategyFIFO, nil, nil)

	// Stale view: batch 1 = 55, batch 2 = 35, so the plan is {1: 55, 2: 5}.
	_, err := uc.Execute(context.Background(), ReserveInventoryInput{ProductID: 1001, Quantity: 60})

	s.ErrorIs(err, dominv.ErrInsufficientQuantity)
	var insufficient *dominv.InsufficientQuantityError
	s.Require().ErrorAs(err, &insufficient)
	s.Equal(int64(1), insufficient.BatchID)
	s.Equal(map[int64]int{1: 50, 2: 30}, s.quantities())
}

func (s *ReserveInventorySuite) TestPublishFailureKeepsReservation() {
	s.publisher.err = errors.New("bus closed")

	res, err := s.uc.Execute(context.Background(), ReserveInventoryInput{ProductID: 1001, Quantity: 10})

	s.Require().NoError(err)
	s.Equal([]int64{1}, res.BatchIDs)
	s.Equal(40, s.quantities()[1])
}

func (s *ReserveInventorySuite) TestConfiguredStrategyIsUsed() {
	registry := dominv.NewRegistry()
	registry.Register("LATEST", dominv.SelectorFunc(func(batches []dominv.Batch, required int) (dominv.ReservationPlan, error) {
		last := batches[len(batches)-1]
		return dominv.ReservationPlan{Allocations: []dominv.Allocation{{BatchID: last.ID, Quantity: required}}}, nil
	}))
	uc := NewReserveInventoryUseCase(s.repo, registry, "LATEST", nil, nil)

	res, err := uc.Execute(context.Background(), ReserveInventoryInput{ProductID: 1001, Quantity: 5})

	s.Require().NoError(err)
	s.Equal([]int64{2}, res.BatchIDs)
	s.Equal(25, s.quantities()[2])
}

func TestReserveInventorySuite(t *testing.T) {
	suite.Run(t, new(ReserveInventorySuite))
}

func TestGetInventory_ReturnsBatchesInExpiryOrder(t *testing.T) {
	repo := memory.NewBatchRepository()
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, &dominv.Batch{ID: 5, ProductID: 1002, ProductName: "Smartphone", Quantity: 3, ExpiryDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}))
	require.NoError(t, repo.Add(ctx, &dominv.Batch{ID: 6, ProductID: 1002, ProductName: "Smartphone", Quantity: 4, ExpiryDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}))
	uc := NewGetInventoryUseCase(repo, nil)

	view, err := uc.Execute(ctx, GetInventoryQuery{ProductID: 1002})

	require.NoError(t, err)
	assert.Equal(t, "Smartphone", view.ProductName)
	assert.Equal(t, int64(6), view.Batches[0].ID)
	assert.Equal(t, 7, view.Total())

	_, err = uc.Execute(ctx, GetInventoryQuery{ProductID: 1})
	assert.ErrorIs(t, err, dominv.ErrProductNotFound)
}
