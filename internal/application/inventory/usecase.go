package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-batches/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-batches/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
)

const (
	inventoryService = "inventory-service"
	useCaseReserve   = "inventory.reserve"
	useCaseGet       = "inventory.get"
	publishPeer      = "outbox"
	endpointReserved = "inventory.reserved"
	publishTimeout   = 300 * time.Millisecond

	// MessageReserved is returned to callers of a successful reservation.
	MessageReserved = "Inventory updated successfully"
)

var ErrRepository = errors.New("inventory: repository failure")

type ReserveInventoryInput struct {
	ProductID int64
	Quantity  int
}

type ReserveInventoryResult struct {
	// BatchIDs lists the touched batches in the order they were deducted.
	BatchIDs []int64
	Message  string
}

var _ application.UseCase[ReserveInventoryInput, *ReserveInventoryResult] = (*ReserveInventoryUseCase)(nil)

// ReserveInventoryUseCase selects batches with the configured strategy and deducts them
// in one unit of work.
type ReserveInventoryUseCase struct {
	repo      dominv.Repository
	selectors *dominv.Registry
	strategy  string
	publisher domoutbox.Publisher
	now       func() time.Time
	inst      application.Instruments
}

func NewReserveInventoryUseCase(
	repo dominv.Repository,
	selectors *dominv.Registry,
	strategy string,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *ReserveInventoryUseCase {
	if selectors == nil {
		selectors = dominv.NewRegistry()
	}
	if strategy == "" {
		strategy = dominv.StrategyFIFO
	}
	return &ReserveInventoryUseCase{
		repo:      repo,
		selectors: selectors,
		strategy:  strategy,
		publisher: publisher,
		now:       time.Now,
		inst:      application.NewInstruments(tel, inventoryService),
	}
}

// Execute reserves cmd.Quantity units of cmd.ProductID. On any error no batch is changed.
func (uc *ReserveInventoryUseCase) Execute(ctx context.Context, cmd ReserveInventoryInput) (_ *ReserveInventoryResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseReserve, "ReserveInventory",
		attribute.Int64("product.id", cmd.ProductID),
		attribute.Int("reservation.quantity", cmd.Quantity),
		attribute.String("reservation.strategy", uc.strategy),
	)
	run.With(
		observability.F("product_id", cmd.ProductID),
		observability.F("quantity", cmd.Quantity),
	)
	defer func() { run.End(err) }()

	if cmd.Quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return nil, dominv.ErrInvalidQuantity
	}

	selector := uc.selectors.Get(uc.strategy)
	var plan dominv.ReservationPlan
	err = uc.repo.Atomically(ctx, func(ctx context.Context, tx dominv.Store) error {
		batches, err := tx.ListByProduct(ctx, cmd.ProductID)
		if err != nil {
			return fmt.Errorf("%w: list batches: %w", ErrRepository, err)
		}
		if len(batches) == 0 {
			return fmt.Errorf("%w: %d", dominv.ErrProductNotFound, cmd.ProductID)
		}

		plan, err = selector.Select(batches, cmd.Quantity)
		if err != nil {
			return err
		}
		return applyPlan(ctx, tx, plan)
	})
	if err != nil {
		run.Fail(statusFromError(err))
		return nil, err
	}

	run.Span().AddEvent("inventory.reserved",
		trace.WithAttributes(attribute.Int64Slice("batch.ids", plan.BatchIDs())),
	)
	run.With(observability.F("batch_ids", plan.BatchIDs()))

	if publishErr := uc.publish(ctx, dominv.NewInventoryReservedEvent(cmd.ProductID, uc.strategy, plan, uc.now())); publishErr != nil {
		// The deduction is committed; the event is best effort.
		run.Status("EVENT_PUBLISH_FAILED")
		run.With(observability.F("event_publish_error", publishErr.Error()))
	}

	return &ReserveInventoryResult{
		BatchIDs: plan.BatchIDs(),
		Message:  MessageReserved,
	}, nil
}

// applyPlan re-reads each planned batch and deducts it, in plan order.
func applyPlan(ctx context.Context, tx dominv.Store, plan dominv.ReservationPlan) error {
	for _, a := range plan.Allocations {
		batch, err := tx.Get(ctx, a.BatchID)
		if err != nil {
			if errors.Is(err, dominv.ErrBatchNotFound) {
				return err
			}
			return fmt.Errorf("%w: get batch %d: %w", ErrRepository, a.BatchID, err)
		}
		if err := batch.Deduct(a.Quantity); err != nil {
			return err
		}
		if err := tx.Save(ctx, batch); err != nil {
			return fmt.Errorf("%w: save batch %d: %w", ErrRepository, a.BatchID, err)
		}
	}
	return nil
}

func (uc *ReserveInventoryUseCase) publish(ctx context.Context, event domoutbox.Event) error {
	if uc.publisher == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	start := time.Now()
	err := uc.publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	uc.inst.ObserveExternal(publishPeer, endpointReserved, outcome, start)
	return err
}

func statusFromError(err error) string {
	switch {
	case errors.Is(err, dominv.ErrProductNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, dominv.ErrInsufficientInventory):
		return "INSUFFICIENT_INVENTORY"
	case errors.Is(err, dominv.ErrInsufficientQuantity):
		return "INSUFFICIENT_QUANTITY"
	case errors.Is(err, dominv.ErrBatchNotFound):
		return "BATCH_NOT_FOUND"
	case errors.Is(err, dominv.ErrInvalidQuantity):
		return "QUANTITY_INVALID"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "REPO_FAILED"
	}
}
