package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-batches/internal/application"
	domain "github.com/Zhima-Mochi/minishop-batches/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-batches/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
)

const (
	orderService      = "order-service"
	useCasePlaceOrder = "order.place"
	useCaseGetOrder   = "order.get"
	inventoryPeer     = "inventory-service"
	endpointInventory = "GET /inventory/{productId}"
	endpointReserve   = "POST /inventory/update"
	publishPeer       = "outbox"
	publishEndpoint   = "order.placed"
	publishTimeout    = 300 * time.Millisecond

	// MessagePlaced is returned to callers of a successful placement.
	MessagePlaced = "Order placed. Inventory reserved."
)

var (
	ErrInvalidRequest        = errors.New("order: invalid request")
	ErrProductNotFound       = errors.New("order: product not found")
	ErrInsufficientInventory = errors.New("order: insufficient inventory")
	ErrReservationFailed     = errors.New("order: failed to update inventory")
	ErrDownstreamUnavailable = errors.New("order: inventory service unavailable")
	ErrDuplicateRequest      = errors.New("order: request with this idempotency key is in progress")
	ErrRepository            = errors.New("order: repository failure")
	ErrNotFound              = domain.ErrNotFound
)

type PlaceOrderInput struct {
	ProductID      int64
	Quantity       int
	IdempotencyKey string
}

type PlaceOrderResult struct {
	Order            *domain.Order
	ReservedBatchIDs []int64
	Message          string
	// Replayed is set when the order was found by its idempotency key.
	Replayed bool
}

var _ application.UseCase[PlaceOrderInput, *PlaceOrderResult] = (*PlaceOrderUseCase)(nil)

// PlaceOrderUseCase checks stock, reserves it in the inventory service and records the order.
type PlaceOrderUseCase struct {
	repo      domain.Repository
	inventory InventoryPort
	guard     IdempotencyGuard
	publisher domoutbox.Publisher
	now       func() time.Time
	inst      application.Instruments
}

func NewPlaceOrderUseCase(
	repo domain.Repository,
	inventory InventoryPort,
	guard IdempotencyGuard,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *PlaceOrderUseCase {
	return &PlaceOrderUseCase{
		repo:      repo,
		inventory: inventory,
		guard:     guard,
		publisher: publisher,
		now:       time.Now,
		inst:      application.NewInstruments(tel, orderService),
	}
}

func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCasePlaceOrder, "PlaceOrder",
		attribute.Int64("product.id", cmd.ProductID),
		attribute.Int("order.quantity", cmd.Quantity),
		attribute.Bool("order.idempotent", cmd.IdempotencyKey != ""),
	)
	run.With(
		observability.F("product_id", cmd.ProductID),
		observability.F("quantity", cmd.Quantity),
	)
	defer func() { run.End(err) }()

	if cmd.ProductID <= 0 {
		run.Fail("PRODUCT_ID_INVALID")
		return nil, fmt.Errorf("%w: productId must be greater than zero", ErrInvalidRequest)
	}
	if cmd.Quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidRequest)
	}

	if key := cmd.IdempotencyKey; key != "" {
		existing, lookupErr := uc.repo.FindByIdempotencyKey(ctx, key)
		switch {
		case lookupErr == nil:
			return replay(run, existing), nil
		case !errors.Is(lookupErr, domain.ErrNotFound):
			run.Fail("IDEMPOTENCY_LOOKUP_FAILED")
			return nil, fmt.Errorf("%w: %w", ErrRepository, lookupErr)
		}

		if uc.guard != nil {
			claimed, claimErr := uc.guard.Claim(ctx, key)
			if claimErr != nil {
				run.Fail("IDEMPOTENCY_CLAIM_FAILED")
				return nil, fmt.Errorf("%w: claim idempotency key: %w", ErrRepository, claimErr)
			}
			if !claimed {
				// The holder may have stored its order since the lookup above.
				if existing, err := uc.repo.FindByIdempotencyKey(ctx, key); err == nil {
					return replay(run, existing), nil
				}
				run.Fail("DUPLICATE_REQUEST")
				return nil, ErrDuplicateRequest
			}
			defer func() {
				if err == nil {
					return
				}
				if relErr := uc.guard.Release(context.WithoutCancel(ctx), key); relErr != nil {
					run.With(observability.F("idempotency_release_error", relErr.Error()))
				}
			}()
		}
	}

	view, err := uc.fetchInventory(ctx, cmd.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			run.Fail("PRODUCT_NOT_FOUND")
		} else {
			run.Fail("INVENTORY_UNAVAILABLE")
		}
		return nil, err
	}

	// Advisory only: the inventory service re-checks while deducting.
	if available := view.Total(); available < cmd.Quantity {
		run.Fail("INSUFFICIENT_INVENTORY")
		return nil, fmt.Errorf("%w. Required: %d, Available: %d", ErrInsufficientInventory, cmd.Quantity, available)
	}

	reservation, err := uc.reserve(ctx, cmd.ProductID, cmd.Quantity)
	if err != nil {
		if errors.Is(err, ErrDownstreamUnavailable) {
			run.Fail("INVENTORY_UNAVAILABLE")
		} else {
			run.Fail("RESERVATION_FAILED")
		}
		return nil, err
	}
	run.With(observability.F("batch_ids", reservation.BatchIDs))

	entity, err := domain.NewPlaced(cmd.ProductID, view.ProductName, cmd.Quantity, reservation.BatchIDs, uc.now())
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, fmt.Errorf("order: construct: %w", err)
	}
	entity.IdempotencyKey = cmd.IdempotencyKey

	if insertErr := uc.repo.Insert(ctx, entity); insertErr != nil {
		run.Fail("REPO_INSERT_FAILED")
		// No compensation: the inventory stays deducted.
		run.Logger().Error("reservation_orphaned",
			observability.F("product_id", cmd.ProductID),
			observability.F("quantity", cmd.Quantity),
			observability.F("batch_ids", reservation.BatchIDs),
			observability.Err(insertErr),
		)
		return nil, fmt.Errorf("%w: insert: %w", ErrRepository, insertErr)
	}
	run.With(observability.F("order_id", entity.ID))

	if publishErr := uc.publish(ctx, domain.NewOrderPlacedEvent(entity)); publishErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.With(observability.F("event_publish_error", publishErr.Error()))
	}

	run.Span().SetAttributes(attribute.String("order.status", string(entity.Status)))
	run.Span().AddEvent("order.placed",
		trace.WithAttributes(attribute.Int64("order.id", entity.ID)),
	)

	return &PlaceOrderResult{
		Order:            entity,
		ReservedBatchIDs: reservation.BatchIDs,
		Message:          MessagePlaced,
	}, nil
}

func replay(run *application.Run, existing *domain.Order) *PlaceOrderResult {
	run.Status("IDEMPOTENT_REPLAY")
	run.Span().AddEvent("order.idempotent_replay",
		trace.WithAttributes(attribute.Int64("order.id", existing.ID)),
	)
	return &PlaceOrderResult{
		Order:            existing,
		ReservedBatchIDs: existing.ReservedBatchIDs,
		Message:          MessagePlaced,
		Replayed:         true,
	}
}

func (uc *PlaceOrderUseCase) fetchInventory(ctx context.Context, productID int64) (*InventoryView, error) {
	start := time.Now()
	view, err := uc.inventory.Inventory(ctx, productID)
	uc.inst.ObserveExternal(inventoryPeer, endpointInventory, externalOutcome(err), start)

	switch {
	case errors.Is(err, ErrInventoryNotFound):
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	case err != nil:
		return nil, fmt.Errorf("%w: fetch inventory: %w", ErrDownstreamUnavailable, err)
	case view == nil || len(view.Batches) == 0:
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	return view, nil
}

func (uc *PlaceOrderUseCase) reserve(ctx context.Context, productID int64, quantity int) (*Reservation, error) {
	start := time.Now()
	res, err := uc.inventory.Reserve(ctx, productID, quantity)
	uc.inst.ObserveExternal(inventoryPeer, endpointReserve, externalOutcome(err), start)

	switch {
	case errors.Is(err, ErrInventoryUnavailable):
		return nil, fmt.Errorf("%w: update inventory: %w", ErrDownstreamUnavailable, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrReservationFailed, err)
	case res == nil:
		return nil, fmt.Errorf("%w: empty response", ErrReservationFailed)
	}
	return res, nil
}

func (uc *PlaceOrderUseCase) publish(ctx context.Context, event domoutbox.Event) error {
	if uc.publisher == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	start := time.Now()
	err := uc.publisher.Publish(pubCtx, event)
	uc.inst.ObserveExternal(publishPeer, publishEndpoint, externalOutcome(err), start)
	return err
}

func externalOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
