package inventory

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-batches/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-batches/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
)

type GetInventoryQuery struct {
	ProductID int64
}

// InventoryView is a product's stock, batches in expiry order.
type InventoryView struct {
	ProductID   int64
	ProductName string
	Batches     []dominv.Batch
}

func (v InventoryView) Total() int { return dominv.TotalQuantity(v.Batches) }

var _ application.UseCase[GetInventoryQuery, *InventoryView] = (*GetInventoryUseCase)(nil)

type GetInventoryUseCase struct {
	repo dominv.Store
	inst application.Instruments
}

func NewGetInventoryUseCase(repo dominv.Store, tel observability.Observability) *GetInventoryUseCase {
	return &GetInventoryUseCase{
		repo: repo,
		inst: application.NewInstruments(tel, inventoryService),
	}
}

func (uc *GetInventoryUseCase) Execute(ctx context.Context, q GetInventoryQuery) (_ *InventoryView, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseGet, "GetInventory",
		attribute.Int64("product.id", q.ProductID),
	)
	run.With(observability.F("product_id", q.ProductID))
	defer func() { run.End(err) }()

	batches, err := uc.repo.ListByProduct(ctx, q.ProductID)
	if err != nil {
		run.Fail("REPO_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if len(batches) == 0 {
		run.Fail("PRODUCT_NOT_FOUND")
		return nil, fmt.Errorf("%w: %d", dominv.ErrProductNotFound, q.ProductID)
	}

	run.With(observability.F("batches", len(batches)))
	return &InventoryView{
		ProductID:   q.ProductID,
		ProductName: batches[0].ProductName,
		Batches:     batches,
	}, nil
}
