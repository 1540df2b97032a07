package order

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Zhima-Mochi/minishop-batches/internal/application"
	domain "github.com/Zhima-Mochi/minishop-batches/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
)

var _ application.UseCase[int64, *domain.Order] = (*GetOrderUseCase)(nil)

type GetOrderUseCase struct {
	repo domain.Repository
	inst application.Instruments
}

func NewGetOrderUseCase(repo domain.Repository, tel observability.Observability) *GetOrderUseCase {
	return &GetOrderUseCase{
		repo: repo,
		inst: application.NewInstruments(tel, orderService),
	}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, id int64) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseGetOrder, "GetOrder", attribute.Int64("order.id", id))
	run.With(observability.F("order_id", id))
	defer func() { run.End(err) }()

	o, err := uc.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		run.Fail("NOT_FOUND")
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	case err != nil:
		run.Fail("REPO_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return o, nil
}
