package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

// GetOrderUseCase loads a persisted order by id.
type GetOrderUseCase struct {
	repo domain.Repository
}

var _ application.UseCase[string, *domain.Order] = (*GetOrderUseCase)(nil)

func NewGetOrderUseCase(repo domain.Repository) *GetOrderUseCase {
	return &GetOrderUseCase{repo: repo}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, id string) (*domain.Order, error) {
	o, err := uc.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		return o, nil
	case errors.Is(err, domain.ErrNotFound):
		return nil, application.Wrap(application.ErrNotFound, err)
	default:
		return nil, application.Wrap(application.ErrPersistence, err)
	}
}
