package ports

import (
	"context"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

type CatalogService interface {
	FetchMenu(ctx context.Context) ([]entity.MenuItem, error)
	FetchWeeklyPlan(ctx context.Context) (entity.WeeklyPlan, error)
}

type OrderService interface {
	PlaceOrder(ctx context.Context, order *entity.Order) (string, error)
	FetchHistory(ctx context.Context, userID string) ([]entity.OrderDoc, error)
}

type PaymentService interface {
	CreatePaymentSheet(ctx context.Context, req entity.PaymentSheetRequest) (*entity.PaymentSheet, error)
}

// Backend is everything the storefront needs from the remote API.
type Backend interface {
	CatalogService
	OrderService
	PaymentService
}
