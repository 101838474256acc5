package ports

import (
	"context"

	"github.com/tdex-network/fedbook/internal/core/domain"
)

// CoordinatorClient fetches the public resources exposed by a coordinator at
// the given base url.
type CoordinatorClient interface {
	// GetBook returns the public orders of the coordinator. A coordinator
	// without orders returns an empty list.
	GetBook(ctx context.Context, baseURL string) ([]domain.PublicOrder, error)
	// GetLimits returns the price and amount bounds per currency.
	GetLimits(ctx context.Context, baseURL string) (domain.LimitList, error)
	// GetInfo returns the stats and node details of the coordinator.
	GetInfo(ctx context.Context, baseURL string) (*domain.Info, error)
}
