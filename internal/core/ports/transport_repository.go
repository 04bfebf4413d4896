package ports

import (
	"context"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// TransportRepository defines persistence operations for transports.
type TransportRepository interface {
	Create(ctx context.Context, t *domain.Transport) error
	FindByID(ctx context.Context, id string) (*domain.Transport, error)
	List(ctx context.Context) ([]domain.Transport, error)
	// ListAvailable returns every transport flagged as available, in id order.
	ListAvailable(ctx context.Context) ([]domain.Transport, error)
	// Reserve adds weight and volume to the transport's current load in a
	// single conditional write that only matches while the resulting load
	// stays within the base capacity. It returns the updated transport, or
	// domain.ErrCapacityExceeded when the condition no longer holds.
	Reserve(ctx context.Context, id string, weight, volume float64) (*domain.Transport, error)
	SetAvailability(ctx context.Context, id string, available bool) (*domain.Transport, error)
}
