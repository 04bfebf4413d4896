package ports

import (
	"context"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// TrackingEventRepository persists the tracking history of a shipment.
type TrackingEventRepository interface {
	Insert(ctx context.Context, event *domain.TrackingEvent) error
	// ListBySimulation returns events ordered by occurrence.
	ListBySimulation(ctx context.Context, simulationID string) ([]domain.TrackingEvent, error)
}

// EventPublisher forwards committed events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}
