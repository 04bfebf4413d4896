package ports

import (
	"context"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// CreateTransportInput describes a new vehicle.
type CreateTransportInput struct {
	Name          string
	PlateNumber   string
	BaseWeight    float64
	BaseVolume    float64
	CurrentWeight float64
	CurrentVolume float64
	IsAvailable   bool
}

// AssignmentResult is the business outcome of a transport assignment.
// Assigned is false, with a Reason, when no vehicle can take the shipment.
type AssignmentResult struct {
	Assigned     bool
	SimulationID string
	Transport    *domain.Transport
	Reason       string
}

// TransportService selects vehicles and reserves their capacity.
type TransportService interface {
	FindSuitableTransport(ctx context.Context, sim *domain.Simulation) (*domain.Transport, error)
	ReserveCapacity(ctx context.Context, t *domain.Transport, sim *domain.Simulation) (*domain.Transport, error)
	AssignTransport(ctx context.Context, simulationID string) (*AssignmentResult, error)

	CreateTransport(ctx context.Context, input CreateTransportInput) (*domain.Transport, error)
	ListTransports(ctx context.Context) ([]domain.Transport, error)
	SetAvailability(ctx context.Context, id string, available bool) (*domain.Transport, error)
}
