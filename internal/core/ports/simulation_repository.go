package ports

import (
	"context"
	"time"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// SimulationRepository defines persistence operations for simulations.
// Every state-changing method is conditional on the status the transition
// starts from, so a concurrent writer cannot move a simulation out of a state
// it already left.
type SimulationRepository interface {
	Create(ctx context.Context, s *domain.Simulation) error
	FindByID(ctx context.Context, id string) (*domain.Simulation, error)
	// ListByUser returns the sender's simulations, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Simulation, error)

	// UpdateDraft rewrites route, totals and dates of a DRAFT simulation.
	UpdateDraft(ctx context.Context, s *domain.Simulation) error
	SetDestinataire(ctx context.Context, id, destinataireID string) error
	// SetUserIfUnset attaches userID only when the simulation has no user yet.
	// It reports whether the write happened.
	SetUserIfUnset(ctx context.Context, id, userID string) (bool, error)
	MarkCancelled(ctx context.Context, id string, at time.Time) error
	MarkCompleted(ctx context.Context, id string, c domain.Completion) error
	// SetTransport binds a COMPLETED simulation that has no transport yet.
	SetTransport(ctx context.Context, id, transportID string) error
}

// ParcelRepository persists the parcels owned by a simulation.
type ParcelRepository interface {
	InsertMany(ctx context.Context, parcels []domain.Parcel) error
	// ListBySimulation returns parcels ordered by position.
	ListBySimulation(ctx context.Context, simulationID string) ([]domain.Parcel, error)
	DeleteBySimulation(ctx context.Context, simulationID string) (int64, error)
}
