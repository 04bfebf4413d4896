package ports

import (
	"context"
	"time"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// RouteInput identifies an agency by its (country, city, name) tuple.
type RouteInput struct {
	Country    string
	City       string
	AgencyName string
}

// ParcelInput holds the sender supplied geometry of one parcel.
type ParcelInput struct {
	Height float64
	Width  float64
	Length float64
	Weight float64
}

// CreateSimulationRequest carries everything needed to open a draft.
type CreateSimulationRequest struct {
	Departure RouteInput
	Arrival   RouteInput
	Parcels   []ParcelInput
	// UserID is set when the caller is authenticated; anonymous drafts are
	// claimed later through AssignUser.
	UserID string
}

// EditSimulationRequest replaces the route and parcel set of a draft.
type EditSimulationRequest struct {
	Departure RouteInput
	Arrival   RouteInput
	Parcels   []ParcelInput
}

// ParcelView is a parcel as returned to callers.
type ParcelView struct {
	Height float64
	Width  float64
	Length float64
	Weight float64
	Volume float64
}

// SimulationCore holds the fields shared by every lifecycle stage.
type SimulationCore struct {
	ID                string
	DepartureAgencyID string
	ArrivalAgencyID   string
	UserID            string
	DestinataireID    string
	TransportID       string
	Parcels           []ParcelView
	TotalWeight       float64
	TotalVolume       float64
	TotalPrice        float64
	DepartureDate     time.Time
	ArrivalDate       time.Time
	EnvoiStatus       domain.EnvoiStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SimulationSnapshot is one of *DraftSimulation, *ConfirmedSimulation or
// *CancelledSimulation. The set is closed: only this package can add stages.
type SimulationSnapshot interface {
	Core() *SimulationCore
	Stage() domain.SimulationStatus
	sealed()
}

// DraftSimulation is an editable, unpaid simulation.
type DraftSimulation struct {
	SimulationCore
}

// ConfirmedSimulation is a paid shipment. It always carries its tracking
// number and QR code.
type ConfirmedSimulation struct {
	SimulationCore
	TrackingNumber string
	QRCodeURL      string
	CompletedAt    time.Time
}

// CancelledSimulation is a draft that was abandoned; it owns no parcels.
type CancelledSimulation struct {
	SimulationCore
}

func (s *DraftSimulation) Core() *SimulationCore         { return &s.SimulationCore }
func (s *DraftSimulation) Stage() domain.SimulationStatus { return domain.SimulationDraft }
func (s *DraftSimulation) sealed()                        {}

func (s *ConfirmedSimulation) Core() *SimulationCore         { return &s.SimulationCore }
func (s *ConfirmedSimulation) Stage() domain.SimulationStatus { return domain.SimulationCompleted }
func (s *ConfirmedSimulation) sealed()                        {}

func (s *CancelledSimulation) Core() *SimulationCore         { return &s.SimulationCore }
func (s *CancelledSimulation) Stage() domain.SimulationStatus { return domain.SimulationCancelled }
func (s *CancelledSimulation) sealed()                        {}

// SimulationService defines the simulation lifecycle use cases.
type SimulationService interface {
	Create(ctx context.Context, req CreateSimulationRequest) (*DraftSimulation, error)
	Edit(ctx context.Context, id string, req EditSimulationRequest) (*DraftSimulation, error)
	Get(ctx context.Context, id string) (SimulationSnapshot, error)
	ListByUser(ctx context.Context, userID string) ([]SimulationSnapshot, error)
	AssignDestinataire(ctx context.Context, id, destinataireID string) (*DraftSimulation, error)
	AssignUser(ctx context.Context, id, userID string) (SimulationSnapshot, error)
	Cancel(ctx context.Context, id string) (*CancelledSimulation, error)
	// Confirm completes a paid simulation. Calling it again on a confirmed
	// simulation returns the same result without writing anything.
	Confirm(ctx context.Context, id string) (*ConfirmedSimulation, error)
	Events(ctx context.Context, id string) ([]domain.TrackingEvent, error)
}
