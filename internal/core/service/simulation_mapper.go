package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
)

func toParcels(inputs []ports.ParcelInput) []domain.Parcel {
	parcels := make([]domain.Parcel, 0, len(inputs))
	for i, in := range inputs {
		parcels = append(parcels, domain.Parcel{
			Position: i,
			Height:   in.Height,
			Width:    in.Width,
			Length:   in.Length,
			Weight:   in.Weight,
		})
	}
	return parcels
}

// bindParcels gives each parcel an id and attaches it to simulationID.
func bindParcels(simulationID string, parcels []domain.Parcel) {
	for i := range parcels {
		parcels[i].ID = uuid.NewString()
		parcels[i].SimulationID = simulationID
	}
}

func coreOf(sim *domain.Simulation, parcels []domain.Parcel) ports.SimulationCore {
	views := make([]ports.ParcelView, 0, len(parcels))
	for _, p := range parcels {
		views = append(views, ports.ParcelView{
			Height: p.Height,
			Width:  p.Width,
			Length: p.Length,
			Weight: p.Weight,
			Volume: p.Volume(),
		})
	}
	return ports.SimulationCore{
		ID:                sim.ID,
		DepartureAgencyID: sim.DepartureAgencyID,
		ArrivalAgencyID:   sim.ArrivalAgencyID,
		UserID:            sim.UserID,
		DestinataireID:    sim.DestinataireID,
		TransportID:       sim.TransportID,
		Parcels:           views,
		TotalWeight:       sim.TotalWeight,
		TotalVolume:       sim.TotalVolume,
		TotalPrice:        sim.TotalPrice,
		DepartureDate:     sim.DepartureDate,
		ArrivalDate:       sim.ArrivalDate,
		EnvoiStatus:       sim.EnvoiStatus,
		CreatedAt:         sim.CreatedAt,
		UpdatedAt:         sim.UpdatedAt,
	}
}

func draftOf(sim *domain.Simulation, parcels []domain.Parcel) *ports.DraftSimulation {
	return &ports.DraftSimulation{SimulationCore: coreOf(sim, parcels)}
}

// confirmedOf fails when sim is missing any field minted at confirmation.
func confirmedOf(sim *domain.Simulation, parcels []domain.Parcel) (*ports.ConfirmedSimulation, error) {
	if !sim.IsConfirmed() {
		return nil, fmt.Errorf("simulation %s is completed without tracking data", sim.ID)
	}
	out := &ports.ConfirmedSimulation{
		SimulationCore: coreOf(sim, parcels),
		TrackingNumber: sim.TrackingNumber,
		QRCodeURL:      sim.QRCodeURL,
	}
	if sim.CompletedAt != nil {
		out.CompletedAt = *sim.CompletedAt
	}
	return out, nil
}

func snapshotOf(sim *domain.Simulation, parcels []domain.Parcel) (ports.SimulationSnapshot, error) {
	switch sim.SimulationStatus {
	case domain.SimulationDraft:
		return draftOf(sim, parcels), nil
	case domain.SimulationCompleted:
		return confirmedOf(sim, parcels)
	case domain.SimulationCancelled:
		return &ports.CancelledSimulation{SimulationCore: coreOf(sim, nil)}, nil
	default:
		return nil, fmt.Errorf("simulation %s has unknown status %q", sim.ID, sim.SimulationStatus)
	}
}
