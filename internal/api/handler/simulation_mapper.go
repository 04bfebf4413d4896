package handler

import (
	"time"

	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
)

func toRouteInput(r routeRequest) ports.RouteInput {
	return ports.RouteInput{Country: r.Country, City: r.City, AgencyName: r.AgencyName}
}

func toParcelInputs(parcels []parcelRequest) []ports.ParcelInput {
	out := make([]ports.ParcelInput, len(parcels))
	for i, p := range parcels {
		out[i] = ports.ParcelInput{Height: p.Height, Width: p.Width, Length: p.Length, Weight: p.Weight}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func toSimulationResponse(snap ports.SimulationSnapshot) simulationResponse {
	core := snap.Core()
	parcels := make([]parcelResponse, len(core.Parcels))
	for i, p := range core.Parcels {
		parcels[i] = parcelResponse{Height: p.Height, Width: p.Width, Length: p.Length, Weight: p.Weight, Volume: p.Volume}
	}

	resp := simulationResponse{
		ID:                core.ID,
		Status:            string(snap.Stage()),
		EnvoiStatus:       string(core.EnvoiStatus),
		DepartureAgencyID: core.DepartureAgencyID,
		ArrivalAgencyID:   core.ArrivalAgencyID,
		UserID:            core.UserID,
		DestinataireID:    core.DestinataireID,
		TransportID:       core.TransportID,
		Parcels:           parcels,
		TotalWeight:       core.TotalWeight,
		TotalVolume:       core.TotalVolume,
		TotalPrice:        core.TotalPrice,
		DepartureDate:     formatTime(core.DepartureDate),
		ArrivalDate:       formatTime(core.ArrivalDate),
		CreatedAt:         formatTime(core.CreatedAt),
		UpdatedAt:         formatTime(core.UpdatedAt),
		Links: simulationLinks{
			Self:   "/v1/simulations/" + core.ID,
			Events: "/v1/simulations/" + core.ID + "/events",
		},
	}

	if confirmed, ok := snap.(*ports.ConfirmedSimulation); ok {
		resp.TrackingNumber = confirmed.TrackingNumber
		resp.QRCodeURL = confirmed.QRCodeURL
		resp.CompletedAt = formatTime(confirmed.CompletedAt)
		resp.Links.QRCode = confirmed.QRCodeURL
	}
	return resp
}

func toEventsResponse(simulationID string, events []domain.TrackingEvent) eventsResponse {
	resp := eventsResponse{SimulationID: simulationID, Events: make([]trackingEventResponse, len(events))}
	for i, ev := range events {
		if resp.TrackingNumber == "" {
			resp.TrackingNumber = ev.TrackingNumber
		}
		resp.Events[i] = trackingEventResponse{
			Status:      ev.Status,
			Location:    ev.Location,
			Description: ev.Description,
			OccurredAt:  formatTime(ev.OccurredAt),
		}
	}
	return resp
}

func toAssignmentResponse(r *ports.AssignmentResult) assignmentResponse {
	return assignmentResponse{
		Assigned:     r.Assigned,
		SimulationID: r.SimulationID,
		Transport:    r.Transport,
		Reason:       r.Reason,
	}
}
