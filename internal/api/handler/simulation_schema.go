package handler

import (
	"time"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// --- Request types ---

type routeRequest struct {
	Country    string `json:"country" validate:"required"`
	City       string `json:"city" validate:"required"`
	AgencyName string `json:"agency_name" validate:"required"`
}

type parcelRequest struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
}

// simulationRequest is shared by create and edit. Parcel rules are enforced
// by the domain validator so every violation is reported with its index.
type simulationRequest struct {
	Departure routeRequest    `json:"departure"`
	Arrival   routeRequest    `json:"arrival"`
	Parcels   []parcelRequest `json:"parcels"`
}

type destinataireRequest struct {
	DestinataireID string `json:"destinataire_id" validate:"required"`
}

// --- Response types ---

type parcelResponse struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
	Volume float64 `json:"volume"`
}

type simulationLinks struct {
	Self   string `json:"self"`
	Events string `json:"events"`
	QRCode string `json:"qr_code,omitempty"`
}

type simulationResponse struct {
	ID                string           `json:"id"`
	Status            string           `json:"status"`
	EnvoiStatus       string           `json:"envoi_status"`
	DepartureAgencyID string           `json:"departure_agency_id"`
	ArrivalAgencyID   string           `json:"arrival_agency_id"`
	UserID            string           `json:"user_id,omitempty"`
	DestinataireID    string           `json:"destinataire_id,omitempty"`
	TransportID       string           `json:"transport_id,omitempty"`
	Parcels           []parcelResponse `json:"parcels"`
	TotalWeight       float64          `json:"total_weight"`
	TotalVolume       float64          `json:"total_volume"`
	TotalPrice        float64          `json:"total_price"`
	DepartureDate     string           `json:"departure_date"`
	ArrivalDate       string           `json:"arrival_date"`
	TrackingNumber    string           `json:"tracking_number,omitempty"`
	QRCodeURL         string           `json:"qr_code_url,omitempty"`
	CompletedAt       string           `json:"completed_at,omitempty"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
	Links             simulationLinks  `json:"_links"`
}

type simulationListResponse struct {
	Items []simulationResponse `json:"items"`
	Count int                  `json:"count"`
}

type trackingEventResponse struct {
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
	OccurredAt  string `json:"occurred_at"`
}

type eventsResponse struct {
	SimulationID   string                  `json:"simulation_id"`
	TrackingNumber string                  `json:"tracking_number,omitempty"`
	Events         []trackingEventResponse `json:"events"`
}

type assignmentResponse struct {
	Assigned     bool              `json:"assigned"`
	SimulationID string            `json:"simulation_id"`
	Transport    *domain.Transport `json:"transport,omitempty"`
	Reason       string            `json:"reason,omitempty"`
}

const timeLayout = time.RFC3339
