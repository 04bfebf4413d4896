package domain

import "time"

// SimulationStatus is the lifecycle state of a simulation.
type SimulationStatus string

const (
	SimulationDraft     SimulationStatus = "DRAFT"
	SimulationCompleted SimulationStatus = "COMPLETED"
	SimulationCancelled SimulationStatus = "CANCELLED"
)

// EnvoiStatus is the physical lifecycle state of the shipment.
type EnvoiStatus string

const (
	EnvoiPending   EnvoiStatus = "PENDING"
	EnvoiDeposited EnvoiStatus = "DEPOSITED"
	EnvoiInTransit EnvoiStatus = "IN_TRANSIT"
	EnvoiArrived   EnvoiStatus = "ARRIVED"
	EnvoiDelivered EnvoiStatus = "DELIVERED"
	EnvoiCancelled EnvoiStatus = "CANCELLED"
)

// validTransitions defines the allowed simulation state machine transitions.
var validTransitions = map[SimulationStatus][]SimulationStatus{
	SimulationDraft: {SimulationDraft, SimulationCompleted, SimulationCancelled},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s SimulationStatus) CanTransitionTo(next SimulationStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Schedule carries the estimated departure and arrival of a shipment.
type Schedule struct {
	DepartureDate time.Time
	ArrivalDate   time.Time
}

// Totals is the aggregate of a parcel set priced with a tariff.
type Totals struct {
	TotalWeight   float64
	TotalVolume   float64
	TotalPrice    float64
	DepartureDate time.Time
	ArrivalDate   time.Time
}

// Simulation is the persisted shipment record, from draft quote to confirmed envoi.
// Parcels live in their own collection and are not embedded.
type Simulation struct {
	ID                string           `json:"id" bson:"_id"`
	DepartureAgencyID string           `json:"departure_agency_id" bson:"departure_agency_id"`
	ArrivalAgencyID   string           `json:"arrival_agency_id" bson:"arrival_agency_id"`
	TotalWeight       float64          `json:"total_weight" bson:"total_weight"`
	TotalVolume       float64          `json:"total_volume" bson:"total_volume"`
	TotalPrice        float64          `json:"total_price" bson:"total_price"`
	DepartureDate     time.Time        `json:"departure_date" bson:"departure_date"`
	ArrivalDate       time.Time        `json:"arrival_date" bson:"arrival_date"`
	SimulationStatus  SimulationStatus `json:"simulation_status" bson:"simulation_status"`
	EnvoiStatus       EnvoiStatus      `json:"envoi_status" bson:"envoi_status"`
	UserID            string           `json:"user_id,omitempty" bson:"user_id,omitempty"`
	DestinataireID    string           `json:"destinataire_id,omitempty" bson:"destinataire_id,omitempty"`
	TransportID       string           `json:"transport_id,omitempty" bson:"transport_id,omitempty"`
	Paid              bool             `json:"paid" bson:"paid"`
	TrackingNumber    string           `json:"tracking_number,omitempty" bson:"tracking_number,omitempty"`
	QRCodeURL         string           `json:"qr_code_url,omitempty" bson:"qr_code_url,omitempty"`
	CreatedAt         time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" bson:"updated_at"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// ApplyTotals overwrites the computed fields with t.
func (s *Simulation) ApplyTotals(t Totals) {
	s.TotalWeight = t.TotalWeight
	s.TotalVolume = t.TotalVolume
	s.TotalPrice = t.TotalPrice
	s.DepartureDate = t.DepartureDate
	s.ArrivalDate = t.ArrivalDate
}

// IsConfirmed reports whether the simulation already went through a complete
// confirmation: every field minted by Confirm is present.
func (s *Simulation) IsConfirmed() bool {
	return s.SimulationStatus == SimulationCompleted &&
		s.Paid &&
		s.TrackingNumber != "" &&
		s.QRCodeURL != ""
}

// Completion holds the fields written when a simulation is confirmed.
type Completion struct {
	TrackingNumber string
	QRCodeURL      string
	CompletedAt    time.Time
}
