package domain

import "time"

// TrackingEventCreated is recorded once a simulation is confirmed.
const TrackingEventCreated = "CREATED"

// TrackingEvent records a lifecycle step of a shipment at a location.
type TrackingEvent struct {
	ID             string    `json:"id" bson:"_id"`
	SimulationID   string    `json:"simulation_id" bson:"simulation_id"`
	TrackingNumber string    `json:"tracking_number" bson:"tracking_number"`
	Status         string    `json:"status" bson:"status"`
	Location       string    `json:"location" bson:"location"`
	Description    string    `json:"description" bson:"description"`
	OccurredAt     time.Time `json:"occurred_at" bson:"occurred_at"`
}
