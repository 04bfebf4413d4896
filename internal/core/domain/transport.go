package domain

import "time"

// Transport is a vehicle with a finite weight (kg) and volume (cm³) capacity.
type Transport struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	PlateNumber   string    `json:"plate_number" bson:"plate_number"`
	BaseWeight    float64   `json:"base_weight" bson:"base_weight"`
	BaseVolume    float64   `json:"base_volume" bson:"base_volume"`
	CurrentWeight float64   `json:"current_weight" bson:"current_weight"`
	CurrentVolume float64   `json:"current_volume" bson:"current_volume"`
	IsAvailable   bool      `json:"is_available" bson:"is_available"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// RemainingWeight is the weight that can still be loaded.
func (t Transport) RemainingWeight() float64 {
	return t.BaseWeight - t.CurrentWeight
}

// RemainingVolume is the volume that can still be loaded.
func (t Transport) RemainingVolume() float64 {
	return t.BaseVolume - t.CurrentVolume
}

// CanCarry reports whether the transport is available and has room for the load.
func (t Transport) CanCarry(weight, volume float64) bool {
	return t.IsAvailable &&
		t.RemainingWeight() >= weight &&
		t.RemainingVolume() >= volume
}
