package domain

import "time"

// Tariff is the rate card used to price a shipment.
type Tariff struct {
	ID         string    `json:"id" bson:"_id"`
	WeightRate float64   `json:"weight_rate" bson:"weight_rate" validate:"gte=1,lte=70"`
	VolumeRate float64   `json:"volume_rate" bson:"volume_rate" validate:"gte=0,lte=120"`
	BaseRate   float64   `json:"base_rate" bson:"base_rate" validate:"gte=0"`
	FixedRate  float64   `json:"fixed_rate" bson:"fixed_rate" validate:"gte=0"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}
