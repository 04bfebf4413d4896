package domain

// Parcel is one physical package of a shipment. Dimensions are in cm, weight in kg.
type Parcel struct {
	ID           string  `json:"id" bson:"_id"`
	SimulationID string  `json:"simulation_id" bson:"simulation_id"`
	Position     int     `json:"position" bson:"position"`
	Height       float64 `json:"height" bson:"height" validate:"gt=0"`
	Width        float64 `json:"width" bson:"width" validate:"gt=0"`
	Length       float64 `json:"length" bson:"length" validate:"gt=0"`
	Weight       float64 `json:"weight" bson:"weight" validate:"gte=1,lte=70"`
}

// Volume returns h*w*l in cm³.
func (p Parcel) Volume() float64 {
	return p.Height * p.Width * p.Length
}

// DimensionSum returns h+w+l in cm.
func (p Parcel) DimensionSum() float64 {
	return p.Height + p.Width + p.Length
}

// LargestSide returns the longest of the three dimensions.
func (p Parcel) LargestSide() float64 {
	return max(p.Height, p.Width, p.Length)
}
