package domain

// Shipping limits applied to parcels, simulations and transports.
const (
	ColisMaxPerEnvoi = 5

	MinParcelWeight = 1.0
	MaxParcelWeight = 70.0
	MaxParcelSide   = 120.0
	// MaxParcelDimensionSum is exclusive: h+w+l must stay strictly below it.
	MaxParcelDimensionSum = 360.0
	MinParcelVolume       = 1728.0

	MaxEnvoiWeight = 70.0
	// MaxEnvoiVolume bounds the sum of h+w+l over every parcel of a shipment.
	MaxEnvoiVolume = 360.0

	MaxTransportWeight = 40000.0    // kg
	MaxTransportVolume = 90000000.0 // cm³ (90 m³)
)
