package ports

import "context"

// TrackingRoute is the input of tracking number generation.
type TrackingRoute struct {
	DepartureCountry   string
	DepartureCity      string
	DestinationCountry string
	DestinationCity    string
}

// TrackingNumberGenerator mints human readable, unique tracking numbers.
type TrackingNumberGenerator interface {
	Generate(ctx context.Context, route TrackingRoute) (string, error)
}

// QRCodeEncoder renders payload as a QR image stored under name and returns its
// URL. Remove discards an image whose confirmation did not commit.
type QRCodeEncoder interface {
	Encode(ctx context.Context, name string, payload any) (string, error)
	Remove(ctx context.Context, name string) error
}

// ConfirmationGuard serialises confirmations of the same simulation across
// requests (payment webhooks are delivered at least once). Acquire returns a
// token identifying this holder; Release only frees the guard it still owns.
type ConfirmationGuard interface {
	Acquire(ctx context.Context, simulationID string) (token string, ok bool, err error)
	Release(ctx context.Context, simulationID, token string) error
}
