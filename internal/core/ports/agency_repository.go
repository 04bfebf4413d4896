package ports

import (
	"context"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// AgencyRepository resolves agencies and records which senders they serve.
type AgencyRepository interface {
	// ResolveID returns the id of the agency named name in (country, city),
	// or domain.ErrAgencyNotFound.
	ResolveID(ctx context.Context, country, city, name string) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Agency, error)
	// LinkClient records userID as a client of agencyID. Linking twice is a no-op.
	LinkClient(ctx context.Context, agencyID, userID string) error
}

// TariffSource supplies the rate card currently in effect.
type TariffSource interface {
	Current(ctx context.Context) (*domain.Tariff, error)
}
