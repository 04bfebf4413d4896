package service

import (
	"context"
	"fmt"

	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
	"github.com/colisapp/shipping-core/internal/core/validation"
)

// TariffEngine supplies the rate card in effect. Tariffs are read fresh on
// every call; there is no versioning or caching.
type TariffEngine struct {
	source    ports.TariffSource
	validator *validation.Validator
}

func NewTariffEngine(source ports.TariffSource, validator *validation.Validator) *TariffEngine {
	return &TariffEngine{source: source, validator: validator}
}

// CurrentTariff returns the current snapshot. A snapshot whose rates are out
// of bounds is rejected rather than used for pricing.
func (e *TariffEngine) CurrentTariff(ctx context.Context) (domain.Tariff, error) {
	t, err := e.source.Current(ctx)
	if err != nil {
		return domain.Tariff{}, fmt.Errorf("current tariff: %w", err)
	}
	if err := e.validator.Tariff(*t); err != nil {
		return domain.Tariff{}, fmt.Errorf("current tariff: %w", err)
	}
	return *t, nil
}
