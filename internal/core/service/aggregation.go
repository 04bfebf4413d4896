package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// ComputeTotals reduces parcels into weight, volume and price. The schedule
// is carried through unchanged.
func ComputeTotals(parcels []domain.Parcel, tariff domain.Tariff, schedule domain.Schedule) (domain.Totals, error) {
	if len(parcels) == 0 {
		return domain.Totals{}, domain.ErrNoParcels
	}

	var totalWeight, totalVolume float64
	for _, p := range parcels {
		totalWeight += p.Weight
		totalVolume += p.Volume()
	}

	return domain.Totals{
		TotalWeight:   totalWeight,
		TotalVolume:   totalVolume,
		TotalPrice:    Price(totalWeight, totalVolume, tariff),
		DepartureDate: schedule.DepartureDate,
		ArrivalDate:   schedule.ArrivalDate,
	}, nil
}

// Price is base + fixed + weight*weightRate + volume*volumeRate, rounded to
// cents. Rates are non-negative so the price never decreases when weight or
// volume grows.
func Price(totalWeight, totalVolume float64, tariff domain.Tariff) float64 {
	price := decimal.NewFromFloat(tariff.BaseRate).
		Add(decimal.NewFromFloat(tariff.FixedRate)).
		Add(decimal.NewFromFloat(totalWeight).Mul(decimal.NewFromFloat(tariff.WeightRate))).
		Add(decimal.NewFromFloat(totalVolume).Mul(decimal.NewFromFloat(tariff.VolumeRate))).
		Round(2)
	return price.InexactFloat64()
}

// Calculator prices parcel sets with the tariff currently in effect.
type Calculator struct {
	tariffs *TariffEngine
}

func NewCalculator(tariffs *TariffEngine) *Calculator {
	return &Calculator{tariffs: tariffs}
}

// Quote fetches the current tariff and computes the totals of parcels.
func (c *Calculator) Quote(ctx context.Context, parcels []domain.Parcel, schedule domain.Schedule) (domain.Totals, error) {
	if len(parcels) == 0 {
		return domain.Totals{}, domain.ErrNoParcels
	}
	tariff, err := c.tariffs.CurrentTariff(ctx)
	if err != nil {
		return domain.Totals{}, err
	}
	return ComputeTotals(parcels, tariff, schedule)
}
