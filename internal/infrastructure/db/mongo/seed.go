package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// SeedData is the reference data a fresh deployment needs: the agency
// network and the rate card.
type SeedData struct {
	Agencies []domain.Agency `json:"agencies"`
	Tariff   *domain.Tariff  `json:"tariff"`
}

// DecodeSeed reads SeedData from JSON.
func DecodeSeed(r io.Reader) (SeedData, error) {
	var data SeedData
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return SeedData{}, fmt.Errorf("decode seed: %w", err)
	}
	return data, nil
}

// Seed upserts agencies and the tariff by id. Running it twice is harmless.
func Seed(ctx context.Context, db *mongo.Database, data SeedData) error {
	agencies := db.Collection(collectionAgencies)
	for i := range data.Agencies {
		a := data.Agencies[i]
		if a.ID == "" {
			return fmt.Errorf("seed agency %d: id is required", i)
		}
		opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		_, err := agencies.ReplaceOne(opCtx, bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
		cancel()
		if err != nil {
			return fmt.Errorf("seed agency %s: %w", a.ID, err)
		}
	}

	if data.Tariff != nil {
		t := *data.Tariff
		if t.ID == "" {
			t.ID = "default"
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = time.Now().UTC()
		}
		if err := NewTariffRepository(db).Save(ctx, &t); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}
