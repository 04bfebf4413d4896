package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// TariffRepository serves the most recently updated tariff document.
type TariffRepository struct {
	col *mongo.Collection
}

func NewTariffRepository(db *mongo.Database) *TariffRepository {
	return &TariffRepository{col: db.Collection(collectionTariffs)}
}

func (r *TariffRepository) Current(ctx context.Context) (*domain.Tariff, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	var t domain.Tariff
	if err := r.col.FindOne(ctx, bson.M{}, opts).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTariffNotFound
		}
		return nil, fmt.Errorf("current tariff: %w", err)
	}
	return &t, nil
}

// Save upserts t by id.
func (r *TariffRepository) Save(ctx context.Context, t *domain.Tariff) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, opts); err != nil {
		return fmt.Errorf("save tariff: %w", err)
	}
	return nil
}
