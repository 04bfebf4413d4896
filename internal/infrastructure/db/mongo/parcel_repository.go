package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

type ParcelRepository struct {
	col *mongo.Collection
}

func NewParcelRepository(db *mongo.Database) *ParcelRepository {
	return &ParcelRepository{col: db.Collection(collectionParcels)}
}

func (r *ParcelRepository) InsertMany(ctx context.Context, parcels []domain.Parcel) error {
	if len(parcels) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	docs := make([]interface{}, 0, len(parcels))
	for _, p := range parcels {
		docs = append(docs, p)
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert parcels: %w", err)
	}
	return nil
}

// ListBySimulation returns the parcels of simulationID ordered by position.
func (r *ParcelRepository) ListBySimulation(ctx context.Context, simulationID string) ([]domain.Parcel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"simulation_id": simulationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	defer cursor.Close(ctx)

	parcels := make([]domain.Parcel, 0)
	if err := cursor.All(ctx, &parcels); err != nil {
		return nil, fmt.Errorf("decode parcels: %w", err)
	}
	return parcels, nil
}

func (r *ParcelRepository) DeleteBySimulation(ctx context.Context, simulationID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"simulation_id": simulationID})
	if err != nil {
		return 0, fmt.Errorf("delete parcels: %w", err)
	}
	return res.DeletedCount, nil
}
