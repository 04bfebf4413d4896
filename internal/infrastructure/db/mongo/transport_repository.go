package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

type TransportRepository struct {
	col *mongo.Collection
}

func NewTransportRepository(db *mongo.Database) *TransportRepository {
	return &TransportRepository{col: db.Collection(collectionTransports)}
}

func (r *TransportRepository) Create(ctx context.Context, t *domain.Transport) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert transport: %w", err)
	}
	return nil
}

func (r *TransportRepository) FindByID(ctx context.Context, id string) (*domain.Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Transport
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTransportNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransportRepository) List(ctx context.Context) ([]domain.Transport, error) {
	return r.find(ctx, bson.M{})
}

// ListAvailable returns available transports ordered by id.
func (r *TransportRepository) ListAvailable(ctx context.Context) ([]domain.Transport, error) {
	return r.find(ctx, bson.M{"is_available": true})
}

func (r *TransportRepository) find(ctx context.Context, filter bson.M) ([]domain.Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list transports: %w", err)
	}
	defer cursor.Close(ctx)

	transports := make([]domain.Transport, 0)
	if err := cursor.All(ctx, &transports); err != nil {
		return nil, fmt.Errorf("decode transports: %w", err)
	}
	return transports, nil
}

// Reserve increments the load of transport id in one conditional update.
// The filter re-checks capacity against the stored document, so two
// reservations racing on the same vehicle cannot both overflow it.
func (r *TransportRepository) Reserve(ctx context.Context, id string, weight, volume float64) (*domain.Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":          id,
		"is_available": true,
		"$expr": bson.M{"$and": bson.A{
			bson.M{"$lte": bson.A{bson.M{"$add": bson.A{"$current_weight", weight}}, "$base_weight"}},
			bson.M{"$lte": bson.A{bson.M{"$add": bson.A{"$current_volume", volume}}, "$base_volume"}},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"current_weight": weight, "current_volume": volume},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t domain.Transport
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("reserve transport: %w", err)
	}

	found, err := exists(ctx, r.col, id)
	if err != nil {
		return nil, fmt.Errorf("reserve transport: %w", err)
	}
	if !found {
		return nil, domain.ErrTransportNotFound
	}
	return nil, domain.ErrCapacityExceeded
}

func (r *TransportRepository) SetAvailability(ctx context.Context, id string, available bool) (*domain.Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"is_available": available, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t domain.Transport
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTransportNotFound
		}
		return nil, fmt.Errorf("set availability: %w", err)
	}
	return &t, nil
}
