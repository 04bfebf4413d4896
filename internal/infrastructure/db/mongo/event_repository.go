package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// TrackingEventRepository stores the tracking history in tracking_events.
type TrackingEventRepository struct {
	col *mongo.Collection
}

func NewTrackingEventRepository(db *mongo.Database) *TrackingEventRepository {
	return &TrackingEventRepository{col: db.Collection(collectionTrackingEvents)}
}

func (r *TrackingEventRepository) Insert(ctx context.Context, event *domain.TrackingEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	e := *event
	e.OccurredAt = e.OccurredAt.UTC()
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert tracking event: %w", err)
	}
	return nil
}

func (r *TrackingEventRepository) ListBySimulation(ctx context.Context, simulationID string) ([]domain.TrackingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"simulation_id": simulationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tracking events: %w", err)
	}
	defer cursor.Close(ctx)

	events := make([]domain.TrackingEvent, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode tracking events: %w", err)
	}
	return events, nil
}
