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

// AgencyRepository reads agencies and maintains the agency_clients links.
type AgencyRepository struct {
	agencies *mongo.Collection
	clients  *mongo.Collection
}

func NewAgencyRepository(db *mongo.Database) *AgencyRepository {
	return &AgencyRepository{
		agencies: db.Collection(collectionAgencies),
		clients:  db.Collection(collectionAgencyClients),
	}
}

// Create inserts an agency. Agencies are reference data; this is used by
// provisioning and tests.
func (r *AgencyRepository) Create(ctx context.Context, a *domain.Agency) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.agencies.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert agency: %w", err)
	}
	return nil
}

func (r *AgencyRepository) ResolveID(ctx context.Context, country, city, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"country": country, "city": city, "name": name}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	var doc struct {
		ID string `bson:"_id"`
	}
	if err := r.agencies.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrAgencyNotFound
		}
		return "", fmt.Errorf("resolve agency: %w", err)
	}
	return doc.ID, nil
}

func (r *AgencyRepository) FindByID(ctx context.Context, id string) (*domain.Agency, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Agency
	if err := r.agencies.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAgencyNotFound
		}
		return nil, fmt.Errorf("find agency: %w", err)
	}
	return &a, nil
}

// LinkClient upserts the (agency, user) pair; an existing link is left as is.
func (r *AgencyRepository) LinkClient(ctx context.Context, agencyID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"agency_id": agencyID, "user_id": userID}
	update := bson.M{"$setOnInsert": bson.M{"created_at": time.Now().UTC()}}
	if _, err := r.clients.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("link agency client: %w", err)
	}
	return nil
}

// ListClients returns the users linked to agencyID, oldest link first.
func (r *AgencyRepository) ListClients(ctx context.Context, agencyID string) ([]domain.AgencyClient, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.clients.Find(ctx, bson.M{"agency_id": agencyID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list agency clients: %w", err)
	}
	defer cursor.Close(ctx)

	clients := make([]domain.AgencyClient, 0)
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("decode agency clients: %w", err)
	}
	return clients, nil
}
