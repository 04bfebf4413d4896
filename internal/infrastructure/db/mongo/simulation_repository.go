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

// unset matches a field that is missing, null or empty.
var unset = bson.M{"$in": bson.A{nil, ""}}

type SimulationRepository struct {
	col *mongo.Collection
}

func NewSimulationRepository(db *mongo.Database) *SimulationRepository {
	return &SimulationRepository{col: db.Collection(collectionSimulations)}
}

// Create inserts a new simulation document.
func (r *SimulationRepository) Create(ctx context.Context, s *domain.Simulation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert simulation: %w", err)
	}
	return nil
}

func (r *SimulationRepository) FindByID(ctx context.Context, id string) (*domain.Simulation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Simulation
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSimulationNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByUser returns the simulations of userID, newest first.
func (r *SimulationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Simulation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	defer cursor.Close(ctx)

	sims := make([]*domain.Simulation, 0)
	if err := cursor.All(ctx, &sims); err != nil {
		return nil, fmt.Errorf("decode simulations: %w", err)
	}
	return sims, nil
}

// UpdateDraft rewrites the route, totals and dates of a draft.
func (r *SimulationRepository) UpdateDraft(ctx context.Context, s *domain.Simulation) error {
	return r.updateWhere(ctx, s.ID, bson.M{"simulation_status": domain.SimulationDraft}, bson.M{
		"$set": bson.M{
			"departure_agency_id": s.DepartureAgencyID,
			"arrival_agency_id":   s.ArrivalAgencyID,
			"total_weight":        s.TotalWeight,
			"total_volume":        s.TotalVolume,
			"total_price":         s.TotalPrice,
			"departure_date":      s.DepartureDate,
			"arrival_date":        s.ArrivalDate,
			"updated_at":          s.UpdatedAt,
		},
	}, domain.ErrSimulationNotDraft)
}

func (r *SimulationRepository) SetDestinataire(ctx context.Context, id, destinataireID string) error {
	return r.updateWhere(ctx, id, bson.M{"simulation_status": domain.SimulationDraft}, bson.M{
		"$set": bson.M{"destinataire_id": destinataireID, "updated_at": time.Now().UTC()},
	}, domain.ErrSimulationNotDraft)
}

// SetUserIfUnset writes userID only when no user is attached yet.
func (r *SimulationRepository) SetUserIfUnset(ctx context.Context, id, userID string) (bool, error) {
	err := r.updateWhere(ctx, id, bson.M{"user_id": unset}, bson.M{
		"$set": bson.M{"user_id": userID, "updated_at": time.Now().UTC()},
	}, domain.ErrConflict)
	if errors.Is(err, domain.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkCancelled moves a draft to CANCELLED on both status fields.
func (r *SimulationRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	return r.updateWhere(ctx, id, bson.M{"simulation_status": domain.SimulationDraft}, bson.M{
		"$set": bson.M{
			"simulation_status": domain.SimulationCancelled,
			"envoi_status":      domain.EnvoiCancelled,
			"updated_at":        at,
		},
	}, domain.ErrSimulationNotDraft)
}

// MarkCompleted writes every field minted by a confirmation in one update. A
// tracking number already held by another simulation is reported as
// domain.ErrTrackingNumberTaken.
func (r *SimulationRepository) MarkCompleted(ctx context.Context, id string, c domain.Completion) error {
	err := r.updateWhere(ctx, id, bson.M{"simulation_status": domain.SimulationDraft}, bson.M{
		"$set": bson.M{
			"simulation_status": domain.SimulationCompleted,
			"envoi_status":      domain.EnvoiPending,
			"paid":              true,
			"tracking_number":   c.TrackingNumber,
			"qr_code_url":       c.QRCodeURL,
			"completed_at":      c.CompletedAt,
			"updated_at":        c.CompletedAt,
		},
	}, domain.ErrSimulationNotDraft)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrTrackingNumberTaken
	}
	return err
}

// SetTransport binds a completed simulation that has no transport yet.
func (r *SimulationRepository) SetTransport(ctx context.Context, id, transportID string) error {
	err := r.updateWhere(ctx, id, bson.M{
		"simulation_status": domain.SimulationCompleted,
		"transport_id":      unset,
	}, bson.M{
		"$set": bson.M{"transport_id": transportID, "updated_at": time.Now().UTC()},
	}, domain.ErrConflict)
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}

	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return findErr
	}
	if current.TransportID != "" {
		return domain.ErrTransportAssigned
	}
	return domain.ErrNotConfirmed
}

// updateWhere applies update to the simulation id when cond also holds. A miss
// is reported as ErrSimulationNotFound when the document is absent and as
// conflict otherwise.
func (r *SimulationRepository) updateWhere(ctx context.Context, id string, cond bson.M, update bson.M, conflict error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	for k, v := range cond {
		filter[k] = v
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update simulation: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	found, err := exists(ctx, r.col, id)
	if err != nil {
		return fmt.Errorf("update simulation: %w", err)
	}
	if !found {
		return domain.ErrSimulationNotFound
	}
	return conflict
}
