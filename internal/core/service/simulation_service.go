package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
	"github.com/colisapp/shipping-core/internal/core/validation"
)

// SimulationDeps groups the collaborators of SimulationService.
type SimulationDeps struct {
	Simulations ports.SimulationRepository
	Parcels     ports.ParcelRepository
	Agencies    ports.AgencyRepository
	Events      ports.TrackingEventRepository
	Tx          ports.Transactor
	Calculator  *Calculator
	Validator   *validation.Validator
	Scheduler   *RouteScheduler
	Tracking    ports.TrackingNumberGenerator
	QRCodes     ports.QRCodeEncoder
	Guard       ports.ConfirmationGuard
	Publisher   ports.EventPublisher
}

// SimulationService drives a simulation from draft quote to confirmed shipment.
type SimulationService struct {
	simulations ports.SimulationRepository
	parcels     ports.ParcelRepository
	agencies    ports.AgencyRepository
	events      ports.TrackingEventRepository
	tx          ports.Transactor
	calculator  *Calculator
	validator   *validation.Validator
	scheduler   *RouteScheduler
	tracking    ports.TrackingNumberGenerator
	qrcodes     ports.QRCodeEncoder
	guard       ports.ConfirmationGuard
	publisher   ports.EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

func NewSimulationService(deps SimulationDeps, logger zerolog.Logger) *SimulationService {
	return &SimulationService{
		simulations: deps.Simulations,
		parcels:     deps.Parcels,
		agencies:    deps.Agencies,
		events:      deps.Events,
		tx:          deps.Tx,
		calculator:  deps.Calculator,
		validator:   deps.Validator,
		scheduler:   deps.Scheduler,
		tracking:    deps.Tracking,
		qrcodes:     deps.QRCodes,
		guard:       deps.Guard,
		publisher:   deps.Publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// quote is a validated, priced parcel set on a resolved route.
type quote struct {
	departure *domain.Agency
	arrival   *domain.Agency
	parcels   []domain.Parcel
	totals    domain.Totals
}

// prepare resolves both agencies, validates the parcels and prices them.
// Nothing is written.
func (s *SimulationService) prepare(ctx context.Context, departure, arrival ports.RouteInput, inputs []ports.ParcelInput, now time.Time) (*quote, error) {
	if violations := routeViolations(departure, arrival); len(violations) > 0 {
		return nil, domain.NewValidationError(violations...)
	}

	dep, arr, err := s.resolveRoute(ctx, departure, arrival)
	if err != nil {
		return nil, err
	}

	parcels := toParcels(inputs)
	if err := s.validator.Shipment(parcels); err != nil {
		return nil, err
	}

	totals, err := s.calculator.Quote(ctx, parcels, s.scheduler.Estimate(*dep, *arr, now))
	if err != nil {
		return nil, err
	}

	return &quote{departure: dep, arrival: arr, parcels: parcels, totals: totals}, nil
}

// resolveRoute looks up both agencies concurrently.
func (s *SimulationService) resolveRoute(ctx context.Context, departure, arrival ports.RouteInput) (*domain.Agency, *domain.Agency, error) {
	var dep, arr *domain.Agency
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.resolveAgency(gctx, departure)
		if err != nil {
			return fmt.Errorf("departure: %w", err)
		}
		dep = a
		return nil
	})
	g.Go(func() error {
		a, err := s.resolveAgency(gctx, arrival)
		if err != nil {
			return fmt.Errorf("arrival: %w", err)
		}
		arr = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return dep, arr, nil
}

func (s *SimulationService) resolveAgency(ctx context.Context, route ports.RouteInput) (*domain.Agency, error) {
	id, err := s.agencies.ResolveID(ctx, route.Country, route.City, route.AgencyName)
	if err != nil {
		return nil, err
	}
	return s.agencies.FindByID(ctx, id)
}

// Create validates and prices a parcel set, then persists the draft and its
// parcels together.
func (s *SimulationService) Create(ctx context.Context, req ports.CreateSimulationRequest) (*ports.DraftSimulation, error) {
	now := s.now()
	q, err := s.prepare(ctx, req.Departure, req.Arrival, req.Parcels, now)
	if err != nil {
		return nil, fmt.Errorf("create simulation: %w", err)
	}

	sim := &domain.Simulation{
		ID:                uuid.NewString(),
		DepartureAgencyID: q.departure.ID,
		ArrivalAgencyID:   q.arrival.ID,
		SimulationStatus:  domain.SimulationDraft,
		EnvoiStatus:       domain.EnvoiPending,
		UserID:            req.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	sim.ApplyTotals(q.totals)
	bindParcels(sim.ID, q.parcels)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.simulations.Create(ctx, sim); err != nil {
			return err
		}
		return s.parcels.InsertMany(ctx, q.parcels)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("op", "create").Str("simulation_id", sim.ID).Msg("failed to persist simulation")
		return nil, fmt.Errorf("create simulation: %w", err)
	}

	s.logger.Info().
		Str("op", "create").
		Str("simulation_id", sim.ID).
		Int("parcels", len(q.parcels)).
		Float64("total_price", sim.TotalPrice).
		Msg("simulation created")

	return draftOf(sim, q.parcels), nil
}

// Edit recomputes a draft from a new route and parcel set. The previous
// parcels are replaced in the same transaction that rewrites the totals.
func (s *SimulationService) Edit(ctx context.Context, id string, req ports.EditSimulationRequest) (*ports.DraftSimulation, error) {
	sim, err := s.simulations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("edit simulation: %w", err)
	}
	if !sim.SimulationStatus.CanTransitionTo(domain.SimulationDraft) {
		return nil, fmt.Errorf("edit simulation: %w", domain.ErrSimulationNotDraft)
	}

	now := s.now()
	q, err := s.prepare(ctx, req.Departure, req.Arrival, req.Parcels, now)
	if err != nil {
		return nil, fmt.Errorf("edit simulation: %w", err)
	}

	sim.DepartureAgencyID = q.departure.ID
	sim.ArrivalAgencyID = q.arrival.ID
	sim.ApplyTotals(q.totals)
	sim.UpdatedAt = now
	bindParcels(sim.ID, q.parcels)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.simulations.UpdateDraft(ctx, sim); err != nil {
			return err
		}
		if _, err := s.parcels.DeleteBySimulation(ctx, sim.ID); err != nil {
			return err
		}
		return s.parcels.InsertMany(ctx, q.parcels)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("op", "edit").Str("simulation_id", id).Msg("failed to update simulation")
		return nil, fmt.Errorf("edit simulation: %w", err)
	}

	s.logger.Info().Str("op", "edit").Str("simulation_id", id).Msg("simulation updated")
	return draftOf(sim, q.parcels), nil
}

// Get returns the simulation typed by its lifecycle stage.
func (s *SimulationService) Get(ctx context.Context, id string) (ports.SimulationSnapshot, error) {
	sim, err := s.simulations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}
	snap, err := s.load(ctx, sim)
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}
	return snap, nil
}

// ListByUser returns the sender's simulations, newest first.
func (s *SimulationService) ListByUser(ctx context.Context, userID string) ([]ports.SimulationSnapshot, error) {
	sims, err := s.simulations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	out := make([]ports.SimulationSnapshot, 0, len(sims))
	for _, sim := range sims {
		snap, err := s.load(ctx, sim)
		if err != nil {
			return nil, fmt.Errorf("list simulations: %w", err)
		}
		out = append(out, snap)
	}
	return out, nil
}

// AssignDestinataire records the recipient of a draft. Assigning the same
// recipient twice is a no-op.
func (s *SimulationService) AssignDestinataire(ctx context.Context, id, destinataireID string) (*ports.DraftSimulation, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(destinataireID) == "" {
		return nil, fmt.Errorf("assign destinataire: %w", domain.NewValidationError("simulation id and destinataire id are required"))
	}

	sim, err := s.simulations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("assign destinataire: %w", err)
	}
	if sim.SimulationStatus != domain.SimulationDraft {
		return nil, fmt.Errorf("assign destinataire: %w", domain.ErrSimulationNotDraft)
	}

	if sim.DestinataireID != destinataireID {
		if err := s.simulations.SetDestinataire(ctx, id, destinataireID); err != nil {
			return nil, fmt.Errorf("assign destinataire: %w", err)
		}
		sim.DestinataireID = destinataireID
		s.logger.Info().Str("op", "assign_destinataire").Str("simulation_id", id).Msg("destinataire assigned")
	}

	parcels, err := s.parcels.ListBySimulation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("assign destinataire: %w", err)
	}
	return draftOf(sim, parcels), nil
}

// AssignUser attaches the sender to a simulation created anonymously. A
// simulation that already has a user is returned untouched.
func (s *SimulationService) AssignUser(ctx context.Context, id, userID string) (ports.SimulationSnapshot, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("assign user: %w", domain.NewValidationError("simulation id and user id are required"))
	}

	sim, err := s.simulations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("assign user: %w", err)
	}

	if sim.UserID == "" {
		written, err := s.simulations.SetUserIfUnset(ctx, id, userID)
		if err != nil {
			return nil, fmt.Errorf("assign user: %w", err)
		}
		if written {
			sim.UserID = userID
			s.logger.Info().Str("op", "assign_user").Str("simulation_id", id).Str("user_id", userID).Msg("user assigned")
		} else if sim, err = s.simulations.FindByID(ctx, id); err != nil {
			return nil, fmt.Errorf("assign user: %w", err)
		}
	} else {
		s.logger.Debug().Str("op", "assign_user").Str("simulation_id", id).Msg("simulation already has a user")
	}

	snap, err := s.load(ctx, sim)
	if err != nil {
		return nil, fmt.Errorf("assign user: %w", err)
	}
	return snap, nil
}

// Cancel abandons a draft: its parcels are deleted and its status set to
// CANCELLED in one transaction.
func (s *SimulationService) Cancel(ctx context.Context, id string) (*ports.CancelledSimulation, error) {
	sim, err := s.simulations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cancel simulation: %w", err)
	}
	if !sim.SimulationStatus.CanTransitionTo(domain.SimulationCancelled) {
		return nil, fmt.Errorf("cancel simulation: %w", domain.ErrSimulationNotDraft)
	}

	now := s.now()
	var deleted int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := s.parcels.DeleteBySimulation(ctx, id)
		if err != nil {
			return err
		}
		deleted = n
		return s.simulations.MarkCancelled(ctx, id, now)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("op", "cancel").Str("simulation_id", id).Msg("failed to cancel simulation")
		return nil, fmt.Errorf("cancel simulation: %w", err)
	}

	sim.SimulationStatus = domain.SimulationCancelled
	sim.EnvoiStatus = domain.EnvoiCancelled
	sim.UpdatedAt = now

	s.logger.Info().Str("op", "cancel").Str("simulation_id", id).Int64("parcels_deleted", deleted).Msg("simulation cancelled")
	return &ports.CancelledSimulation{SimulationCore: coreOf(sim, nil)}, nil
}

// Events returns the tracking history of a simulation.
func (s *SimulationService) Events(ctx context.Context, id string) ([]domain.TrackingEvent, error) {
	if _, err := s.simulations.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events, err := s.events.ListBySimulation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// load attaches the parcels of sim and types it by stage.
func (s *SimulationService) load(ctx context.Context, sim *domain.Simulation) (ports.SimulationSnapshot, error) {
	var parcels []domain.Parcel
	if sim.SimulationStatus != domain.SimulationCancelled {
		var err error
		if parcels, err = s.parcels.ListBySimulation(ctx, sim.ID); err != nil {
			return nil, err
		}
	}
	return snapshotOf(sim, parcels)
}

func routeViolations(departure, arrival ports.RouteInput) []string {
	var violations []string
	check := func(side string, r ports.RouteInput) {
		if strings.TrimSpace(r.Country) == "" || strings.TrimSpace(r.City) == "" || strings.TrimSpace(r.AgencyName) == "" {
			violations = append(violations, side+" country, city and agency name are required")
		}
	}
	check("departure", departure)
	check("arrival", arrival)
	return violations
}

// isConflict reports whether err is a lost conditional write.
func isConflict(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}
