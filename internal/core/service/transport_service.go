package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
)

// maxReserveAttempts bounds how often AssignTransport re-selects a vehicle
// after losing a reservation race.
const maxReserveAttempts = 3

// TransportService picks vehicles for confirmed shipments and books their capacity.
type TransportService struct {
	transports  ports.TransportRepository
	simulations ports.SimulationRepository
	tx          ports.Transactor
	logger      zerolog.Logger
}

func NewTransportService(transports ports.TransportRepository, simulations ports.SimulationRepository, tx ports.Transactor, logger zerolog.Logger) *TransportService {
	return &TransportService{transports: transports, simulations: simulations, tx: tx, logger: logger}
}

// FindSuitableTransport returns the available transport that fits the
// shipment most tightly. It reads only.
func (s *TransportService) FindSuitableTransport(ctx context.Context, sim *domain.Simulation) (*domain.Transport, error) {
	candidates, err := s.transports.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("find transport: %w", err)
	}
	return selectTransport(candidates, sim.TotalWeight, sim.TotalVolume)
}

// selectTransport keeps candidates that can carry the load and prefers the
// least remaining weight, then the least remaining volume, then the lowest id.
func selectTransport(candidates []domain.Transport, weight, volume float64) (*domain.Transport, error) {
	var best *domain.Transport
	for i := range candidates {
		t := &candidates[i]
		if !t.CanCarry(weight, volume) {
			continue
		}
		if best == nil || tighterFit(t, best) {
			best = t
		}
	}
	if best == nil {
		return nil, domain.ErrNoSuitableTransport
	}
	chosen := *best
	return &chosen, nil
}

func tighterFit(a, b *domain.Transport) bool {
	if a.RemainingWeight() != b.RemainingWeight() {
		return a.RemainingWeight() < b.RemainingWeight()
	}
	if a.RemainingVolume() != b.RemainingVolume() {
		return a.RemainingVolume() < b.RemainingVolume()
	}
	return a.ID < b.ID
}

// ReserveCapacity adds the shipment load to t. The write is conditional on
// the load still fitting, so concurrent reservations never overflow a vehicle.
func (s *TransportService) ReserveCapacity(ctx context.Context, t *domain.Transport, sim *domain.Simulation) (*domain.Transport, error) {
	if !t.CanCarry(sim.TotalWeight, sim.TotalVolume) {
		return nil, domain.ErrCapacityExceeded
	}
	reserved, err := s.transports.Reserve(ctx, t.ID, sim.TotalWeight, sim.TotalVolume)
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

// AssignTransport binds a confirmed simulation to a vehicle. The reservation
// and the binding commit together. A simulation that already has a transport
// is returned with it unchanged.
func (s *TransportService) AssignTransport(ctx context.Context, simulationID string) (*ports.AssignmentResult, error) {
	sim, err := s.simulations.FindByID(ctx, simulationID)
	if err != nil {
		return nil, fmt.Errorf("assign transport: %w", err)
	}

	if sim.TransportID != "" {
		t, err := s.transports.FindByID(ctx, sim.TransportID)
		if err != nil {
			return nil, fmt.Errorf("assign transport: %w", err)
		}
		return &ports.AssignmentResult{Assigned: true, SimulationID: sim.ID, Transport: t}, nil
	}
	if sim.SimulationStatus != domain.SimulationCompleted {
		return nil, fmt.Errorf("assign transport: %w", domain.ErrNotConfirmed)
	}

	for attempt := 1; attempt <= maxReserveAttempts; attempt++ {
		candidate, err := s.FindSuitableTransport(ctx, sim)
		if errors.Is(err, domain.ErrNoSuitableTransport) {
			s.logger.Info().Str("op", "assign_transport").Str("simulation_id", sim.ID).Msg("no transport fits shipment")
			return &ports.AssignmentResult{SimulationID: sim.ID, Reason: err.Error()}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("assign transport: %w", err)
		}

		var reserved *domain.Transport
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			t, err := s.ReserveCapacity(ctx, candidate, sim)
			if err != nil {
				return err
			}
			if err := s.simulations.SetTransport(ctx, sim.ID, t.ID); err != nil {
				return err
			}
			reserved = t
			return nil
		})
		if errors.Is(err, domain.ErrCapacityExceeded) {
			s.logger.Debug().Str("transport_id", candidate.ID).Int("attempt", attempt).Msg("reservation lost, reselecting")
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).Str("op", "assign_transport").Str("simulation_id", sim.ID).Msg("failed to assign transport")
			return nil, fmt.Errorf("assign transport: %w", err)
		}

		s.logger.Info().
			Str("op", "assign_transport").
			Str("simulation_id", sim.ID).
			Str("transport_id", reserved.ID).
			Float64("current_weight", reserved.CurrentWeight).
			Msg("transport assigned")
		return &ports.AssignmentResult{Assigned: true, SimulationID: sim.ID, Transport: reserved}, nil
	}

	return &ports.AssignmentResult{
		SimulationID: sim.ID,
		Reason:       domain.ErrCapacityExceeded.Error() + ", try again",
	}, nil
}

// CreateTransport registers a vehicle.
func (s *TransportService) CreateTransport(ctx context.Context, in ports.CreateTransportInput) (*domain.Transport, error) {
	if violations := transportViolations(in); len(violations) > 0 {
		return nil, fmt.Errorf("create transport: %w", domain.NewValidationError(violations...))
	}

	now := time.Now().UTC()
	t := &domain.Transport{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		PlateNumber:   strings.TrimSpace(in.PlateNumber),
		BaseWeight:    in.BaseWeight,
		BaseVolume:    in.BaseVolume,
		CurrentWeight: in.CurrentWeight,
		CurrentVolume: in.CurrentVolume,
		IsAvailable:   in.IsAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.transports.Create(ctx, t); err != nil {
		s.logger.Error().Err(err).Str("op", "create_transport").Msg("failed to create transport")
		return nil, fmt.Errorf("create transport: %w", err)
	}

	s.logger.Info().Str("op", "create_transport").Str("transport_id", t.ID).Msg("transport created")
	return t, nil
}

func (s *TransportService) ListTransports(ctx context.Context) ([]domain.Transport, error) {
	transports, err := s.transports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transports: %w", err)
	}
	return transports, nil
}

func (s *TransportService) SetAvailability(ctx context.Context, id string, available bool) (*domain.Transport, error) {
	t, err := s.transports.SetAvailability(ctx, id, available)
	if err != nil {
		return nil, fmt.Errorf("set availability: %w", err)
	}
	s.logger.Info().Str("transport_id", id).Bool("available", available).Msg("transport availability changed")
	return t, nil
}

func transportViolations(in ports.CreateTransportInput) []string {
	var v []string
	if strings.TrimSpace(in.Name) == "" {
		v = append(v, "name is required")
	}
	if in.BaseWeight <= 0 || in.BaseWeight > domain.MaxTransportWeight {
		v = append(v, fmt.Sprintf("base weight must be in (0, %g] kg", float64(domain.MaxTransportWeight)))
	}
	if in.BaseVolume <= 0 || in.BaseVolume > domain.MaxTransportVolume {
		v = append(v, fmt.Sprintf("base volume must be in (0, %g] cm³", float64(domain.MaxTransportVolume)))
	}
	if in.CurrentWeight < 0 || in.CurrentWeight > in.BaseWeight {
		v = append(v, "current weight must be between 0 and base weight")
	}
	if in.CurrentVolume < 0 || in.CurrentVolume > in.BaseVolume {
		v = append(v, "current volume must be between 0 and base volume")
	}
	return v
}
