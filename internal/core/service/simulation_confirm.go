package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
)

// maxTrackingAttempts bounds how often a confirmation re-mints a tracking
// number that turned out to be taken.
const maxTrackingAttempts = 3

// qrPayload is what the QR code of a confirmed shipment encodes.
type qrPayload struct {
	TrackingNumber string    `json:"tracking_number"`
	SimulationID   string    `json:"simulation_id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	TotalWeight    float64   `json:"total_weight"`
	TotalPrice     float64   `json:"total_price"`
	ArrivalDate    time.Time `json:"arrival_date"`
}

// TrackingMessage is published once a confirmation commits.
type TrackingMessage struct {
	EventID        string    `json:"event_id"`
	SimulationID   string    `json:"simulation_id"`
	TrackingNumber string    `json:"tracking_number"`
	Status         string    `json:"status"`
	Location       string    `json:"location"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Confirm completes a paid draft. Tracking number and QR code are produced
// before anything is written; the status change, the agency client link and
// the first tracking event then commit together. A tracking number found
// taken at commit is re-minted a bounded number of times. A simulation that
// is already confirmed is returned as is.
func (s *SimulationService) Confirm(ctx context.Context, id string) (*ports.ConfirmedSimulation, error) {
	sim, err := s.simulations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("confirm simulation: %w", err)
	}
	if sim.IsConfirmed() {
		s.logger.Debug().Str("op", "confirm").Str("simulation_id", id).Msg("already confirmed, replaying")
		return s.confirmed(ctx, sim)
	}
	if !sim.SimulationStatus.CanTransitionTo(domain.SimulationCompleted) {
		return nil, fmt.Errorf("confirm simulation: %w", domain.ErrSimulationNotDraft)
	}

	token, acquired, err := s.guard.Acquire(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("simulation_id", id).Msg("confirmation guard unavailable, proceeding")
	} else if !acquired {
		return nil, fmt.Errorf("confirm simulation: %w", domain.ErrConfirmationInProgress)
	} else {
		defer func() {
			if err := s.guard.Release(context.WithoutCancel(ctx), id, token); err != nil {
				s.logger.Warn().Err(err).Str("simulation_id", id).Msg("failed to release confirmation guard")
			}
		}()
	}

	dep, arr, err := s.agencyPair(ctx, sim)
	if err != nil {
		return nil, fmt.Errorf("confirm simulation: %w", err)
	}

	var (
		completion domain.Completion
		event      *domain.TrackingEvent
	)
	for attempt := 1; ; attempt++ {
		completion, event, err = s.complete(ctx, sim, dep, arr)
		if !errors.Is(err, domain.ErrTrackingNumberTaken) || attempt == maxTrackingAttempts {
			break
		}
		s.logger.Warn().Str("op", "confirm").Str("simulation_id", id).Int("attempt", attempt).
			Msg("tracking number already issued, minting another")
	}
	if err != nil {
		if isConflict(err) && !errors.Is(err, domain.ErrTrackingNumberTaken) {
			// Another request completed it first; return its result if whole.
			if current, findErr := s.simulations.FindByID(ctx, id); findErr == nil && current.IsConfirmed() {
				return s.confirmed(ctx, current)
			}
		}
		s.logger.Error().Err(err).Str("op", "confirm").Str("simulation_id", id).Msg("failed to confirm simulation")
		return nil, fmt.Errorf("confirm simulation: %w", err)
	}

	now := completion.CompletedAt
	sim.SimulationStatus = domain.SimulationCompleted
	sim.EnvoiStatus = domain.EnvoiPending
	sim.Paid = true
	sim.TrackingNumber = completion.TrackingNumber
	sim.QRCodeURL = completion.QRCodeURL
	sim.CompletedAt = &now
	sim.UpdatedAt = now

	s.publish(ctx, event)

	s.logger.Info().
		Str("op", "confirm").
		Str("simulation_id", id).
		Str("tracking", completion.TrackingNumber).
		Msg("simulation confirmed")

	return s.confirmed(ctx, sim)
}

// complete mints a tracking number and QR code, then commits the completion,
// the agency client link and the first tracking event together. The QR image
// is removed again when the commit fails.
func (s *SimulationService) complete(ctx context.Context, sim *domain.Simulation, dep, arr *domain.Agency) (domain.Completion, *domain.TrackingEvent, error) {
	trackingNumber, err := s.tracking.Generate(ctx, ports.TrackingRoute{
		DepartureCountry:   dep.Country,
		DepartureCity:      dep.City,
		DestinationCountry: arr.Country,
		DestinationCity:    arr.City,
	})
	if err != nil {
		return domain.Completion{}, nil, fmt.Errorf("tracking number: %w", err)
	}

	qrName := sim.ID + "-" + trackingNumber
	qrURL, err := s.qrcodes.Encode(ctx, qrName, qrPayload{
		TrackingNumber: trackingNumber,
		SimulationID:   sim.ID,
		From:           dep.Location(),
		To:             arr.Location(),
		TotalWeight:    sim.TotalWeight,
		TotalPrice:     sim.TotalPrice,
		ArrivalDate:    sim.ArrivalDate,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("op", "confirm").Str("simulation_id", sim.ID).Msg("qr code generation failed")
		return domain.Completion{}, nil, fmt.Errorf("qr code: %w", err)
	}

	now := s.now()
	completion := domain.Completion{TrackingNumber: trackingNumber, QRCodeURL: qrURL, CompletedAt: now}
	event := &domain.TrackingEvent{
		ID:             uuid.NewString(),
		SimulationID:   sim.ID,
		TrackingNumber: trackingNumber,
		Status:         domain.TrackingEventCreated,
		Location:       dep.Location(),
		Description:    "Shipment registered at departure agency",
		OccurredAt:     now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.simulations.MarkCompleted(ctx, sim.ID, completion); err != nil {
			return err
		}
		if sim.UserID != "" {
			if err := s.agencies.LinkClient(ctx, sim.DepartureAgencyID, sim.UserID); err != nil {
				return err
			}
		}
		return s.events.Insert(ctx, event)
	})
	if err != nil {
		if rmErr := s.qrcodes.Remove(context.WithoutCancel(ctx), qrName); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("simulation_id", sim.ID).Str("qr", qrName).Msg("failed to remove uncommitted qr code")
		}
		return domain.Completion{}, nil, err
	}
	return completion, event, nil
}

func (s *SimulationService) confirmed(ctx context.Context, sim *domain.Simulation) (*ports.ConfirmedSimulation, error) {
	parcels, err := s.parcels.ListBySimulation(ctx, sim.ID)
	if err != nil {
		return nil, fmt.Errorf("confirm simulation: %w", err)
	}
	out, err := confirmedOf(sim, parcels)
	if err != nil {
		return nil, fmt.Errorf("confirm simulation: %w", err)
	}
	return out, nil
}

func (s *SimulationService) agencyPair(ctx context.Context, sim *domain.Simulation) (*domain.Agency, *domain.Agency, error) {
	dep, err := s.agencies.FindByID(ctx, sim.DepartureAgencyID)
	if err != nil {
		return nil, nil, fmt.Errorf("departure: %w", err)
	}
	arr, err := s.agencies.FindByID(ctx, sim.ArrivalAgencyID)
	if err != nil {
		return nil, nil, fmt.Errorf("arrival: %w", err)
	}
	return dep, arr, nil
}

// publish forwards a committed event. Failures are logged only; the event is
// already durable in the tracking history.
func (s *SimulationService) publish(ctx context.Context, event *domain.TrackingEvent) {
	if s.publisher == nil {
		return
	}
	msg := TrackingMessage{
		EventID:        event.ID,
		SimulationID:   event.SimulationID,
		TrackingNumber: event.TrackingNumber,
		Status:         event.Status,
		Location:       event.Location,
		OccurredAt:     event.OccurredAt,
	}
	if err := s.publisher.Publish(ctx, event.TrackingNumber, msg); err != nil {
		s.logger.Warn().Err(err).Str("tracking", event.TrackingNumber).Msg("failed to publish tracking event")
	}
}
