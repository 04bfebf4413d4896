package service

import (
	"time"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

const (
	defaultPickupHour            = 9
	defaultDomesticLeadTime      = 48 * time.Hour
	defaultInternationalLeadTime = 120 * time.Hour
)

// ScheduleConfig tunes the route scheduler.
type ScheduleConfig struct {
	// PickupHour is the UTC hour of the daily pickup slot; nil means 09:00.
	PickupHour            *int
	DomesticLeadTime      time.Duration
	InternationalLeadTime time.Duration
}

// RouteScheduler estimates departure and arrival dates for a route.
type RouteScheduler struct {
	pickupHour    int
	domestic      time.Duration
	international time.Duration
}

// NewRouteScheduler returns a scheduler. Unset or non-positive lead times and
// a missing or out of range pickup hour fall back to defaults; hour 0 is midnight.
func NewRouteScheduler(cfg ScheduleConfig) *RouteScheduler {
	s := &RouteScheduler{
		pickupHour:    defaultPickupHour,
		domestic:      cfg.DomesticLeadTime,
		international: cfg.InternationalLeadTime,
	}
	if h := cfg.PickupHour; h != nil && *h >= 0 && *h <= 23 {
		s.pickupHour = *h
	}
	if s.domestic <= 0 {
		s.domestic = defaultDomesticLeadTime
	}
	if s.international <= 0 {
		s.international = defaultInternationalLeadTime
	}
	return s
}

// Estimate departs on the next daily pickup slot strictly after now and
// arrives after the domestic or international lead time.
func (s *RouteScheduler) Estimate(departure, arrival domain.Agency, now time.Time) domain.Schedule {
	now = now.UTC()
	slot := time.Date(now.Year(), now.Month(), now.Day(), s.pickupHour, 0, 0, 0, time.UTC)
	if !slot.After(now) {
		slot = slot.AddDate(0, 0, 1)
	}

	lead := s.international
	if departure.Country == arrival.Country {
		lead = s.domestic
	}

	return domain.Schedule{
		DepartureDate: slot,
		ArrivalDate:   slot.Add(lead),
	}
}
