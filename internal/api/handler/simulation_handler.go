package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/colisapp/shipping-core/internal/api/metrics"
	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
)

// SimulationHandler handles HTTP requests for the simulation lifecycle.
type SimulationHandler struct {
	simulations ports.SimulationService
	transports  ports.TransportService
}

func NewSimulationHandler(simulations ports.SimulationService, transports ports.TransportService) *SimulationHandler {
	return &SimulationHandler{simulations: simulations, transports: transports}
}

// Create handles POST /v1/simulations. Authentication is optional: anonymous
// drafts are claimed later.
func (h *SimulationHandler) Create(c echo.Context) (err error) {
	start := time.Now()
	defer func() { observe("create", start, err) }()

	var req simulationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	draft, err := h.simulations.Create(c.Request().Context(), ports.CreateSimulationRequest{
		Departure: toRouteInput(req.Departure),
		Arrival:   toRouteInput(req.Arrival),
		Parcels:   toParcelInputs(req.Parcels),
		UserID:    userID(c),
	})
	if err != nil {
		return err
	}

	metrics.SimulationsTotal.WithLabelValues("created").Inc()
	metrics.QuotedPrice.Observe(draft.TotalPrice)
	c.Response().Header().Set(echo.HeaderLocation, "/v1/simulations/"+draft.ID)
	return c.JSON(http.StatusCreated, toSimulationResponse(draft))
}

// Edit handles PUT /v1/simulations/:id.
func (h *SimulationHandler) Edit(c echo.Context) (err error) {
	start := time.Now()
	defer func() { observe("edit", start, err) }()

	var req simulationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	draft, err := h.simulations.Edit(c.Request().Context(), c.Param("id"), ports.EditSimulationRequest{
		Departure: toRouteInput(req.Departure),
		Arrival:   toRouteInput(req.Arrival),
		Parcels:   toParcelInputs(req.Parcels),
	})
	if err != nil {
		return err
	}

	metrics.SimulationsTotal.WithLabelValues("edited").Inc()
	metrics.QuotedPrice.Observe(draft.TotalPrice)
	return c.JSON(http.StatusOK, toSimulationResponse(draft))
}

// Get handles GET /v1/simulations/:id.
func (h *SimulationHandler) Get(c echo.Context) error {
	snap, err := h.simulations.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSimulationResponse(snap))
}

// ListMine handles GET /v1/me/simulations.
func (h *SimulationHandler) ListMine(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}

	snaps, err := h.simulations.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return err
	}

	items := make([]simulationResponse, len(snaps))
	for i, snap := range snaps {
		items[i] = toSimulationResponse(snap)
	}
	return c.JSON(http.StatusOK, simulationListResponse{Items: items, Count: len(items)})
}

// Cancel handles POST /v1/simulations/:id/cancel.
func (h *SimulationHandler) Cancel(c echo.Context) (err error) {
	start := time.Now()
	defer func() { observe("cancel", start, err) }()

	cancelled, err := h.simulations.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	metrics.SimulationsTotal.WithLabelValues("cancelled").Inc()
	return c.JSON(http.StatusOK, toSimulationResponse(cancelled))
}

// AssignDestinataire handles PUT /v1/simulations/:id/destinataire.
func (h *SimulationHandler) AssignDestinataire(c echo.Context) error {
	var req destinataireRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	draft, err := h.simulations.AssignDestinataire(c.Request().Context(), c.Param("id"), req.DestinataireID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSimulationResponse(draft))
}

// Claim handles POST /v1/simulations/:id/claim: the authenticated caller
// becomes the sender of an anonymous simulation.
func (h *SimulationHandler) Claim(c echo.Context) error {
	uid, err := requireUser(c)
	if err != nil {
		return err
	}

	snap, err := h.simulations.AssignUser(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return err
	}
	if snap.Core().UserID != uid {
		return domain.ErrForbidden
	}

	metrics.SimulationsTotal.WithLabelValues("claimed").Inc()
	return c.JSON(http.StatusOK, toSimulationResponse(snap))
}

// Confirm handles POST /v1/simulations/:id/confirm. It is called by the
// payment relay once a payment succeeded; replays return the same shipment.
func (h *SimulationHandler) Confirm(c echo.Context) (err error) {
	start := time.Now()
	defer func() { observe("confirm", start, err) }()

	confirmed, err := h.simulations.Confirm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	metrics.SimulationsTotal.WithLabelValues("confirmed").Inc()
	return c.JSON(http.StatusOK, toSimulationResponse(confirmed))
}

// Events handles GET /v1/simulations/:id/events.
func (h *SimulationHandler) Events(c echo.Context) error {
	id := c.Param("id")
	events, err := h.simulations.Events(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventsResponse(id, events))
}

// AssignTransport handles POST /v1/simulations/:id/transport. A shipment no
// vehicle can take is a business outcome, reported with 200 and a reason.
func (h *SimulationHandler) AssignTransport(c echo.Context) (err error) {
	start := time.Now()
	defer func() { observe("assign_transport", start, err) }()

	result, err := h.transports.AssignTransport(c.Request().Context(), c.Param("id"))
	if err != nil {
		metrics.TransportAssignmentsTotal.WithLabelValues("error").Inc()
		return err
	}

	label := "assigned"
	if !result.Assigned {
		label = "no_fit"
	}
	metrics.TransportAssignmentsTotal.WithLabelValues(label).Inc()
	return c.JSON(http.StatusOK, toAssignmentResponse(result))
}

// observe records the duration of op and, on failure, its error kind.
func observe(op string, start time.Time, err error) {
	metrics.ObserveOperation(op, start, err)
	if err != nil {
		metrics.SimulationErrorsTotal.WithLabelValues(op, errorKind(err)).Inc()
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrCapacity):
		return "capacity"
	default:
		return "internal"
	}
}
