package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
)

// TransportHandler exposes fleet management to back-office staff.
type TransportHandler struct {
	service ports.TransportService
}

func NewTransportHandler(service ports.TransportService) *TransportHandler {
	return &TransportHandler{service: service}
}

type createTransportRequest struct {
	Name          string  `json:"name" validate:"required"`
	PlateNumber   string  `json:"plate_number" validate:"required"`
	BaseWeight    float64 `json:"base_weight" validate:"gt=0"`
	BaseVolume    float64 `json:"base_volume" validate:"gt=0"`
	CurrentWeight float64 `json:"current_weight" validate:"gte=0"`
	CurrentVolume float64 `json:"current_volume" validate:"gte=0"`
	IsAvailable   *bool   `json:"is_available"`
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

type transportListResponse struct {
	Items []domain.Transport `json:"items"`
	Count int                `json:"count"`
}

// List handles GET /v1/transports.
func (h *TransportHandler) List(c echo.Context) error {
	transports, err := h.service.ListTransports(c.Request().Context())
	if err != nil {
		return err
	}
	if transports == nil {
		transports = []domain.Transport{}
	}
	return c.JSON(http.StatusOK, transportListResponse{Items: transports, Count: len(transports)})
}

// Create handles POST /v1/transports. New vehicles are available unless the
// body says otherwise.
func (h *TransportHandler) Create(c echo.Context) error {
	var req createTransportRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	t, err := h.service.CreateTransport(c.Request().Context(), ports.CreateTransportInput{
		Name:          req.Name,
		PlateNumber:   req.PlateNumber,
		BaseWeight:    req.BaseWeight,
		BaseVolume:    req.BaseVolume,
		CurrentWeight: req.CurrentWeight,
		CurrentVolume: req.CurrentVolume,
		IsAvailable:   available,
	})
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/transports/"+t.ID)
	return c.JSON(http.StatusCreated, t)
}

// SetAvailability handles PATCH /v1/transports/:id/availability.
func (h *TransportHandler) SetAvailability(c echo.Context) error {
	var req availabilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	t, err := h.service.SetAvailability(c.Request().Context(), c.Param("id"), *req.IsAvailable)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}
