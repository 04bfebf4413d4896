package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colisapp/shipping-core/internal/api/middleware"
	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
)

// stubSimulationService records the last request and returns canned results.
type stubSimulationService struct {
	created    ports.CreateSimulationRequest
	edited     ports.EditSimulationRequest
	snapshot   ports.SimulationSnapshot
	confirmed  *ports.ConfirmedSimulation
	events     []domain.TrackingEvent
	err        error
	lastID     string
	lastUserID string
}

func (s *stubSimulationService) Create(_ context.Context, req ports.CreateSimulationRequest) (*ports.DraftSimulation, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return sampleDraft("sim-1", req.UserID), nil
}

func (s *stubSimulationService) Edit(_ context.Context, id string, req ports.EditSimulationRequest) (*ports.DraftSimulation, error) {
	s.lastID, s.edited = id, req
	if s.err != nil {
		return nil, s.err
	}
	return sampleDraft(id, ""), nil
}

func (s *stubSimulationService) Get(_ context.Context, id string) (ports.SimulationSnapshot, error) {
	s.lastID = id
	return s.snapshot, s.err
}

func (s *stubSimulationService) ListByUser(_ context.Context, userID string) ([]ports.SimulationSnapshot, error) {
	s.lastUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return []ports.SimulationSnapshot{sampleDraft("sim-1", userID), sampleConfirmed("sim-2")}, nil
}

func (s *stubSimulationService) AssignDestinataire(_ context.Context, id, destinataireID string) (*ports.DraftSimulation, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	d := sampleDraft(id, "")
	d.DestinataireID = destinataireID
	return d, nil
}

func (s *stubSimulationService) AssignUser(_ context.Context, id, userID string) (ports.SimulationSnapshot, error) {
	s.lastID, s.lastUserID = id, userID
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func (s *stubSimulationService) Cancel(_ context.Context, id string) (*ports.CancelledSimulation, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &ports.CancelledSimulation{SimulationCore: ports.SimulationCore{ID: id, EnvoiStatus: domain.EnvoiCancelled}}, nil
}

func (s *stubSimulationService) Confirm(_ context.Context, id string) (*ports.ConfirmedSimulation, error) {
	s.lastID = id
	return s.confirmed, s.err
}

func (s *stubSimulationService) Events(_ context.Context, id string) ([]domain.TrackingEvent, error) {
	s.lastID = id
	return s.events, s.err
}

type stubTransportService struct {
	result *ports.AssignmentResult
	err    error
	list   []domain.Transport
	input  ports.CreateTransportInput
	avail  *bool
}

func (s *stubTransportService) FindSuitableTransport(context.Context, *domain.Simulation) (*domain.Transport, error) {
	return nil, errors.New("not used")
}

func (s *stubTransportService) ReserveCapacity(context.Context, *domain.Transport, *domain.Simulation) (*domain.Transport, error) {
	return nil, errors.New("not used")
}

func (s *stubTransportService) AssignTransport(_ context.Context, simulationID string) (*ports.AssignmentResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.result.SimulationID = simulationID
	return s.result, nil
}

func (s *stubTransportService) CreateTransport(_ context.Context, in ports.CreateTransportInput) (*domain.Transport, error) {
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Transport{ID: "tr-1", Name: in.Name, BaseWeight: in.BaseWeight, BaseVolume: in.BaseVolume, IsAvailable: in.IsAvailable}, nil
}

func (s *stubTransportService) ListTransports(context.Context) ([]domain.Transport, error) {
	return s.list, s.err
}

func (s *stubTransportService) SetAvailability(_ context.Context, id string, available bool) (*domain.Transport, error) {
	s.avail = &available
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Transport{ID: id, IsAvailable: available}, nil
}

var sampleTime = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func sampleDraft(id, userID string) *ports.DraftSimulation {
	return &ports.DraftSimulation{SimulationCore: ports.SimulationCore{
		ID:                id,
		DepartureAgencyID: "ag-cas",
		ArrivalAgencyID:   "ag-par",
		UserID:            userID,
		Parcels: []ports.ParcelView{
			{Height: 10, Width: 10, Length: 10, Weight: 20, Volume: 1000},
			{Height: 5, Width: 10, Length: 10, Weight: 10, Volume: 500},
		},
		TotalWeight:   30,
		TotalVolume:   1500,
		TotalPrice:    81,
		DepartureDate: sampleTime.Add(18*time.Hour + 30*time.Minute),
		ArrivalDate:   sampleTime.Add(138*time.Hour + 30*time.Minute),
		EnvoiStatus:   domain.EnvoiPending,
		CreatedAt:     sampleTime,
		UpdatedAt:     sampleTime,
	}}
}

func sampleConfirmed(id string) *ports.ConfirmedSimulation {
	return &ports.ConfirmedSimulation{
		SimulationCore: sampleDraft(id, "user-1").SimulationCore,
		TrackingNumber: "MA-CAS-FR-PAR-000042",
		QRCodeURL:      "http://localhost:8080/qrcodes/" + id + ".png",
		CompletedAt:    sampleTime,
	}
}

const createBody = `{
	"departure": {"country": "MA", "city": "Casablanca", "agency_name": "Maarif"},
	"arrival": {"country": "FR", "city": "Paris", "agency_name": "Bercy"},
	"parcels": [
		{"height": 10, "width": 10, "length": 10, "weight": 20},
		{"height": 5, "width": 10, "length": 10, "weight": 10}
	]
}`

func TestSimulationHandler_Create_Anonymous(t *testing.T) {
	svc := &stubSimulationService{}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, rec := newJSONContext(http.MethodPost, "/v1/simulations", createBody)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/simulations/sim-1", rec.Header().Get("Location"))
	assert.Empty(t, svc.created.UserID)
	assert.Equal(t, "Casablanca", svc.created.Departure.City)
	assert.Equal(t, "Bercy", svc.created.Arrival.AgencyName)
	require.Len(t, svc.created.Parcels, 2)
	assert.Equal(t, 20.0, svc.created.Parcels[0].Weight)

	var resp simulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DRAFT", resp.Status)
	assert.Equal(t, 81.0, resp.TotalPrice)
	assert.Equal(t, "2026-03-11T09:00:00Z", resp.DepartureDate)
	assert.Empty(t, resp.TrackingNumber)
	assert.Equal(t, "/v1/simulations/sim-1/events", resp.Links.Events)
}

func TestSimulationHandler_Create_Authenticated(t *testing.T) {
	svc := &stubSimulationService{}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, _ := newJSONContext(http.MethodPost, "/v1/simulations", createBody)
	c.Set(middleware.ContextUserID, "user-9")
	require.NoError(t, h.Create(c))

	assert.Equal(t, "user-9", svc.created.UserID)
}

func TestSimulationHandler_Create_MissingRoute(t *testing.T) {
	svc := &stubSimulationService{}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, _ := newJSONContext(http.MethodPost, "/v1/simulations",
		`{"departure": {"country": "MA", "city": "Casablanca"}, "parcels": []}`)
	err := h.Create(c)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Contains(t, ve.Violations, "departure.agency_name is required")
	assert.Contains(t, ve.Violations, "arrival.country is required")
}

func TestSimulationHandler_Create_ServiceError(t *testing.T) {
	svc := &stubSimulationService{err: domain.ErrAgencyNotFound}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, _ := newJSONContext(http.MethodPost, "/v1/simulations", createBody)
	assert.True(t, errors.Is(h.Create(c), domain.ErrAgencyNotFound))
}

func TestSimulationHandler_Edit(t *testing.T) {
	svc := &stubSimulationService{}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, rec := newJSONContext(http.MethodPut, "/v1/simulations/sim-3", createBody)
	c.SetParamNames("id")
	c.SetParamValues("sim-3")
	require.NoError(t, h.Edit(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sim-3", svc.lastID)
	assert.Len(t, svc.edited.Parcels, 2)
}

func TestSimulationHandler_Get_Confirmed(t *testing.T) {
	svc := &stubSimulationService{snapshot: sampleConfirmed("sim-2")}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, rec := newJSONContext(http.MethodGet, "/v1/simulations/sim-2", "")
	c.SetParamNames("id")
	c.SetParamValues("sim-2")
	require.NoError(t, h.Get(c))

	var resp simulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, "MA-CAS-FR-PAR-000042", resp.TrackingNumber)
	assert.Equal(t, resp.QRCodeURL, resp.Links.QRCode)
	assert.Equal(t, "2026-03-10T14:30:00Z", resp.CompletedAt)
}

func TestSimulationHandler_ListMine(t *testing.T) {
	svc := &stubSimulationService{}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, rec := newJSONContext(http.MethodGet, "/v1/me/simulations", "")
	c.Set(middleware.ContextUserID, "user-1")
	require.NoError(t, h.ListMine(c))

	var resp simulationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", svc.lastUserID)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "DRAFT", resp.Items[0].Status)
	assert.Equal(t, "COMPLETED", resp.Items[1].Status)
}

func TestSimulationHandler_ListMine_RequiresUser(t *testing.T) {
	h := NewSimulationHandler(&stubSimulationService{}, &stubTransportService{})

	c, _ := newJSONContext(http.MethodGet, "/v1/me/simulations", "")
	assert.Error(t, h.ListMine(c))
}

func TestSimulationHandler_Cancel(t *testing.T) {
	svc := &stubSimulationService{}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, rec := newJSONContext(http.MethodPost, "/v1/simulations/sim-1/cancel", "")
	c.SetParamNames("id")
	c.SetParamValues("sim-1")
	require.NoError(t, h.Cancel(c))

	var resp simulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, "CANCELLED", resp.EnvoiStatus)
	assert.Empty(t, resp.Parcels)
}

func TestSimulationHandler_Cancel_NotDraft(t *testing.T) {
	svc := &stubSimulationService{err: domain.ErrSimulationNotDraft}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, _ := newJSONContext(http.MethodPost, "/v1/simulations/sim-1/cancel", "")
	c.SetParamNames("id")
	c.SetParamValues("sim-1")
	assert.True(t, errors.Is(h.Cancel(c), domain.ErrSimulationNotDraft))
}

func TestSimulationHandler_AssignDestinataire(t *testing.T) {
	svc := &stubSimulationService{}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, rec := newJSONContext(http.MethodPut, "/v1/simulations/sim-1/destinataire", `{"destinataire_id":"dest-7"}`)
	c.SetParamNames("id")
	c.SetParamValues("sim-1")
	require.NoError(t, h.AssignDestinataire(c))

	var resp simulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dest-7", resp.DestinataireID)

	c, _ = newJSONContext(http.MethodPut, "/v1/simulations/sim-1/destinataire", `{}`)
	var ve *domain.ValidationError
	assert.True(t, errors.As(h.AssignDestinataire(c), &ve))
}

func TestSimulationHandler_Claim(t *testing.T) {
	t.Run("claims anonymous draft", func(t *testing.T) {
		svc := &stubSimulationService{snapshot: sampleDraft("sim-1", "user-1")}
		h := NewSimulationHandler(svc, &stubTransportService{})

		c, rec := newJSONContext(http.MethodPost, "/v1/simulations/sim-1/claim", "")
		c.SetParamNames("id")
		c.SetParamValues("sim-1")
		c.Set(middleware.ContextUserID, "user-1")
		require.NoError(t, h.Claim(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", svc.lastUserID)
	})

	t.Run("owned by someone else", func(t *testing.T) {
		svc := &stubSimulationService{snapshot: sampleDraft("sim-1", "user-2")}
		h := NewSimulationHandler(svc, &stubTransportService{})

		c, _ := newJSONContext(http.MethodPost, "/v1/simulations/sim-1/claim", "")
		c.SetParamNames("id")
		c.SetParamValues("sim-1")
		c.Set(middleware.ContextUserID, "user-1")
		assert.True(t, errors.Is(h.Claim(c), domain.ErrForbidden))
	})
}

func TestSimulationHandler_Confirm(t *testing.T) {
	svc := &stubSimulationService{confirmed: sampleConfirmed("sim-1")}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, rec := newJSONContext(http.MethodPost, "/v1/simulations/sim-1/confirm", "")
	c.SetParamNames("id")
	c.SetParamValues("sim-1")
	require.NoError(t, h.Confirm(c))

	var resp simulationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MA-CAS-FR-PAR-000042", resp.TrackingNumber)
	assert.Equal(t, "PENDING", resp.EnvoiStatus)
}

func TestSimulationHandler_Events(t *testing.T) {
	svc := &stubSimulationService{events: []domain.TrackingEvent{{
		ID:             "ev-1",
		SimulationID:   "sim-1",
		TrackingNumber: "MA-CAS-FR-PAR-000042",
		Status:         domain.TrackingEventCreated,
		Location:       "Maarif, Casablanca, MA",
		OccurredAt:     sampleTime,
	}}}
	h := NewSimulationHandler(svc, &stubTransportService{})

	c, rec := newJSONContext(http.MethodGet, "/v1/simulations/sim-1/events", "")
	c.SetParamNames("id")
	c.SetParamValues("sim-1")
	require.NoError(t, h.Events(c))

	var resp eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MA-CAS-FR-PAR-000042", resp.TrackingNumber)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "CREATED", resp.Events[0].Status)
}

func TestSimulationHandler_AssignTransport(t *testing.T) {
	t.Run("assigned", func(t *testing.T) {
		ts := &stubTransportService{result: &ports.AssignmentResult{
			Assigned:  true,
			Transport: &domain.Transport{ID: "tr-1", BaseWeight: 100, CurrentWeight: 30},
		}}
		h := NewSimulationHandler(&stubSimulationService{}, ts)

		c, rec := newJSONContext(http.MethodPost, "/v1/simulations/sim-1/transport", "")
		c.SetParamNames("id")
		c.SetParamValues("sim-1")
		require.NoError(t, h.AssignTransport(c))

		var resp assignmentResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Assigned)
		assert.Equal(t, "sim-1", resp.SimulationID)
		assert.Equal(t, "tr-1", resp.Transport.ID)
	})

	t.Run("no vehicle fits", func(t *testing.T) {
		ts := &stubTransportService{result: &ports.AssignmentResult{Reason: "no transport available for this shipment"}}
		h := NewSimulationHandler(&stubSimulationService{}, ts)

		c, rec := newJSONContext(http.MethodPost, "/v1/simulations/sim-1/transport", "")
		c.SetParamNames("id")
		c.SetParamValues("sim-1")
		require.NoError(t, h.AssignTransport(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp assignmentResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Assigned)
		assert.Nil(t, resp.Transport)
		assert.NotEmpty(t, resp.Reason)
	})

	t.Run("not confirmed", func(t *testing.T) {
		ts := &stubTransportService{err: domain.ErrNotConfirmed}
		h := NewSimulationHandler(&stubSimulationService{}, ts)

		c, _ := newJSONContext(http.MethodPost, "/v1/simulations/sim-1/transport", "")
		c.SetParamNames("id")
		c.SetParamValues("sim-1")
		assert.True(t, errors.Is(h.AssignTransport(c), domain.ErrNotConfirmed))
	})
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "validation", errorKind(domain.NewValidationError("x")))
	assert.Equal(t, "not_found", errorKind(domain.ErrSimulationNotFound))
	assert.Equal(t, "conflict", errorKind(domain.ErrConfirmationInProgress))
	assert.Equal(t, "capacity", errorKind(domain.ErrNoSuitableTransport))
	assert.Equal(t, "internal", errorKind(errors.New("boom")))
}
