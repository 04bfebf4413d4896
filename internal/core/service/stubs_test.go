package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colisapp/shipping-core/internal/core/domain"
	"github.com/colisapp/shipping-core/internal/core/ports"
	"github.com/colisapp/shipping-core/internal/core/validation"
)

// ---------------------------------------------------------------------------
// In-memory stubs. Every mutating call bumps writes so tests can assert that
// an operation wrote nothing.
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type writeCounter struct {
	mu     sync.Mutex
	writes int
}

func (c *writeCounter) bump() {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
}

func (c *writeCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type stubSimulationRepo struct {
	mu   sync.Mutex
	sims map[string]*domain.Simulation
	w    *writeCounter

	// findOverride, when set, is returned once by the next FindByID.
	findOverride *domain.Simulation
}

func newStubSimulationRepo(w *writeCounter) *stubSimulationRepo {
	return &stubSimulationRepo{sims: make(map[string]*domain.Simulation), w: w}
}

func (r *stubSimulationRepo) put(s *domain.Simulation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *s
	r.sims[s.ID] = &clone
}

func (r *stubSimulationRepo) get(id string) *domain.Simulation {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sims[id]
	if !ok {
		return nil
	}
	clone := *s
	return &clone
}

func (r *stubSimulationRepo) Create(_ context.Context, s *domain.Simulation) error {
	r.w.bump()
	r.put(s)
	return nil
}

func (r *stubSimulationRepo) FindByID(_ context.Context, id string) (*domain.Simulation, error) {
	r.mu.Lock()
	override := r.findOverride
	r.findOverride = nil
	r.mu.Unlock()
	if override != nil && override.ID == id {
		return override, nil
	}
	if s := r.get(id); s != nil {
		return s, nil
	}
	return nil, domain.ErrSimulationNotFound
}

func (r *stubSimulationRepo) ListByUser(_ context.Context, userID string) ([]*domain.Simulation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Simulation
	for _, s := range r.sims {
		if s.UserID == userID {
			clone := *s
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// update applies fn to the stored simulation when it is in status from.
func (r *stubSimulationRepo) update(id string, from domain.SimulationStatus, fn func(*domain.Simulation)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sims[id]
	if !ok {
		return domain.ErrSimulationNotFound
	}
	if s.SimulationStatus != from {
		return domain.ErrSimulationNotDraft
	}
	r.w.bump()
	fn(s)
	return nil
}

func (r *stubSimulationRepo) UpdateDraft(_ context.Context, s *domain.Simulation) error {
	return r.update(s.ID, domain.SimulationDraft, func(stored *domain.Simulation) {
		*stored = *s
	})
}

func (r *stubSimulationRepo) SetDestinataire(_ context.Context, id, destinataireID string) error {
	return r.update(id, domain.SimulationDraft, func(s *domain.Simulation) {
		s.DestinataireID = destinataireID
	})
}

func (r *stubSimulationRepo) SetUserIfUnset(_ context.Context, id, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sims[id]
	if !ok {
		return false, domain.ErrSimulationNotFound
	}
	if s.UserID != "" {
		return false, nil
	}
	r.w.bump()
	s.UserID = userID
	return true, nil
}

func (r *stubSimulationRepo) MarkCancelled(_ context.Context, id string, at time.Time) error {
	return r.update(id, domain.SimulationDraft, func(s *domain.Simulation) {
		s.SimulationStatus = domain.SimulationCancelled
		s.EnvoiStatus = domain.EnvoiCancelled
		s.UpdatedAt = at
	})
}

func (r *stubSimulationRepo) MarkCompleted(_ context.Context, id string, c domain.Completion) error {
	r.mu.Lock()
	for _, other := range r.sims {
		if other.ID != id && other.TrackingNumber == c.TrackingNumber {
			r.mu.Unlock()
			return domain.ErrTrackingNumberTaken
		}
	}
	r.mu.Unlock()
	return r.update(id, domain.SimulationDraft, func(s *domain.Simulation) {
		at := c.CompletedAt
		s.SimulationStatus = domain.SimulationCompleted
		s.EnvoiStatus = domain.EnvoiPending
		s.Paid = true
		s.TrackingNumber = c.TrackingNumber
		s.QRCodeURL = c.QRCodeURL
		s.CompletedAt = &at
		s.UpdatedAt = at
	})
}

func (r *stubSimulationRepo) SetTransport(_ context.Context, id, transportID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sims[id]
	if !ok {
		return domain.ErrSimulationNotFound
	}
	if s.TransportID != "" {
		return domain.ErrTransportAssigned
	}
	r.w.bump()
	s.TransportID = transportID
	return nil
}

type stubParcelRepo struct {
	mu      sync.Mutex
	parcels map[string][]domain.Parcel
	w       *writeCounter
}

func newStubParcelRepo(w *writeCounter) *stubParcelRepo {
	return &stubParcelRepo{parcels: make(map[string][]domain.Parcel), w: w}
}

func (r *stubParcelRepo) InsertMany(_ context.Context, parcels []domain.Parcel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.bump()
	for _, p := range parcels {
		r.parcels[p.SimulationID] = append(r.parcels[p.SimulationID], p)
	}
	return nil
}

func (r *stubParcelRepo) ListBySimulation(_ context.Context, simulationID string) ([]domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]domain.Parcel(nil), r.parcels[simulationID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *stubParcelRepo) DeleteBySimulation(_ context.Context, simulationID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.bump()
	n := int64(len(r.parcels[simulationID]))
	delete(r.parcels, simulationID)
	return n, nil
}

type stubAgencyRepo struct {
	mu       sync.Mutex
	agencies map[string]domain.Agency
	links    map[string]bool
	w        *writeCounter
}

func newStubAgencyRepo(w *writeCounter, agencies ...domain.Agency) *stubAgencyRepo {
	r := &stubAgencyRepo{agencies: make(map[string]domain.Agency), links: make(map[string]bool), w: w}
	for _, a := range agencies {
		r.agencies[a.ID] = a
	}
	return r
}

func (r *stubAgencyRepo) ResolveID(_ context.Context, country, city, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agencies {
		if a.Country == country && a.City == city && a.Name == name {
			return a.ID, nil
		}
	}
	return "", domain.ErrAgencyNotFound
}

func (r *stubAgencyRepo) FindByID(_ context.Context, id string) (*domain.Agency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agencies[id]
	if !ok {
		return nil, domain.ErrAgencyNotFound
	}
	return &a, nil
}

func (r *stubAgencyRepo) LinkClient(_ context.Context, agencyID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.bump()
	r.links[agencyID+"/"+userID] = true
	return nil
}

type stubEventRepo struct {
	mu     sync.Mutex
	events []domain.TrackingEvent
	err    error
	w      *writeCounter
}

func (r *stubEventRepo) Insert(_ context.Context, e *domain.TrackingEvent) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.bump()
	r.events = append(r.events, *e)
	return nil
}

func (r *stubEventRepo) ListBySimulation(_ context.Context, simulationID string) ([]domain.TrackingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TrackingEvent
	for _, e := range r.events {
		if e.SimulationID == simulationID {
			out = append(out, e)
		}
	}
	return out, nil
}

// stubTx serialises transactions; it does not roll back.
type stubTx struct {
	mu    sync.Mutex
	calls int
}

func (t *stubTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return fn(ctx)
}

type stubTariffSource struct {
	tariff *domain.Tariff
}

func (s stubTariffSource) Current(context.Context) (*domain.Tariff, error) {
	if s.tariff == nil {
		return nil, domain.ErrTariffNotFound
	}
	t := *s.tariff
	return &t, nil
}

// stubTracking hands out the scripted numbers first, then a counter.
type stubTracking struct {
	calls  int
	script []string
}

func (g *stubTracking) Generate(_ context.Context, r ports.TrackingRoute) (string, error) {
	g.calls++
	if g.calls <= len(g.script) {
		return g.script[g.calls-1], nil
	}
	return fmt.Sprintf("%s-%s-%06d", r.DepartureCountry, r.DestinationCountry, g.calls), nil
}

type stubQRCodes struct {
	err     error
	names   []string
	removed []string
}

func (q *stubQRCodes) Encode(_ context.Context, name string, _ any) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.names = append(q.names, name)
	return "http://qr.test/" + name + ".png", nil
}

func (q *stubQRCodes) Remove(_ context.Context, name string) error {
	q.removed = append(q.removed, name)
	return nil
}

type stubGuard struct {
	held     map[string]bool
	err      error
	released []string
}

func newStubGuard() *stubGuard {
	return &stubGuard{held: make(map[string]bool)}
}

func (g *stubGuard) Acquire(_ context.Context, id string) (string, bool, error) {
	if g.err != nil {
		return "", false, g.err
	}
	if g.held[id] {
		return "", false, nil
	}
	g.held[id] = true
	return "token-" + id, true, nil
}

func (g *stubGuard) Release(_ context.Context, id, token string) error {
	if token != "token-"+id {
		return errors.New("foreign guard token")
	}
	delete(g.held, id)
	g.released = append(g.released, id)
	return nil
}

type stubPublisher struct {
	keys []string
	err  error
}

func (p *stubPublisher) Publish(_ context.Context, key string, _ any) error {
	p.keys = append(p.keys, key)
	return p.err
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var (
	casablanca = domain.Agency{ID: "ag-cas", Name: "Maarif", Country: "MA", City: "Casablanca"}
	rabat      = domain.Agency{ID: "ag-rab", Name: "Agdal", Country: "MA", City: "Rabat"}
	paris      = domain.Agency{ID: "ag-par", Name: "Bastille", Country: "FR", City: "Paris"}

	testTariff = domain.Tariff{ID: "current", WeightRate: 2, VolumeRate: 0.01, BaseRate: 5, FixedRate: 1}
	fixedNow   = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
)

type fixture struct {
	writes    *writeCounter
	sims      *stubSimulationRepo
	parcels   *stubParcelRepo
	agencies  *stubAgencyRepo
	events    *stubEventRepo
	tx        *stubTx
	tracking  *stubTracking
	qrcodes   *stubQRCodes
	guard     *stubGuard
	publisher *stubPublisher
	svc       *SimulationService
}

func newFixture() *fixture {
	w := &writeCounter{}
	f := &fixture{
		writes:    w,
		sims:      newStubSimulationRepo(w),
		parcels:   newStubParcelRepo(w),
		agencies:  newStubAgencyRepo(w, casablanca, rabat, paris),
		events:    &stubEventRepo{w: w},
		tx:        &stubTx{},
		tracking:  &stubTracking{},
		qrcodes:   &stubQRCodes{},
		guard:     newStubGuard(),
		publisher: &stubPublisher{},
	}
	v := validation.New()
	f.svc = NewSimulationService(SimulationDeps{
		Simulations: f.sims,
		Parcels:     f.parcels,
		Agencies:    f.agencies,
		Events:      f.events,
		Tx:          f.tx,
		Calculator:  NewCalculator(NewTariffEngine(stubTariffSource{tariff: &testTariff}, v)),
		Validator:   v,
		Scheduler:   NewRouteScheduler(ScheduleConfig{}),
		Tracking:    f.tracking,
		QRCodes:     f.qrcodes,
		Guard:       f.guard,
		Publisher:   f.publisher,
	}, discardLogger)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func route(a domain.Agency) ports.RouteInput {
	return ports.RouteInput{Country: a.Country, City: a.City, AgencyName: a.Name}
}

func cube(side, kg float64) ports.ParcelInput {
	return ports.ParcelInput{Height: side, Width: side, Length: side, Weight: kg}
}

func createRequest(parcels ...ports.ParcelInput) ports.CreateSimulationRequest {
	return ports.CreateSimulationRequest{
		Departure: route(casablanca),
		Arrival:   route(paris),
		Parcels:   parcels,
	}
}

var errBoom = errors.New("boom")
