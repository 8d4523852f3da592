package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/arunvm123/showcatalog/catalog-service/events"
	"github.com/arunvm123/showcatalog/catalog-service/model"
	"github.com/arunvm123/showcatalog/catalog-service/repository"
	"github.com/shopspring/decimal"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 15, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testProduct(id, category string, createdAt time.Time) model.Product {
	return model.Product{
		ID:       id,
		Title:    "Show " + id,
		Type:     model.DefaultProductType,
		Artist:   "Artist " + id,
		Date:     "2025-03-15",
		Venue:    "Estadio Monumental",
		Category: category,
		Images:   []string{"/images/shows/" + id + "-1.jpg"},
		Spaces: []model.Space{
			{Name: "Campo VIP", BasePrice: decimal.NewFromInt(25000), Stock: 50},
		},
		Merchandise: []model.Merchandise{},
		CreatedAt:   createdAt,
	}
}

func testInput(title, category string) model.ProductInput {
	return model.ProductInput{
		Title:    title,
		Artist:   "Metallica",
		Date:     "2025-03-15",
		Venue:    "Estadio Monumental",
		Category: category,
		Images:   []string{"/images/shows/metallica-1.jpg"},
		Spaces: []model.Space{
			{Name: "Campo Delantero", BasePrice: decimal.NewFromInt(15000), Stock: 100},
		},
	}
}

func ids(products []model.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

// fakeRemote is an in-memory ProductRepository that counts calls and can be made to fail.
type fakeRemote struct {
	mu       sync.Mutex
	products []model.Product
	clock    Clock
	nextID   int

	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	listCalls     int
	categoryCalls int
	getCalls      int
	createCalls   int
	updateCalls   int
	deleteCalls   int
}

var _ repository.ProductRepository = (*fakeRemote)(nil)

func newFakeRemote(clock Clock, products ...model.Product) *fakeRemote {
	return &fakeRemote{products: products, clock: clock}
}

func (r *fakeRemote) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls + r.categoryCalls + r.getCalls + r.createCalls + r.updateCalls + r.deleteCalls
}

func (r *fakeRemote) List(context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]model.Product(nil), r.products...), nil
}

func (r *fakeRemote) ListByCategory(_ context.Context, category string) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categoryCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.Product
	for _, p := range r.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRemote) GetByID(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, p := range r.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRemote) Create(_ context.Context, input model.ProductInput) (model.Created, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return model.Created{}, r.createErr
	}
	r.nextID++
	created := model.Created{ID: fmt.Sprintf("new-%d", r.nextID), CreatedAt: r.clock.Now()}
	r.products = append(r.products, input.ToProduct(created.ID, created.CreatedAt))
	return created, nil
}

func (r *fakeRemote) Update(_ context.Context, id string, input model.ProductInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	for i, p := range r.products {
		if p.ID == id {
			r.products[i] = input.ToProduct(id, p.CreatedAt)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeRemote) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeRemote) Ping(context.Context) error { return nil }

// fakeStore is a map-backed cache.Store with fault injection and call counters.
type fakeStore struct {
	mu   sync.Mutex
	data map[string][]byte

	loadErr   error
	saveErr   error
	removeErr error

	loads   int
	saves   int
	removes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = value
	return nil
}

func (s *fakeStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.data, key)
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) io() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads + s.saves + s.removes
}

// countingMemory records how often the memory tier is written.
type countingMemory struct {
	*MemoryCache
	sets int
}

func (m *countingMemory) Set(entry CacheEntry) {
	m.sets++
	m.MemoryCache.Set(entry)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

const (
	testKey     = "catalog:products"
	testVersion = "v2"
	testTTL     = 30 * time.Minute
)

// harness bundles a coordinator with inspectable fakes for every collaborator.
type harness struct {
	clock       *fakeClock
	remote      *fakeRemote
	store       *fakeStore
	memory      *countingMemory
	durable     *DurableCache
	coordinator *Coordinator
}

func newHarness(products ...model.Product) *harness {
	clock := newFakeClock()
	h := &harness{
		clock:  clock,
		remote: newFakeRemote(clock, products...),
		store:  newFakeStore(),
		memory: &countingMemory{MemoryCache: NewMemoryCache()},
	}
	h.durable = NewDurableCache(h.store, testKey, testVersion, discardLogger())
	coordinator, err := NewCoordinator(
		Config{TTL: testTTL, Version: testVersion},
		h.memory,
		h.durable,
		h.remote,
		clock,
		discardLogger(),
	)
	if err != nil {
		panic(err)
	}
	h.coordinator = coordinator
	return h
}

// resetCounters forgets all I/O performed so far.
func (h *harness) resetCounters() {
	h.remote.mu.Lock()
	h.remote.listCalls, h.remote.categoryCalls, h.remote.getCalls = 0, 0, 0
	h.remote.createCalls, h.remote.updateCalls, h.remote.deleteCalls = 0, 0, 0
	h.remote.mu.Unlock()

	h.store.mu.Lock()
	h.store.loads, h.store.saves, h.store.removes = 0, 0, 0
	h.store.mu.Unlock()

	h.memory.sets = 0
}
