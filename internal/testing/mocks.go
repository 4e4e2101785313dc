package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/folioworks/folio/internal/domain"
	"github.com/folioworks/folio/internal/events"
	"github.com/shopspring/decimal"
)

// MockSnapshotSource is an in-memory implementation of domain.SnapshotSource
type MockSnapshotSource struct {
	mu        sync.RWMutex
	snapshots map[string]domain.Snapshot
	history   map[string][]float64
	err       error
}

// NewMockSnapshotSource creates a new mock snapshot source
func NewMockSnapshotSource() *MockSnapshotSource {
	return &MockSnapshotSource{
		snapshots: make(map[string]domain.Snapshot),
		history:   make(map[string][]float64),
	}
}

// SetSnapshot stores the snapshot returned for a portfolio id
func (m *MockSnapshotSource) SetSnapshot(id string, snapshot domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[id] = snapshot
}

// SetHistory stores the value history returned for a portfolio id
func (m *MockSnapshotSource) SetHistory(id string, values []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[id] = values
}

// SetError sets the error to return from every call
func (m *MockSnapshotSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Snapshot returns the stored snapshot or domain.ErrNotFound
func (m *MockSnapshotSource) Snapshot(_ context.Context, id string) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return domain.Snapshot{}, m.err
	}
	s, ok := m.snapshots[id]
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

// ValueHistory returns the last limit stored values
func (m *MockSnapshotSource) ValueHistory(_ context.Context, id string, limit int) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	values := m.history[id]
	if limit > 0 && len(values) > limit {
		values = values[len(values)-limit:]
	}
	return values, nil
}

// MockPriceProvider is an in-memory implementation of domain.PriceProvider
type MockPriceProvider struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

// NewMockPriceProvider creates a price provider serving the given quotes
func NewMockPriceProvider(prices map[string]decimal.Decimal) *MockPriceProvider {
	if prices == nil {
		prices = make(map[string]decimal.Decimal)
	}
	return &MockPriceProvider{prices: prices}
}

// SetError sets the error to return
func (m *MockPriceProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times GetPrices was invoked
func (m *MockPriceProvider) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// GetPrices returns quotes for the known symbols
func (m *MockPriceProvider) GetPrices(_ context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]decimal.Decimal)
	for _, s := range symbols {
		if p, ok := m.prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

// MockEmitter records emitted events
type MockEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

// NewMockEmitter creates a new recording emitter
func NewMockEmitter() *MockEmitter {
	return &MockEmitter{}
}

// Emit implements events.Emitter
func (m *MockEmitter) Emit(module string, data events.EventData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events.Event{Type: data.EventType(), Module: module, Data: data})
}

// Events returns a copy of the recorded events
func (m *MockEmitter) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfType returns the recorded events of one type
func (m *MockEmitter) OfType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range m.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
