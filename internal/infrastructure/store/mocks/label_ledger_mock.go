package mocks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/example/liveshop-shipping/internal/infrastructure/store"
)

// MockLabelLedger is an in-memory store.LabelLedger for tests
type MockLabelLedger struct {
	mu      sync.RWMutex
	records map[string]store.LabelRecord
	order   []string

	// For tracking calls in tests
	RecordCalls  []store.LabelRecord
	ResolveCalls []ResolveCall

	// Err is returned by every method when set
	Err error
}

// ResolveCall records parameters passed to MarkResolved
type ResolveCall struct {
	TrackingNumber string
	Applied        []string
}

func NewMockLabelLedger() *MockLabelLedger {
	return &MockLabelLedger{records: make(map[string]store.LabelRecord)}
}

func (m *MockLabelLedger) Record(_ context.Context, rec store.LabelRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RecordCalls = append(m.RecordCalls, rec)
	if m.Err != nil {
		return m.Err
	}
	if rec.Status == "" {
		rec.Status = store.StatusFor(rec.AppliedOrderIDs, rec.FailedOrderIDs)
	}

	existing, ok := m.records[rec.TrackingNumber]
	switch {
	case !ok:
		now := time.Now()
		rec.CreatedAt, rec.UpdatedAt = now, now
		m.records[rec.TrackingNumber] = rec
		m.order = append(m.order, rec.TrackingNumber)
	case existing.Status != store.LabelResolved:
		existing.AppliedOrderIDs = rec.AppliedOrderIDs
		existing.FailedOrderIDs = rec.FailedOrderIDs
		existing.Status = rec.Status
		existing.UpdatedAt = time.Now()
		m.records[rec.TrackingNumber] = existing
	}
	return nil
}

func (m *MockLabelLedger) Get(_ context.Context, trackingNumber string) (*store.LabelRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	rec, ok := m.records[trackingNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrLabelNotFound, trackingNumber)
	}
	return &rec, nil
}

func (m *MockLabelLedger) ListPending(_ context.Context, sellerID string) ([]store.LabelRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	records := []store.LabelRecord{}
	for _, tn := range m.order {
		rec := m.records[tn]
		if sellerID != "" && rec.SellerID != sellerID {
			continue
		}
		if rec.Status == store.LabelUnapplied || rec.Status == store.LabelPartial {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (m *MockLabelLedger) MarkResolved(_ context.Context, trackingNumber string, applied []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ResolveCalls = append(m.ResolveCalls, ResolveCall{TrackingNumber: trackingNumber, Applied: slices.Clone(applied)})
	if m.Err != nil {
		return m.Err
	}
	rec, ok := m.records[trackingNumber]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrLabelNotFound, trackingNumber)
	}
	rec.Status = store.LabelResolved
	rec.AppliedOrderIDs = applied
	rec.FailedOrderIDs = nil
	rec.UpdatedAt = time.Now()
	m.records[trackingNumber] = rec
	return nil
}
