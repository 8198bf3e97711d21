package service

import (
	"context"
	"io"
	"slices"
	holdserrors "slotkeeper/internal/holds/errors"
	"slotkeeper/internal/holds/events"
	mongotx "slotkeeper/pkg/db/mongo"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ────────────────────────────────────────────────
// In-memory store standing in for Mongo
// ────────────────────────────────────────────────

type txKey struct{}

// memStore serializes transactions behind one mutex and rolls back both
// collections when the transaction function fails.
type memStore struct {
	mu           sync.Mutex
	holds        map[string]*model.Hold
	appointments []*model.Appointment
	blocks       []*model.AvailabilityBlock

	afterFind        func(hold *model.Hold)
	createAppointErr error
	guardTouches     int
}

func newMemStore() *memStore {
	return &memStore{holds: make(map[string]*model.Hold)}
}

func (m *memStore) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holds := make(map[string]*model.Hold, len(m.holds))
	for id, h := range m.holds {
		c := *h
		holds[id] = &c
	}
	appointments := slices.Clone(m.appointments)

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.holds = holds
		m.appointments = appointments
		return err
	}
	return nil
}

func (m *memStore) get(id string) *model.Hold {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[id]
	if !ok {
		return nil
	}
	c := *h
	return &c
}

func (m *memStore) appointmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appointments)
}

// Hold repository

func (m *memStore) Create(ctx context.Context, hold *model.Hold) error {
	defer m.lock(ctx)()
	for _, h := range m.holds {
		if h.Status == model.HoldStatusHeld && h.DoctorID == hold.DoctorID && h.Date == hold.Date && h.StartTime == hold.StartTime {
			return holdserrors.ErrDuplicateSlot
		}
	}
	hold.ID = primitive.NewObjectID().Hex()
	c := *hold
	m.holds[hold.ID] = &c
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*model.Hold, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, holdserrors.ErrInvalidID
	}
	unlock := m.lock(ctx)
	h, ok := m.holds[id]
	var found model.Hold
	if ok {
		found = *h
	}
	unlock()

	if !ok {
		return nil, holdserrors.ErrNotFound
	}
	if m.afterFind != nil {
		m.afterFind(&found)
	}
	return &found, nil
}

func (m *memStore) FindActiveByDoctorAndDate(ctx context.Context, doctorID, date string, now time.Time) ([]*model.Hold, error) {
	defer m.lock(ctx)()
	var result []*model.Hold
	for _, h := range m.holds {
		if h.DoctorID == doctorID && h.Date == date && h.IsActive(now) {
			c := *h
			result = append(result, &c)
		}
	}
	slices.SortFunc(result, func(a, b *model.Hold) int { return a.StartMin - b.StartMin })
	return result, nil
}

func (m *memStore) ListActive(ctx context.Context, doctorID, date string, now time.Time) ([]model.ActiveHold, error) {
	holds, _ := m.FindActiveByDoctorAndDate(ctx, doctorID, date, now)
	result := []model.ActiveHold{}
	for _, h := range holds {
		result = append(result, model.ActiveHold{HoldID: h.ID, StartTime: h.StartTime, EndTime: h.EndTime, ExpiresAt: h.ExpiresAt})
	}
	return result, nil
}

func (m *memStore) MarkConfirmed(ctx context.Context, id, appointmentID string, now time.Time) error {
	defer m.lock(ctx)()
	h, ok := m.holds[id]
	if !ok || h.Status != model.HoldStatusHeld || !now.Before(h.ExpiresAt) {
		return holdserrors.ErrNotHeld
	}
	h.Status = model.HoldStatusConfirmed
	h.AppointmentID = appointmentID
	h.ConfirmedAt = &now
	return nil
}

func (m *memStore) UpdateExpiry(ctx context.Context, id string, expiresAt, now time.Time) error {
	defer m.lock(ctx)()
	h, ok := m.holds[id]
	if !ok || h.Status != model.HoldStatusHeld || !now.Before(h.ExpiresAt) || h.ExpiresAt.After(expiresAt) {
		return holdserrors.ErrNotHeld
	}
	h.ExpiresAt = expiresAt
	return nil
}

func (m *memStore) DeleteHeld(ctx context.Context, id string) (bool, error) {
	defer m.lock(ctx)()
	h, ok := m.holds[id]
	if !ok || h.Status != model.HoldStatusHeld {
		return false, nil
	}
	delete(m.holds, id)
	return true, nil
}

func (m *memStore) DeleteExpiredByID(ctx context.Context, id string, now time.Time) (bool, error) {
	defer m.lock(ctx)()
	h, ok := m.holds[id]
	if !ok || h.Status != model.HoldStatusHeld || now.Before(h.ExpiresAt) {
		return false, nil
	}
	delete(m.holds, id)
	return true, nil
}

func (m *memStore) DeleteExpiredForDoctorDate(ctx context.Context, doctorID, date string, now time.Time) (int64, error) {
	defer m.lock(ctx)()
	return m.deleteExpired(now, func(h *model.Hold) bool { return h.DoctorID == doctorID && h.Date == date }), nil
}

func (m *memStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer m.lock(ctx)()
	return m.deleteExpired(now, func(*model.Hold) bool { return true }), nil
}

func (m *memStore) deleteExpired(now time.Time, match func(*model.Hold) bool) int64 {
	var removed int64
	for id, h := range m.holds {
		if match(h) && h.Status == model.HoldStatusHeld && !now.Before(h.ExpiresAt) {
			delete(m.holds, id)
			removed++
		}
	}
	return removed
}

// Guard repository

type memGuards struct{ store *memStore }

func (g memGuards) Touch(ctx context.Context, doctorID, date string) error {
	g.store.guardTouches++
	return nil
}

// Appointment and block sources

type memAppointments struct{ store *memStore }

func (a memAppointments) Create(ctx context.Context, appointment *model.Appointment) error {
	if a.store.createAppointErr != nil {
		return a.store.createAppointErr
	}
	defer a.store.lock(ctx)()
	appointment.ID = primitive.NewObjectID().Hex()
	c := *appointment
	a.store.appointments = append(a.store.appointments, &c)
	return nil
}

func (a memAppointments) ListBlockingByDoctorAndDate(ctx context.Context, doctorID, date string) ([]*model.Appointment, error) {
	defer a.store.lock(ctx)()
	var result []*model.Appointment
	for _, appt := range a.store.appointments {
		if appt.DoctorID == doctorID && appt.Date == date && appt.Blocking() {
			result = append(result, appt)
		}
	}
	return result, nil
}

type memBlocks struct{ store *memStore }

func (b memBlocks) ListCovering(ctx context.Context, doctorID, date string) ([]*model.AvailabilityBlock, error) {
	var result []*model.AvailabilityBlock
	for _, block := range b.store.blocks {
		if block.DoctorID == doctorID && block.Covers(date) {
			result = append(result, block)
		}
	}
	return result, nil
}

// ────────────────────────────────────────────────
// Collaborator mocks
// ────────────────────────────────────────────────

type mockDoctorDirectory struct {
	existsFunc func(ctx context.Context, doctorID string) (bool, error)
}

func (m *mockDoctorDirectory) Exists(ctx context.Context, doctorID string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, doctorID)
	}
	return true, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Output: io.Discard})
}
