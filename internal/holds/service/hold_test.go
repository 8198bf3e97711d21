package service

import (
	"context"
	"fmt"
	"slotkeeper/internal/holds/conflict"
	"slotkeeper/internal/holds/events"
	"slotkeeper/internal/holds/validator"
	"slotkeeper/pkg/config"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/timeslot"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testDoctor  = "65f1a2b3c4d5e6f7a8b9c0d1"
	testPatient = "65f1a2b3c4d5e6f7a8b9c0d2"
	testDate    = "2025-06-01"
	ownerA      = "session-owner-a"
	ownerB      = "session-owner-b"
)

var t0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *holdService
	store     *memStore
	clock     *testClock
	doctors   *mockDoctorDirectory
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := discardLogger()
	cfg := &config.Config{
		Log:                    log,
		WriteTimeout:           time.Second,
		HoldLeaseDuration:      5 * time.Minute,
		HoldMaxExtendMinutes:   30,
		HoldDefaultDurationMin: 30,
		HoldMinDurationMin:     5,
		HoldMaxDurationMin:     480,
	}

	store := newMemStore()
	clock := &testClock{now: t0}
	doctors := &mockDoctorDirectory{}
	publisher := &recordingPublisher{}
	resolver := conflict.NewResolver(memBlocks{store}, memAppointments{store}, store)
	v := validator.NewHoldValidator(log, validator.Limits{
		MinDurationMin:   cfg.HoldMinDurationMin,
		MaxDurationMin:   cfg.HoldMaxDurationMin,
		MaxExtendMinutes: cfg.HoldMaxExtendMinutes,
	})

	svc := NewHoldService(store, memGuards{store}, doctors, memAppointments{store}, resolver, v, publisher, cfg).(*holdService)
	svc.now = clock.Now

	return &fixture{svc: svc, store: store, clock: clock, doctors: doctors, publisher: publisher}
}

func (f *fixture) reserve(t *testing.T, start string, duration int, owner string) (*model.ReserveResult, error) {
	t.Helper()
	return f.svc.Reserve(context.Background(), &model.ReserveRequest{
		DoctorID:    testDoctor,
		Date:        testDate,
		StartTime:   start,
		DurationMin: duration,
		OwnerToken:  owner,
	})
}

func (f *fixture) mustReserve(t *testing.T, start string, duration int, owner string) *model.ReserveResult {
	t.Helper()
	res, err := f.reserve(t, start, duration, owner)
	require.NoError(t, err)
	return res
}

func confirmRequest(owner string) *model.ConfirmRequest {
	return &model.ConfirmRequest{
		OwnerToken: owner,
		Details:    model.AppointmentDetails{PatientID: testPatient, Reason: "Follow-up"},
	}
}

func requireCode(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.Equal(t, code, appErr.Code, "unexpected error: %v", err)
	return appErr
}

// ────────────────────────────────────────────────
// Reserve
// ────────────────────────────────────────────────

func TestReserve_Success(t *testing.T) {
	f := newFixture(t)

	res := f.mustReserve(t, "10:00", 0, ownerA)

	assert.NotEmpty(t, res.HoldID)
	assert.Equal(t, "10:00", res.StartTime)
	assert.Equal(t, "10:30", res.EndTime)
	assert.Equal(t, t0.Add(5*time.Minute), res.ExpiresAt)
	assert.Equal(t, int64(300), res.ExpiresIn)

	stored := f.store.get(res.HoldID)
	require.NotNil(t, stored)
	assert.Equal(t, model.HoldStatusHeld, stored.Status)
	assert.Equal(t, ownerA, stored.OwnerToken)
	assert.Equal(t, 600, stored.StartMin)
	assert.Equal(t, 630, stored.EndMin)
	assert.Equal(t, 1, f.store.guardTouches)
	assert.Equal(t, []string{events.TypeHoldReserved}, f.publisher.types())
}

func TestReserve_InvalidInputSkipsStorage(t *testing.T) {
	f := newFixture(t)
	called := false
	f.doctors.existsFunc = func(ctx context.Context, doctorID string) (bool, error) {
		called = true
		return true, nil
	}

	tests := []struct {
		name     string
		start    string
		duration int
	}{
		{"bad clock", "25:00", 30},
		{"too short", "10:00", 4},
		{"too long", "08:00", 481},
		{"past midnight", "23:50", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reserve(t, tt.start, tt.duration, ownerA)
			requireCode(t, err, apperrors.CodeValidation)
		})
	}
	assert.False(t, called, "doctor lookup must not run for invalid input")
	assert.Zero(t, f.store.guardTouches)
}

func TestReserve_UnknownDoctor(t *testing.T) {
	f := newFixture(t)
	f.doctors.existsFunc = func(ctx context.Context, doctorID string) (bool, error) {
		return false, nil
	}

	_, err := f.reserve(t, "10:00", 30, ownerA)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestReserve_AvailabilityBlockScenario(t *testing.T) {
	f := newFixture(t)
	f.store.blocks = []*model.AvailabilityBlock{{
		ID: "b1", DoctorID: testDoctor, StartDate: testDate, EndDate: testDate,
		StartTime: "12:00", EndTime: "13:00", Reason: "Clinic meeting", Active: true,
	}}

	_, err := f.reserve(t, "11:30", 60, ownerA)
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, model.ConflictSourceBlock, appErr.Details["source"])
	assert.Equal(t, "12:00", appErr.Details["start_time"])

	res := f.mustReserve(t, "13:00", 30, ownerA)
	assert.Equal(t, "13:30", res.EndTime)
}

func TestReserve_AppointmentConflict(t *testing.T) {
	f := newFixture(t)
	f.store.appointments = []*model.Appointment{
		{ID: "a1", DoctorID: testDoctor, Date: testDate, StartTime: "09:00", DurationMin: 45, Status: model.AppointmentScheduled},
	}

	_, err := f.reserve(t, "09:30", 30, ownerA)
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, model.ConflictSourceAppointment, appErr.Details["source"])
	assert.Equal(t, "a1", appErr.Details["reference_id"])

	f.mustReserve(t, "09:45", 30, ownerA)
}

func TestReserve_OverlapAndBoundary(t *testing.T) {
	f := newFixture(t)
	first := f.mustReserve(t, "10:00", 30, ownerA)

	_, err := f.reserve(t, "10:15", 30, ownerB)
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, model.ConflictSourceHold, appErr.Details["source"])
	assert.Equal(t, first.HoldID, appErr.Details["reference_id"])

	_, err = f.reserve(t, "10:00", 30, ownerA)
	requireCode(t, err, apperrors.CodeConflict)

	f.mustReserve(t, "10:30", 30, ownerB)
	f.mustReserve(t, "09:30", 30, ownerB)
}

func TestReserve_ReclaimsLapsedHold(t *testing.T) {
	f := newFixture(t)
	first := f.mustReserve(t, "10:00", 30, ownerA)

	f.clock.Advance(5 * time.Minute)
	second := f.mustReserve(t, "10:00", 30, ownerB)

	assert.Nil(t, f.store.get(first.HoldID), "lapsed hold should be purged")
	assert.NotNil(t, f.store.get(second.HoldID))
}

func TestReserve_ConcurrentIdenticalSlot(t *testing.T) {
	f := newFixture(t)
	const clients = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.reserve(t, "10:00", 30, fmt.Sprintf("session-owner-%02d", i))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if apperrors.HasCode(err, apperrors.CodeConflict) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, clients-1, conflicts)
}

func TestReserve_ConcurrentOverlappingSlots(t *testing.T) {
	f := newFixture(t)
	starts := []string{"10:00", "10:10", "10:20", "10:30", "10:40", "10:50", "11:00", "11:10"}

	var wg sync.WaitGroup
	for i, start := range starts {
		wg.Add(1)
		go func(i int, start string) {
			defer wg.Done()
			_, _ = f.reserve(t, start, 30, fmt.Sprintf("session-owner-%02d", i))
		}(i, start)
	}
	wg.Wait()

	active, err := f.svc.ListActive(context.Background(), testDoctor, testDate)
	require.NoError(t, err)
	require.NotEmpty(t, active)

	for i := range active {
		for j := i + 1; j < len(active); j++ {
			a, _ := timeslot.Between(active[i].StartTime, active[i].EndTime)
			b, _ := timeslot.Between(active[j].StartTime, active[j].EndTime)
			assert.False(t, a.Overlaps(b), "accepted holds %s and %s overlap", a, b)
		}
	}
}

// ────────────────────────────────────────────────
// Confirm
// ────────────────────────────────────────────────

func TestConfirm_Success(t *testing.T) {
	f := newFixture(t)
	res := f.mustReserve(t, "10:00", 30, ownerA)

	f.clock.Advance(2 * time.Minute)
	appointment, err := f.svc.Confirm(context.Background(), res.HoldID, confirmRequest(ownerA))
	require.NoError(t, err)

	assert.NotEmpty(t, appointment.ID)
	assert.Equal(t, testDoctor, appointment.DoctorID)
	assert.Equal(t, testPatient, appointment.PatientID)
	assert.Equal(t, "10:00", appointment.StartTime)
	assert.Equal(t, 30, appointment.DurationMin)
	assert.Equal(t, res.HoldID, appointment.HoldID)

	stored := f.store.get(res.HoldID)
	require.NotNil(t, stored)
	assert.Equal(t, model.HoldStatusConfirmed, stored.Status)
	assert.Equal(t, appointment.ID, stored.AppointmentID)
	assert.Equal(t, 1, f.store.appointmentCount())
	assert.Equal(t, []string{events.TypeHoldReserved, events.TypeHoldConfirmed}, f.publisher.types())

	// The appointment now owns the slot.
	f.clock.Advance(10 * time.Minute)
	_, err = f.reserve(t, "10:00", 30, ownerB)
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, model.ConflictSourceAppointment, appErr.Details["source"])
}

func TestConfirm_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(f *fixture, holdID string) (id string, req *model.ConfirmRequest)
		wantCode string
	}{
		{
			name: "unknown hold",
			prepare: func(f *fixture, holdID string) (string, *model.ConfirmRequest) {
				return primitive.NewObjectID().Hex(), confirmRequest(ownerA)
			},
			wantCode: apperrors.CodeNotFound,
		},
		{
			name: "malformed id",
			prepare: func(f *fixture, holdID string) (string, *model.ConfirmRequest) {
				return "not-an-id", confirmRequest(ownerA)
			},
			wantCode: apperrors.CodeInvalidInput,
		},
		{
			name: "other owner",
			prepare: func(f *fixture, holdID string) (string, *model.ConfirmRequest) {
				return holdID, confirmRequest(ownerB)
			},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name: "already confirmed",
			prepare: func(f *fixture, holdID string) (string, *model.ConfirmRequest) {
				_, err := f.svc.Confirm(context.Background(), holdID, confirmRequest(ownerA))
				if err != nil {
					panic(err)
				}
				return holdID, confirmRequest(ownerA)
			},
			wantCode: apperrors.CodeInvalidState,
		},
		{
			name: "expires exactly now",
			prepare: func(f *fixture, holdID string) (string, *model.ConfirmRequest) {
				f.clock.Advance(5 * time.Minute)
				return holdID, confirmRequest(ownerA)
			},
			wantCode: apperrors.CodeExpired,
		},
		{
			name: "missing patient",
			prepare: func(f *fixture, holdID string) (string, *model.ConfirmRequest) {
				req := confirmRequest(ownerA)
				req.Details.PatientID = ""
				return holdID, req
			},
			wantCode: apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := f.mustReserve(t, "10:00", 30, ownerA)
			id, req := tt.prepare(f, res.HoldID)

			_, err := f.svc.Confirm(context.Background(), id, req)
			requireCode(t, err, tt.wantCode)
		})
	}
}

func TestConfirm_ExpiryScenario(t *testing.T) {
	f := newFixture(t)
	res := f.mustReserve(t, "10:00", 30, ownerA)

	f.clock.Advance(6 * time.Minute)
	_, err := f.svc.Confirm(context.Background(), res.HoldID, confirmRequest(ownerA))
	appErr := requireCode(t, err, apperrors.CodeExpired)
	assert.Equal(t, t0.Add(5*time.Minute).Format(time.RFC3339), appErr.Details["expired_at"])

	assert.Nil(t, f.store.get(res.HoldID), "expired hold should be discarded after the failed confirm")
	assert.Zero(t, f.store.appointmentCount())

	f.mustReserve(t, "10:00", 30, ownerB)
}

func TestConfirm_BridgeRejectionKeepsHold(t *testing.T) {
	f := newFixture(t)
	res := f.mustReserve(t, "10:00", 30, ownerA)

	f.store.createAppointErr = apperrors.Validation("Patient is not registered", map[string]any{"patient_id": testPatient})
	_, err := f.svc.Confirm(context.Background(), res.HoldID, confirmRequest(ownerA))
	requireCode(t, err, apperrors.CodeValidation)

	stored := f.store.get(res.HoldID)
	require.NotNil(t, stored)
	assert.Equal(t, model.HoldStatusHeld, stored.Status)
	assert.Zero(t, f.store.appointmentCount())

	f.store.createAppointErr = nil
	_, err = f.svc.Confirm(context.Background(), res.HoldID, confirmRequest(ownerA))
	require.NoError(t, err)
}

func TestConfirm_LosesRaceToSweep(t *testing.T) {
	f := newFixture(t)
	res := f.mustReserve(t, "10:00", 30, ownerA)

	// The lease lapses and the sweeper commits between confirm's read and its transaction.
	f.store.afterFind = func(hold *model.Hold) {
		f.store.afterFind = nil
		f.clock.Advance(6 * time.Minute)
		f.store.mu.Lock()
		delete(f.store.holds, hold.ID)
		f.store.mu.Unlock()
	}

	_, err := f.svc.Confirm(context.Background(), res.HoldID, confirmRequest(ownerA))
	appErr := requireCode(t, err, apperrors.CodeExpired)
	assert.Equal(t, t0.Add(5*time.Minute).Format(time.RFC3339), appErr.Details["expired_at"])
	assert.Zero(t, f.store.appointmentCount(), "appointment insert must roll back")
}

func TestConfirm_LeaseLapsesBeforeCommit(t *testing.T) {
	f := newFixture(t)
	res := f.mustReserve(t, "10:00", 30, ownerA)

	f.store.afterFind = func(*model.Hold) {
		f.store.afterFind = nil
		f.clock.Advance(6 * time.Minute)
	}

	_, err := f.svc.Confirm(context.Background(), res.HoldID, confirmRequest(ownerA))
	requireCode(t, err, apperrors.CodeExpired)

	stored := f.store.get(res.HoldID)
	require.NotNil(t, stored)
	assert.Equal(t, model.HoldStatusHeld, stored.Status)
	assert.Zero(t, f.store.appointmentCount())
}

func TestConfirm_LosesRaceToLiveChange(t *testing.T) {
	tests := []struct {
		name     string
		change   func(hold *model.Hold)
		wantCode string
	}{
		{
			name: "confirmed by a concurrent request",
			change: func(hold *model.Hold) {
				hold.Status = model.HoldStatusConfirmed
			},
			wantCode: apperrors.CodeInvalidState,
		},
		{
			name:     "released by a concurrent request",
			change:   nil,
			wantCode: apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := f.mustReserve(t, "10:00", 30, ownerA)

			f.store.afterFind = func(hold *model.Hold) {
				f.store.afterFind = nil
				f.store.mu.Lock()
				defer f.store.mu.Unlock()
				if tt.change == nil {
					delete(f.store.holds, hold.ID)
					return
				}
				tt.change(f.store.holds[hold.ID])
			}

			_, err := f.svc.Confirm(context.Background(), res.HoldID, confirmRequest(ownerA))
			requireCode(t, err, tt.wantCode)
			assert.Zero(t, f.store.appointmentCount(), "appointment insert must roll back")
		})
	}
}

// ────────────────────────────────────────────────
// Release
// ────────────────────────────────────────────────

func TestRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.mustReserve(t, "10:00", 30, ownerA)

	err := f.svc.Release(ctx, res.HoldID, &model.OwnerRequest{OwnerToken: ownerB})
	requireCode(t, err, apperrors.CodeForbidden)
	assert.NotNil(t, f.store.get(res.HoldID))

	require.NoError(t, f.svc.Release(ctx, res.HoldID, &model.OwnerRequest{OwnerToken: ownerA}))
	assert.Nil(t, f.store.get(res.HoldID))

	require.NoError(t, f.svc.Release(ctx, res.HoldID, &model.OwnerRequest{OwnerToken: ownerA}), "second release is a no-op")
	assert.Equal(t, []string{events.TypeHoldReserved, events.TypeHoldReleased}, f.publisher.types())

	f.mustReserve(t, "10:00", 30, ownerB)
}

func TestRelease_ConfirmedHoldIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.mustReserve(t, "10:00", 30, ownerA)
	_, err := f.svc.Confirm(ctx, res.HoldID, confirmRequest(ownerA))
	require.NoError(t, err)

	require.NoError(t, f.svc.Release(ctx, res.HoldID, &model.OwnerRequest{OwnerToken: ownerA}))

	stored := f.store.get(res.HoldID)
	require.NotNil(t, stored)
	assert.Equal(t, model.HoldStatusConfirmed, stored.Status)
}

func TestRelease_MissingToken(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Release(context.Background(), primitive.NewObjectID().Hex(), &model.OwnerRequest{})
	requireCode(t, err, apperrors.CodeValidation)
}

// ────────────────────────────────────────────────
// Extend
// ────────────────────────────────────────────────

func TestExtend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.mustReserve(t, "10:00", 30, ownerA)

	f.clock.Advance(4 * time.Minute)
	extended, err := f.svc.Extend(ctx, res.HoldID, &model.ExtendRequest{OwnerToken: ownerA, ExtraMinutes: 10})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(14*time.Minute), extended.ExpiresAt)
	assert.Equal(t, int64(600), extended.ExpiresIn)

	extended, err = f.svc.Extend(ctx, res.HoldID, &model.ExtendRequest{OwnerToken: ownerA, ExtraMinutes: 1})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(14*time.Minute), extended.ExpiresAt, "deadline never moves backwards")

	f.clock.Advance(6 * time.Minute)
	extended, err = f.svc.Extend(ctx, res.HoldID, &model.ExtendRequest{OwnerToken: ownerA})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(15*time.Minute), extended.ExpiresAt, "default extension is one lease")

	// Past the original five minutes the hold still blocks the slot.
	_, err = f.reserve(t, "10:00", 30, ownerB)
	requireCode(t, err, apperrors.CodeConflict)
}

func TestExtend_LosesRaceToConfirm(t *testing.T) {
	f := newFixture(t)
	res := f.mustReserve(t, "10:00", 30, ownerA)

	// Extend reads inside its transaction, so the store lock is already held here.
	f.store.afterFind = func(hold *model.Hold) {
		f.store.afterFind = nil
		f.store.holds[hold.ID].Status = model.HoldStatusConfirmed
	}

	_, err := f.svc.Extend(context.Background(), res.HoldID, &model.ExtendRequest{OwnerToken: ownerA, ExtraMinutes: 5})
	appErr := requireCode(t, err, apperrors.CodeInvalidState)
	assert.Equal(t, model.HoldStatusConfirmed, appErr.Details["status"])
}

func TestExtend_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		advance  time.Duration
		req      *model.ExtendRequest
		wantCode string
	}{
		{"other owner", 0, &model.ExtendRequest{OwnerToken: ownerB, ExtraMinutes: 5}, apperrors.CodeForbidden},
		{"above limit", 0, &model.ExtendRequest{OwnerToken: ownerA, ExtraMinutes: 31}, apperrors.CodeValidation},
		{"negative", 0, &model.ExtendRequest{OwnerToken: ownerA, ExtraMinutes: -1}, apperrors.CodeValidation},
		{"lapsed", 5 * time.Minute, &model.ExtendRequest{OwnerToken: ownerA, ExtraMinutes: 5}, apperrors.CodeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res := f.mustReserve(t, "10:00", 30, ownerA)
			f.clock.Advance(tt.advance)

			_, err := f.svc.Extend(context.Background(), res.HoldID, tt.req)
			requireCode(t, err, tt.wantCode)
		})
	}
}

// ────────────────────────────────────────────────
// ListActive, GetByID, Sweep
// ────────────────────────────────────────────────

func TestListActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.ListActive(ctx, testDoctor, testDate)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	lapsing := f.mustReserve(t, "08:00", 30, ownerA)
	f.clock.Advance(3 * time.Minute)
	late := f.mustReserve(t, "14:00", 30, ownerA)
	early := f.mustReserve(t, "09:00", 15, ownerB)
	f.clock.Advance(2 * time.Minute)

	active, err := f.svc.ListActive(ctx, testDoctor, testDate)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, early.HoldID, active[0].HoldID)
	assert.Equal(t, "09:15", active[0].EndTime)
	assert.Equal(t, late.HoldID, active[1].HoldID)
	for _, h := range active {
		assert.NotEqual(t, lapsing.HoldID, h.HoldID)
	}

	_, err = f.svc.ListActive(ctx, "nope", testDate)
	requireCode(t, err, apperrors.CodeValidation)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	res := f.mustReserve(t, "10:00", 30, ownerA)

	hold, err := f.svc.GetByID(context.Background(), res.HoldID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldStatusHeld, hold.Status)

	_, err = f.svc.GetByID(context.Background(), "bad")
	requireCode(t, err, apperrors.CodeInvalidInput)

	_, err = f.svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustReserve(t, "08:00", 30, ownerA)
	b := f.mustReserve(t, "09:00", 30, ownerA)
	confirmed := f.mustReserve(t, "10:00", 30, ownerA)
	_, err := f.svc.Confirm(ctx, confirmed.HoldID, confirmRequest(ownerA))
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	live := f.mustReserve(t, "11:00", 30, ownerB)
	f.clock.Advance(2 * time.Minute)

	removed, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Nil(t, f.store.get(a.HoldID))
	assert.Nil(t, f.store.get(b.HoldID))
	assert.NotNil(t, f.store.get(live.HoldID))
	assert.NotNil(t, f.store.get(confirmed.HoldID), "confirmed holds are never swept")

	removed, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	types := f.publisher.types()
	assert.Equal(t, events.TypeHoldsSwept, types[len(types)-1])
	swept := 0
	for _, ty := range types {
		if ty == events.TypeHoldsSwept {
			swept++
		}
	}
	assert.Equal(t, 1, swept, "empty sweeps publish nothing")
}

func TestSweep_ConcurrentRuns(t *testing.T) {
	f := newFixture(t)
	for i, start := range []string{"08:00", "09:00", "10:00", "11:00"} {
		f.mustReserve(t, start, 30, fmt.Sprintf("session-owner-%02d", i))
	}
	f.clock.Advance(5 * time.Minute)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int64
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := f.svc.Sweep(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(4), total)
}
