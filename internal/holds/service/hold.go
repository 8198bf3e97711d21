package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	holdserrors "slotkeeper/internal/holds/errors"
	"slotkeeper/internal/holds/events"
	"slotkeeper/internal/holds/repository"
	"slotkeeper/internal/holds/validator"
	"slotkeeper/pkg/config"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/sanitizer"
	"slotkeeper/pkg/timeslot"
	"time"
)

type HoldService interface {
	Reserve(ctx context.Context, req *model.ReserveRequest) (*model.ReserveResult, error)
	Confirm(ctx context.Context, holdID string, req *model.ConfirmRequest) (*model.Appointment, error)
	Release(ctx context.Context, holdID string, req *model.OwnerRequest) error
	Extend(ctx context.Context, holdID string, req *model.ExtendRequest) (*model.ExtendResult, error)
	ListActive(ctx context.Context, doctorID, date string) ([]model.ActiveHold, error)
	GetByID(ctx context.Context, holdID string) (*model.Hold, error)
	Sweep(ctx context.Context) (int64, error)
}

type DoctorDirectory interface {
	Exists(ctx context.Context, doctorID string) (bool, error)
}

// AppointmentCreator persists the permanent appointment. Called with the
// transactional context so the insert commits or aborts with the hold update.
type AppointmentCreator interface {
	Create(ctx context.Context, appointment *model.Appointment) error
}

type ConflictResolver interface {
	FindConflict(ctx context.Context, doctorID, date string, slot timeslot.Interval, excludeHoldID string, now time.Time) (*model.Conflict, error)
}

type holdService struct {
	holds        repository.HoldRepository
	guards       repository.GuardRepository
	doctors      DoctorDirectory
	appointments AppointmentCreator
	resolver     ConflictResolver
	validator    *validator.HoldValidator
	publisher    events.Publisher
	cfg          *config.Config
	now          func() time.Time
}

func NewHoldService(
	holds repository.HoldRepository,
	guards repository.GuardRepository,
	doctors DoctorDirectory,
	appointments AppointmentCreator,
	resolver ConflictResolver,
	validator *validator.HoldValidator,
	publisher events.Publisher,
	cfg *config.Config,
) HoldService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &holdService{
		holds:        holds,
		guards:       guards,
		doctors:      doctors,
		appointments: appointments,
		resolver:     resolver,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
		now:          currentTime,
	}
}

// Mongo stores milliseconds, so comparisons against stored deadlines use the same precision.
func currentTime() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *holdService) Reserve(ctx context.Context, req *model.ReserveRequest) (*model.ReserveResult, error) {
	sanitizer.NormalizeReserve(req)
	if req.DurationMin == 0 {
		req.DurationMin = s.cfg.HoldDefaultDurationMin
	}
	if err := s.validator.ValidateReserve(req); err != nil {
		s.cfg.Log.Warn("Hold reserve validation failed",
			"doctor_id", req.DoctorID,
			"date", req.Date,
			"start_time", req.StartTime,
			"error", err,
		)
		return nil, validationError("Invalid hold request", err)
	}

	slot, err := timeslot.FromClock(req.StartTime, req.DurationMin)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	exists, err := s.doctors.Exists(ctx, req.DoctorID)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve doctor", "doctor_id", req.DoctorID, "error", err)
		return nil, apperrors.Internal("Failed to resolve doctor", err)
	}
	if !exists {
		return nil, apperrors.NotFoundWithID("Doctor", req.DoctorID)
	}

	var hold *model.Hold
	err = s.holds.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		now := s.now()

		if err := s.guards.Touch(txCtx, req.DoctorID, req.Date); err != nil {
			return err
		}
		if _, err := s.holds.DeleteExpiredForDoctorDate(txCtx, req.DoctorID, req.Date, now); err != nil {
			return err
		}

		conflict, err := s.resolver.FindConflict(txCtx, req.DoctorID, req.Date, slot, "", now)
		if err != nil {
			return fmt.Errorf("failed to check slot availability: %w", err)
		}
		if conflict != nil {
			return apperrors.Conflict(conflict.Reason).WithDetails(conflict.Details())
		}

		hold = &model.Hold{
			DoctorID:    req.DoctorID,
			Date:        req.Date,
			StartTime:   slot.StartClock(),
			EndTime:     slot.EndClock(),
			StartMin:    slot.Start,
			EndMin:      slot.End,
			DurationMin: slot.Duration(),
			Status:      model.HoldStatusHeld,
			OwnerToken:  req.OwnerToken,
			ExpiresAt:   now.Add(s.cfg.HoldLeaseDuration),
			CreatedAt:   now,
		}
		if err := s.holds.Create(txCtx, hold); err != nil {
			if errors.Is(err, holdserrors.ErrDuplicateSlot) {
				return apperrors.Conflict("Slot is already held").WithDetails(map[string]any{
					"source":     model.ConflictSourceHold,
					"start_time": hold.StartTime,
					"end_time":   hold.EndTime,
				})
			}
			return err
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			s.cfg.Log.Info("Hold reserve rejected",
				"doctor_id", req.DoctorID,
				"date", req.Date,
				"start_time", req.StartTime,
				"error", err,
			)
			return nil, err
		}
		s.cfg.Log.Error("Failed to reserve hold", "doctor_id", req.DoctorID, "date", req.Date, "error", err)
		return nil, apperrors.Internal("Failed to reserve hold", err)
	}

	s.cfg.Log.Info("Hold reserved",
		"hold_id", hold.ID,
		"doctor_id", hold.DoctorID,
		"date", hold.Date,
		"start_time", hold.StartTime,
		"expires_at", hold.ExpiresAt,
	)
	s.publish(ctx, events.TypeHoldReserved, hold)

	return &model.ReserveResult{
		HoldID:    hold.ID,
		DoctorID:  hold.DoctorID,
		Date:      hold.Date,
		StartTime: hold.StartTime,
		EndTime:   hold.EndTime,
		ExpiresAt: hold.ExpiresAt,
		ExpiresIn: int64(hold.ExpiresAt.Sub(hold.CreatedAt) / time.Second),
	}, nil
}

// Confirm turns a live hold into a permanent appointment. The appointment
// insert and the hold update share one transaction: if either fails the hold
// is left exactly as it was.
func (s *holdService) Confirm(ctx context.Context, holdID string, req *model.ConfirmRequest) (*model.Appointment, error) {
	sanitizer.NormalizeDetails(&req.Details)
	if err := s.validator.ValidateConfirm(req); err != nil {
		s.cfg.Log.Warn("Hold confirm validation failed", "hold_id", holdID, "error", err)
		return nil, validationError("Invalid confirm request", err)
	}

	hold, err := s.findHold(ctx, holdID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := checkLiveOwnership(hold, req.OwnerToken, now); err != nil {
		s.rejected(ctx, "confirm", hold, now, err)
		return nil, err
	}

	appointment := &model.Appointment{
		DoctorID:    hold.DoctorID,
		PatientID:   req.Details.PatientID,
		Date:        hold.Date,
		StartTime:   hold.StartTime,
		DurationMin: hold.DurationMin,
		Status:      model.AppointmentScheduled,
		Reason:      req.Details.Reason,
		Metadata:    req.Details.Metadata,
		HoldID:      hold.ID,
		CreatedAt:   now,
	}

	var confirmedAt time.Time
	err = s.holds.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		appointment.ID = ""
		// The driver may re-run this callback, so the expiry check reads the clock here.
		txNow := s.now()

		if err := s.validator.ValidateAppointment(appointment); err != nil {
			return validationError("Appointment details rejected", err)
		}
		if err := s.appointments.Create(txCtx, appointment); err != nil {
			if apperrors.IsAppError(err) {
				return err
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		if err := s.holds.MarkConfirmed(txCtx, hold.ID, appointment.ID, txNow); err != nil {
			if errors.Is(err, holdserrors.ErrNotHeld) {
				return s.lostRace(txCtx, hold, txNow)
			}
			return err
		}
		confirmedAt = txNow
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			s.cfg.Log.Warn("Hold confirm rejected", "hold_id", hold.ID, "error", err)
			return nil, err
		}
		s.cfg.Log.Error("Failed to confirm hold", "hold_id", hold.ID, "error", err)
		return nil, apperrors.Internal("Failed to confirm hold", err)
	}

	hold.Status = model.HoldStatusConfirmed
	hold.AppointmentID = appointment.ID
	hold.ConfirmedAt = &confirmedAt

	s.cfg.Log.Info("Hold confirmed",
		"hold_id", hold.ID,
		"appointment_id", appointment.ID,
		"doctor_id", hold.DoctorID,
		"date", hold.Date,
		"start_time", hold.StartTime,
	)
	s.publish(ctx, events.TypeHoldConfirmed, hold)

	return appointment, nil
}

// Release is idempotent: a hold that is already gone counts as released, and
// a confirmed hold is left alone.
func (s *holdService) Release(ctx context.Context, holdID string, req *model.OwnerRequest) error {
	if err := s.validator.ValidateOwner(req); err != nil {
		return validationError("Invalid release request", err)
	}

	hold, err := s.findHold(ctx, holdID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			s.cfg.Log.Info("Hold already released", "hold_id", holdID)
			return nil
		}
		return err
	}

	if !ownedBy(hold, req.OwnerToken) {
		s.cfg.Log.Warn("Hold release by non-owner", "hold_id", hold.ID)
		return apperrors.Forbidden("Hold belongs to another client")
	}
	if hold.Status != model.HoldStatusHeld {
		s.cfg.Log.Info("Hold release ignored", "hold_id", hold.ID, "status", hold.Status)
		return nil
	}

	var deleted bool
	err = s.holds.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = s.holds.DeleteHeld(txCtx, hold.ID)
		return err
	})
	if err != nil {
		s.cfg.Log.Error("Failed to release hold", "hold_id", hold.ID, "error", err)
		return apperrors.Internal("Failed to release hold", err)
	}

	if deleted {
		s.cfg.Log.Info("Hold released", "hold_id", hold.ID, "doctor_id", hold.DoctorID, "date", hold.Date)
		s.publish(ctx, events.TypeHoldReleased, hold)
	}
	return nil
}

// Extend pushes the deadline to now+extra, never earlier than the current one.
func (s *holdService) Extend(ctx context.Context, holdID string, req *model.ExtendRequest) (*model.ExtendResult, error) {
	if req.ExtraMinutes == 0 {
		req.ExtraMinutes = int(s.cfg.HoldLeaseDuration / time.Minute)
	}
	if err := s.validator.ValidateExtend(req); err != nil {
		s.cfg.Log.Warn("Hold extend validation failed", "hold_id", holdID, "error", err)
		return nil, validationError("Invalid extend request", err)
	}
	if holdID == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}

	var (
		now  time.Time
		hold *model.Hold
	)
	err := s.holds.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		now = s.now()
		var err error
		hold, err = s.findHold(txCtx, holdID)
		if err != nil {
			return err
		}
		if err := checkLiveOwnership(hold, req.OwnerToken, now); err != nil {
			return err
		}

		expiresAt := now.Add(time.Duration(req.ExtraMinutes) * time.Minute)
		if hold.ExpiresAt.After(expiresAt) {
			expiresAt = hold.ExpiresAt
		}
		if err := s.holds.UpdateExpiry(txCtx, hold.ID, expiresAt, now); err != nil {
			if errors.Is(err, holdserrors.ErrNotHeld) {
				return s.lostRace(txCtx, hold, now)
			}
			return err
		}
		hold.ExpiresAt = expiresAt
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) && !apperrors.HasCode(err, apperrors.CodeInternal) {
			s.rejected(ctx, "extend", hold, now, err)
			return nil, err
		}
		s.cfg.Log.Error("Failed to extend hold", "hold_id", holdID, "error", err)
		return nil, apperrors.Internal("Failed to extend hold", err)
	}

	s.cfg.Log.Info("Hold extended", "hold_id", hold.ID, "expires_at", hold.ExpiresAt)
	s.publish(ctx, events.TypeHoldExtended, hold)

	return &model.ExtendResult{
		HoldID:    hold.ID,
		ExpiresAt: hold.ExpiresAt,
		ExpiresIn: int64(hold.ExpiresAt.Sub(now) / time.Second),
	}, nil
}

func (s *holdService) ListActive(ctx context.Context, doctorID, date string) ([]model.ActiveHold, error) {
	doctorID, date = sanitizer.NormalizeListQuery(doctorID, date)
	if err := s.validator.ValidateListQuery(doctorID, date); err != nil {
		return nil, validationError("Invalid active holds query", err)
	}

	holds, err := s.holds.ListActive(ctx, doctorID, date, s.now())
	if err != nil {
		s.cfg.Log.Error("Failed to list active holds", "doctor_id", doctorID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to list active holds", err)
	}
	return holds, nil
}

func (s *holdService) GetByID(ctx context.Context, holdID string) (*model.Hold, error) {
	return s.findHold(ctx, holdID)
}

// Sweep deletes every lapsed HELD row. Concurrent sweeps are harmless: the
// loser simply deletes nothing.
func (s *holdService) Sweep(ctx context.Context) (int64, error) {
	now := s.now()

	var removed int64
	err := s.holds.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		var err error
		removed, err = s.holds.DeleteExpired(txCtx, now)
		return err
	})
	if err != nil {
		s.cfg.Log.Error("Failed to sweep expired holds", "error", err)
		return 0, apperrors.Internal("Failed to sweep expired holds", err)
	}

	if removed > 0 {
		s.cfg.Log.Info("Expired holds swept", "count", removed)
		s.publisher.Publish(ctx, events.Event{
			Type:       events.TypeHoldsSwept,
			Count:      removed,
			OccurredAt: now,
		})
	} else {
		s.cfg.Log.Debug("No expired holds to sweep")
	}
	return removed, nil
}

func (s *holdService) findHold(ctx context.Context, holdID string) (*model.Hold, error) {
	if holdID == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}

	hold, err := s.holds.FindByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, holdserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Hold", holdID)
		}
		if errors.Is(err, holdserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid hold ID format")
		}
		s.cfg.Log.Error("Failed to retrieve hold", "hold_id", holdID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve hold", err)
	}
	return hold, nil
}

// lostRace explains a conditional update that matched nothing by re-reading
// the row inside the same transaction. read is the row as the caller last saw it.
func (s *holdService) lostRace(ctx context.Context, read *model.Hold, now time.Time) error {
	current, err := s.holds.FindByID(ctx, read.ID)
	switch {
	case errors.Is(err, holdserrors.ErrNotFound):
		// The sweeper only deletes lapsed rows. A live row that vanished was released.
		if !read.ExpiresAt.After(now) {
			return apperrors.Expired("Hold", read.ID, read.ExpiresAt)
		}
		return apperrors.NotFoundWithID("Hold", read.ID)
	case err != nil:
		return fmt.Errorf("failed to re-read hold: %w", err)
	case current.Status != model.HoldStatusHeld:
		return apperrors.InvalidState("Hold", current.Status)
	case !current.ExpiresAt.After(now):
		return apperrors.Expired("Hold", current.ID, current.ExpiresAt)
	}
	return fmt.Errorf("hold %s changed during update: %w", read.ID, holdserrors.ErrNotHeld)
}

// rejected logs a refused state change and drops the row when the refusal was
// an expiry, so the slot frees up before the next sweep.
func (s *holdService) rejected(ctx context.Context, operation string, hold *model.Hold, now time.Time, err error) {
	s.cfg.Log.Warn("Hold "+operation+" rejected", "error", err)
	if hold == nil || !apperrors.HasCode(err, apperrors.CodeExpired) {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()
	txErr := s.holds.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		_, err := s.holds.DeleteExpiredByID(txCtx, hold.ID, now)
		return err
	})
	if txErr != nil {
		s.cfg.Log.Warn("Failed to discard expired hold", "hold_id", hold.ID, "error", txErr)
	}
}

func (s *holdService) publish(ctx context.Context, eventType string, hold *model.Hold) {
	event := events.Event{
		Type:          eventType,
		HoldID:        hold.ID,
		DoctorID:      hold.DoctorID,
		Date:          hold.Date,
		StartTime:     hold.StartTime,
		EndTime:       hold.EndTime,
		AppointmentID: hold.AppointmentID,
		OccurredAt:    s.now(),
	}
	if hold.Status == model.HoldStatusHeld && eventType != events.TypeHoldReleased {
		expiresAt := hold.ExpiresAt
		event.ExpiresAt = &expiresAt
	}
	s.publisher.Publish(ctx, event)
}

func ownedBy(hold *model.Hold, ownerToken string) bool {
	return subtle.ConstantTimeCompare([]byte(hold.OwnerToken), []byte(ownerToken)) == 1
}

// checkLiveOwnership applies the checks shared by confirm and extend, in order:
// ownership, state, then expiry.
func checkLiveOwnership(hold *model.Hold, ownerToken string, now time.Time) error {
	if !ownedBy(hold, ownerToken) {
		return apperrors.Forbidden("Hold belongs to another client")
	}
	if hold.Status != model.HoldStatusHeld {
		return apperrors.InvalidState("Hold", hold.Status)
	}
	if !now.Before(hold.ExpiresAt) {
		return apperrors.Expired("Hold", hold.ID, hold.ExpiresAt)
	}
	return nil
}

func validationError(message string, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.Validation(message, fieldErrs.Fields())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
