// Package conflict decides whether a candidate slot collides with anything
// already on a doctor's schedule for that day.
package conflict

import (
	"context"
	"fmt"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/timeslot"
	"time"
)

type BlockSource interface {
	ListCovering(ctx context.Context, doctorID, date string) ([]*model.AvailabilityBlock, error)
}

type AppointmentSource interface {
	ListBlockingByDoctorAndDate(ctx context.Context, doctorID, date string) ([]*model.Appointment, error)
}

type HoldSource interface {
	FindActiveByDoctorAndDate(ctx context.Context, doctorID, date string, now time.Time) ([]*model.Hold, error)
}

type Resolver struct {
	blocks       BlockSource
	appointments AppointmentSource
	holds        HoldSource
}

func NewResolver(blocks BlockSource, appointments AppointmentSource, holds HoldSource) *Resolver {
	return &Resolver{
		blocks:       blocks,
		appointments: appointments,
		holds:        holds,
	}
}

// FindConflict returns the first schedule entry overlapping slot, or nil.
// Sources are read with ctx, so a transactional ctx keeps the check and the
// caller's subsequent write in the same snapshot. Blocks are checked first,
// then appointments, then other live holds.
func (r *Resolver) FindConflict(ctx context.Context, doctorID, date string, slot timeslot.Interval, excludeHoldID string, now time.Time) (*model.Conflict, error) {
	blocks, err := r.blocks.ListCovering(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if !b.Active || !b.Covers(date) {
			continue
		}
		span := blockSpan(b)
		if span.Overlaps(slot) {
			return &model.Conflict{
				Source:      model.ConflictSourceBlock,
				Reason:      blockReason(b),
				StartTime:   span.StartClock(),
				EndTime:     span.EndClock(),
				ReferenceID: b.ID,
			}, nil
		}
	}

	appointments, err := r.appointments.ListBlockingByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	for _, a := range appointments {
		if !a.Blocking() {
			continue
		}
		start, err := timeslot.ParseClock(a.StartTime)
		if err != nil {
			return nil, fmt.Errorf("appointment %s has invalid start time %q: %w", a.ID, a.StartTime, err)
		}
		span := timeslot.Interval{Start: start, End: min(start+a.Duration(), timeslot.MinutesPerDay)}
		if span.Overlaps(slot) {
			return &model.Conflict{
				Source:      model.ConflictSourceAppointment,
				Reason:      fmt.Sprintf("Overlaps an existing appointment (%s)", span),
				StartTime:   span.StartClock(),
				EndTime:     span.EndClock(),
				ReferenceID: a.ID,
			}, nil
		}
	}

	holds, err := r.holds.FindActiveByDoctorAndDate(ctx, doctorID, date, now)
	if err != nil {
		return nil, err
	}
	for _, h := range holds {
		if h.ID == excludeHoldID || !h.IsActive(now) {
			continue
		}
		span := timeslot.Interval{Start: h.StartMin, End: h.EndMin}
		if span.Overlaps(slot) {
			return &model.Conflict{
				Source:      model.ConflictSourceHold,
				Reason:      fmt.Sprintf("Slot %s is temporarily held by another client", span),
				StartTime:   span.StartClock(),
				EndTime:     span.EndClock(),
				ReferenceID: h.ID,
			}, nil
		}
	}

	return nil, nil
}

// blockSpan treats a missing or unreadable time range as a whole-day block.
func blockSpan(b *model.AvailabilityBlock) timeslot.Interval {
	if b.WholeDay() {
		return timeslot.WholeDay()
	}
	span, err := timeslot.Between(b.StartTime, b.EndTime)
	if err != nil {
		return timeslot.WholeDay()
	}
	return span
}

func blockReason(b *model.AvailabilityBlock) string {
	if b.Reason == "" {
		return "Doctor is unavailable"
	}
	return "Doctor is unavailable: " + b.Reason
}
