package model

import (
	"time"
)

const (
	HoldStatusHeld      = "HELD"
	HoldStatusConfirmed = "CONFIRMED"
)

// Hold is a short-lived exclusive claim on a doctor's time-slot. Released and
// expired holds are deleted rather than flagged.
type Hold struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty"`
	DoctorID      string     `json:"doctor_id" bson:"doctor_id"`
	Date          string     `json:"date" bson:"date"`
	StartTime     string     `json:"start_time" bson:"start_time"`
	EndTime       string     `json:"end_time" bson:"end_time"`
	StartMin      int        `json:"-" bson:"start_min"`
	EndMin        int        `json:"-" bson:"end_min"`
	DurationMin   int        `json:"duration_min" bson:"duration_min"`
	Status        string     `json:"status" bson:"status"`
	OwnerToken    string     `json:"-" bson:"owner_token"`
	ExpiresAt     time.Time  `json:"expires_at" bson:"expires_at"`
	AppointmentID string     `json:"appointment_id,omitempty" bson:"appointment_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
}

// IsActive reports whether the hold still blocks its slot at now.
// A hold whose deadline equals now has already lapsed.
func (h *Hold) IsActive(now time.Time) bool {
	return h.Status == HoldStatusHeld && now.Before(h.ExpiresAt)
}

// ReserveRequest is the input of a reserve call.
type ReserveRequest struct {
	DoctorID    string `json:"doctor_id" validate:"required,mongodb"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,hh_mm"`
	DurationMin int    `json:"duration_min" validate:"omitempty"`
	OwnerToken  string `json:"owner_token" validate:"required,min=8,max=256"`
}

// ReserveResult is returned to the client that now owns the hold.
type ReserveResult struct {
	HoldID    string    `json:"hold_id"`
	DoctorID  string    `json:"doctor_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

type ConfirmRequest struct {
	OwnerToken string             `json:"owner_token" validate:"required"`
	Details    AppointmentDetails `json:"details"`
}

// AppointmentDetails carries the booking data the client collected while holding the slot.
type AppointmentDetails struct {
	PatientID string            `json:"patient_id" validate:"required,mongodb"`
	Reason    string            `json:"reason,omitempty" validate:"omitempty,max=500"`
	Metadata  map[string]string `json:"metadata,omitempty" validate:"omitempty,max=20"`
}

type OwnerRequest struct {
	OwnerToken string `json:"owner_token" validate:"required"`
}

type ExtendRequest struct {
	OwnerToken   string `json:"owner_token" validate:"required"`
	ExtraMinutes int    `json:"extra_minutes" validate:"omitempty"`
}

type ExtendResult struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

// ActiveHold is the public projection of a live hold. It never carries the owner token.
type ActiveHold struct {
	HoldID    string    `json:"hold_id" bson:"_id"`
	StartTime string    `json:"start_time" bson:"start_time"`
	EndTime   string    `json:"end_time" bson:"end_time"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}
