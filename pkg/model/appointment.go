package model

import "time"

const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"

	DefaultAppointmentDurationMin = 30
)

type Appointment struct {
	ID          string            `json:"id,omitempty" bson:"_id,omitempty"`
	DoctorID    string            `json:"doctor_id" bson:"doctor_id" validate:"required,mongodb"`
	PatientID   string            `json:"patient_id" bson:"patient_id" validate:"required,mongodb"`
	Date        string            `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string            `json:"start_time" bson:"start_time" validate:"required,hh_mm"`
	DurationMin int               `json:"duration_min" bson:"duration_min" validate:"omitempty,min=5,max=480"`
	Status      string            `json:"status" bson:"status" validate:"required,oneof=scheduled confirmed completed cancelled no_show"`
	Reason      string            `json:"reason,omitempty" bson:"reason,omitempty" validate:"omitempty,max=500"`
	Metadata    map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty" validate:"omitempty,max=20"`
	HoldID      string            `json:"hold_id,omitempty" bson:"hold_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
}

// Blocking reports whether the appointment still occupies its slot.
func (a *Appointment) Blocking() bool {
	return a.Status != AppointmentCancelled && a.Status != AppointmentNoShow
}

// Duration falls back to the default length for legacy rows stored without one.
func (a *Appointment) Duration() int {
	if a.DurationMin <= 0 {
		return DefaultAppointmentDurationMin
	}
	return a.DurationMin
}
