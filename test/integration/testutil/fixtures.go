//go:build integration

package testutil

import (
	"slotkeeper/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeedDoctor inserts an active doctor and returns its id.
func (m *MongoHelper) SeedDoctor(t *testing.T, name string) string {
	t.Helper()
	return m.Insert(t, DoctorsCollection, model.Doctor{Name: name, Active: true})
}

func (m *MongoHelper) SeedBlock(t *testing.T, block model.AvailabilityBlock) string {
	t.Helper()
	block.Active = true
	if block.Kind == "" {
		block.Kind = model.BlockKindBlock
	}
	return m.Insert(t, BlocksCollection, block)
}

func (m *MongoHelper) SeedAppointment(t *testing.T, doctorID, date, start string, durationMin int) string {
	t.Helper()
	return m.Insert(t, AppointmentsCollection, model.Appointment{
		DoctorID:    doctorID,
		PatientID:   primitive.NewObjectID().Hex(),
		Date:        date,
		StartTime:   start,
		DurationMin: durationMin,
		Status:      model.AppointmentScheduled,
		CreatedAt:   time.Now().UTC(),
	})
}

type ReserveBuilder struct {
	req model.ReserveRequest
}

func NewReserve(doctorID string) *ReserveBuilder {
	return &ReserveBuilder{
		req: model.ReserveRequest{
			DoctorID:    doctorID,
			Date:        FutureDate(),
			StartTime:   "10:00",
			DurationMin: 30,
			OwnerToken:  "session-" + primitive.NewObjectID().Hex(),
		},
	}
}

func (b *ReserveBuilder) At(start string) *ReserveBuilder {
	b.req.StartTime = start
	return b
}

func (b *ReserveBuilder) On(date string) *ReserveBuilder {
	b.req.Date = date
	return b
}

func (b *ReserveBuilder) For(minutes int) *ReserveBuilder {
	b.req.DurationMin = minutes
	return b
}

func (b *ReserveBuilder) Owner(token string) *ReserveBuilder {
	b.req.OwnerToken = token
	return b
}

func (b *ReserveBuilder) Build() model.ReserveRequest {
	return b.req
}

// FutureDate is a week ahead so date checks against today never interfere.
func FutureDate() string {
	return time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
}
