package model

const (
	BlockKindBlock         = "BLOCK"
	BlockKindVacation      = "VACATION"
	BlockKindConference    = "CONFERENCE"
	BlockKindPersonal      = "PERSONAL"
	BlockKindEmergencyOnly = "EMERGENCY_ONLY"
)

// AvailabilityBlock marks a doctor unavailable over an inclusive date range.
// Without StartTime/EndTime every minute of each covered day is blocked.
type AvailabilityBlock struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty"`
	DoctorID  string `json:"doctor_id" bson:"doctor_id"`
	StartDate string `json:"start_date" bson:"start_date"`
	EndDate   string `json:"end_date" bson:"end_date"`
	StartTime string `json:"start_time,omitempty" bson:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Kind      string `json:"kind" bson:"kind"`
	Reason    string `json:"reason,omitempty" bson:"reason,omitempty"`
	Active    bool   `json:"active" bson:"active"`
}

func (b *AvailabilityBlock) WholeDay() bool {
	return b.StartTime == "" || b.EndTime == ""
}

// Covers compares dates lexically, which is safe for the YYYY-MM-DD layout.
func (b *AvailabilityBlock) Covers(date string) bool {
	return b.StartDate <= date && date <= b.EndDate
}

type Doctor struct {
	ID     string `json:"id,omitempty" bson:"_id,omitempty"`
	Name   string `json:"name" bson:"name"`
	Active bool   `json:"active" bson:"active"`
}
