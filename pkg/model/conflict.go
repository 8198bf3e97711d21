package model

const (
	ConflictSourceBlock       = "availability_block"
	ConflictSourceAppointment = "appointment"
	ConflictSourceHold        = "hold"
)

// Conflict describes the first schedule entry found overlapping a requested slot.
type Conflict struct {
	Source      string `json:"source"`
	Reason      string `json:"reason"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	ReferenceID string `json:"reference_id,omitempty"`
}

func (c *Conflict) Details() map[string]any {
	return map[string]any{
		"source":       c.Source,
		"reason":       c.Reason,
		"start_time":   c.StartTime,
		"end_time":     c.EndTime,
		"reference_id": c.ReferenceID,
	}
}
