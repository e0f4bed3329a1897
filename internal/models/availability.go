package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimeSlot is a single open window within an availability record, expressed
// as zero-padded "HH:MM" wall-clock times with Start < End.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability holds a teacher's declared open windows for one calendar day.
// There is at most one record per (teacher, date); slots are kept sorted
// ascending by start and mutually non-overlapping, enforced at write time.
type Availability struct {
	ID        string         `db:"id" json:"id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	Date      time.Time      `db:"slot_date" json:"date"`
	Slots     types.JSONText `db:"slots" json:"slots"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// DecodeSlots unmarshals the stored slot list.
func (a *Availability) DecodeSlots() ([]TimeSlot, error) {
	if len(a.Slots) == 0 {
		return nil, nil
	}
	var slots []TimeSlot
	if err := json.Unmarshal(a.Slots, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// EncodeSlots marshals the slot list back onto the record.
func (a *Availability) EncodeSlots(slots []TimeSlot) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	a.Slots = types.JSONText(payload)
	return nil
}
