package models

import "time"

// SlotType classifies a period of the school day.
type SlotType string

const (
	SlotTypeTeaching SlotType = "TEACHING"
	SlotTypeBreak    SlotType = "BREAK"
	SlotTypeLunch    SlotType = "LUNCH"
	SlotTypeAssembly SlotType = "ASSEMBLY"
)

// Valid reports whether the slot type is known.
func (t SlotType) Valid() bool {
	switch t {
	case SlotTypeTeaching, SlotTypeBreak, SlotTypeLunch, SlotTypeAssembly:
		return true
	}
	return false
}

// TimeSlot is a school-level period definition. Only TEACHING slots take part in routines.
type TimeSlot struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	SlotName     string    `db:"slot_name" json:"slot_name"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	SlotType     SlotType  `db:"slot_type" json:"slot_type"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TimeSlotFilter narrows slot listings.
type TimeSlotFilter struct {
	SlotType        SlotType
	IncludeInactive bool
}
