package models

import (
	"strings"
	"time"
)

// DayOfWeek names a school day of the weekly routine.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

var schoolDays = map[time.Weekday]DayOfWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

// DayOfWeekForDate maps a calendar date to its routine day. Sunday has no routine.
func DayOfWeekForDate(date time.Time) (DayOfWeek, bool) {
	day, ok := schoolDays[date.Weekday()]
	return day, ok
}

// ParseDayOfWeek normalises user input such as "monday".
func ParseDayOfWeek(raw string) (DayOfWeek, bool) {
	day := DayOfWeek(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range schoolDays {
		if known == day {
			return day, true
		}
	}
	return "", false
}

// RoutineEntry is the recurring weekly assignment of a class-section slot.
type RoutineEntry struct {
	ID             string    `db:"id" json:"id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SectionID      string    `db:"section_id" json:"section_id"`
	DayOfWeek      DayOfWeek `db:"day_of_week" json:"day_of_week"`
	TimeSlotID     string    `db:"time_slot_id" json:"time_slot_id"`
	SubjectID      *string   `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID      *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Remarks        *string   `db:"remarks" json:"remarks,omitempty"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// RoutineFilter selects routine rows for a class-section.
type RoutineFilter struct {
	SchoolID       string
	AcademicYearID string
	ClassID        string
	SectionID      string
	DayOfWeek      DayOfWeek
}

// RoutineKey is the composite identity of a routine slot.
type RoutineKey struct {
	SchoolID       string    `db:"school_id"`
	AcademicYearID string    `db:"academic_year_id"`
	ClassID        string    `db:"class_id"`
	SectionID      string    `db:"section_id"`
	DayOfWeek      DayOfWeek `db:"day_of_week"`
	TimeSlotID     string    `db:"time_slot_id"`
}
