package models

import "time"

// SessionStatus is the lifecycle state of a concrete class session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionConducted SessionStatus = "CONDUCTED"
	SessionCancelled SessionStatus = "CANCELLED"
	SessionPostponed SessionStatus = "POSTPONED"
)

// Placeholders rendered when a routine or master-data reference is missing.
const (
	NoSubjectLabel   = "No Subject"
	NotAssignedLabel = "Not Assigned"
)

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionScheduled: {SessionConducted, SessionCancelled, SessionPostponed},
}

// Valid reports whether the status is known.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionConducted, SessionCancelled, SessionPostponed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed for the date instance.
func (s SessionStatus) Terminal() bool {
	return len(sessionTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SessionKey identifies one class-section slot on a calendar date.
type SessionKey struct {
	SchoolID       string    `db:"school_id" json:"school_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SectionID      string    `db:"section_id" json:"section_id"`
	SessionDate    time.Time `db:"session_date" json:"session_date"`
	TimeSlotID     string    `db:"time_slot_id" json:"time_slot_id"`
}

// RoutineKey returns the weekly routine identity behind the session key.
func (k SessionKey) RoutineKey(day DayOfWeek) RoutineKey {
	return RoutineKey{
		SchoolID:       k.SchoolID,
		AcademicYearID: k.AcademicYearID,
		ClassID:        k.ClassID,
		SectionID:      k.SectionID,
		DayOfWeek:      day,
		TimeSlotID:     k.TimeSlotID,
	}
}

// Equal compares two keys, treating dates by instant.
func (k SessionKey) Equal(other SessionKey) bool {
	return k.SchoolID == other.SchoolID &&
		k.AcademicYearID == other.AcademicYearID &&
		k.ClassID == other.ClassID &&
		k.SectionID == other.SectionID &&
		k.SessionDate.Equal(other.SessionDate) &&
		k.TimeSlotID == other.TimeSlotID
}

// DailySession is the materialized instance of a routine slot on a specific date.
type DailySession struct {
	ID                 string        `db:"id" json:"id"`
	SchoolID           string        `db:"school_id" json:"school_id"`
	AcademicYearID     string        `db:"academic_year_id" json:"academic_year_id"`
	ClassID            string        `db:"class_id" json:"class_id"`
	SectionID          string        `db:"section_id" json:"section_id"`
	SessionDate        time.Time     `db:"session_date" json:"session_date"`
	TimeSlotID         string        `db:"time_slot_id" json:"time_slot_id"`
	RoutineEntryID     string        `db:"routine_entry_id" json:"routine_entry_id"`
	SubjectOverride    *string       `db:"subject_override" json:"subject_override,omitempty"`
	TeacherOverride    *string       `db:"teacher_override" json:"teacher_override,omitempty"`
	ActualTeacherID    *string       `db:"actual_teacher_id" json:"actual_teacher_id,omitempty"`
	SessionStatus      SessionStatus `db:"session_status" json:"session_status"`
	IsAttendanceMarked bool          `db:"is_attendance_marked" json:"is_attendance_marked"`
	Remarks            *string       `db:"remarks" json:"remarks,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// Key returns the composite identity of the session.
func (s DailySession) Key() SessionKey {
	return SessionKey{
		SchoolID:       s.SchoolID,
		AcademicYearID: s.AcademicYearID,
		ClassID:        s.ClassID,
		SectionID:      s.SectionID,
		SessionDate:    s.SessionDate,
		TimeSlotID:     s.TimeSlotID,
	}
}

// SameContent compares every persisted field except timestamps.
func (s DailySession) SameContent(other DailySession) bool {
	return s.ID == other.ID &&
		s.Key().Equal(other.Key()) &&
		s.RoutineEntryID == other.RoutineEntryID &&
		equalPtr(s.SubjectOverride, other.SubjectOverride) &&
		equalPtr(s.TeacherOverride, other.TeacherOverride) &&
		equalPtr(s.ActualTeacherID, other.ActualTeacherID) &&
		s.SessionStatus == other.SessionStatus &&
		s.IsAttendanceMarked == other.IsAttendanceMarked &&
		equalPtr(s.Remarks, other.Remarks)
}

// EffectiveSubject applies the override precedence over the routine subject.
func EffectiveSubject(session *DailySession, routine *RoutineEntry) *string {
	if session != nil && session.SubjectOverride != nil {
		return session.SubjectOverride
	}
	if routine != nil {
		return routine.SubjectID
	}
	return nil
}

// EffectiveTeacher resolves teacherOverride, then actualTeacherId, then the routine teacher.
func EffectiveTeacher(session *DailySession, routine *RoutineEntry) *string {
	if session != nil {
		if session.TeacherOverride != nil {
			return session.TeacherOverride
		}
		if session.ActualTeacherID != nil {
			return session.ActualTeacherID
		}
	}
	if routine != nil {
		return routine.TeacherID
	}
	return nil
}

// EffectiveSlot is one row of a resolved daily schedule.
type EffectiveSlot struct {
	TimeSlotID   string `json:"time_slot_id"`
	SlotName     string `json:"slot_name"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	DisplayOrder int    `json:"display_order"`

	RoutineEntryID     string  `json:"routine_entry_id"`
	RoutineSubjectID   *string `json:"routine_subject_id,omitempty"`
	RoutineTeacherID   *string `json:"routine_teacher_id,omitempty"`
	RoutineSubjectName string  `json:"routine_subject_name"`
	RoutineTeacherName string  `json:"routine_teacher_name"`

	SessionID       *string `json:"session_id,omitempty"`
	Materialized    bool    `json:"materialized"`
	SubjectOverride *string `json:"subject_override,omitempty"`
	TeacherOverride *string `json:"teacher_override,omitempty"`

	EffectiveSubjectID   *string `json:"effective_subject_id,omitempty"`
	EffectiveTeacherID   *string `json:"effective_teacher_id,omitempty"`
	EffectiveSubjectName string  `json:"effective_subject_name"`
	EffectiveTeacherName string  `json:"effective_teacher_name"`
	IsSubjectOverridden  bool    `json:"is_subject_overridden"`
	IsSubstituted        bool    `json:"is_substituted"`

	SessionStatus      SessionStatus `json:"session_status"`
	IsAttendanceMarked bool          `json:"is_attendance_marked"`
	OverrideLocked     bool          `json:"override_locked"`
	Remarks            *string       `json:"remarks,omitempty"`
}

// DailySchedule is the resolved schedule for a class-section on one date.
type DailySchedule struct {
	SchoolID       string          `json:"school_id"`
	AcademicYearID string          `json:"academic_year_id"`
	ClassID        string          `json:"class_id"`
	SectionID      string          `json:"section_id"`
	Date           string          `json:"date"`
	DayOfWeek      DayOfWeek       `json:"day_of_week,omitempty"`
	Slots          []EffectiveSlot `json:"slots"`
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
