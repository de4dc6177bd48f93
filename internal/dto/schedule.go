package dto

// ScheduleQuery selects the class-section and date to resolve.
type ScheduleQuery struct {
	AcademicYearID string `form:"academicYearId" json:"academicYearId" validate:"required"`
	ClassID        string `form:"classId" json:"classId" validate:"required"`
	SectionID      string `form:"sectionId" json:"sectionId" validate:"required"`
	Date           string `form:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

// SessionIdentity addresses one slot of a class-section on a date.
type SessionIdentity struct {
	AcademicYearID string `json:"academicYearId" validate:"required"`
	ClassID        string `json:"classId" validate:"required"`
	SectionID      string `json:"sectionId" validate:"required"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlotID     string `json:"timeSlotId" validate:"required"`
}

// ApplyOverrideRequest layers a date-specific substitution over the routine.
// Omitted fields are left untouched; an empty string clears the override.
type ApplyOverrideRequest struct {
	SessionIdentity
	SubjectOverride *string `json:"subjectOverride"`
	TeacherOverride *string `json:"teacherOverride"`
	Remarks         *string `json:"remarks" validate:"omitempty,max=500"`
}

// TransitionStatusRequest moves a session through its lifecycle.
type TransitionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=SCHEDULED CONDUCTED CANCELLED POSTPONED"`
}

// MarkAttendanceRequest flags sessions of one class-section day as attendance-taken.
type MarkAttendanceRequest struct {
	AcademicYearID string   `json:"academicYearId" validate:"required"`
	ClassID        string   `json:"classId" validate:"required"`
	SectionID      string   `json:"sectionId" validate:"required"`
	Date           string   `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlotIDs    []string `json:"timeSlotIds" validate:"required,min=1,dive,required"`
}

// CreateTimeSlotRequest defines a period of the school day.
type CreateTimeSlotRequest struct {
	SlotName     string `json:"slotName" validate:"required,max=100"`
	StartTime    string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime      string `json:"endTime" validate:"required,datetime=15:04"`
	DisplayOrder int    `json:"displayOrder" validate:"min=0"`
	SlotType     string `json:"slotType" validate:"required,oneof=TEACHING BREAK LUNCH ASSEMBLY"`
}

// RoutineQuery selects the weekly routine of a class-section.
type RoutineQuery struct {
	AcademicYearID string `form:"academicYearId" validate:"required"`
	ClassID        string `form:"classId" validate:"required"`
	SectionID      string `form:"sectionId" validate:"required"`
	DayOfWeek      string `form:"dayOfWeek" validate:"omitempty,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
}

// UpsertRoutineEntryRequest writes the weekly default for one slot.
type UpsertRoutineEntryRequest struct {
	AcademicYearID string  `json:"academicYearId" validate:"required"`
	ClassID        string  `json:"classId" validate:"required"`
	SectionID      string  `json:"sectionId" validate:"required"`
	DayOfWeek      string  `json:"dayOfWeek" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	TimeSlotID     string  `json:"timeSlotId" validate:"required"`
	SubjectID      *string `json:"subjectId"`
	TeacherID      *string `json:"teacherId"`
	Remarks        *string `json:"remarks" validate:"omitempty,max=500"`
}
