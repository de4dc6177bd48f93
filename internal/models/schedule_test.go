package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v string) *string { return &v }

func TestSessionStatusTransitions(t *testing.T) {
	all := []SessionStatus{SessionScheduled, SessionConducted, SessionCancelled, SessionPostponed}
	for _, from := range all {
		for _, to := range all {
			want := from == SessionScheduled && to != SessionScheduled
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, SessionScheduled.Terminal())
	assert.True(t, SessionConducted.Terminal())
	assert.False(t, SessionStatus("DONE").Valid())
}

func TestDayOfWeekForDate(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	day, ok := DayOfWeekForDate(monday)
	assert.True(t, ok)
	assert.Equal(t, Monday, day)

	day, ok = DayOfWeekForDate(monday.AddDate(0, 0, 5))
	assert.True(t, ok)
	assert.Equal(t, Saturday, day)

	_, ok = DayOfWeekForDate(monday.AddDate(0, 0, -1))
	assert.False(t, ok)

	parsed, ok := ParseDayOfWeek(" friday ")
	assert.True(t, ok)
	assert.Equal(t, Friday, parsed)
	_, ok = ParseDayOfWeek("SUNDAY")
	assert.False(t, ok)
}

func TestEffectivePrecedence(t *testing.T) {
	routine := &RoutineEntry{SubjectID: ptr("math"), TeacherID: ptr("t-routine")}

	assert.Equal(t, "math", *EffectiveSubject(nil, routine))
	assert.Equal(t, "t-routine", *EffectiveTeacher(nil, routine))

	session := &DailySession{ActualTeacherID: ptr("t-actual")}
	assert.Equal(t, "math", *EffectiveSubject(session, routine))
	assert.Equal(t, "t-actual", *EffectiveTeacher(session, routine))

	session.SubjectOverride = ptr("physics")
	session.TeacherOverride = ptr("t-sub")
	assert.Equal(t, "physics", *EffectiveSubject(session, routine))
	assert.Equal(t, "t-sub", *EffectiveTeacher(session, routine))

	assert.Nil(t, EffectiveSubject(nil, &RoutineEntry{}))
	assert.Nil(t, EffectiveTeacher(nil, nil))
}

func TestSameContentIgnoresTimestamps(t *testing.T) {
	a := DailySession{ID: "s1", SessionStatus: SessionScheduled, Remarks: ptr("lab"), UpdatedAt: time.Now()}
	b := a
	b.UpdatedAt = a.UpdatedAt.Add(time.Hour)
	b.Remarks = ptr("lab")
	assert.True(t, a.SameContent(b))

	b.TeacherOverride = ptr("t-2")
	assert.False(t, a.SameContent(b))
}
