package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-routine-api/internal/models"
)

func newScheduleDBMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func strPtr(v string) *string { return &v }

func TestTimeSlotRepositoryListActiveTeaching(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "school_id", "slot_name", "start_time", "end_time", "display_order", "slot_type", "is_active", "created_at", "updated_at"}).
		AddRow("slot-a", "school-1", "Period 1", "08:00", "08:45", 1, "TEACHING", true, now, now).
		AddRow("slot-b", "school-1", "Period 2", "08:45", "09:30", 2, "TEACHING", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, slot_name, start_time, end_time, display_order, slot_type, is_active, created_at, updated_at FROM time_slots WHERE school_id = $1 AND is_active = TRUE AND slot_type = $2 ORDER BY display_order ASC, id ASC")).
		WithArgs("school-1", models.SlotTypeTeaching).
		WillReturnRows(rows)

	slots, err := repo.ListActiveTeaching(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "slot-a", slots[0].ID)
	assert.Equal(t, models.SlotTypeTeaching, slots[1].SlotType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSlotRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewTimeSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET is_active = FALSE")).
		WithArgs("school-1", "slot-a", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.Deactivate(context.Background(), "school-1", "slot-a")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineRepositoryFindActiveByKeyNoRows(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewRoutineRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, academic_year_id")).
		WithArgs("school-1", "ay-1", "class-1", "sec-a", models.Monday, "slot-a").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByKey(context.Background(), nil, models.RoutineKey{
		SchoolID: "school-1", AcademicYearID: "ay-1", ClassID: "class-1", SectionID: "sec-a", DayOfWeek: models.Monday, TimeSlotID: "slot-a",
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineRepositoryUpsertReturnsStoredID(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewRoutineRepository(db)

	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO routine_entries")).
		WithArgs(sqlmock.AnyArg(), "school-1", "ay-1", "class-1", "sec-a", models.Tuesday, "slot-a", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("routine-existing", created))

	entry := &models.RoutineEntry{
		SchoolID: "school-1", AcademicYearID: "ay-1", ClassID: "class-1", SectionID: "sec-a",
		DayOfWeek: models.Tuesday, TimeSlotID: "slot-a", SubjectID: strPtr("math"), TeacherID: strPtr("t-1"),
	}
	require.NoError(t, repo.Upsert(context.Background(), entry))
	assert.Equal(t, "routine-existing", entry.ID)
	assert.Equal(t, created, entry.CreatedAt)
	assert.True(t, entry.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutineRepositoryFindByIDsSkipsEmpty(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewRoutineRepository(db)

	entries, err := repo.FindByIDs(context.Background(), "school-1", nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySessionRepositoryUpsertWithinTx(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewDailySessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO daily_sessions")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("session-1", time.Now()))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	session := &models.DailySession{
		SchoolID: "school-1", AcademicYearID: "ay-1", ClassID: "class-1", SectionID: "sec-a",
		SessionDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), TimeSlotID: "slot-a", RoutineEntryID: "routine-1",
	}
	require.NoError(t, repo.Upsert(context.Background(), tx, session))
	require.NoError(t, tx.Commit())

	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, models.SessionScheduled, session.SessionStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySessionRepositoryUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewDailySessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE daily_sessions SET session_status = $3")).
		WithArgs("school-1", "session-1", models.SessionConducted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateStatus(context.Background(), nil, "school-1", "session-1", models.SessionConducted)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySessionRepositoryListByDate(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewDailySessionRepository(db)

	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "school_id", "academic_year_id", "class_id", "section_id", "session_date", "time_slot_id", "routine_entry_id",
		"subject_override", "teacher_override", "actual_teacher_id", "session_status", "is_attendance_marked", "remarks", "created_at", "updated_at"}).
		AddRow("session-1", "school-1", "ay-1", "class-1", "sec-a", date, "slot-a", "routine-1", "physics", nil, nil, "SCHEDULED", false, nil, date, date)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, academic_year_id, class_id, section_id, session_date")).
		WithArgs("school-1", "ay-1", "class-1", "sec-a", date).
		WillReturnRows(rows)

	sessions, err := repo.ListByDate(context.Background(), "school-1", "ay-1", "class-1", "sec-a", date)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].SubjectOverride)
	assert.Equal(t, "physics", *sessions[0].SubjectOverride)
	assert.Nil(t, sessions[0].TeacherOverride)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepositorySubjectNames(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM subjects WHERE school_id = $1 AND id = ANY($2)")).
		WithArgs("school-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("math", "Mathematics"))

	names, err := repo.SubjectNames(context.Background(), "school-1", []string{"math", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"math": "Mathematics"}, names)

	empty, err := repo.TeacherNames(context.Background(), "school-1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.AuditLog{SchoolID: "school-1", Action: models.AuditActionSessionOverride, Resource: models.AuditResourceDailySession}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySessionRepositoryMaterializeIgnoresExisting(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewDailySessionRepository(db)

	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_sessions")).
		WithArgs(sqlmock.AnyArg(), "school-1", "ay-1", "class-1", "sec-a", date, "slot-a", "routine-1", models.SessionScheduled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Materialize(context.Background(), nil, &models.DailySession{
		SchoolID: "school-1", AcademicYearID: "ay-1", ClassID: "class-1", SectionID: "sec-a",
		SessionDate: date, TimeSlotID: "slot-a", RoutineEntryID: "routine-1",
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailySessionRepositoryMaterializeReportsInsert(t *testing.T) {
	db, mock, cleanup := newScheduleDBMock(t)
	defer cleanup()
	repo := NewDailySessionRepository(db)

	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_sessions")).
		WithArgs(sqlmock.AnyArg(), "school-1", "ay-1", "class-1", "sec-a", date, "slot-b", "routine-2", models.SessionScheduled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session := &models.DailySession{
		SchoolID: "school-1", AcademicYearID: "ay-1", ClassID: "class-1", SectionID: "sec-a",
		SessionDate: date, TimeSlotID: "slot-b", RoutineEntryID: "routine-2",
	}
	inserted, err := repo.Materialize(context.Background(), nil, session)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
