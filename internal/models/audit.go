package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionSessionOverride   = "SESSION_OVERRIDE"
	AuditActionSessionStatus     = "SESSION_STATUS"
	AuditActionSessionAttendance = "SESSION_ATTENDANCE"
	AuditActionTimeSlotCreate    = "TIME_SLOT_CREATE"
	AuditActionTimeSlotDisable   = "TIME_SLOT_DEACTIVATE"
	AuditActionRoutineUpsert     = "ROUTINE_UPSERT"
	AuditActionRoutineDeactivate = "ROUTINE_DEACTIVATE"
	AuditActionFeePlanCreate     = "FEE_PLAN_CREATE"
	AuditActionFeePlanUpdate     = "FEE_PLAN_UPDATE"
	AuditActionFeePayment        = "FEE_PAYMENT"
)

// Audit resources.
const (
	AuditResourceDailySession = "daily_session"
	AuditResourceTimeSlot     = "time_slot"
	AuditResourceRoutineEntry = "routine_entry"
	AuditResourceFeePlan      = "fee_plan"
	AuditResourceFeePayment   = "fee_payment"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
