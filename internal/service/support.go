package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-routine-api/internal/models"
	appErrors "github.com/noah-isme/sma-routine-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditEntry is written best-effort after a mutation has committed.
type auditEntry struct {
	schoolID   string
	actor      *models.JWTClaims
	action     string
	resource   string
	resourceID string
	oldValues  interface{}
	newValues  interface{}
}

func recordAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, entry auditEntry) {
	if audit == nil {
		return
	}
	log := &models.AuditLog{
		SchoolID: entry.schoolID,
		Action:   entry.action,
		Resource: entry.resource,
	}
	if entry.actor != nil && entry.actor.UserID != "" {
		userID := entry.actor.UserID
		log.UserID = &userID
	}
	if entry.resourceID != "" {
		resourceID := entry.resourceID
		log.ResourceID = &resourceID
	}
	if entry.oldValues != nil {
		log.OldValues, _ = json.Marshal(entry.oldValues)
	}
	if entry.newValues != nil {
		log.NewValues, _ = json.Marshal(entry.newValues)
	}
	if err := audit.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", entry.action), zap.String("resource_id", entry.resourceID), zap.Error(err))
	}
}

func parseDate(raw, field string) (time.Time, error) {
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, field+" must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

func parseOptionalDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	date, err := parseDate(*raw, field)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// runInTx commits when fn succeeds and rolls back otherwise.
func runInTx(ctx context.Context, provider txProvider, fn func(tx *sqlx.Tx) error) error {
	if provider == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
	}
	tx, err := provider.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}
