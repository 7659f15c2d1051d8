package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"placement-core/internal/common/logger"
)

// writeAudit records an audit-log row. Audit failures are logged, never
// fatal to the operation that triggered them.
func writeAudit(ctx context.Context, db *sql.DB, log logger.Logger, eventType, resourceType, resourceID string, details []byte) {
	if details == nil {
		details = []byte("{}")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (id, event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(),
		eventType,
		resourceType,
		resourceID,
		details,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		log.Warn("audit log insert failed", map[string]interface{}{
			"error":      err,
			"eventType":  eventType,
			"resourceId": resourceID,
		})
	}
}
