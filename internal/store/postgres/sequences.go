package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"placement-core/internal/common/errors"
)

// LastIssuedSequence returns the numeric suffix of the highest prefixed id
// present in the given table, or 0 when none has been issued yet. Startup
// wiring seeds the id generators from this so a restarted process continues
// the sequence instead of reissuing ids already held by stored aggregates.
func LastIssuedSequence(ctx context.Context, db *sql.DB, table, prefix string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(CAST(SUBSTRING(id FROM %d) AS INTEGER)), 0)
		FROM %s WHERE id LIKE $1`, len(prefix)+1, table)

	var last int
	if err := db.QueryRowContext(ctx, query, prefix+"%").Scan(&last); err != nil {
		return 0, errors.NewStoreFailureError(table+".lastIssuedSequence", err)
	}
	return last, nil
}
