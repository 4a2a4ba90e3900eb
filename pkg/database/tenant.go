package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// WithTenant executes a function inside a transaction scoped to one tenant.
// This is the isolation mechanism for row-level multi-tenancy.
//
// Usage in repositories:
//
//	tenantID, err := tenant.TenantID(ctx)
//	if err != nil { return err }
//	err = r.db.WithTenant(ctx, tenantID, func(ctx context.Context) error {
//	    return r.db.GetContext(ctx, &doc, "SELECT ... WHERE tenant_id = $1 AND id = $2", tenantID, id)
//	})
//
// How it works:
//  1. Starts a transaction
//  2. Sets "SET LOCAL app.current_tenant = '<tenant-uuid>'"
//  3. RLS policies filter rows: USING (tenant_id = current_setting('app.current_tenant')::uuid)
//  4. Commits the transaction (SET LOCAL is cleaned up automatically)
//
// Queries issued through the DB helpers inside fn run on this transaction, so
// multi-statement operations (version generation, sibling purges) are atomic
// and the RLS guard applies to every statement. Repositories still carry an
// explicit tenant_id predicate on reads and writes; RLS is the backstop, not
// the only filter.
func (db *DB) WithTenant(ctx context.Context, tenantID string, fn func(context.Context) error) error {
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		// SET LOCAL doesn't support parameterized queries; tenantID is a UUID
		// validated upstream, not raw user input.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.current_tenant = '%s'", tenantID)); err != nil {
			return fmt.Errorf("failed to set app.current_tenant to %s: %w", tenantID, err)
		}

		txCtx := context.WithValue(ctx, txKey{}, tx)

		return fn(txCtx)
	})
}

// getTx extracts the transaction from context if present
func (db *DB) getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
