// api/dao/dao.go
package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

// pgUniqueViolation is the Postgres error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// mapWriteError turns low-level write failures into the domain taxonomy:
// unique violations become AlreadyExistsError, everything else stays an
// infrastructure error.
func mapWriteError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return atat_errors.AlreadyExists(resource)
	}
	return fmt.Errorf("%w: %v", atat_errors.ErrDatabaseOperation, err)
}

// mapReadError turns sql.ErrNoRows into NotFoundError.
func mapReadError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return atat_errors.NotFound(resource)
	}
	return fmt.Errorf("%w: %v", atat_errors.ErrDatabaseOperation, err)
}

// Permission-set collections travel through SQL as comma-joined text so the
// queries stay portable across database/sql drivers.

func joinSetNames(names []model.PermissionSetName) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ",")
}

func withSetName(names []model.PermissionSetName, name model.PermissionSetName) []model.PermissionSetName {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(append([]model.PermissionSetName{}, names...), name)
}

func withoutSetName(names []model.PermissionSetName, name model.PermissionSetName) []model.PermissionSetName {
	var out []model.PermissionSetName
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func splitSetNames(joined string) []model.PermissionSetName {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	names := make([]model.PermissionSetName, len(parts))
	for i, p := range parts {
		names[i] = model.PermissionSetName(p)
	}
	return names
}

// inTx runs fn inside a transaction, rolling back on error or panic.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", atat_errors.ErrDatabaseOperation, err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", atat_errors.ErrDatabaseOperation, err)
	}
	return nil
}
