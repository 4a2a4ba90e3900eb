package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/fishtech/fishtech-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Check constraint violation (23514)
	case "23514":
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)

	default:
		return nil
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "subdomain"):
		return "a tenant with this subdomain already exists"
	case strings.Contains(constraint, "username"):
		return "a user with this username already exists"
	case strings.Contains(constraint, "companies_tenant_name"):
		return "a company with this name already exists"
	case strings.Contains(constraint, "haccp_documents_set_version"):
		return "this document version already exists"
	case strings.Contains(constraint, "sop_parents_company_date_shift"):
		return "an inspection for this company, date and shift already exists"
	case strings.Contains(constraint, "document_files_key"):
		return "a file with this name already exists for this document"
	default:
		return "a record with these values already exists"
	}
}
