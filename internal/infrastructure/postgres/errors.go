package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
)

const uniqueViolation = "23505"

// classify maps driver errors onto the connector's error kinds. Server-side
// errors other than unique violations stay unclassified; anything that never
// reached the server means the store is unavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return &apperr.Error{
				Kind:    apperr.KindConflict,
				Message: fmt.Sprintf("duplicate key (%s)", pgErr.ConstraintName),
				Err:     err,
			}
		}
		return fmt.Errorf("postgres: %w", err)
	}
	return apperr.StorageUnavailable(err)
}

// classifyCreate reports a primary key violation as a taken identity.
// Other unique constraints keep the constraint name in the message.
func classifyCreate(entity, id string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
		return apperr.Conflict(entity, id, fmt.Sprintf("%s %s already exists", entity, id))
	}
	err = classify(err)
	if appErr, ok := err.(*apperr.Error); ok && appErr.Kind == apperr.KindConflict {
		appErr.Entity, appErr.ID = entity, id
	}
	return err
}
