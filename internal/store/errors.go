package store

import (
	"errors"
	"fmt"

	"github.com/tordrt/schemadesigner/internal/validate"
)

var (
	// ErrTableExists is returned when adding a table whose id is taken.
	ErrTableExists = errors.New("table already exists")
	// ErrTableNotFound is returned when a table id does not resolve.
	ErrTableNotFound = errors.New("table not found")
	// ErrColumnExists is returned when adding a column whose id is taken within its table.
	ErrColumnExists = errors.New("column already exists")
	// ErrColumnNotFound is returned when a column id does not resolve within its table.
	ErrColumnNotFound = errors.New("column not found")
	// ErrParamsMismatch is returned when a column's parameters belong to another type.
	ErrParamsMismatch = errors.New("column parameters do not match column type")
	// ErrRelationshipExists is returned when adding a relationship whose id is taken.
	ErrRelationshipExists = errors.New("relationship already exists")
	// ErrRelationshipNotFound is returned when a relationship id does not resolve.
	ErrRelationshipNotFound = errors.New("relationship not found")
	// ErrEndpointNotFound is returned when a relationship endpoint does not resolve.
	ErrEndpointNotFound = errors.New("relationship endpoint not found")
	// ErrNotNumeric is returned when a constraint targets a non-numeric column.
	ErrNotNumeric = errors.New("outcome constraints require a numeric column")
	// ErrEmptyCurve is returned when a constraint has no curve points.
	ErrEmptyCurve = errors.New("outcome constraint needs at least one curve point")
	// ErrUnorderedCurve is returned when curve timestamps are not strictly increasing.
	ErrUnorderedCurve = errors.New("curve point timestamps must be strictly increasing")
	// ErrInvalidTimeUnit is returned for a time unit outside day/week/month/quarter/year.
	ErrInvalidTimeUnit = errors.New("invalid time unit")
	// ErrConstraintNotFound is returned when no constraint exists for a column.
	ErrConstraintNotFound = errors.New("outcome constraint not found")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries the failed rule result of a rejected mutation
type ValidationError struct {
	Field  string
	Result validate.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Result.Error)
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
