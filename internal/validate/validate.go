// Package validate holds the pure validation rules applied to user input
// before it reaches the model. Every rule returns a Result: errors block the
// triggering action, warnings do not.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tordrt/schemadesigner/internal/schema"
)

const (
	// MaxRowCount is the largest row count a table may request
	MaxRowCount = 10_000_000

	largeRowCount     = 100_000
	veryLargeRowCount = 1_000_000

	minTableNameLength  = 2
	minColumnNameLength = 1
	maxNameLength       = 64
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Result is the outcome of a rule
type Result struct {
	Valid   bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func ok() Result { return Result{Valid: true} }

func fail(format string, args ...any) Result {
	return Result{Valid: false, Error: fmt.Sprintf(format, args...)}
}

func warn(format string, args ...any) Result {
	return Result{Valid: true, Warning: fmt.Sprintf(format, args...)}
}

// TableName checks a candidate table name against the identifier rules and
// the names of the other tables
func TableName(name string, existing []string) Result {
	return identifier("table", name, minTableNameLength, existing)
}

// ColumnName checks a candidate column name against the identifier rules and
// the names of the other columns of the same table
func ColumnName(name string, existing []string) Result {
	return identifier("column", name, minColumnNameLength, existing)
}

func identifier(kind, name string, minLength int, existing []string) Result {
	if strings.TrimSpace(name) == "" {
		return fail("%s name is required", kind)
	}
	if len(name) < minLength {
		return fail("%s name must be at least %d characters", kind, minLength)
	}
	if len(name) > maxNameLength {
		return fail("%s name must be at most %d characters", kind, maxNameLength)
	}
	if !identifierPattern.MatchString(name) {
		return fail("%s name must start with a letter or underscore and contain only letters, digits and underscores", kind)
	}
	for _, other := range existing {
		if strings.EqualFold(other, name) {
			return fail("a %s named %q already exists", kind, other)
		}
	}
	if IsReservedWord(name) {
		return warn("%q is a SQL reserved word and may need quoting", name)
	}
	return ok()
}

// RowCount checks a requested table size
func RowCount(n int64) Result {
	switch {
	case n <= 0:
		return fail("row count must be a positive integer")
	case n > MaxRowCount:
		return fail("row count %d exceeds maximum of %d", n, MaxRowCount)
	case n > veryLargeRowCount:
		return warn("very large row count (%d); generation may take a long time", n)
	case n > largeRowCount:
		return warn("large row count (%d); generation may be slow", n)
	}
	return ok()
}

// RowCountString parses user text before applying RowCount
func RowCountString(s string) (int64, Result) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fail("row count must be a positive integer")
	}
	return n, RowCount(n)
}

// Params applies the range sanity rules of a column's parameter variant
func Params(p schema.Params) Result {
	switch v := p.(type) {
	case nil:
		return fail("column parameters are missing")
	case schema.IntegerParams:
		if v.Min > v.Max {
			return fail("minimum %d is greater than maximum %d", v.Min, v.Max)
		}
	case schema.FloatParams:
		if v.Min > v.Max {
			return fail("minimum %g is greater than maximum %g", v.Min, v.Max)
		}
		if v.Decimals < 0 || v.Decimals > 10 {
			return fail("decimals must be between 0 and 10")
		}
	case schema.TextParams:
		if v.MinLength < 0 || v.MaxLength < 0 {
			return fail("text lengths must not be negative")
		}
		if v.MinLength > v.MaxLength {
			return fail("minimum length %d is greater than maximum length %d", v.MinLength, v.MaxLength)
		}
		if v.Pattern != "" {
			if _, err := regexp.Compile(v.Pattern); err != nil {
				return fail("invalid pattern: %v", err)
			}
		}
	case schema.DateParams:
		return bounds(v.Start, v.End, time.DateOnly)
	case schema.TimeParams:
		return bounds(v.Start, v.End, "15:04")
	case schema.DatetimeParams:
		return bounds(v.Start, v.End, time.RFC3339)
	case schema.CategoricalParams:
		if len(v.Choices) == 0 {
			return fail("at least one choice is required")
		}
		if len(v.Weights) > 0 && len(v.Weights) != len(v.Choices) {
			return fail("%d weights given for %d choices", len(v.Weights), len(v.Choices))
		}
		for _, w := range v.Weights {
			if w < 0 {
				return fail("weights must not be negative")
			}
		}
	case schema.BooleanParams:
		if v.TrueRatio < 0 || v.TrueRatio > 1 {
			return fail("true ratio must be between 0 and 1")
		}
	case schema.ForeignKeyParams:
		if v.TargetTableID == "" {
			return warn("foreign key has no target table yet")
		}
	}
	return ok()
}

func bounds(start, end, layout string) Result {
	from, err := time.Parse(layout, start)
	if err != nil {
		return fail("invalid start %q", start)
	}
	to, err := time.Parse(layout, end)
	if err != nil {
		return fail("invalid end %q", end)
	}
	if from.After(to) {
		return fail("start %s is after end %s", start, end)
	}
	return ok()
}
