package curve

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/tordrt/schemadesigner/internal/schema"
)

// RelativeDivisor normalizes stored values in the pattern shape
const RelativeDivisor = 10000

// DefaultTimeColumn is reported when the table has no date or datetime column
const DefaultTimeColumn = "created_at"

// Pattern classifications
const (
	PatternFlat    = "flat"
	PatternGrowth  = "growth"
	PatternDecline = "decline"
	PatternCustom  = "custom"
)

// FlatPoint is a curve point in the flat shape
type FlatPoint struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Value     float64   `json:"value" yaml:"value"`
}

// FlatConstraint is the name-resolved shape read by the generator
type FlatConstraint struct {
	TableName           string      `json:"table_name" yaml:"table_name"`
	ColumnName          string      `json:"column_name" yaml:"column_name"`
	Points              []FlatPoint `json:"curve_points" yaml:"curve_points"`
	TimeUnit            string      `json:"time_unit" yaml:"time_unit"`
	AvgTransactionValue *float64    `json:"avg_transaction_value" yaml:"avg_transaction_value"`
}

// PatternPoint is a curve point in the pattern shape. Month is 1-indexed.
type PatternPoint struct {
	Month         int     `json:"month" yaml:"month"`
	RelativeValue float64 `json:"relative_value" yaml:"relative_value"`
}

// PatternConstraint is the normalized shape read by the quality report
type PatternConstraint struct {
	Table       string         `json:"table" yaml:"table"`
	Column      string         `json:"column" yaml:"column"`
	TimeColumn  string         `json:"time_column" yaml:"time_column"`
	PatternType string         `json:"pattern_type" yaml:"pattern_type"`
	Description string         `json:"description" yaml:"description"`
	Points      []PatternPoint `json:"curve_points" yaml:"curve_points"`
}

// Flat renders c with table and column names resolved against g. It
// reports false when either no longer resolves.
func Flat(c schema.OutcomeConstraint, g *schema.Graph) (FlatConstraint, bool) {
	t, col, ok := g.Column(c.TableID, c.ColumnID)
	if !ok {
		return FlatConstraint{}, false
	}
	out := FlatConstraint{
		TableName:  t.Name,
		ColumnName: col.Name,
		Points:     make([]FlatPoint, len(c.Points)),
		TimeUnit:   string(c.TimeUnit),
	}
	for i, p := range c.Points {
		out.Points[i] = FlatPoint{Timestamp: p.Timestamp, Value: p.Value}
	}
	if c.AvgTransactionValue != nil {
		v := *c.AvgTransactionValue
		out.AvgTransactionValue = &v
	}
	return out, true
}

// Pattern renders c in the normalized shape. Values are divided by
// RelativeDivisor and months come from each point's timestamp.
func Pattern(c schema.OutcomeConstraint, g *schema.Graph) (PatternConstraint, bool) {
	t, col, ok := g.Column(c.TableID, c.ColumnID)
	if !ok {
		return PatternConstraint{}, false
	}
	values := make([]float64, len(c.Points))
	points := make([]PatternPoint, len(c.Points))
	for i, p := range c.Points {
		values[i] = p.Value
		points[i] = PatternPoint{
			Month:         int(p.Timestamp.Month()),
			RelativeValue: p.Value / RelativeDivisor,
		}
	}
	kind := Classify(values)
	return PatternConstraint{
		Table:       t.Name,
		Column:      col.Name,
		TimeColumn:  timeColumn(t),
		PatternType: kind,
		Description: describe(kind, col.Name, values, c.TimeUnit),
		Points:      points,
	}, true
}

// Classify names the overall shape of a series
func Classify(values []float64) string {
	if len(values) < 2 {
		return PatternFlat
	}
	lo, hi := values[0], values[0]
	rising, falling := true, true
	for i := 1; i < len(values); i++ {
		lo = math.Min(lo, values[i])
		hi = math.Max(hi, values[i])
		if values[i] < values[i-1] {
			rising = false
		}
		if values[i] > values[i-1] {
			falling = false
		}
	}
	switch {
	case hi-lo <= 0.01*math.Max(math.Abs(hi), math.Abs(lo)):
		return PatternFlat
	case rising:
		return PatternGrowth
	case falling:
		return PatternDecline
	default:
		return PatternCustom
	}
}

func timeColumn(t *schema.Table) string {
	for _, col := range t.Columns {
		if col.Type == schema.TypeDate || col.Type == schema.TypeDatetime {
			return col.Name
		}
	}
	return DefaultTimeColumn
}

func describe(kind, column string, values []float64, unit schema.TimeUnit) string {
	if unit == "" {
		unit = schema.UnitMonth
	}
	n := len(values)
	if n == 0 {
		return fmt.Sprintf("No target for %s", column)
	}
	span := fmt.Sprintf("%d %ss", n, unit)
	if n == 1 {
		span = "1 " + string(unit)
	}
	first, last := format(values[0]), format(values[n-1])
	switch kind {
	case PatternFlat:
		return fmt.Sprintf("Steady %s around %s over %s", column, first, span)
	case PatternGrowth:
		return fmt.Sprintf("%s grows from %s to %s over %s", column, first, last, span)
	case PatternDecline:
		return fmt.Sprintf("%s declines from %s to %s over %s", column, first, last, span)
	default:
		return fmt.Sprintf("Custom %s curve over %s", column, span)
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
