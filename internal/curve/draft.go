package curve

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tordrt/schemadesigner/internal/schema"
)

var (
	// ErrPointOutOfRange is returned by SetPoint for an index outside the curve.
	ErrPointOutOfRange = errors.New("curve point index out of range")
	// ErrInvalidScale is returned for a scale factor that is not a positive finite number.
	ErrInvalidScale = errors.New("scale factor must be a positive number")
	// ErrEmptyDraft is returned when committing a draft without points.
	ErrEmptyDraft = errors.New("curve draft has no points")
)

// Draft is an outcome constraint being edited. Values stay in raw units
// until Commit multiplies them by Scale.
type Draft struct {
	TableID             string          `json:"table_id"`
	ColumnID            string          `json:"column_id"`
	Values              []float64       `json:"values"`
	Preset              Preset          `json:"preset,omitempty"`
	Scale               float64         `json:"scale"`
	TimeUnit            schema.TimeUnit `json:"time_unit"`
	AvgTransactionValue *float64        `json:"avg_transaction_value,omitempty"`
}

// NewDraft opens a draft on a column, starting from the flat preset
func NewDraft(tableID, columnID string) *Draft {
	values, _ := Generate(PresetFlat, DefaultPeriods)
	return &Draft{
		TableID:  tableID,
		ColumnID: columnID,
		Values:   values,
		Preset:   PresetFlat,
		Scale:    1,
		TimeUnit: schema.UnitMonth,
	}
}

// DraftFrom reopens a committed constraint for editing. The stored values
// already carry their scale, so the draft starts at scale 1 with no preset.
func DraftFrom(c schema.OutcomeConstraint) *Draft {
	d := &Draft{
		TableID:  c.TableID,
		ColumnID: c.ColumnID,
		Values:   make([]float64, len(c.Points)),
		Scale:    1,
		TimeUnit: c.TimeUnit,
	}
	for i, p := range c.Points {
		d.Values[i] = p.Value
	}
	if d.TimeUnit == "" {
		d.TimeUnit = schema.UnitMonth
	}
	if c.AvgTransactionValue != nil {
		v := *c.AvgTransactionValue
		d.AvgTransactionValue = &v
	}
	return d
}

// ApplyPreset replaces every value with the preset's output
func (d *Draft) ApplyPreset(p Preset, periods int) error {
	values, err := Generate(p, periods)
	if err != nil {
		return err
	}
	d.Values = values
	d.Preset = p
	return nil
}

// SetPoint overwrites one raw value and marks the draft custom
func (d *Draft) SetPoint(i int, value float64) error {
	if i < 0 || i >= len(d.Values) {
		return fmt.Errorf("%w: %d of %d", ErrPointOutOfRange, i, len(d.Values))
	}
	d.Values[i] = value
	d.Preset = ""
	return nil
}

// Custom reports whether the values were edited by hand since the last preset
func (d *Draft) Custom() bool { return d.Preset == "" }

// SetScale sets the factor applied at commit
func (d *Draft) SetScale(f float64) error {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, f)
	}
	d.Scale = f
	return nil
}

// SetTimeUnit sets the bucket size of the committed curve
func (d *Draft) SetTimeUnit(u schema.TimeUnit) error {
	if !u.Valid() {
		return fmt.Errorf("invalid time unit %q", u)
	}
	d.TimeUnit = u
	return nil
}

// SetAvgTransactionValue sets or, with nil, clears the average transaction value
func (d *Draft) SetAvgTransactionValue(v *float64) {
	if v == nil {
		d.AvgTransactionValue = nil
		return
	}
	cp := *v
	d.AvgTransactionValue = &cp
}

// Commit produces the constraint to store. Each value is multiplied by the
// scale exactly once; point i is stamped with the start of bucket i counted
// from January 1st of now's year (UTC). The draft itself is not modified.
func (d *Draft) Commit(now time.Time) (schema.OutcomeConstraint, error) {
	if len(d.Values) == 0 {
		return schema.OutcomeConstraint{}, ErrEmptyDraft
	}
	scale := d.Scale
	if scale == 0 {
		scale = 1
	}
	unit := d.TimeUnit
	if unit == "" {
		unit = schema.UnitMonth
	}
	if !unit.Valid() {
		return schema.OutcomeConstraint{}, fmt.Errorf("invalid time unit %q", unit)
	}

	c := schema.OutcomeConstraint{
		TableID:  d.TableID,
		ColumnID: d.ColumnID,
		Points:   make([]schema.CurvePoint, len(d.Values)),
		TimeUnit: unit,
	}
	for i, v := range d.Values {
		c.Points[i] = schema.CurvePoint{Timestamp: BucketStart(now, unit, i), Value: v * scale}
	}
	if d.AvgTransactionValue != nil {
		v := *d.AvgTransactionValue
		c.AvgTransactionValue = &v
	}
	return c, nil
}

// BucketStart returns the start of bucket i of the given unit, counted from
// January 1st of now's year in UTC
func BucketStart(now time.Time, unit schema.TimeUnit, i int) time.Time {
	year := now.UTC().Year()
	switch unit {
	case schema.UnitDay:
		return time.Date(year, time.January, 1+i, 0, 0, 0, 0, time.UTC)
	case schema.UnitWeek:
		return time.Date(year, time.January, 1+7*i, 0, 0, 0, 0, time.UTC)
	case schema.UnitQuarter:
		return time.Date(year, time.January+time.Month(3*i), 1, 0, 0, 0, 0, time.UTC)
	case schema.UnitYear:
		return time.Date(year+i, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, time.January+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
	}
}
