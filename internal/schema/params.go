package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownColumnType is returned when decoding a column with a type tag
// outside the closed set
var ErrUnknownColumnType = errors.New("unknown column type")

// Params is the type-specific generation parameter set of a column. The
// interface is sealed: only the variants declared in this file implement it,
// and each variant carries exactly the parameters legal for its type.
type Params interface {
	Type() ColumnType
	clone() Params
}

// IntegerParams bounds generated integers
type IntegerParams struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// FloatParams bounds generated floats
type FloatParams struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Decimals int     `json:"decimals"`
}

// TextParams bounds generated strings
type TextParams struct {
	MinLength int    `json:"min_length"`
	MaxLength int    `json:"max_length"`
	Pattern   string `json:"pattern,omitempty"`
}

// DateParams bounds generated dates (YYYY-MM-DD)
type DateParams struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeParams bounds generated times of day (HH:MM)
type TimeParams struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DatetimeParams bounds generated timestamps (RFC 3339)
type DatetimeParams struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CategoricalParams lists the allowed values and optional weights
type CategoricalParams struct {
	Choices []string  `json:"choices"`
	Weights []float64 `json:"weights,omitempty"`
}

// BooleanParams sets the share of true values
type BooleanParams struct {
	TrueRatio float64 `json:"true_ratio"`
}

// ForeignKeyParams points at the referenced table by id. An empty id means
// the target has not been chosen yet.
type ForeignKeyParams struct {
	TargetTableID string `json:"target_table_id,omitempty"`
}

func (IntegerParams) Type() ColumnType     { return TypeInteger }
func (FloatParams) Type() ColumnType       { return TypeFloat }
func (TextParams) Type() ColumnType        { return TypeText }
func (DateParams) Type() ColumnType        { return TypeDate }
func (TimeParams) Type() ColumnType        { return TypeTime }
func (DatetimeParams) Type() ColumnType    { return TypeDatetime }
func (CategoricalParams) Type() ColumnType { return TypeCategorical }
func (BooleanParams) Type() ColumnType     { return TypeBoolean }
func (ForeignKeyParams) Type() ColumnType  { return TypeForeignKey }

func (p IntegerParams) clone() Params  { return p }
func (p FloatParams) clone() Params    { return p }
func (p TextParams) clone() Params     { return p }
func (p DateParams) clone() Params     { return p }
func (p TimeParams) clone() Params     { return p }
func (p DatetimeParams) clone() Params { return p }
func (p BooleanParams) clone() Params  { return p }
func (p ForeignKeyParams) clone() Params {
	return p
}

func (p CategoricalParams) clone() Params {
	cp := CategoricalParams{}
	if p.Choices != nil {
		cp.Choices = append([]string(nil), p.Choices...)
	}
	if p.Weights != nil {
		cp.Weights = append([]float64(nil), p.Weights...)
	}
	return cp
}

// DefaultParams returns the parameters a freshly added column of type t gets
func DefaultParams(t ColumnType) Params {
	switch t {
	case TypeInteger:
		return IntegerParams{Min: 0, Max: 1000}
	case TypeFloat:
		return FloatParams{Min: 0, Max: 1000, Decimals: 2}
	case TypeText:
		return TextParams{MinLength: 5, MaxLength: 50}
	case TypeDate:
		return DateParams{Start: "2020-01-01", End: "2024-12-31"}
	case TypeTime:
		return TimeParams{Start: "00:00", End: "23:59"}
	case TypeDatetime:
		return DatetimeParams{Start: "2020-01-01T00:00:00Z", End: "2024-12-31T23:59:59Z"}
	case TypeCategorical:
		return CategoricalParams{Choices: []string{"A", "B", "C"}}
	case TypeBoolean:
		return BooleanParams{TrueRatio: 0.5}
	case TypeForeignKey:
		return ForeignKeyParams{}
	}
	return nil
}

// ForeignKeyTarget returns the referenced table id of a foreign key column
func (c Column) ForeignKeyTarget() (string, bool) {
	fk, ok := c.Params.(ForeignKeyParams)
	if !ok || fk.TargetTableID == "" {
		return "", false
	}
	return fk.TargetTableID, true
}

type columnJSON struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Type   ColumnType      `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// MarshalJSON encodes the params under the column's type tag
func (c Column) MarshalJSON() ([]byte, error) {
	out := columnJSON{ID: c.ID, Name: c.Name, Type: c.Type}
	if c.Params != nil {
		raw, err := json.Marshal(c.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode params of column %s: %w", c.Name, err)
		}
		out.Params = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the params into the variant selected by the type tag
func (c *Column) UnmarshalJSON(data []byte) error {
	var in columnJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	params, err := DecodeParams(in.Type, in.Params)
	if err != nil {
		return fmt.Errorf("column %s: %w", in.Name, err)
	}
	*c = Column{ID: in.ID, Name: in.Name, Type: in.Type, Params: params}
	return nil
}

// DecodeParams decodes raw JSON params for type t. Empty input yields the
// defaults of t.
func DecodeParams(t ColumnType, raw json.RawMessage) (Params, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumnType, t)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultParams(t), nil
	}

	var (
		p   Params
		err error
	)
	switch t {
	case TypeInteger:
		var v IntegerParams
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeFloat:
		var v FloatParams
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeText:
		var v TextParams
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeDate:
		var v DateParams
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeTime:
		var v TimeParams
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeDatetime:
		var v DatetimeParams
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeCategorical:
		var v CategoricalParams
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeBoolean:
		var v BooleanParams
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeForeignKey:
		var v ForeignKeyParams
		err = json.Unmarshal(raw, &v)
		p = v
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s params: %w", t, err)
	}
	return p, nil
}
