// Package curve builds and edits outcome constraint curves: preset
// generation, per-point editing, scaling at commit time, and the two wire
// shapes consumed by the remote generator.
package curve

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPeriods is the canonical curve length, one point per month
const DefaultPeriods = 12

// Preset names a built-in curve pattern
type Preset string

const (
	PresetLinear      Preset = "linear"
	PresetHockeyStick Preset = "hockey_stick"
	PresetSeasonal    Preset = "seasonal"
	PresetFlat        Preset = "flat"
	PresetDecline     Preset = "decline"
)

// ErrUnknownPreset is returned for a preset name outside Presets
var ErrUnknownPreset = errors.New("unknown curve preset")

// FlatValue is the level of the flat preset
const FlatValue = 100000

// seasonal multipliers for January..December, peaking in December
var seasonalFactors = [12]float64{0.70, 0.65, 0.75, 0.80, 0.85, 0.90, 0.85, 0.80, 0.90, 1.00, 1.20, 1.50}

var generators = map[Preset]func(periods int) []float64{
	PresetLinear: func(n int) []float64 {
		return fill(n, func(i int) float64 { return 10000 * float64(i+1) })
	},
	PresetHockeyStick: func(n int) []float64 {
		return fill(n, func(i int) float64 {
			x := progress(i, n)
			return 10000 * (1 + 9*x*x*x)
		})
	},
	PresetSeasonal: func(n int) []float64 {
		return fill(n, func(i int) float64 { return FlatValue * seasonalFactors[i%len(seasonalFactors)] })
	},
	PresetFlat: func(n int) []float64 {
		return fill(n, func(int) float64 { return FlatValue })
	},
	PresetDecline: func(n int) []float64 {
		return fill(n, func(i int) float64 { return FlatValue * (1 - 0.9*progress(i, n)) })
	},
}

// Presets lists the built-in presets in display order
func Presets() []Preset {
	return []Preset{PresetLinear, PresetHockeyStick, PresetSeasonal, PresetFlat, PresetDecline}
}

// Valid reports whether p names a built-in preset
func (p Preset) Valid() bool {
	_, ok := generators[p]
	return ok
}

// Generate returns the raw values of preset p over the given number of
// periods. A non-positive period count means DefaultPeriods. The result
// depends on nothing but its arguments.
func Generate(p Preset, periods int) ([]float64, error) {
	gen, ok := generators[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
	if periods <= 0 {
		periods = DefaultPeriods
	}
	return gen(periods), nil
}

func fill(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round(f(i)*100) / 100
	}
	return out
}

// progress maps period i of n onto [0,1]
func progress(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return float64(i) / float64(n-1)
}
