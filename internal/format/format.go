package format

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"geotab/internal/angles"
	"geotab/internal/grid"
	"geotab/internal/timeutil"
)

// Clamp is the magnitude substituted for values too wide for any format.
const Clamp = 9.99e99

// Warning describes a value that was rendered after substitution.
type Warning string

type field struct {
	num    float64
	text   string
	isText bool
}

// Format summarizes values per spec and renders the comma-joined fields.
// Excluded samples never contribute. A fully excluded grid renders the null
// value in every field.
func Format(values grid.Grid, spec Spec) (string, []Warning, error) {
	if spec.Flag.Degrees() {
		values = values.Scale(180 / math.Pi)
	}

	fields := summarize(values, spec)

	var warns []Warning
	out := make([]string, len(fields))
	for i, f := range fields {
		if !f.isText && spec.Flag == FlagISO && !f.isNull(spec) {
			iso, err := timeutil.ISOFromTAI(f.num, 3)
			if err != nil {
				warns = append(warns, Warning(fmt.Sprintf("invalid event time %v replaced by null", f.num)))
				f = nullField(spec)
			} else {
				f = field{text: `"` + iso + `"`, isText: true}
			}
		}
		if !f.isText && (math.IsNaN(f.num) || math.IsInf(f.num, 0)) {
			warns = append(warns, Warning(fmt.Sprintf("invalid value %v replaced by null", f.num)))
			f = nullField(spec)
		}

		s, w, err := render(f, spec)
		if err != nil {
			return "", warns, err
		}
		if w != "" {
			warns = append(warns, w)
		}
		out[i] = s
	}
	return strings.Join(out, ","), warns, nil
}

func summarize(values grid.Grid, spec Spec) []field {
	included := values.Included()
	if spec.Arity == 1 {
		if len(included) == 0 {
			return []field{nullField(spec)}
		}
		return []field{{num: stat.Mean(included, nil)}}
	}

	if len(included) == 0 {
		return []field{nullField(spec), nullField(spec)}
	}
	if floats.HasNaN(included) {
		return []field{{num: math.NaN()}, {num: math.NaN()}}
	}

	var r [2]float64
	switch spec.Flag {
	case Flag360:
		r = angles.EstimateRange(included, false)
	case FlagMinus180:
		r = angles.EstimateRange(included, true)
	default:
		r = [2]float64{floats.Min(included), floats.Max(included)}
	}
	return []field{{num: r[0]}, {num: r[1]}}
}

func nullField(spec Spec) field {
	if spec.NullText != "" {
		return field{text: spec.NullText, isText: true}
	}
	return field{num: spec.Null}
}

func (f field) isNull(spec Spec) bool {
	if spec.NullText != "" {
		return f.isText && f.text == spec.NullText
	}
	return f.num == spec.Null
}

func render(f field, spec Spec) (string, Warning, error) {
	if f.isText {
		s := fmt.Sprintf(spec.Primary, f.text)
		if len(s) > spec.Width {
			return "", "", fmt.Errorf("%w: %q wider than %d", ErrColumnOverflow, f.text, spec.Width)
		}
		return s, "", nil
	}

	s := sprint(spec.Primary, f.num)
	if len(s) <= spec.Width {
		return s, "", nil
	}

	overflow := spec.Overflow
	if overflow == "" {
		overflow = spec.Primary
	}
	if s = sprint(overflow, f.num); len(s) <= spec.Width {
		return s, "", nil
	}

	clamped := math.Max(-Clamp, math.Min(Clamp, f.num))
	s = sprint(overflow, clamped)
	if len(s) > spec.Width {
		return "", "", fmt.Errorf("%w: %v does not fit %d characters", ErrColumnOverflow, f.num, spec.Width)
	}
	return s, Warning(fmt.Sprintf("value %v clamped to %s", f.num, strings.TrimSpace(s))), nil
}

// sprint applies a printf format to a number, truncating toward zero for
// integer verbs.
func sprint(format string, v float64) string {
	if strings.HasSuffix(format, "d") {
		return fmt.Sprintf(format, int64(v))
	}
	return fmt.Sprintf(format, v)
}
