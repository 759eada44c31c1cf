// Package format renders masked geometry grids as fixed-width table fields.
package format

import (
	"errors"
	"fmt"
)

// Flag selects the conversion applied to values before they are summarized.
type Flag string

const (
	FlagNone     Flag = ""
	FlagDeg      Flag = "DEG"  // radians to degrees
	Flag360      Flag = "360"  // radians to degrees, cyclic over [0,360)
	FlagMinus180 Flag = "-180" // radians to degrees, cyclic over [-180,180)
	FlagISO      Flag = "ISO"  // TAI seconds to a quoted ISO time
	FlagKM       Flag = "KM"   // already in kilometers
)

// Degrees converts the flag's values from radians.
func (f Flag) Degrees() bool {
	return f == FlagDeg || f == Flag360 || f == FlagMinus180
}

// Spec describes how one quantity is rendered.
type Spec struct {
	Flag     Flag
	Arity    int    // 1 = mean, 2 = [min, max]
	Width    int    // column width in characters
	Primary  string // printf format tried first
	Overflow string // printf format tried when Primary is too wide; "" = none
	Null     float64
	NullText string // overrides Null for text columns
}

// Errors reported for configuration defects. Both abort a run.
var (
	ErrColumnOverflow = errors.New("column overflow")
	ErrUnknownFormat  = errors.New("unknown format")
)

var (
	angle8 = Spec{Flag: FlagDeg, Arity: 2, Width: 8, Primary: "%8.3f", Null: -999}
	cyc8   = Spec{Flag: Flag360, Arity: 2, Width: 8, Primary: "%8.3f", Null: -999}
	km12   = Spec{Arity: 2, Width: 12, Primary: "%12.3f", Overflow: "%12.5e", Null: -999}
	alt12  = Spec{Arity: 2, Width: 12, Primary: "%12.3f", Overflow: "%12.5e", Null: -99999}
	res10  = Spec{Arity: 2, Width: 10, Primary: "%10.5f", Overflow: "%10.4e", Null: -999}
	sky10  = Spec{Arity: 2, Width: 10, Primary: "%10.6f", Overflow: "%10.5f", Null: -999}
	flag1  = Spec{Arity: 2, Width: 1, Primary: "%1d", Null: 0}
	m180   = Spec{Flag: FlagMinus180, Arity: 2, Width: 8, Primary: "%8.3f", Null: -999}
)

func with(s Spec, f Flag) Spec {
	s.Flag = f
	return s
}

func nullAt(s Spec, null float64) Spec {
	s.Null = null
	return s
}

var specs = map[string]Spec{
	"right_ascension":        with(sky10, Flag360),
	"center_right_ascension": with(sky10, Flag360),
	"declination":            with(sky10, FlagDeg),
	"center_declination":     with(sky10, FlagDeg),

	"distance":                km12,
	"center_distance":         km12,
	"center_coordinate":       nullAt(km12, -99999999.999),
	"radius_in_pixels":        km12,
	"ring_radius":             km12,
	"ansa_radius":             km12,
	"body_diameter_in_pixels": km12,

	"altitude":      alt12,
	"ansa_altitude": alt12,
	"limb_altitude": alt12,

	"resolution":               res10,
	"finest_resolution":        res10,
	"coarsest_resolution":      res10,
	"ring_radial_resolution":   res10,
	"ansa_radial_resolution":   res10,
	"ansa_vertical_resolution": res10,
	"center_resolution":        res10,
	"ring_angular_resolution":  with(res10, FlagDeg),

	"event_time": {Flag: FlagISO, Arity: 2, Width: 25, Primary: "%25s", Overflow: "%25s", NullText: `"UNK"`},

	"longitude":                   cyc8,
	"ring_longitude":              cyc8,
	"ring_azimuth":                cyc8,
	"ansa_longitude":              cyc8,
	"sub_solar_longitude":         cyc8,
	"sub_observer_longitude":      cyc8,
	"ring_sub_solar_longitude":    cyc8,
	"ring_sub_observer_longitude": cyc8,

	"latitude":                    angle8,
	"sub_solar_latitude":          angle8,
	"sub_observer_latitude":       angle8,
	"limb_clock_angle":            angle8,
	"pole_clock_angle":            angle8,
	"pole_position_angle":         angle8,
	"phase_angle":                 angle8,
	"center_phase_angle":          angle8,
	"incidence_angle":             angle8,
	"ring_incidence_angle":        angle8,
	"center_incidence_angle":      angle8,
	"ring_center_incidence_angle": angle8,
	"emission_angle":              angle8,
	"ring_emission_angle":         angle8,
	"center_emission_angle":       angle8,
	"ring_center_emission_angle":  angle8,
	"ring_elevation":              angle8,

	"where_inside_shadow": flag1,
	"where_in_front":      flag1,
	"where_in_back":       flag1,
	"where_antisunward":   flag1,
}

type altKey struct{ name, tag string }

var alternates = map[altKey]Spec{
	{"ring_angular_resolution", "km"}: with(res10, FlagKM),
	{"longitude", "-180"}:             m180,
	{"ring_longitude", "-180"}:        m180,
	{"sub_longitude", "-180"}:         m180,
}

// Lookup returns the spec for a quantity, or its alternate when tag is set.
func Lookup(name, tag string) (Spec, error) {
	if tag != "" {
		if s, ok := alternates[altKey{name, tag}]; ok {
			return s, nil
		}
		return Spec{}, fmt.Errorf("%w: %s/%s", ErrUnknownFormat, name, tag)
	}
	if s, ok := specs[name]; ok {
		return s, nil
	}
	return Spec{}, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

// Known reports whether a quantity has a spec.
func Known(name string) bool {
	_, ok := specs[name]
	return ok
}
