// Package columns declares the geometry columns of each table and the tile
// sets of detailed tables.
package columns

import (
	"geotab/internal/backplane"
	"geotab/internal/bodies"
	"geotab/internal/mask"
)

// Descriptor is one column: the quantity, its mask rule, and an optional
// alternate-format tag.
type Descriptor struct {
	Key  backplane.Key
	Rule mask.Rule
	FormatTag string
}

// Name identifies the column in diagnostics.
func (d Descriptor) Name() string {
	if d.FormatTag == "" {
		return d.Key.String()
	}
	return d.Key.String() + "/" + d.FormatTag
}

var (
	noMask = mask.Rule{}
	bodyRD = mask.MustRule("RM", "R", "D")
	bodyR  = mask.MustRule("RM", "R", "")
	bodyM  = mask.MustRule("RM", "", "")
	ringP  = mask.MustRule("PM", "P", "")
	ringM  = mask.MustRule("PM", "", "")
)

func col(rule mask.Rule, quantity, target string, params ...any) Descriptor {
	return Descriptor{Key: backplane.NewKey(quantity, target, params...), Rule: rule}
}

func tagged(d Descriptor, tag string) Descriptor {
	d.FormatTag = tag
	return d
}

func skyColumns() []Descriptor {
	return []Descriptor{
		col(noMask, "right_ascension", ""),
		col(noMask, "declination", ""),
	}
}

func sunColumns(gridless bool) []Descriptor {
	const sun = "SUN"
	out := []Descriptor{
		col(noMask, "latitude", sun, "centric"),
		col(noMask, "latitude", sun, "graphic"),
		col(noMask, "longitude", sun, "iau", "west"),
		tagged(col(noMask, "longitude", sun, "obs", "west", -180), "-180"),
		col(noMask, "finest_resolution", sun),
		col(noMask, "coarsest_resolution", sun),
		col(noMask, "distance", sun),
		col(noMask, "event_time", sun),
	}
	if !gridless {
		return out
	}
	return append(out,
		col(noMask, "sub_observer_latitude", sun, "centric"),
		col(noMask, "sub_observer_latitude", sun, "graphic"),
		col(noMask, "sub_observer_longitude", sun, "iau", "west"),
		col(noMask, "center_resolution", sun, "u"),
		col(noMask, "center_distance", sun, "obs"),
		col(noMask, "radius_in_pixels", sun),
		col(noMask, "center_coordinate", sun, "x"),
		col(noMask, "center_coordinate", sun, "y"),
	)
}

func bodyColumns(b string, gridless bool) []Descriptor {
	out := []Descriptor{
		col(bodyRD, "latitude", b, "centric"),
		col(bodyRD, "latitude", b, "graphic"),
		col(bodyRD, "longitude", b, "iau", "west"),
		col(bodyR, "longitude", b, "sha", "east"),
		tagged(col(bodyRD, "longitude", b, "obs", "west"), "-180"),
		col(bodyRD, "finest_resolution", b),
		col(bodyRD, "coarsest_resolution", b),
		col(bodyM, "distance", b),
		col(bodyM, "phase_angle", b),
		col(bodyM, "incidence_angle", b),
		col(bodyM, "emission_angle", b),
		col(noMask, "limb_altitude", b, -0.01, 1000, true),
		col(noMask, "limb_clock_angle", b),
		col(bodyM, "event_time", b),
	}
	if !gridless {
		return out
	}
	return append(out,
		col(noMask, "sub_solar_latitude", b, "centric"),
		col(noMask, "sub_solar_latitude", b, "graphic"),
		col(noMask, "sub_observer_latitude", b, "centric"),
		col(noMask, "sub_observer_latitude", b, "graphic"),
		col(noMask, "sub_solar_longitude", b, "iau", "west"),
		col(noMask, "sub_observer_longitude", b, "iau", "west"),
		col(noMask, "center_resolution", b, "u"),
		col(noMask, "center_distance", b, "obs"),
		col(noMask, "center_phase_angle", b),
		col(noMask, "body_diameter_in_pixels", b),
		col(noMask, "pole_clock_angle", b),
		col(noMask, "pole_position_angle", b),
		col(noMask, "center_coordinate", b, "u"),
		col(noMask, "center_coordinate", b, "v"),
	)
}

func ringColumns(planet string, gridless bool) []Descriptor {
	ring := planet + ":RING"
	ansa := planet + ":ANSA"
	out := []Descriptor{
		col(ringP, "ring_radius", ring),
		col(ringP, "resolution", ring, "v"),
		col(ringP, "ring_radial_resolution", ring),
		col(ringP, "ring_angular_resolution", ring),
		tagged(col(ringP, "ring_angular_resolution", ring, "km"), "km"),
		col(ringP, "distance", ring),
		col(ringP, "ring_longitude", ring, "aries"),
		col(ringP, "ring_longitude", ring, "node"),
		col(ringM, "ring_longitude", ring, "sha"),
		tagged(col(ringP, "ring_longitude", ring, "obs"), "-180"),
		col(ringP, "ring_azimuth", ring, "obs"),
		col(ringP, "phase_angle", ring),
		col(ringP, "ring_incidence_angle", ring),
		col(ringP, "ring_incidence_angle", ring, "prograde"),
		col(ringP, "ring_emission_angle", ring),
		col(ringP, "ring_emission_angle", ring, "prograde"),
		col(ringP, "ring_elevation", ring, "sun"),
		col(ringP, "ring_elevation", ring, "obs"),
		col(ringP, "event_time", ring),

		col(ringP, "ansa_radius", ansa),
		col(ringP, "ansa_altitude", ansa),
		col(ringP, "ansa_radial_resolution", ansa),
		col(ringP, "distance", ansa),
		col(ringP, "ansa_longitude", ansa, "aries"),
		col(ringP, "ansa_longitude", ansa, "node"),
		col(ringP, "ansa_longitude", ansa, "sha"),
	}
	if !gridless {
		return out
	}
	return append(out,
		col(noMask, "center_distance", ring, "obs"),
		col(noMask, "ring_sub_solar_longitude", ring, "aries"),
		col(noMask, "ring_sub_solar_longitude", ring, "node"),
		col(noMask, "ring_sub_observer_longitude", ring, "aries"),
		col(noMask, "ring_sub_observer_longitude", ring, "node"),
		col(noMask, "center_phase_angle", ring),
		col(noMask, "ring_center_incidence_angle", ring),
		col(noMask, "ring_center_incidence_angle", ring, "prograde"),
		col(noMask, "ring_center_emission_angle", ring),
		col(noMask, "ring_center_emission_angle", ring, "prograde"),
		col(noMask, "sub_solar_latitude", ring),
		col(noMask, "sub_observer_latitude", ring),
		col(noMask, "body_diameter_in_pixels", ring, bodies.RingSystemRadii[planet]),
		col(noMask, "center_coordinate", planet, "u"),
		col(noMask, "center_coordinate", planet, "v"),
	)
}
