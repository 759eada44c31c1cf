// Package bodies holds the body catalog: planets, their regular moons, ring
// systems, and target-name translations.
package bodies

import "strings"

// Null is the target name of a placeholder column that never has data.
const Null = "null"

// Placeholder is replaced by a body name when column templates are expanded.
const Placeholder = "bodyx"

// NameLength is the width of a body-name field in a row prefix.
const NameLength = 12

// Planets are the primaries, in catalog order.
var Planets = []string{
	"MERCURY",
	"VENUS",
	"EARTH",
	"MARS",
	"JUPITER",
	"SATURN",
	"URANUS",
	"NEPTUNE",
	"PLUTO",
}

// RingSystemRadii is the outer radius in km of each planet's ring system;
// zero means the planet has no rings.
var RingSystemRadii = map[string]float64{
	"MERCURY": 0,
	"VENUS":   0,
	"EARTH":   0,
	"MARS":    0,
	"JUPITER": 128940,
	"SATURN":  136780,
	"URANUS":  51604,
	"NEPTUNE": 62940,
	"PLUTO":   0,
}

// RegularMoons lists each planet's regular satellites.
var RegularMoons = map[string][]string{
	"EARTH":   {"MOON"},
	"MARS":    {"PHOBOS", "DEIMOS"},
	"JUPITER": {"IO", "EUROPA", "GANYMEDE", "CALLISTO", "AMALTHEA", "THEBE", "ADRASTEA", "METIS"},
	"SATURN": {"MIMAS", "ENCELADUS", "TETHYS", "DIONE", "RHEA", "TITAN", "HYPERION", "IAPETUS",
		"JANUS", "EPIMETHEUS", "PROMETHEUS", "PANDORA", "PAN", "ATLAS", "DAPHNIS"},
	"URANUS":  {"MIRANDA", "ARIEL", "UMBRIEL", "TITANIA", "OBERON", "PUCK"},
	"NEPTUNE": {"TRITON", "PROTEUS", "LARISSA", "GALATEA", "DESPINA", "THALASSA", "NAIAD"},
	"PLUTO":   {"CHARON", "NIX", "HYDRA", "KERBEROS", "STYX"},
}

// RingedPrimary is the only primary whose main rings occlude and shadow
// other surfaces.
const RingedPrimary = "SATURN"

// Translations maps target names found in observation metadata to catalog
// names.
var Translations = map[string]string{
	"S RINGS": "SATURN",
	"J RINGS": "JUPITER",
	"U RINGS": "URANUS",
	"N RINGS": "NEPTUNE",
	"SL9":     "JUPITER",
}

// All returns the planets each followed by its regular moons.
func All() []string {
	var out []string
	for _, p := range Planets {
		out = append(out, p)
		out = append(out, RegularMoons[p]...)
	}
	return out
}

// IsPlanet reports whether name is a primary.
func IsPlanet(name string) bool {
	for _, p := range Planets {
		if p == name {
			return true
		}
	}
	return false
}

// Known reports whether name is a planet or regular moon.
func Known(name string) bool {
	for _, b := range All() {
		if b == name {
			return true
		}
	}
	return false
}

// HasRings reports whether primary has a ring system.
func HasRings(primary string) bool {
	return RingSystemRadii[primary] > 0
}

// MainRings returns the occluding ring body of primary, or "".
func MainRings(primary string) string {
	if primary == RingedPrimary {
		return primary + "_MAIN_RINGS"
	}
	return ""
}

// Companions returns the bodies that occlude and shadow alongside primary.
func Companions(primary string) []string {
	if primary == "PLUTO" {
		return []string{"CHARON"}
	}
	return nil
}

// Translate maps a metadata target name to its catalog name.
func Translate(target string) string {
	t := strings.ToUpper(strings.TrimSpace(target))
	if tr, ok := Translations[t]; ok {
		return tr
	}
	return t
}

// PrimaryName is the body part of a surface name such as "SATURN:RING".
func PrimaryName(target string) string {
	name, _, _ := strings.Cut(target, ":")
	return name
}
