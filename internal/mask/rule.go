// Package mask composes the exclusion masks that hide samples occluded,
// shadowed, or on the wrong face of a surface.
package mask

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadRule is returned for unknown mask flag letters.
var ErrBadRule = errors.New("bad mask rule")

// Flags selects which bodies may occlude or shadow a target.
type Flags uint8

const (
	Primary Flags = 1 << iota // P: the primary planet (and its companion)
	Rings                     // R: the main rings of the ringed primary
	Blocker                   // M: the observation's blocker body
)

// Face selects which hemisphere of a surface survives.
type Face uint8

const (
	Day   Face = 1 << iota // D: exclude the antisunward side
	Night                  // N: exclude the sunward side
)

// Rule is a parsed (masker, shadower, face) triple.
type Rule struct {
	Masker   Flags
	Shadower Flags
	Face     Face
}

// ParseRule converts flag strings such as ("RM", "R", "D").
func ParseRule(masker, shadower, face string) (Rule, error) {
	var r Rule
	var err error
	if r.Masker, err = parseFlags(masker); err != nil {
		return Rule{}, err
	}
	if r.Shadower, err = parseFlags(shadower); err != nil {
		return Rule{}, err
	}
	for _, c := range face {
		switch c {
		case 'D':
			r.Face |= Day
		case 'N':
			r.Face |= Night
		default:
			return Rule{}, fmt.Errorf("%w: face %q", ErrBadRule, face)
		}
	}
	return r, nil
}

// MustRule is ParseRule for static tables.
func MustRule(masker, shadower, face string) Rule {
	r, err := ParseRule(masker, shadower, face)
	if err != nil {
		panic(err)
	}
	return r
}

func parseFlags(s string) (Flags, error) {
	var f Flags
	for _, c := range s {
		switch c {
		case 'P':
			f |= Primary
		case 'R':
			f |= Rings
		case 'M':
			f |= Blocker
		default:
			return 0, fmt.Errorf("%w: flag %q in %q", ErrBadRule, c, s)
		}
	}
	return f, nil
}

func (f Flags) String() string {
	var b strings.Builder
	if f&Primary != 0 {
		b.WriteByte('P')
	}
	if f&Rings != 0 {
		b.WriteByte('R')
	}
	if f&Blocker != 0 {
		b.WriteByte('M')
	}
	return b.String()
}

func (f Face) String() string {
	var b strings.Builder
	if f&Day != 0 {
		b.WriteByte('D')
	}
	if f&Night != 0 {
		b.WriteByte('N')
	}
	return b.String()
}

func (r Rule) String() string {
	return r.Masker.String() + "/" + r.Shadower.String() + "/" + r.Face.String()
}

// Empty reports whether the rule excludes nothing.
func (r Rule) Empty() bool { return r == Rule{} }
