package bodies

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrBadSCLK is returned for clock strings that do not parse.
var ErrBadSCLK = errors.New("bad spacecraft clock count")

// GalileoBases are the radices of the Galileo SSI clock fields.
var GalileoBases = []int64{16777215, 91, 10, 8}

// SplitCount parses a clock count into four fields. Any non-alphanumeric
// character separates fields; missing trailing fields are zero.
func SplitCount(count string) ([4]int64, error) {
	var out [4]int64
	parts := strings.FieldsFunc(count, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(parts) == 0 || len(parts) > 4 {
		return out, fmt.Errorf("%w: %q", ErrBadSCLK, count)
	}
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return out, fmt.Errorf("%w: %q", ErrBadSCLK, count)
		}
		out[i] = v
	}
	return out, nil
}

// Ticks converts a clock count to ticks using mixed-radix bases. The first
// base bounds the leading field and does not enter the product.
func Ticks(count string, bases []int64) (int64, error) {
	fields, err := SplitCount(count)
	if err != nil {
		return 0, err
	}
	if len(bases) != 4 {
		return 0, fmt.Errorf("sclk: %d bases, need 4", len(bases))
	}
	ticks := fields[0]
	for i := 1; i < 4; i++ {
		if fields[i] >= bases[i] {
			return 0, fmt.Errorf("%w: field %d of %q exceeds base %d", ErrBadSCLK, i, count, bases[i])
		}
		ticks = ticks*bases[i] + fields[i]
	}
	return ticks, nil
}

// Era assigns a primary and its always-included secondaries to an inclusive
// range of clock counts.
type Era struct {
	Start       string
	Stop        string
	Primary     string
	Secondaries []string
}

// GalileoEras is the default primary table for Galileo SSI.
var GalileoEras = []Era{
	{Start: "00180626.00", Stop: "00190641.00", Primary: "VENUS"},
	{Start: "00597197.00", Stop: "00623035.00", Primary: "EARTH"},
	{Start: "01645330.00", Stop: "01663247.00", Primary: "EARTH"},
	{Start: "01973272.00", Stop: "06475387.00", Primary: "JUPITER"},
}

type tickEra struct {
	start, stop int64
	era         Era
}

// Table resolves clock counts to primaries.
type Table struct {
	bases []int64
	eras  []tickEra
}

// NewTable converts eras to tick ranges once.
func NewTable(eras []Era, bases []int64) (*Table, error) {
	t := &Table{bases: bases}
	for _, e := range eras {
		start, err := Ticks(e.Start, bases)
		if err != nil {
			return nil, err
		}
		stop, err := Ticks(e.Stop, bases)
		if err != nil {
			return nil, err
		}
		if stop < start {
			return nil, fmt.Errorf("sclk: era %s..%s is reversed", e.Start, e.Stop)
		}
		t.eras = append(t.eras, tickEra{start: start, stop: stop, era: e})
	}
	return t, nil
}

// Primary returns the primary and secondaries in effect at count, or "" when
// no era covers it.
func (t *Table) Primary(count string) (string, []string, error) {
	if t == nil {
		return "", nil, nil
	}
	ticks, err := Ticks(count, t.bases)
	if err != nil {
		return "", nil, err
	}
	for _, e := range t.eras {
		if ticks >= e.start && ticks <= e.stop {
			return e.era.Primary, e.era.Secondaries, nil
		}
	}
	return "", nil, nil
}
