// Package timeutil converts between TAI seconds and civil UTC times.
package timeutil

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// J2000 is the TAI epoch, 2000-01-01T12:00:00 TAI.
var J2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

type leap struct {
	start  time.Time
	offset float64 // TAI - UTC in seconds from start onward
}

var leapSeconds = []leap{
	{date(1972, 1), 10},
	{date(1972, 7), 11},
	{date(1973, 1), 12},
	{date(1974, 1), 13},
	{date(1975, 1), 14},
	{date(1976, 1), 15},
	{date(1977, 1), 16},
	{date(1978, 1), 17},
	{date(1979, 1), 18},
	{date(1980, 1), 19},
	{date(1981, 7), 20},
	{date(1982, 7), 21},
	{date(1983, 7), 22},
	{date(1985, 7), 23},
	{date(1988, 1), 24},
	{date(1990, 1), 25},
	{date(1991, 1), 26},
	{date(1992, 7), 27},
	{date(1993, 7), 28},
	{date(1994, 7), 29},
	{date(1996, 1), 30},
	{date(1997, 7), 31},
	{date(1999, 1), 32},
	{date(2006, 1), 33},
	{date(2009, 1), 34},
	{date(2012, 7), 35},
	{date(2015, 7), 36},
	{date(2017, 1), 37},
}

func date(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// LeapOffset returns TAI-UTC in seconds at the given UTC time. Times before
// 1972 use the 1972 offset.
func LeapOffset(utc time.Time) float64 {
	i := sort.Search(len(leapSeconds), func(i int) bool { return leapSeconds[i].start.After(utc) })
	if i == 0 {
		return leapSeconds[0].offset
	}
	return leapSeconds[i-1].offset
}

// UTCFromTAI converts TAI seconds past J2000 to a UTC time.
func UTCFromTAI(tai float64) time.Time {
	// Clock reading in TAI, carried in a UTC-labelled time.Time.
	clock := J2000.Add(seconds(tai))
	offset := leapSeconds[0].offset
	for _, l := range leapSeconds {
		if clock.Before(l.start.Add(seconds(l.offset))) {
			break
		}
		offset = l.offset
	}
	return clock.Add(-seconds(offset))
}

// TAIFromUTC converts a UTC time to TAI seconds past J2000.
func TAIFromUTC(utc time.Time) float64 {
	return utc.Sub(J2000).Seconds() + LeapOffset(utc)
}

// ISOFromTAI renders TAI seconds as "YYYY-MM-DDTHH:MM:SS" with the given
// number of fractional digits.
func ISOFromTAI(tai float64, digits int) (string, error) {
	if math.IsNaN(tai) || math.IsInf(tai, 0) {
		return "", fmt.Errorf("timeutil: invalid TAI %v", tai)
	}
	t := UTCFromTAI(tai)
	if digits <= 0 {
		return t.Round(time.Second).Format("2006-01-02T15:04:05"), nil
	}
	if digits > 9 {
		digits = 9
	}
	unit := time.Duration(math.Pow10(9 - digits))
	layout := "2006-01-02T15:04:05." + zeros(digits)
	return t.Round(unit).Format(layout), nil
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
