// Package attribute decides which optional per-point attributes a run
// produces and synthesizes their values.
package attribute

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tordrt/polyseed/internal/config"
)

// Kind names an optional attribute.
type Kind int

const (
	Text Kind = iota
	Integer
	Timestamp
)

// Kinds lists every attribute kind in canonical column order.
var Kinds = []Kind{Text, Integer, Timestamp}

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Set is a set of attribute kinds.
type Set uint8

// NewSet returns a set holding kinds.
func NewSet(kinds ...Kind) Set {
	var s Set
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns s plus k.
func (s Set) With(k Kind) Set { return s | 1<<uint(k) }

// Has reports whether k is in s.
func (s Set) Has(k Kind) bool { return s&(1<<uint(k)) != 0 }

// Len returns the number of kinds in s.
func (s Set) Len() int {
	n := 0
	for _, k := range Kinds {
		if s.Has(k) {
			n++
		}
	}
	return n
}

// Kinds returns the members of s in canonical order.
func (s Set) Kinds() []Kind {
	out := make([]Kind, 0, len(Kinds))
	for _, k := range Kinds {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, len(Kinds))
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before compares year, then month, then day.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) String() string {
	return d.Time().Format(time.DateOnly)
}

// Spec is the per-run attribute configuration.
type Spec struct {
	Active Set

	TextLength  int
	IntegerLow  int64
	IntegerHigh int64
	StartDate   Date
	EndDate     Date
}

// Lookup is the configuration capability Resolve needs.
type Lookup interface {
	Lookup(section, key string) (string, bool)
}

var flagKeys = map[Kind]string{
	Text:      "text",
	Integer:   "integer",
	Timestamp: "timestamp",
}

// Resolve reads the enabled flags and, for enabled attributes, validates
// their bounds. Bounds of disabled attributes are never read.
func Resolve(src Lookup) (Spec, error) {
	var spec Spec

	for _, k := range Kinds {
		raw, ok := src.Lookup(config.SectionColumns, flagKeys[k])
		if !ok {
			continue
		}
		on, err := parseFlag(raw)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: invalid %s flag %q", config.ErrConfig, k, raw)
		}
		if on {
			spec.Active = spec.Active.With(k)
		}
	}

	if spec.Active.Has(Text) {
		raw, _ := src.Lookup(config.SectionBounds, "text_length")
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Spec{}, fmt.Errorf("%w: invalid text length", config.ErrConfig)
		}
		spec.TextLength = n
	}

	if spec.Active.Has(Integer) {
		lowRaw, _ := src.Lookup(config.SectionBounds, "integer_low")
		highRaw, _ := src.Lookup(config.SectionBounds, "integer_high")
		low, errLow := strconv.ParseInt(lowRaw, 10, 64)
		high, errHigh := strconv.ParseInt(highRaw, 10, 64)
		if errLow != nil || errHigh != nil || low >= high {
			return Spec{}, fmt.Errorf("%w: invalid integer bounds", config.ErrConfig)
		}
		spec.IntegerLow, spec.IntegerHigh = low, high
	}

	if spec.Active.Has(Timestamp) {
		startRaw, _ := src.Lookup(config.SectionBounds, "timestamp_start")
		endRaw, _ := src.Lookup(config.SectionBounds, "timestamp_end")
		start, errStart := ParseDate(startRaw)
		end, errEnd := ParseDate(endRaw)
		if errStart != nil || errEnd != nil || !start.Before(end) {
			return Spec{}, fmt.Errorf("%w: invalid date bounds", config.ErrConfig)
		}
		spec.StartDate, spec.EndDate = start, end
	}

	return spec, nil
}

// ParseDate reads a YYYY-MM-DD shaped literal. Any non-digit separator is
// accepted, so 2020,01,31 and 2020/01/31 parse too.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) != 10 || isDigit(s[4]) || isDigit(s[7]) {
		return Date{}, fmt.Errorf("date %q is not of the form YYYY-MM-DD", s)
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if !isDigit(s[i]) {
			return Date{}, fmt.Errorf("date %q is not of the form YYYY-MM-DD", s)
		}
	}

	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[5:7])
	day, _ := strconv.Atoi(s[8:10])
	d := Date{Year: year, Month: time.Month(month), Day: day}

	t := d.Time()
	if t.Year() != year || t.Month() != d.Month || t.Day() != day {
		return Date{}, fmt.Errorf("date %q does not exist", s)
	}
	return d, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off", "":
		return false, nil
	}
	return strconv.ParseBool(s)
}
