// Package timezone attributes timestamps to calendar dates in a single fixed
// organization timezone. Every date the attendance pipeline produces goes
// through a Resolver; nothing reads the host's local zone.
package timezone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // containers often ship without zoneinfo
)

// DateLayout is the canonical organization date format.
const DateLayout = "2006-01-02"

// ErrMalformedTimestamp is returned for any date/time input that cannot be parsed.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// minEpochMillis is the smallest numeric string read as epoch milliseconds
// (March 1973). Shorter digit runs such as "20240107" are rejected.
const minEpochMillis = 100_000_000_000

var (
	offsetLayouts = []string{time.RFC3339Nano, time.RFC3339}
	localLayouts  = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
)

// Resolver converts timestamps into organization dates and wall-clock times.
type Resolver struct {
	loc *time.Location
}

// NewResolver loads the IANA zone the organization operates in.
func NewResolver(name string) (*Resolver, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("timezone name is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return &Resolver{loc: loc}, nil
}

// Location returns the organization location.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Name returns the IANA name of the organization location.
func (r *Resolver) Name() string {
	return r.loc.String()
}

// Input is one of the accepted timestamp shapes: epoch millis, an ISO string,
// or a (date, time) pair already expressed as organization wall-clock time.
type Input struct {
	Millis *int64
	ISO    string
	Date   string
	Time   string
}

// FromMillis wraps an epoch-millisecond timestamp.
func FromMillis(ms int64) Input {
	return Input{Millis: &ms}
}

// FromISO wraps an ISO-8601 string.
func FromISO(s string) Input {
	return Input{ISO: s}
}

// FromWallClock wraps a date and time observed on an organization clock.
func FromWallClock(date, clock string) Input {
	return Input{Date: date, Time: clock}
}

// ToOrganizationDate returns the calendar date of in as observed in the
// organization timezone.
func (r *Resolver) ToOrganizationDate(in Input) (string, error) {
	switch {
	case in.Millis != nil:
		return r.DateFromMillis(*in.Millis), nil
	case in.ISO != "":
		return r.DateFromISO(in.ISO)
	case in.Date != "":
		return r.DateFromWallClock(in.Date, in.Time)
	default:
		return "", fmt.Errorf("%w: empty input", ErrMalformedTimestamp)
	}
}

// DateFromMillis returns the organization date of an epoch-millisecond timestamp.
func (r *Resolver) DateFromMillis(ms int64) string {
	return time.UnixMilli(ms).In(r.loc).Format(DateLayout)
}

// ClockFromMillis returns the organization wall-clock time of an epoch-millisecond timestamp.
func (r *Resolver) ClockFromMillis(ms int64) WallClock {
	t := time.UnixMilli(ms).In(r.loc)
	return WallClock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// DateFromISO parses s and returns its organization date. Strings carrying
// an offset are converted; strings without one are read as organization
// wall-clock time.
func (r *Resolver) DateFromISO(s string) (string, error) {
	t, err := r.ParseTime(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// DateFromWallClock validates a (date, time) pair that is already organization
// wall-clock time and returns the date unchanged.
func (r *Resolver) DateFromWallClock(date, clock string) (string, error) {
	if _, err := time.Parse(DateLayout, strings.TrimSpace(date)); err != nil {
		return "", fmt.Errorf("%w: date %q", ErrMalformedTimestamp, date)
	}
	if strings.TrimSpace(clock) != "" {
		if _, err := ParseWallClock(clock); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(date), nil
}

// ParseTime parses an ISO-8601 string, a bare date, or a numeric epoch-millisecond
// string into an instant expressed in the organization location.
func (r *Resolver) ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrMalformedTimestamp)
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(r.loc), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, r.loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(DateLayout, s, r.loc); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms >= minEpochMillis {
		return time.UnixMilli(ms).In(r.loc), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// Today returns the organization date at instant now.
func (r *Resolver) Today(now time.Time) string {
	return now.In(r.loc).Format(DateLayout)
}

// ParseDate parses an organization date as a civil date (midnight UTC), which
// keeps day arithmetic free of DST gaps.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformedTimestamp, date)
	}
	return t, nil
}

// AddDays shifts an organization date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// Weekday returns the weekday of an organization date.
func Weekday(date string) (time.Weekday, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}
