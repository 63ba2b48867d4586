package timezone

import (
	"fmt"
	"strings"
	"time"
)

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
}

// WallClock is a time of day on the organization clock.
type WallClock struct {
	Hour   int
	Minute int
	Second int
}

// ParseWallClock accepts 24-hour ("17:10", "17:10:05") and 12-hour
// ("5:10 PM", "5:10:05 p.m.") clock strings as written by browsers.
func ParseWallClock(s string) (WallClock, error) {
	norm := strings.NewReplacer(
		"\u202f", " ", // narrow no-break space emitted by newer ICU before AM/PM
		"\u00a0", " ",
		".", "",
	).Replace(strings.TrimSpace(s))
	norm = strings.ToUpper(norm)

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return WallClock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return WallClock{}, fmt.Errorf("%w: clock %q", ErrMalformedTimestamp, s)
}

// SinceMidnight returns the offset of c from 00:00:00.
func (c WallClock) SinceMidnight() time.Duration {
	return time.Duration(c.Hour)*time.Hour +
		time.Duration(c.Minute)*time.Minute +
		time.Duration(c.Second)*time.Second
}

// Before reports whether c is strictly earlier in the day than o.
func (c WallClock) Before(o WallClock) bool {
	return c.SinceMidnight() < o.SinceMidnight()
}

// Add returns c shifted by d, wrapping around midnight.
func (c WallClock) Add(d time.Duration) WallClock {
	total := (c.SinceMidnight() + d) % (24 * time.Hour)
	if total < 0 {
		total += 24 * time.Hour
	}
	secs := int(total / time.Second)
	return WallClock{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}
}

func (c WallClock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// MarshalText renders the clock as HH:MM:SS.
func (c WallClock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts any layout ParseWallClock does.
func (c *WallClock) UnmarshalText(b []byte) error {
	parsed, err := ParseWallClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
