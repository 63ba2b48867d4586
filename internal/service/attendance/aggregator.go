package attendance

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Aggregator computes windowed performance metrics from annotated sessions.
type Aggregator struct {
	// FullDayHours is the minimum hoursWorked for a day to extend the perfect streak.
	FullDayHours decimal.Decimal
	// ExpectedStart is the reference for early arrivals; nil disables the metric.
	ExpectedStart *timezone.WallClock
}

// Aggregate returns metrics for the window [now-windowDays, now], both ends
// inclusive. now is an organization date. The comparison window is the span
// of equal length ending the day before the window starts.
func (a Aggregator) Aggregate(sessions []attendance.Session, windowDays int, now string) (attendance.PerformanceMetrics, error) {
	if windowDays < 1 {
		return attendance.PerformanceMetrics{}, fmt.Errorf("window must be at least one day, got %d", windowDays)
	}

	start, err := timezone.AddDays(now, -windowDays)
	if err != nil {
		return attendance.PerformanceMetrics{}, err
	}
	prevEnd, _ := timezone.AddDays(start, -1)
	prevStart, _ := timezone.AddDays(prevEnd, -windowDays)

	metrics := attendance.PerformanceMetrics{
		WindowDays:          windowDays,
		WindowStart:         start,
		WindowEnd:           now,
		AttendanceRate:      decimal.Zero,
		PunctualityRate:     decimal.Zero,
		TotalHours:          decimal.Zero,
		AvgHoursPerDay:      decimal.Zero,
		PreviousWindowHours: decimal.Zero,
		HoursChangePercent:  decimal.Zero,
		EarlyArrivalRate:    decimal.Zero,
	}

	var current []attendance.Session
	prevHours := decimal.Zero
	for _, s := range sessions {
		switch {
		case inRange(s.Date, start, now):
			current = append(current, s)
		case inRange(s.Date, prevStart, prevEnd):
			prevHours = prevHours.Add(hoursOf(s))
		}
	}
	if len(current) == 0 {
		return metrics, nil
	}

	var (
		present, onTime, early int
		weekdays               [7]int
	)
	totalHours := decimal.Zero
	days := make(map[string]struct{})
	for _, s := range current {
		days[s.Date] = struct{}{}
		totalHours = totalHours.Add(hoursOf(s))
		if wd, err := timezone.Weekday(s.Date); err == nil {
			weekdays[wd]++
		}

		if !s.HasClockIn() {
			continue
		}
		present++
		if s.OnTime {
			onTime++
		}
		if a.ExpectedStart != nil && s.ClockIn.Before(*a.ExpectedStart) {
			early++
		}
	}

	metrics.SessionCount = len(current)
	metrics.PresentCount = present
	metrics.OnTimeCount = onTime
	metrics.AttendanceRate = percentage(present, len(current))
	metrics.PunctualityRate = percentage(onTime, present)
	metrics.TotalHours = totalHours.Round(2)
	metrics.AvgHoursPerDay = totalHours.Div(decimal.NewFromInt(int64(len(days)))).Round(2)
	metrics.PreviousWindowHours = prevHours.Round(2)
	if !prevHours.IsZero() {
		metrics.HoursChangePercent = totalHours.Sub(prevHours).Div(prevHours).Mul(hundred).Round(1)
	}
	metrics.PerfectStreak = a.perfectStreak(current)
	if a.ExpectedStart != nil {
		metrics.EarlyArrivalRate = percentage(early, present)
	}
	metrics.MostActiveWeekday = mostActiveWeekday(weekdays)

	return metrics, nil
}

// perfectStreak counts consecutive sessions, newest first, that have a
// clock-in and at least FullDayHours worked.
func (a Aggregator) perfectStreak(sessions []attendance.Session) int {
	ordered := slices.Clone(sessions)
	SortSessions(ordered, true)

	streak := 0
	for _, s := range ordered {
		if !s.HasClockIn() || s.HoursWorked == nil || s.HoursWorked.LessThan(a.FullDayHours) {
			break
		}
		streak++
	}
	return streak
}

// SortSessions orders sessions by date, then timestamp, then clock-in time,
// then source key. desc reverses the whole order.
func SortSessions(sessions []attendance.Session, desc bool) {
	slices.SortStableFunc(sessions, func(a, b attendance.Session) int {
		c := compareSessions(a, b)
		if desc {
			return -c
		}
		return c
	})
}

func compareSessions(a, b attendance.Session) int {
	if c := strings.Compare(a.Date, b.Date); c != 0 {
		return c
	}
	if c := compareOptional(a.Timestamp, b.Timestamp, cmp.Compare[int64]); c != 0 {
		return c
	}
	if c := compareOptional(a.ClockIn, b.ClockIn, func(x, y timezone.WallClock) int {
		return cmp.Compare(x.SinceMidnight(), y.SinceMidnight())
	}); c != 0 {
		return c
	}
	return strings.Compare(a.SourceKey, b.SourceKey)
}

// compareOptional sorts nil before any value.
func compareOptional[T any](a, b *T, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return compare(*a, *b)
	}
}

func mostActiveWeekday(counts [7]int) *string {
	best := -1
	for day := time.Sunday; day <= time.Saturday; day++ {
		if counts[day] == 0 {
			continue
		}
		if best < 0 || counts[day] > counts[best] {
			best = int(day)
		}
	}
	if best < 0 {
		return nil
	}
	name := time.Weekday(best).String()
	return &name
}

func inRange(date, from, to string) bool {
	return date >= from && date <= to
}

func hoursOf(s attendance.Session) decimal.Decimal {
	if s.HoursWorked == nil {
		return decimal.Zero
	}
	return *s.HoursWorked
}

// percentage returns part/whole*100 to one decimal place, 0 when whole is 0,
// clamped to [0, 100].
func percentage(part, whole int) decimal.Decimal {
	if whole <= 0 {
		return decimal.Zero
	}
	p := decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(1)
	switch {
	case p.LessThan(decimal.Zero):
		return decimal.Zero
	case p.GreaterThan(hundred):
		return hundred
	}
	return p
}
