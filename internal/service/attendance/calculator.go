package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// ShiftPolicy is the organization's expected start and tolerance, used to
// derive lateness when a record carries no explicit flag.
type ShiftPolicy struct {
	ExpectedStart *timezone.WallClock
	GracePeriod   time.Duration
}

// Annotate returns a copy of s with session type, hours worked and lateness
// filled in. ErrCorruptSession is returned when the clock-in and clock-out
// instants stay reversed after the overnight rollover.
func Annotate(s attendance.Session, policy ShiftPolicy) (attendance.Session, error) {
	out := s
	out.SessionType = sessionType(s)

	hours, err := hoursWorked(s)
	if err != nil {
		return attendance.Session{}, err
	}
	out.HoursWorked = hours

	out.IsLate, out.OnTime, out.LatenessSource = lateness(s, policy)
	return out, nil
}

func sessionType(s attendance.Session) attendance.SessionType {
	switch {
	case s.ClockIn != nil && s.ClockOut != nil:
		return attendance.CompleteSession
	case s.ClockIn != nil:
		return attendance.ClockInOnly
	default:
		return attendance.ClockOutOnly
	}
}

// maxOffsetShift bounds how far an absolute duration may drift from the
// wall-clock one. Larger gaps mean the stored instants belong to other days.
const maxOffsetShift = time.Hour

// hoursWorked is nil unless both clock times are present. The wall-clock
// difference, rolled over midnight at most once, is the duration. Absolute
// timestamps replace it when both are known and agree with it to within a
// DST shift, so transitions count. Instants that run backwards even after the
// rollover are a corrupt session.
func hoursWorked(s attendance.Session) (*decimal.Decimal, error) {
	if s.ClockIn == nil || s.ClockOut == nil {
		return nil, nil
	}

	d := rollover(s.ClockOut.SinceMidnight() - s.ClockIn.SinceMidnight())

	if s.ClockInTimestamp != nil && s.ClockOutTimestamp != nil {
		abs := rollover(time.Duration(*s.ClockOutTimestamp-*s.ClockInTimestamp) * time.Millisecond)
		if abs < 0 {
			return nil, fmt.Errorf("%w: %s to %s", attendance.ErrCorruptSession, s.ClockIn, s.ClockOut)
		}
		if abs < 24*time.Hour && (abs-d).Abs() <= maxOffsetShift {
			d = abs
		}
	}

	hours := decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour).Round(2)
	return &hours, nil
}

func rollover(d time.Duration) time.Duration {
	if d < 0 {
		return d + 24*time.Hour
	}
	return d
}

func lateness(s attendance.Session, policy ShiftPolicy) (isLate, onTime bool, source attendance.LatenessSource) {
	if s.ClockIn == nil {
		return false, false, attendance.LatenessNone
	}

	switch {
	case s.ExplicitIsLate != nil:
		return *s.ExplicitIsLate, !*s.ExplicitIsLate, attendance.LatenessExplicit
	case s.ExplicitOnTime != nil:
		return !*s.ExplicitOnTime, *s.ExplicitOnTime, attendance.LatenessExplicit
	case s.ShiftScheduled && policy.ExpectedStart != nil:
		late := s.ClockIn.SinceMidnight() > policy.ExpectedStart.SinceMidnight()+policy.GracePeriod
		return late, !late, attendance.LatenessDerived
	default:
		return false, true, attendance.LatenessDefault
	}
}
