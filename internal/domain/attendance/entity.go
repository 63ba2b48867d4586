package attendance

import (
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/shopspring/decimal"
)

type SessionType string

const (
	CompleteSession SessionType = "complete"
	ClockInOnly     SessionType = "clock_in_only"
	ClockOutOnly    SessionType = "clock_out_only"
)

type Provenance string

const (
	LegacyPaired Provenance = "legacy_paired"
	KeyedSession Provenance = "keyed_session"
)

// LatenessSource records which rule decided IsLate/OnTime.
type LatenessSource string

const (
	LatenessExplicit LatenessSource = "explicit" // flag stored on the raw record
	LatenessDerived  LatenessSource = "derived"  // clock-in compared to the expected start
	LatenessDefault  LatenessSource = "default"  // nothing known, assumed on time
	LatenessNone     LatenessSource = "none"     // no clock-in
)

// Session is one reconciled clock-in/clock-out record attributed to an
// organization date. Values are never mutated after construction; the
// calculator returns an annotated copy.
type Session struct {
	Date       string
	ClockIn    *timezone.WallClock
	ClockOut   *timezone.WallClock
	SourceKey  string
	Provenance Provenance

	// Epoch millis taken from the raw key or payload; used for ordering and,
	// when both clock timestamps are known, for exact durations.
	Timestamp         *int64
	ClockInTimestamp  *int64
	ClockOutTimestamp *int64

	// Raw lateness flags, nil when the record did not carry them.
	ExplicitIsLate *bool
	ExplicitOnTime *bool
	// ShiftScheduled is true when the record ties the session to a scheduled event.
	ShiftScheduled bool

	Status    *string
	Location  *string
	EventType *string

	// Filled by the calculator.
	SessionType    SessionType
	HoursWorked    *decimal.Decimal
	IsLate         bool
	OnTime         bool
	LatenessSource LatenessSource
}

// HasClockIn reports whether the session has a clock-in time.
func (s Session) HasClockIn() bool {
	return s.ClockIn != nil
}

// Tier is the rank label derived from an attendance rate.
type Tier string

const (
	TierRed    Tier = "red"
	TierOrange Tier = "orange"
	TierGreen  Tier = "green"
	TierBlue   Tier = "blue"
)

// Rank orders tiers Red < Orange < Green < Blue.
func (t Tier) Rank() int {
	switch t {
	case TierBlue:
		return 3
	case TierGreen:
		return 2
	case TierOrange:
		return 1
	default:
		return 0
	}
}

// PerformanceMetrics is derived from a session list on every request and never persisted.
type PerformanceMetrics struct {
	WindowDays          int
	WindowStart         string
	WindowEnd           string
	SessionCount        int
	PresentCount        int
	OnTimeCount         int
	AttendanceRate      decimal.Decimal
	PunctualityRate     decimal.Decimal
	TotalHours          decimal.Decimal
	AvgHoursPerDay      decimal.Decimal
	PreviousWindowHours decimal.Decimal
	HoursChangePercent  decimal.Decimal
	PerfectStreak       int
	EarlyArrivalRate    decimal.Decimal

	// MostActiveWeekday is nil when the window holds no sessions.
	MostActiveWeekday *string
}

// Issue is an entry-local problem the pipeline recovered from by skipping the entry.
type Issue struct {
	SourceKey string
	Err       error
}

func (i Issue) Error() string {
	if i.SourceKey == "" {
		return i.Err.Error()
	}
	return i.SourceKey + ": " + i.Err.Error()
}

func (i Issue) Unwrap() error {
	return i.Err
}
