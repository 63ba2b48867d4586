package attendance

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
)

const (
	keyedPrefix  = "attendance/"
	legacyPrefix = "legacy/"
)

func keyedSourceKey(key string) string  { return keyedPrefix + key }
func legacySourceKey(key string) string { return legacyPrefix + key }

// ParseSourceKey maps a session source key back to the raw entries it was
// reconciled from.
func ParseSourceKey(sourceKey string) ([]attendance.EntryPath, error) {
	switch {
	case strings.HasPrefix(sourceKey, keyedPrefix):
		key := strings.TrimPrefix(sourceKey, keyedPrefix)
		if key == "" || strings.Contains(key, "/") {
			break
		}
		return []attendance.EntryPath{{attendance.NodeAttendance, key}}, nil
	case strings.HasPrefix(sourceKey, legacyPrefix):
		key := strings.TrimPrefix(sourceKey, legacyPrefix)
		if key == "" || strings.Contains(key, "/") {
			break
		}
		return []attendance.EntryPath{
			{attendance.NodeClockInTimes, key},
			{attendance.NodeClockOutTimes, key},
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", attendance.ErrInvalidSourceKey, sourceKey)
}

// Reconciler turns tagged entries into one session per logical record.
type Reconciler struct {
	resolver *timezone.Resolver
}

func NewReconciler(resolver *timezone.Resolver) *Reconciler {
	return &Reconciler{resolver: resolver}
}

// Reconcile builds sessions from classified entries. Sessions are returned
// without hours or lateness; entries that cannot be attributed to a date or
// carry no clock time are reported and skipped.
func (r *Reconciler) Reconcile(entries []TaggedEntry) ([]attendance.Session, []attendance.Issue) {
	var (
		sessions []attendance.Session
		issues   []attendance.Issue
		events   []LegacyEvent
	)

	for _, e := range entries {
		switch {
		case e.Keyed != nil:
			s, err := r.keyedSession(*e.Keyed)
			if err != nil {
				issues = append(issues, attendance.Issue{SourceKey: keyedSourceKey(e.Keyed.Key), Err: err})
				continue
			}
			sessions = append(sessions, s)
		case e.Legacy != nil:
			events = append(events, *e.Legacy)
		}
	}

	if len(events) > 0 {
		paired, pairIssues := r.legacySessions(foldLegacy(events))
		sessions = append(sessions, paired...)
		issues = append(issues, pairIssues...)
	}

	return dedupe(sessions, issues)
}

func (r *Reconciler) keyedSession(e KeyedEntry) (attendance.Session, error) {
	p := e.Payload

	date, err := r.keyedDate(e)
	if err != nil {
		return attendance.Session{}, err
	}

	clockIn, inMillis, err := r.clock(p.ClockInTime, p.ClockInTimestamp)
	if err != nil {
		return attendance.Session{}, fmt.Errorf("clock-in: %w", err)
	}
	clockOut, outMillis, err := r.clock(p.ClockOutTime, p.ClockOutTimestamp)
	if err != nil {
		return attendance.Session{}, fmt.Errorf("clock-out: %w", err)
	}
	if clockIn == nil && clockOut == nil {
		return attendance.Session{}, fmt.Errorf("%w: no clock-in or clock-out time", attendance.ErrUnrecognizedEntryShape)
	}

	ts := e.KeyMillis
	if ts == nil {
		ts = inMillis
	}
	if ts == nil {
		ts = outMillis
	}

	return attendance.Session{
		Date:              date,
		ClockIn:           clockIn,
		ClockOut:          clockOut,
		SourceKey:         keyedSourceKey(e.Key),
		Provenance:        attendance.KeyedSession,
		Timestamp:         ts,
		ClockInTimestamp:  inMillis,
		ClockOutTimestamp: outMillis,
		ExplicitIsLate:    p.IsLate,
		ExplicitOnTime:    p.OnTime,
		ShiftScheduled:    p.EventType != nil && strings.TrimSpace(*p.EventType) != "",
		Status:            p.Status,
		Location:          p.Location,
		EventType:         p.EventType,
	}, nil
}

// keyedDate prefers the date in the key, then the key's timestamp, then the
// payload date field.
func (r *Reconciler) keyedDate(e KeyedEntry) (string, error) {
	if e.KeyDate != "" {
		return e.KeyDate, nil
	}
	if e.KeyMillis != nil {
		return r.resolver.DateFromMillis(*e.KeyMillis), nil
	}
	if e.Payload.Date != nil && strings.TrimSpace(*e.Payload.Date) != "" {
		return r.resolver.DateFromISO(*e.Payload.Date)
	}
	return "", fmt.Errorf("%w: no resolvable date", attendance.ErrMalformedTimestamp)
}

// clock resolves one side of a session. A clock string wins over the
// timestamp; the timestamp is still returned when it parses so durations can
// use absolute instants.
func (r *Reconciler) clock(text *string, ts *attendance.RawTimestamp) (*timezone.WallClock, *int64, error) {
	millis, tsErr := r.millis(ts)

	if text != nil && strings.TrimSpace(*text) != "" {
		c, err := timezone.ParseWallClock(*text)
		if err != nil {
			return nil, nil, err
		}
		if tsErr != nil {
			millis = nil
		}
		return &c, millis, nil
	}

	if tsErr != nil {
		return nil, nil, tsErr
	}
	if millis == nil {
		return nil, nil, nil
	}
	c := r.resolver.ClockFromMillis(*millis)
	return &c, millis, nil
}

func (r *Reconciler) millis(ts *attendance.RawTimestamp) (*int64, error) {
	if ts == nil {
		return nil, nil
	}
	if ts.Millis != nil {
		return ts.Millis, nil
	}
	if ts.ISO == "" {
		return nil, nil
	}
	t, err := r.resolver.ParseTime(ts.ISO)
	if err != nil {
		return nil, err
	}
	ms := t.UnixMilli()
	return &ms, nil
}

// legacyPair is the clock-in and clock-out values stored under one timestamp key.
type legacyPair struct {
	key      string
	millis   int64
	clockIn  *string
	clockOut *string
}

// foldLegacy groups legacy events by their timestamp key. The returned map is
// built once and only read afterwards.
func foldLegacy(events []LegacyEvent) map[string]legacyPair {
	pairs := make(map[string]legacyPair, len(events))
	for _, ev := range events {
		p := pairs[ev.Key]
		p.key, p.millis = ev.Key, ev.Millis
		clock := ev.Clock
		if ev.Direction == DirectionIn {
			p.clockIn = &clock
		} else {
			p.clockOut = &clock
		}
		pairs[ev.Key] = p
	}
	return pairs
}

func (r *Reconciler) legacySessions(pairs map[string]legacyPair) ([]attendance.Session, []attendance.Issue) {
	var (
		sessions []attendance.Session
		issues   []attendance.Issue
	)

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sortKeysNumeric(keys, pairs)

	for _, k := range keys {
		p := pairs[k]
		s, err := r.legacySession(p)
		if err != nil {
			issues = append(issues, attendance.Issue{SourceKey: legacySourceKey(p.key), Err: err})
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, issues
}

func (r *Reconciler) legacySession(p legacyPair) (attendance.Session, error) {
	var clockIn, clockOut *timezone.WallClock

	if p.clockIn != nil {
		if *p.clockIn == "" {
			c := r.resolver.ClockFromMillis(p.millis)
			clockIn = &c
		} else {
			c, err := timezone.ParseWallClock(*p.clockIn)
			if err != nil {
				return attendance.Session{}, fmt.Errorf("clock-in: %w", err)
			}
			clockIn = &c
		}
	}

	if p.clockOut != nil && *p.clockOut != "" {
		c, err := timezone.ParseWallClock(*p.clockOut)
		if err != nil {
			return attendance.Session{}, fmt.Errorf("clock-out: %w", err)
		}
		clockOut = &c
	}

	if clockIn == nil && clockOut == nil {
		return attendance.Session{}, fmt.Errorf("%w: empty clock-out value", attendance.ErrUnrecognizedEntryShape)
	}

	ms := p.millis
	return attendance.Session{
		Date:       r.resolver.DateFromMillis(ms),
		ClockIn:    clockIn,
		ClockOut:   clockOut,
		SourceKey:  legacySourceKey(p.key),
		Provenance: attendance.LegacyPaired,
		Timestamp:  &ms,
	}, nil
}

func sortKeysNumeric(keys []string, pairs map[string]legacyPair) {
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(pairs[a].millis, pairs[b].millis); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

// dedupe drops any session whose source key was already emitted.
func dedupe(sessions []attendance.Session, issues []attendance.Issue) ([]attendance.Session, []attendance.Issue) {
	seen := make(map[string]struct{}, len(sessions))
	out := make([]attendance.Session, 0, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s.SourceKey]; ok {
			issues = append(issues, attendance.Issue{
				SourceKey: s.SourceKey,
				Err:       fmt.Errorf("%w: duplicate source key", attendance.ErrUnrecognizedEntryShape),
			})
			continue
		}
		seen[s.SourceKey] = struct{}{}
		out = append(out, s)
	}
	return out, issues
}
