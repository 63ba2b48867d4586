package attendance

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
)

// ClockDirection tells which legacy map an event came from.
type ClockDirection int

const (
	DirectionIn ClockDirection = iota
	DirectionOut
)

// TaggedEntry is one raw entry classified into a known schema. Exactly one of
// Keyed and Legacy is set, matching Provenance.
type TaggedEntry struct {
	Provenance attendance.Provenance
	Keyed      *KeyedEntry
	Legacy     *LegacyEvent
}

// KeyedEntry is an attendance/<sessionKey> record.
type KeyedEntry struct {
	Key       string
	KeyDate   string // empty when the key carries no valid date
	KeyMillis *int64 // set when a composite key ends in epoch millis
	Payload   attendance.SessionPayload
}

// LegacyEvent is one value from the clockInTimes or clockOutTimes maps.
type LegacyEvent struct {
	Key       string
	Millis    int64
	Direction ClockDirection
	Clock     string
}

// Classify tags every entry of a user's raw record. Keyed sessions win: when
// the attendance map holds anything, the legacy maps are not consulted.
// Entries of unknown shape are reported and skipped.
func Classify(rec attendance.RawUserRecord) ([]TaggedEntry, []attendance.Issue) {
	if len(rec.Attendance) > 0 {
		return classifyKeyed(rec.Attendance)
	}

	inEntries, inIssues := classifyLegacy(rec.ClockInTimes, DirectionIn)
	outEntries, outIssues := classifyLegacy(rec.ClockOutTimes, DirectionOut)
	return append(inEntries, outEntries...), append(inIssues, outIssues...)
}

func classifyKeyed(nodes map[string]json.RawMessage) ([]TaggedEntry, []attendance.Issue) {
	var (
		entries []TaggedEntry
		issues  []attendance.Issue
	)

	for _, key := range sortedKeys(nodes) {
		sourceKey := keyedSourceKey(key)

		date, millis, ok := parseSessionKey(key)
		if !ok {
			issues = append(issues, attendance.Issue{
				SourceKey: sourceKey,
				Err:       fmt.Errorf("%w: session key %q", attendance.ErrUnrecognizedEntryShape, key),
			})
			continue
		}

		var payload attendance.SessionPayload
		if err := json.Unmarshal(nodes[key], &payload); err != nil {
			issues = append(issues, attendance.Issue{
				SourceKey: sourceKey,
				Err:       fmt.Errorf("%w: %v", attendance.ErrUnrecognizedEntryShape, err),
			})
			continue
		}

		entries = append(entries, TaggedEntry{
			Provenance: attendance.KeyedSession,
			Keyed: &KeyedEntry{
				Key:       key,
				KeyDate:   date,
				KeyMillis: millis,
				Payload:   payload,
			},
		})
	}

	return entries, issues
}

func classifyLegacy(nodes map[string]json.RawMessage, dir ClockDirection) ([]TaggedEntry, []attendance.Issue) {
	var (
		entries []TaggedEntry
		issues  []attendance.Issue
	)

	for _, key := range sortedKeys(nodes) {
		sourceKey := legacySourceKey(key)

		millis, err := strconv.ParseInt(key, 10, 64)
		if err != nil || millis <= 0 {
			issues = append(issues, attendance.Issue{
				SourceKey: sourceKey,
				Err:       fmt.Errorf("%w: legacy key %q is not epoch millis", attendance.ErrUnrecognizedEntryShape, key),
			})
			continue
		}

		var clock string
		if err := json.Unmarshal(nodes[key], &clock); err != nil {
			issues = append(issues, attendance.Issue{
				SourceKey: sourceKey,
				Err:       fmt.Errorf("%w: legacy value is not a time string", attendance.ErrUnrecognizedEntryShape),
			})
			continue
		}

		entries = append(entries, TaggedEntry{
			Provenance: attendance.LegacyPaired,
			Legacy: &LegacyEvent{
				Key:       key,
				Millis:    millis,
				Direction: dir,
				Clock:     strings.TrimSpace(clock),
			},
		})
	}

	return entries, issues
}

// parseSessionKey accepts a bare "YYYY-MM-DD" key or any key containing "_",
// which is split at the first "_" into a date part and a millisecond part.
// Either part of a composite key may fail to parse; the reconciler then falls
// back to the other part or to the payload date.
func parseSessionKey(key string) (date string, millis *int64, ok bool) {
	datePart, tsPart, composite := strings.Cut(key, "_")
	if !composite {
		if _, err := timezone.ParseDate(key); err != nil {
			return "", nil, false
		}
		return key, nil, true
	}

	if _, err := timezone.ParseDate(datePart); err == nil {
		date = datePart
	}
	if ms, err := strconv.ParseInt(tsPart, 10, 64); err == nil && ms > 0 {
		millis = &ms
	}
	return date, millis, true
}

func sortedKeys(nodes map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(nodes))
	for k := range nodes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
