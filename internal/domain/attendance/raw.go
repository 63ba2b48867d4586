package attendance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/shopspring/decimal"
)

// Subtree names under a user's attendance document.
const (
	NodeClockInTimes  = "clockInTimes"
	NodeClockOutTimes = "clockOutTimes"
	NodeAttendance    = "attendance"
)

// RawUserRecord is one user's attendance subtree as returned by the document
// store. Values are kept raw so a single malformed child cannot fail decoding
// of its siblings.
type RawUserRecord struct {
	ClockInTimes  map[string]json.RawMessage `json:"clockInTimes,omitempty"`
	ClockOutTimes map[string]json.RawMessage `json:"clockOutTimes,omitempty"`
	Attendance    map[string]json.RawMessage `json:"attendance,omitempty"`
}

// IsEmpty reports whether the record holds no entries of any shape.
func (r RawUserRecord) IsEmpty() bool {
	return len(r.ClockInTimes) == 0 && len(r.ClockOutTimes) == 0 && len(r.Attendance) == 0
}

// SessionPayload is the value stored under attendance/<sessionKey>.
type SessionPayload struct {
	Date              *string          `json:"date,omitempty"`
	ClockInTime       *string          `json:"clockInTime,omitempty"`
	ClockOutTime      *string          `json:"clockOutTime,omitempty"`
	ClockInTimestamp  *RawTimestamp    `json:"clockInTimestamp,omitempty"`
	ClockOutTimestamp *RawTimestamp    `json:"clockOutTimestamp,omitempty"`
	HoursWorked       *decimal.Decimal `json:"hoursWorked,omitempty"`
	IsLate            *bool            `json:"isLate,omitempty"`
	OnTime            *bool            `json:"onTime,omitempty"`
	Status            *string          `json:"status,omitempty"`
	Location          *string          `json:"location,omitempty"`
	EventType         *string          `json:"eventType,omitempty"`
}

// RawTimestamp is a timestamp stored either as epoch millis (number or
// numeric string) or as an ISO-8601 string.
type RawTimestamp struct {
	Millis *int64
	ISO    string
}

func (t *RawTimestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t.ISO = strings.TrimSpace(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("timestamp must be a number or string: %w", err)
	}
	if ms, err := n.Int64(); err == nil {
		t.Millis = &ms
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("timestamp %q is not numeric: %w", n, err)
	}
	ms := int64(math.Round(f))
	t.Millis = &ms
	return nil
}

func (t RawTimestamp) MarshalJSON() ([]byte, error) {
	if t.Millis != nil {
		return json.Marshal(*t.Millis)
	}
	return json.Marshal(t.ISO)
}

// Input converts the stored value into a resolver input.
func (t RawTimestamp) Input() timezone.Input {
	if t.Millis != nil {
		return timezone.FromMillis(*t.Millis)
	}
	return timezone.FromISO(t.ISO)
}

// EntryPath addresses a node under a user's attendance subtree,
// e.g. {"attendance", "2024-01-07_1704614400000"}.
type EntryPath []string

func (p EntryPath) String() string {
	return strings.Join(p, "/")
}

// Has reports whether the record holds a node at path.
func (r RawUserRecord) Has(path EntryPath) bool {
	if len(path) != 2 {
		return false
	}

	var node map[string]json.RawMessage
	switch path[0] {
	case NodeClockInTimes:
		node = r.ClockInTimes
	case NodeClockOutTimes:
		node = r.ClockOutTimes
	case NodeAttendance:
		node = r.Attendance
	}
	_, ok := node[path[1]]
	return ok
}
