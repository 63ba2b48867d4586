package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `{
  "users": {
    "alice": {
      "attendance": {
        "2024-03-30": {"clockInTime": "08:55", "clockOutTime": "12:00"},
        "2024-03-24": {"clockInTime": "09:20", "clockOutTime": "11:30", "eventType": "service"}
      }
    },
    "bob": {
      "clockOutTimes": {"1711785600000": "11:00"}
    }
  }
}`

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o600))
	return path
}

func testFlags(t *testing.T) reportFlags {
	return reportFlags{
		file:          writeExport(t),
		window:        30,
		now:           "2024-03-31",
		timezone:      "UTC",
		expectedStart: "09:00",
		grace:         5 * time.Minute,
		fullDayHours:  "8",
		sessions:      10,
	}
}

func TestDecodeExport(t *testing.T) {
	users, err := decodeExport(strings.NewReader(sampleExport))
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Len(t, users["alice"].Attendance, 2)

	_, err = decodeExport(strings.NewReader(`{"users":{}}`))
	assert.Error(t, err)

	_, err = decodeExport(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestParseNow(t *testing.T) {
	resolver, err := timezone.NewResolver("Asia/Jakarta")
	require.NoError(t, err)

	now, err := parseNow("2024-03-31", resolver)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", resolver.Today(now))

	now, err = parseNow("2024-03-31T20:00:00Z", resolver)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", resolver.Today(now))

	_, err = parseNow("yesterday", resolver)
	assert.Error(t, err)
}

func TestBuildPolicy_RejectsBadFlags(t *testing.T) {
	f := testFlags(t)
	f.expectedStart = "25:00"
	_, _, err := buildPolicy(f)
	assert.Error(t, err)

	f = testFlags(t)
	f.fullDayHours = "0"
	_, _, err = buildPolicy(f)
	assert.Error(t, err)

	f = testFlags(t)
	f.grace = -time.Minute
	_, _, err = buildPolicy(f)
	assert.Error(t, err)
}

func TestRunReport_Leaderboard(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer

	require.NoError(t, runReport(context.Background(), testFlags(t), &out))

	text := out.String()
	assert.Contains(t, text, "Leaderboard, 30 days ending 2024-03-31")
	lines := strings.Split(text, "\n")
	var rows []string
	for _, l := range lines {
		if strings.HasPrefix(l, "1 ") || strings.HasPrefix(l, "2 ") {
			rows = append(rows, l)
		}
	}
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "alice")
	assert.Contains(t, rows[0], "BLUE")
	assert.Contains(t, rows[1], "bob")
	assert.Contains(t, rows[1], "RED")
}

func TestRunReport_SingleUser(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	f := testFlags(t)
	f.user = "alice"

	require.NoError(t, runReport(context.Background(), f, &out))

	text := out.String()
	assert.Contains(t, text, "alice, 2024-03-01 to 2024-03-31")
	assert.Contains(t, text, "Tier: BLUE")
	assert.Contains(t, text, "Recent sessions (1-2 of 2)")
	assert.Contains(t, text, "2024-03-24")
	assert.Contains(t, text, "yes")
}

func TestRunReport_UnknownUser(t *testing.T) {
	f := testFlags(t)
	f.user = "nobody"
	assert.Error(t, runReport(context.Background(), f, &bytes.Buffer{}))
}
