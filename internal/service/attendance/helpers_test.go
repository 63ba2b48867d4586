package attendance

import (
	"encoding/json"
	"testing"

	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, zone string) *timezone.Resolver {
	t.Helper()
	r, err := timezone.NewResolver(zone)
	require.NoError(t, err)
	return r
}

func node(kv ...string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = json.RawMessage(kv[i+1])
	}
	return out
}

func clock(t *testing.T, s string) *timezone.WallClock {
	t.Helper()
	c, err := timezone.ParseWallClock(s)
	require.NoError(t, err)
	return &c
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func boolPtr(b bool) *bool { return &b }

func int64Ptr(v int64) *int64 { return &v }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
