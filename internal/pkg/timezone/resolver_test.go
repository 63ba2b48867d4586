package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, name string) *Resolver {
	t.Helper()
	r, err := NewResolver(name)
	require.NoError(t, err)
	return r
}

func TestNewResolver_InvalidZone(t *testing.T) {
	_, err := NewResolver("Mars/Olympus_Mons")
	assert.Error(t, err)

	_, err = NewResolver("  ")
	assert.Error(t, err)
}

func TestDateFromMillis_LateEveningStaysOnOrganizationDay(t *testing.T) {
	cases := []struct {
		zone string
		want string
	}{
		// 23:30 local is 00:30 UTC the next day.
		{"Atlantic/Azores", "2024-01-10"},
		{"America/New_York", "2024-01-10"},
		{"America/Los_Angeles", "2024-01-10"},
	}
	for _, c := range cases {
		t.Run(c.zone, func(t *testing.T) {
			r := newResolver(t, c.zone)
			local := time.Date(2024, 1, 10, 23, 30, 0, 0, r.Location())
			ms := local.UnixMilli()

			assert.Equal(t, "2024-01-11", time.UnixMilli(ms).UTC().Format(DateLayout))
			assert.Equal(t, c.want, r.DateFromMillis(ms))
			assert.Equal(t, WallClock{Hour: 23, Minute: 30}, r.ClockFromMillis(ms))
		})
	}
}

func TestDateFromMillis_EarlyMorningEastOfUTC(t *testing.T) {
	r := newResolver(t, "Asia/Jakarta")
	local := time.Date(2024, 3, 5, 6, 15, 0, 0, r.Location())
	assert.Equal(t, "2024-03-04", local.UTC().Format(DateLayout))
	assert.Equal(t, "2024-03-05", r.DateFromMillis(local.UnixMilli()))
}

func TestDateFromISO(t *testing.T) {
	r := newResolver(t, "America/Chicago")
	cases := []struct {
		in   string
		want string
	}{
		{"2023-11-15T03:00:00Z", "2023-11-14"},
		{"2023-11-15T03:00:00.123Z", "2023-11-14"},
		{"2023-11-15T09:00:00+07:00", "2023-11-14"},
		{"2023-11-15T03:00:00", "2023-11-15"},
		{"2023-11-15 23:59:59", "2023-11-15"},
		{"2023-11-15", "2023-11-15"},
		{"1700000000000", "2023-11-14"},
	}
	for _, c := range cases {
		got, err := r.DateFromISO(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestDateFromISO_Malformed(t *testing.T) {
	r := newResolver(t, "UTC")
	for _, in := range []string{"", "yesterday", "2023-13-45", "15/11/2023", "20240107", "0", "-1700000000000"} {
		_, err := r.DateFromISO(in)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, in)
	}
}

func TestDateFromWallClock_ReturnsDateUnchanged(t *testing.T) {
	r := newResolver(t, "Pacific/Auckland")

	got, err := r.DateFromWallClock("2024-02-29", "23:45")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got)

	_, err = r.DateFromWallClock("2024-02-30", "10:00")
	assert.ErrorIs(t, err, ErrMalformedTimestamp)

	_, err = r.DateFromWallClock("2024-02-28", "25:00")
	assert.ErrorIs(t, err, ErrMalformedTimestamp)
}

func TestToOrganizationDate(t *testing.T) {
	r := newResolver(t, "America/New_York")

	got, err := r.ToOrganizationDate(FromMillis(1700000000000))
	require.NoError(t, err)
	assert.Equal(t, "2023-11-14", got)

	got, err = r.ToOrganizationDate(FromISO("2023-11-15T01:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2023-11-14", got)

	got, err = r.ToOrganizationDate(FromWallClock("2023-11-15", "00:10"))
	require.NoError(t, err)
	assert.Equal(t, "2023-11-15", got)

	_, err = r.ToOrganizationDate(Input{})
	assert.ErrorIs(t, err, ErrMalformedTimestamp)
}

func TestToday(t *testing.T) {
	r := newResolver(t, "America/New_York")
	now := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-31", r.Today(now))
}

func TestAddDaysAndWeekday(t *testing.T) {
	got, err := AddDays("2024-03-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got)

	// Crosses the US spring-forward weekend without drifting.
	got, err = AddDays("2024-03-09", 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", got)

	wd, err := Weekday("2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)

	_, err = AddDays("not-a-date", 1)
	assert.ErrorIs(t, err, ErrMalformedTimestamp)
}
