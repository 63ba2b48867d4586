package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/cmlabs-hris/attendance-insights/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/attendance-insights/internal/service/attendance"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	router *chi.Mux
	jwt    jwt.Service
	repo   *memory.AttendanceRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	repo := memory.NewAttendanceRepository()
	require.NoError(t, repo.Put(ctx, "alice", attendance.RawUserRecord{
		Attendance: map[string]json.RawMessage{
			"2024-03-30": json.RawMessage(`{"clockInTime":"07:55","clockOutTime":"12:00"}`),
			"2024-03-24": json.RawMessage(`{"clockInTime":"08:20","clockOutTime":"11:30","isLate":true}`),
		},
	}))
	require.NoError(t, repo.Put(ctx, "bob", attendance.RawUserRecord{
		ClockInTimes:  map[string]json.RawMessage{"1711785600000": json.RawMessage(`"08:00"`)},
		ClockOutTimes: map[string]json.RawMessage{"1711785600000": json.RawMessage(`"11:00"`)},
	}))

	resolver, err := timezone.NewResolver("UTC")
	require.NoError(t, err)
	start, err := timezone.ParseWallClock("08:00")
	require.NoError(t, err)

	pipeline := attendanceService.NewPipeline(
		resolver,
		attendanceService.ShiftPolicy{ExpectedStart: &start, GracePeriod: 5 * time.Minute},
		attendanceService.Aggregator{FullDayHours: decimal.NewFromInt(8), ExpectedStart: &start},
	)
	svc := attendanceService.NewAttendanceService(repo, pipeline, attendanceService.Options{
		DefaultWindowDays: 30,
		Now:               func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) },
	})

	jwtService := jwt.NewJWTService("test-secret", "15m")
	return &testServer{
		router: NewRouter(jwtService, RouterOptions{Env: "test"}, NewAttendanceHandler(svc)),
		jwt:    jwtService,
		repo:   repo,
	}
}

func (s *testServer) do(t *testing.T, method, target, userID, role string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		token, _, err := s.jwt.GenerateAccessToken(userID, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var body envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/attendance/me/sessions", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MySessions(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/attendance/me/sessions?sort_order=asc", "alice", "member")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)

	var list attendance.ListSessionsResponse
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.Equal(t, "alice", list.UserID)
	assert.Equal(t, int64(2), list.TotalCount)
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, "2024-03-24", list.Sessions[0].Date)
	assert.True(t, list.Sessions[0].IsLate)
	assert.Equal(t, "attendance/2024-03-30", list.Sessions[1].SourceKey)
}

func TestRouter_InvalidQuery(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/attendance/me/sessions?page=abc", "alice", "member")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, body.Success)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/me/performance?window=0", "alice", "member")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_MyPerformance(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/attendance/me/performance?window=30", "bob", "member")
	require.Equal(t, http.StatusOK, rec.Code)

	var perf attendance.PerformanceResponse
	require.NoError(t, json.Unmarshal(body.Data, &perf))
	assert.Equal(t, "bob", perf.UserID)
	assert.Equal(t, 1, perf.SessionCount)
	assert.True(t, decimal.NewFromInt(100).Equal(perf.AttendanceRate))
	assert.Equal(t, string(attendance.TierBlue), perf.Tier)
}

func TestRouter_MemberCannotReadOthers(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/attendance/users/alice/sessions", "bob", "member")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, body.Error)
}

func TestRouter_LeaderReadsUser(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/attendance/users/alice/performance", "carol", "leader")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/users/nobody/sessions", "carol", "leader")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Leaderboard(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/attendance/leaderboard", "alice", "member")
	require.Equal(t, http.StatusOK, rec.Code)

	var board attendance.LeaderboardResponse
	require.NoError(t, json.Unmarshal(body.Data, &board))
	require.Len(t, board.Entries, 2)
	assert.Equal(t, 1, board.Entries[0].Position)
	assert.Equal(t, "alice", board.Entries[0].UserID)
	assert.Equal(t, "bob", board.Entries[1].UserID)
}

func TestRouter_DeleteSession(t *testing.T) {
	s := newTestServer(t)
	target := "/api/v1/attendance/users/alice/sessions/attendance/2024-03-24"

	rec, _ := s.do(t, http.MethodDelete, target, "carol", "leader")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := s.do(t, http.MethodDelete, target, "dave", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)

	record, err := s.repo.GetByUserID(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotContains(t, record.Attendance, "2024-03-24")

	rec, _ = s.do(t, http.MethodDelete, target, "dave", "admin")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/attendance/users/alice/sessions/bogus/1", "dave", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
