package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/sync/errgroup"
)

// Options tunes the service; zero values fall back to defaults.
type Options struct {
	DefaultWindowDays  int
	LeaderboardWorkers int
	Now                func() time.Time
}

type AttendanceServiceImpl struct {
	attendance.RawAttendanceRepository
	pipeline           *Pipeline
	defaultWindowDays  int
	leaderboardWorkers int
	now                func() time.Time
}

func NewAttendanceService(repo attendance.RawAttendanceRepository, pipeline *Pipeline, opts Options) attendance.AttendanceService {
	if opts.DefaultWindowDays <= 0 {
		opts.DefaultWindowDays = 30
	}
	if opts.LeaderboardWorkers <= 0 {
		opts.LeaderboardWorkers = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &AttendanceServiceImpl{
		RawAttendanceRepository: repo,
		pipeline:                pipeline,
		defaultWindowDays:       opts.DefaultWindowDays,
		leaderboardWorkers:      opts.LeaderboardWorkers,
		now:                     opts.Now,
	}
}

// getUserID extracts user_id from JWT claims
func getUserID(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", attendance.ErrMissingUserClaim
	}
	return userID, nil
}

// loadSessions reads a user's raw record and runs it through the pipeline.
// Skipped entries are logged and counted, never returned as errors.
func (s *AttendanceServiceImpl) loadSessions(ctx context.Context, userID string) ([]attendance.Session, int, error) {
	record, err := s.RawAttendanceRepository.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, attendance.ErrUserNotFound) {
			return nil, 0, attendance.ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("failed to get attendance record: %w", err)
	}

	sessions, issues := s.pipeline.Sessions(record)
	for _, issue := range issues {
		slog.WarnContext(ctx, "skipped attendance entry",
			"user_id", userID,
			"source_key", issue.SourceKey,
			"error", issue.Err.Error(),
		)
	}

	return sessions, len(issues), nil
}

func (s *AttendanceServiceImpl) windowOrDefault(days int) int {
	if days == 0 {
		return s.defaultWindowDays
	}
	return days
}

// ListSessions implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListSessions(ctx context.Context, userID string, filter attendance.SessionFilter) (attendance.ListSessionsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListSessionsResponse{}, err
	}

	sessions, skipped, err := s.loadSessions(ctx, userID)
	if err != nil {
		return attendance.ListSessionsResponse{}, err
	}

	filtered := filterSessions(sessions, filter)
	if filter.SortOrder == "asc" {
		SortSessions(filtered, false)
	}

	total := int64(len(filtered))
	from := min((filter.Page-1)*filter.Limit, len(filtered))
	to := min(from+filter.Limit, len(filtered))

	responses := make([]attendance.SessionResponse, 0, to-from)
	for _, session := range filtered[from:to] {
		responses = append(responses, mapSessionToResponse(session))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", from+1, to, total)
	if total == 0 || from == to {
		showing = fmt.Sprintf("0 of %d", total)
	}

	return attendance.ListSessionsResponse{
		UserID:         userID,
		TotalCount:     total,
		Page:           filter.Page,
		Limit:          filter.Limit,
		TotalPages:     totalPages,
		Showing:        showing,
		SkippedEntries: skipped,
		Sessions:       responses,
	}, nil
}

// GetMySessions implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMySessions(ctx context.Context, filter attendance.SessionFilter) (attendance.ListSessionsResponse, error) {
	userID, err := getUserID(ctx)
	if err != nil {
		return attendance.ListSessionsResponse{}, err
	}
	return s.ListSessions(ctx, userID, filter)
}

// GetPerformance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetPerformance(ctx context.Context, req attendance.PerformanceRequest) (attendance.PerformanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.PerformanceResponse{}, err
	}
	windowDays := s.windowOrDefault(req.WindowDays)

	sessions, skipped, err := s.loadSessions(ctx, req.UserID)
	if err != nil {
		return attendance.PerformanceResponse{}, err
	}

	metrics, tier, err := s.pipeline.Performance(sessions, windowDays, s.now())
	if err != nil {
		return attendance.PerformanceResponse{}, fmt.Errorf("failed to compute performance: %w", err)
	}

	resp := mapMetricsToResponse(req.UserID, metrics, tier)
	resp.SkippedEntries = skipped
	return resp, nil
}

// GetMyPerformance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyPerformance(ctx context.Context, windowDays int) (attendance.PerformanceResponse, error) {
	userID, err := getUserID(ctx)
	if err != nil {
		return attendance.PerformanceResponse{}, err
	}
	return s.GetPerformance(ctx, attendance.PerformanceRequest{UserID: userID, WindowDays: windowDays})
}

// GetLeaderboard implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetLeaderboard(ctx context.Context, windowDays int) (attendance.LeaderboardResponse, error) {
	if verr := attendance.ValidateWindow(windowDays); verr != nil {
		return attendance.LeaderboardResponse{}, validator.ValidationErrors{*verr}
	}
	windowDays = s.windowOrDefault(windowDays)
	now := s.now()

	userIDs, err := s.RawAttendanceRepository.ListUserIDs(ctx)
	if err != nil {
		return attendance.LeaderboardResponse{}, fmt.Errorf("failed to list users: %w", err)
	}

	results := make([]*attendance.LeaderboardEntry, len(userIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.leaderboardWorkers)
	for i, userID := range userIDs {
		g.Go(func() error {
			sessions, _, err := s.loadSessions(gCtx, userID)
			if err != nil {
				// Removed between listing and loading.
				if errors.Is(err, attendance.ErrUserNotFound) {
					return nil
				}
				return err
			}

			metrics, tier, err := s.pipeline.Performance(sessions, windowDays, now)
			if err != nil {
				return err
			}

			results[i] = &attendance.LeaderboardEntry{
				UserID:          userID,
				AttendanceRate:  metrics.AttendanceRate,
				PunctualityRate: metrics.PunctualityRate,
				TotalHours:      metrics.TotalHours,
				PerfectStreak:   metrics.PerfectStreak,
				Tier:            string(tier),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return attendance.LeaderboardResponse{}, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]attendance.LeaderboardEntry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	slices.SortFunc(entries, func(a, b attendance.LeaderboardEntry) int {
		if c := b.AttendanceRate.Cmp(a.AttendanceRate); c != 0 {
			return c
		}
		return strings.Compare(a.UserID, b.UserID)
	})
	for i := range entries {
		entries[i].Position = i + 1
	}

	return attendance.LeaderboardResponse{
		WindowDays: windowDays,
		WindowEnd:  s.pipeline.Resolver().Today(now),
		Entries:    entries,
	}, nil
}

// DeleteSession implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DeleteSession(ctx context.Context, req attendance.DeleteSessionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	paths, err := ParseSourceKey(req.SourceKey)
	if err != nil {
		return err
	}

	record, err := s.RawAttendanceRepository.GetByUserID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, attendance.ErrUserNotFound) {
			return attendance.ErrUserNotFound
		}
		return fmt.Errorf("failed to get attendance record: %w", err)
	}

	if !slices.ContainsFunc(paths, record.Has) {
		return attendance.ErrSessionNotFound
	}

	if err := s.RawAttendanceRepository.DeleteEntries(ctx, req.UserID, paths); err != nil {
		return fmt.Errorf("failed to delete attendance entries: %w", err)
	}

	slog.InfoContext(ctx, "attendance session deleted", "user_id", req.UserID, "source_key", req.SourceKey)
	return nil
}

func filterSessions(sessions []attendance.Session, filter attendance.SessionFilter) []attendance.Session {
	out := make([]attendance.Session, 0, len(sessions))
	for _, s := range sessions {
		if filter.StartDate != nil && *filter.StartDate != "" && s.Date < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && *filter.EndDate != "" && s.Date > *filter.EndDate {
			continue
		}
		if filter.SessionType != nil && string(s.SessionType) != *filter.SessionType {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Helper function to map Session to SessionResponse
func mapSessionToResponse(s attendance.Session) attendance.SessionResponse {
	resp := attendance.SessionResponse{
		SourceKey:      s.SourceKey,
		Date:           s.Date,
		HoursWorked:    s.HoursWorked,
		SessionType:    string(s.SessionType),
		Provenance:     string(s.Provenance),
		IsLate:         s.IsLate,
		OnTime:         s.OnTime,
		LatenessSource: string(s.LatenessSource),
		Status:         s.Status,
		Location:       s.Location,
		EventType:      s.EventType,
	}
	if s.ClockIn != nil {
		v := s.ClockIn.String()
		resp.ClockIn = &v
	}
	if s.ClockOut != nil {
		v := s.ClockOut.String()
		resp.ClockOut = &v
	}
	return resp
}

func mapMetricsToResponse(userID string, m attendance.PerformanceMetrics, tier attendance.Tier) attendance.PerformanceResponse {
	return attendance.PerformanceResponse{
		UserID:              userID,
		WindowDays:          m.WindowDays,
		WindowStart:         m.WindowStart,
		WindowEnd:           m.WindowEnd,
		SessionCount:        m.SessionCount,
		PresentCount:        m.PresentCount,
		OnTimeCount:         m.OnTimeCount,
		AttendanceRate:      m.AttendanceRate,
		PunctualityRate:     m.PunctualityRate,
		TotalHours:          m.TotalHours,
		AvgHoursPerDay:      m.AvgHoursPerDay,
		PreviousWindowHours: m.PreviousWindowHours,
		HoursChangePercent:  m.HoursChangePercent,
		PerfectStreak:       m.PerfectStreak,
		EarlyArrivalRate:    m.EarlyArrivalRate,
		MostActiveWeekday:   m.MostActiveWeekday,
		Tier:                string(tier),
	}
}
