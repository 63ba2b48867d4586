package attendance

import "context"

// AttendanceService exposes reconciled sessions and performance metrics
type AttendanceService interface {
	// ListSessions returns a user's reconciled sessions, newest first
	ListSessions(ctx context.Context, userID string, filter SessionFilter) (ListSessionsResponse, error)

	// GetMySessions returns the authenticated user's sessions
	GetMySessions(ctx context.Context, filter SessionFilter) (ListSessionsResponse, error)

	// GetPerformance computes windowed metrics and the rank tier for a user
	GetPerformance(ctx context.Context, req PerformanceRequest) (PerformanceResponse, error)

	// GetMyPerformance computes metrics for the authenticated user
	GetMyPerformance(ctx context.Context, windowDays int) (PerformanceResponse, error)

	// GetLeaderboard ranks every user with attendance data by attendance rate
	GetLeaderboard(ctx context.Context, windowDays int) (LeaderboardResponse, error)

	// DeleteSession removes the raw entries behind one reconciled session
	DeleteSession(ctx context.Context, req DeleteSessionRequest) error
}
