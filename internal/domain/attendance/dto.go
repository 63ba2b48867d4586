package attendance

import (
	"strings"

	"github.com/cmlabs-hris/attendance-insights/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// MaxWindowDays bounds the rolling window a caller may request.
const MaxWindowDays = 366

// ========================================
// SESSION DTOs
// ========================================

type SessionFilter struct {
	// Search & Filter
	StartDate   *string `json:"start_date,omitempty"`   // YYYY-MM-DD
	EndDate     *string `json:"end_date,omitempty"`     // YYYY-MM-DD
	SessionType *string `json:"session_type,omitempty"` // complete, clock_in_only, clock_out_only

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting (by date, then timestamp)
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *SessionFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.StartDate != nil && f.EndDate != nil && *f.StartDate != "" && *f.EndDate != "" && *f.StartDate > *f.EndDate {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if f.SessionType != nil {
		validTypes := []string{string(CompleteSession), string(ClockInOnly), string(ClockOutOnly)}
		if !validator.IsInSlice(*f.SessionType, validTypes) {
			errs = append(errs, validator.ValidationError{
				Field:   "session_type",
				Message: "session_type must be one of: complete, clock_in_only, clock_out_only",
			})
		}
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // newest first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SessionResponse struct {
	SourceKey      string           `json:"source_key"`
	Date           string           `json:"date"`
	ClockIn        *string          `json:"clock_in,omitempty"`
	ClockOut       *string          `json:"clock_out,omitempty"`
	HoursWorked    *decimal.Decimal `json:"hours_worked"`
	SessionType    string           `json:"session_type"`
	Provenance     string           `json:"provenance"`
	IsLate         bool             `json:"is_late"`
	OnTime         bool             `json:"on_time"`
	LatenessSource string           `json:"lateness_source"`
	Status         *string          `json:"status,omitempty"`
	Location       *string          `json:"location,omitempty"`
	EventType      *string          `json:"event_type,omitempty"`
}

type ListSessionsResponse struct {
	UserID         string            `json:"user_id"`
	TotalCount     int64             `json:"total_count"`
	Page           int               `json:"page"`
	Limit          int               `json:"limit"`
	TotalPages     int               `json:"total_pages"`
	Showing        string            `json:"showing"`
	SkippedEntries int               `json:"skipped_entries"`
	Sessions       []SessionResponse `json:"sessions"`
}

// ========================================
// PERFORMANCE DTOs
// ========================================

type PerformanceRequest struct {
	UserID     string `json:"-"`
	WindowDays int    `json:"window_days"`
}

func (r *PerformanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if err := ValidateWindow(r.WindowDays); err != nil {
		errs = append(errs, *err)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ValidateWindow checks a requested window length; zero means "use the configured default".
func ValidateWindow(days int) *validator.ValidationError {
	if days < 0 || days > MaxWindowDays {
		return &validator.ValidationError{
			Field:   "window",
			Message: "window must be between 1 and 366 days",
		}
	}
	return nil
}

type PerformanceResponse struct {
	UserID              string          `json:"user_id"`
	WindowDays          int             `json:"window_days"`
	WindowStart         string          `json:"window_start"`
	WindowEnd           string          `json:"window_end"`
	SessionCount        int             `json:"session_count"`
	PresentCount        int             `json:"present_count"`
	OnTimeCount         int             `json:"on_time_count"`
	AttendanceRate      decimal.Decimal `json:"attendance_rate"`
	PunctualityRate     decimal.Decimal `json:"punctuality_rate"`
	TotalHours          decimal.Decimal `json:"total_hours"`
	AvgHoursPerDay      decimal.Decimal `json:"avg_hours_per_day"`
	PreviousWindowHours decimal.Decimal `json:"previous_window_hours"`
	HoursChangePercent  decimal.Decimal `json:"hours_change_percent"`
	PerfectStreak       int             `json:"perfect_streak"`
	EarlyArrivalRate    decimal.Decimal `json:"early_arrival_rate"`
	MostActiveWeekday   *string         `json:"most_active_weekday"`
	Tier                string          `json:"tier"`
	SkippedEntries      int             `json:"skipped_entries"`
}

// ========================================
// LEADERBOARD DTOs
// ========================================

type LeaderboardEntry struct {
	Position        int             `json:"position"`
	UserID          string          `json:"user_id"`
	AttendanceRate  decimal.Decimal `json:"attendance_rate"`
	PunctualityRate decimal.Decimal `json:"punctuality_rate"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	PerfectStreak   int             `json:"perfect_streak"`
	Tier            string          `json:"tier"`
}

type LeaderboardResponse struct {
	WindowDays int                `json:"window_days"`
	WindowEnd  string             `json:"window_end"`
	Entries    []LeaderboardEntry `json:"entries"`
}

// ========================================
// AUDIT DTOs
// ========================================

type DeleteSessionRequest struct {
	UserID    string `json:"-"`
	SourceKey string `json:"-"`
}

func (r *DeleteSessionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}
	if validator.IsEmpty(r.SourceKey) {
		errs = append(errs, validator.ValidationError{
			Field:   "source_key",
			Message: "source_key is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
