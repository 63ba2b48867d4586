package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	ListMySessions(w http.ResponseWriter, r *http.Request)
	GetMyPerformance(w http.ResponseWriter, r *http.Request)
	ListUserSessions(w http.ResponseWriter, r *http.Request)
	GetUserPerformance(w http.ResponseWriter, r *http.Request)
	GetLeaderboard(w http.ResponseWriter, r *http.Request)
	DeleteSession(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// ListMySessions implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListMySessions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSessionFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetMySessions(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyPerformance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyPerformance(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetMyPerformance(r.Context(), window)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListUserSessions implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListUserSessions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSessionFilter(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListSessions(r.Context(), chi.URLParam(r, "userID"), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetUserPerformance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetUserPerformance(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetPerformance(r.Context(), attendance.PerformanceRequest{
		UserID:     chi.URLParam(r, "userID"),
		WindowDays: window,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetLeaderboard implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	window, err := parseWindow(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetLeaderboard(r.Context(), window)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DeleteSession implements AttendanceHandler.
// The source key "<provenance>/<key>" arrives as two path segments.
func (h *attendanceHandlerImpl) DeleteSession(w http.ResponseWriter, r *http.Request) {
	req := attendance.DeleteSessionRequest{
		UserID:    chi.URLParam(r, "userID"),
		SourceKey: chi.URLParam(r, "provenance") + "/" + chi.URLParam(r, "key"),
	}

	if err := h.attendanceService.DeleteSession(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance session deleted", map[string]string{"source_key": req.SourceKey})
}

func parseSessionFilter(r *http.Request) (attendance.SessionFilter, error) {
	q := r.URL.Query()
	filter := attendance.SessionFilter{SortOrder: q.Get("sort_order")}

	// Date range filters
	if startDate := q.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := q.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}

	// Session type filter
	if sessionType := q.Get("session_type"); sessionType != "" {
		filter.SessionType = &sessionType
	}

	// Pagination
	var errs validator.ValidationErrors
	if p := q.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a number"})
		}
		filter.Page = page
	}
	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a number"})
		}
		filter.Limit = limit
	}
	if len(errs) > 0 {
		return filter, errs
	}

	return filter, nil
}

// parseWindow reads ?window=<days>; absent means the configured default.
func parseWindow(r *http.Request) (int, error) {
	w := r.URL.Query().Get("window")
	if w == "" {
		return 0, nil
	}

	days, err := strconv.Atoi(w)
	if err != nil || days < 1 {
		return 0, validator.ValidationErrors{{Field: "window", Message: "window must be a positive number of days"}}
	}
	return days, nil
}
