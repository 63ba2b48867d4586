package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/cmlabs-hris/attendance-insights/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/attendance-insights/internal/service/attendance"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

// export is the top-level shape of an attendance tree dump.
type export struct {
	Users map[string]attendance.RawUserRecord `json:"users"`
}

func runReport(ctx context.Context, f reportFlags, out io.Writer) error {
	users, err := readExport(f.file)
	if err != nil {
		return err
	}

	resolver, err := timezone.NewResolver(f.timezone)
	if err != nil {
		return err
	}
	now, err := parseNow(f.now, resolver)
	if err != nil {
		return err
	}
	policy, aggregator, err := buildPolicy(f)
	if err != nil {
		return err
	}

	repo := memory.NewAttendanceRepository()
	for userID, record := range users {
		if err := repo.Put(ctx, userID, record); err != nil {
			return err
		}
	}

	svc := attendanceService.NewAttendanceService(
		repo,
		attendanceService.NewPipeline(resolver, policy, aggregator),
		attendanceService.Options{
			DefaultWindowDays: f.window,
			Now:               func() time.Time { return now },
		},
	)

	if f.user == "" {
		board, err := svc.GetLeaderboard(ctx, f.window)
		if err != nil {
			return err
		}
		renderLeaderboard(out, board)
		return nil
	}

	perf, err := svc.GetPerformance(ctx, attendance.PerformanceRequest{UserID: f.user, WindowDays: f.window})
	if err != nil {
		return err
	}
	limit := min(max(f.sessions, 1), 100)
	sessions, err := svc.ListSessions(ctx, f.user, attendance.SessionFilter{Limit: limit})
	if err != nil {
		return err
	}
	renderPerformance(out, perf, sessions)
	return nil
}

func readExport(path string) (map[string]attendance.RawUserRecord, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open export: %w", err)
		}
		defer file.Close()
		r = file
	}
	return decodeExport(r)
}

func decodeExport(r io.Reader) (map[string]attendance.RawUserRecord, error) {
	var doc export
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if len(doc.Users) == 0 {
		return nil, fmt.Errorf("export holds no users")
	}
	return doc.Users, nil
}

// parseNow accepts RFC3339 or a bare organization date, which is read as
// noon on that day so it always lands on the same organization date.
func parseNow(s string, resolver *timezone.Resolver) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, resolver.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: want RFC3339 or YYYY-MM-DD", s)
	}
	return t.Add(12 * time.Hour), nil
}

func buildPolicy(f reportFlags) (attendanceService.ShiftPolicy, attendanceService.Aggregator, error) {
	var expectedStart *timezone.WallClock
	if f.expectedStart != "" {
		c, err := timezone.ParseWallClock(f.expectedStart)
		if err != nil {
			return attendanceService.ShiftPolicy{}, attendanceService.Aggregator{}, fmt.Errorf("invalid --expected-start: %w", err)
		}
		expectedStart = &c
	}

	fullDay, err := decimal.NewFromString(f.fullDayHours)
	if err != nil || !fullDay.IsPositive() {
		return attendanceService.ShiftPolicy{}, attendanceService.Aggregator{}, fmt.Errorf("invalid --full-day-hours %q", f.fullDayHours)
	}
	if f.grace < 0 {
		return attendanceService.ShiftPolicy{}, attendanceService.Aggregator{}, fmt.Errorf("--grace must not be negative")
	}

	return attendanceService.ShiftPolicy{ExpectedStart: expectedStart, GracePeriod: f.grace},
		attendanceService.Aggregator{FullDayHours: fullDay, ExpectedStart: expectedStart},
		nil
}

func tierColor(tier string) *color.Color {
	switch attendance.Tier(tier) {
	case attendance.TierBlue:
		return color.New(color.FgBlue, color.Bold)
	case attendance.TierGreen:
		return color.New(color.FgGreen)
	case attendance.TierOrange:
		return color.New(color.FgYellow)
	case attendance.TierRed:
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

func renderLeaderboard(out io.Writer, board attendance.LeaderboardResponse) {
	header := color.New(color.Bold)
	header.Fprintf(out, "Leaderboard, %d days ending %s\n\n", board.WindowDays, board.WindowEnd)

	if len(board.Entries) == 0 {
		fmt.Fprintln(out, "No attendance data.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUSER\tATTENDANCE\tPUNCTUALITY\tHOURS\tSTREAK\tTIER")
	for _, e := range board.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s%%\t%s%%\t%s\t%d\t%s\n",
			e.Position,
			e.UserID,
			e.AttendanceRate.StringFixed(1),
			e.PunctualityRate.StringFixed(1),
			e.TotalHours.StringFixed(2),
			e.PerfectStreak,
			tierColor(e.Tier).Sprint(strings.ToUpper(e.Tier)),
		)
	}
	_ = tw.Flush()
}

func renderPerformance(out io.Writer, perf attendance.PerformanceResponse, sessions attendance.ListSessionsResponse) {
	header := color.New(color.Bold)
	header.Fprintf(out, "%s, %s to %s\n", perf.UserID, perf.WindowStart, perf.WindowEnd)
	fmt.Fprintf(out, "Tier: %s\n\n", tierColor(perf.Tier).Sprint(strings.ToUpper(perf.Tier)))

	weekday := "-"
	if perf.MostActiveWeekday != nil {
		weekday = *perf.MostActiveWeekday
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Sessions\t%d (present %d, on time %d)\n", perf.SessionCount, perf.PresentCount, perf.OnTimeCount)
	fmt.Fprintf(tw, "Attendance rate\t%s%%\n", perf.AttendanceRate.StringFixed(1))
	fmt.Fprintf(tw, "Punctuality rate\t%s%%\n", perf.PunctualityRate.StringFixed(1))
	fmt.Fprintf(tw, "Early arrivals\t%s%%\n", perf.EarlyArrivalRate.StringFixed(1))
	fmt.Fprintf(tw, "Total hours\t%s (avg %s/day)\n", perf.TotalHours.StringFixed(2), perf.AvgHoursPerDay.StringFixed(2))
	fmt.Fprintf(tw, "Previous window\t%s (%s%%)\n", perf.PreviousWindowHours.StringFixed(2), perf.HoursChangePercent.StringFixed(1))
	fmt.Fprintf(tw, "Perfect streak\t%d\n", perf.PerfectStreak)
	fmt.Fprintf(tw, "Most active day\t%s\n", weekday)
	if perf.SkippedEntries > 0 {
		fmt.Fprintf(tw, "Skipped entries\t%s\n", color.RedString("%d", perf.SkippedEntries))
	}
	_ = tw.Flush()

	if len(sessions.Sessions) == 0 {
		return
	}

	fmt.Fprintln(out)
	header.Fprintf(out, "Recent sessions (%s)\n", sessions.Showing)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tIN\tOUT\tHOURS\tTYPE\tLATE")
	for _, s := range sessions.Sessions {
		hours := "-"
		if s.HoursWorked != nil {
			hours = s.HoursWorked.StringFixed(2)
		}
		late := "no"
		if s.IsLate {
			late = color.RedString("yes")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Date, orDash(s.ClockIn), orDash(s.ClockOut), hours, s.SessionType, late)
	}
	_ = tw.Flush()
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
