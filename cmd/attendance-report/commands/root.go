package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"

	flags reportFlags
)

type reportFlags struct {
	file          string
	user          string
	window        int
	now           string
	timezone      string
	expectedStart string
	grace         time.Duration
	fullDayHours  string
	sessions      int
	verbose       bool
}

var rootCmd = &cobra.Command{
	Use:   "attendance-report",
	Short: "Attendance report over an exported attendance document tree",
	Long: `Reads a JSON export of the attendance tree ({"users": {"<id>": {...}}}),
reconciles every user's sessions and prints either the leaderboard or,
with --user, one member's performance and recent sessions.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelError
		if flags.verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd.Context(), flags, cmd.OutOrStdout())
	},
}

func Execute() error {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "path to the JSON export (- for stdin)")
	f.StringVarP(&flags.user, "user", "u", "", "report a single user instead of the leaderboard")
	f.IntVarP(&flags.window, "window", "w", 30, "rolling window in days")
	f.StringVar(&flags.now, "now", "", "reference time, RFC3339 or YYYY-MM-DD (default: current time)")
	f.StringVar(&flags.timezone, "timezone", "UTC", "organization IANA timezone")
	f.StringVar(&flags.expectedStart, "expected-start", "", "scheduled start time, e.g. 09:00")
	f.DurationVar(&flags.grace, "grace", 0, "grace period after the expected start")
	f.StringVar(&flags.fullDayHours, "full-day-hours", "8", "hours in a full day")
	f.IntVar(&flags.sessions, "sessions", 10, "number of recent sessions to list with --user")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log skipped entries to stderr")

	_ = rootCmd.MarkFlagRequired("file")
}

