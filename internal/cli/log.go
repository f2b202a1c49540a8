package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/healthsync/internal/domain"
	"github.com/roach88/healthsync/internal/engine"
)

// LogOptions holds flags shared by the log subcommands.
type LogOptions struct {
	*RootOptions
	Date dateValue
}

// NewLogCommand creates the log command group.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a meal, exercise session, sleep or water intake",
		Long: `Record an activity. Every pending plan item for the same date that
the log satisfies is completed in the same call.

Examples:
  healthsync log meal oats --servings 1.5
  healthsync log exercise run --minutes 30 --calories 280
  healthsync log sleep --hours 7.5 --quality 4 --date 2024-03-01
  healthsync log water --ml 500`,
	}
	addDateFlag(cmd.PersistentFlags(), &opts.Date, "date", "date the activity belongs to")

	cmd.AddCommand(newLogMealCommand(opts))
	cmd.AddCommand(newLogExerciseCommand(opts))
	cmd.AddCommand(newLogSleepCommand(opts))
	cmd.AddCommand(newLogWaterCommand(opts))
	return cmd
}

func newLogMealCommand(opts *LogOptions) *cobra.Command {
	var servings string

	cmd := &cobra.Command{
		Use:   "meal <meal-id>",
		Short: "Log a catalog meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd)
			return withApp(opts.RootOptions, f, func(app *App) error {
				l := domain.MealLog{UserID: app.User, Date: opts.Date.Or(app.Tracker.Today()), MealID: args[0]}
				if servings != "" {
					d, err := domain.ParsePositiveDecimal("servings", servings)
					if err != nil {
						return err
					}
					l.Servings = d
				}
				res, err := app.Tracker.LogMeal(cmd.Context(), l)
				if err != nil {
					return err
				}
				return renderLog(f, res, "meal "+res.Log.MealID)
			})
		},
	}
	cmd.Flags().StringVar(&servings, "servings", "", "servings eaten (default 1)")
	return cmd
}

func newLogExerciseCommand(opts *LogOptions) *cobra.Command {
	var (
		minutes  string
		calories int
	)

	cmd := &cobra.Command{
		Use:   "exercise <exercise-id>",
		Short: "Log a catalog exercise session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd)
			return withApp(opts.RootOptions, f, func(app *App) error {
				d, err := domain.ParsePositiveDecimal("minutes", minutes)
				if err != nil {
					return err
				}
				res, err := app.Tracker.LogExercise(cmd.Context(), domain.ExerciseLog{
					UserID:          app.User,
					Date:            opts.Date.Or(app.Tracker.Today()),
					ExerciseID:      args[0],
					DurationMinutes: d,
					CaloriesBurned:  calories,
				})
				if err != nil {
					return err
				}
				return renderLog(f, res, "exercise "+res.Log.ExerciseID)
			})
		},
	}
	cmd.Flags().StringVar(&minutes, "minutes", "", "duration in minutes (required)")
	cmd.Flags().IntVar(&calories, "calories", 0, "calories burned")
	_ = cmd.MarkFlagRequired("minutes")
	return cmd
}

func newLogSleepCommand(opts *LogOptions) *cobra.Command {
	var (
		hours   string
		quality int
		notes   string
	)

	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Log a night's sleep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd)
			return withApp(opts.RootOptions, f, func(app *App) error {
				d, err := domain.ParsePositiveDecimal("hours", hours)
				if err != nil {
					return err
				}
				res, err := app.Tracker.LogSleep(cmd.Context(), domain.SleepLog{
					UserID:        app.User,
					Date:          opts.Date.Or(app.Tracker.Today()),
					DurationHours: d,
					Quality:       quality,
					Notes:         notes,
				})
				if err != nil {
					return err
				}
				return renderLog(f, res, "sleep "+res.Log.DurationHours.Text('f')+"h")
			})
		},
	}
	cmd.Flags().StringVar(&hours, "hours", "", "hours slept (required)")
	cmd.Flags().IntVar(&quality, "quality", 0, "sleep quality 1-5 (0 = unrated)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("hours")
	return cmd
}

func newLogWaterCommand(opts *LogOptions) *cobra.Command {
	var ml int

	cmd := &cobra.Command{
		Use:   "water",
		Short: "Log water intake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd)
			return withApp(opts.RootOptions, f, func(app *App) error {
				res, err := app.Tracker.LogWater(cmd.Context(), domain.WaterLog{
					UserID:   app.User,
					Date:     opts.Date.Or(app.Tracker.Today()),
					AmountML: ml,
				})
				if err != nil {
					return err
				}
				return renderLog(f, res, fmt.Sprintf("water %dml", res.Log.AmountML))
			})
		},
	}
	cmd.Flags().IntVar(&ml, "ml", 0, "amount in millilitres (required)")
	_ = cmd.MarkFlagRequired("ml")
	return cmd
}

// renderLog prints a LogResult; what describes the log in text output.
func renderLog[L any](f *OutputFormatter, res engine.LogResult[L], what string) error {
	return f.Render(res, func(w io.Writer, p palette) {
		fmt.Fprintf(w, "%s Logged %s %s\n", p.ok("✓"), what, p.dim("("+res.LogID+")"))
		writeCompletion(w, res.Completion)
		if res.Warning != "" {
			fmt.Fprintf(w, "%s %s\n", p.warn("!"), res.Warning)
		}
	})
}

func writeCompletion(w io.Writer, c domain.CompletionResult) {
	if c.Completed == 0 {
		return
	}
	fmt.Fprintf(w, "  completed %d plan item(s): %s\n", c.Completed, strings.Join(c.Matched, ", "))
}

// decimalText renders d, or "-" for a missing value.
func decimalText(d *apd.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.Text('f')
}

