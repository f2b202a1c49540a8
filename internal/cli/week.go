package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/healthsync/internal/domain"
)

// NewWeekCommand creates the week command.
func NewWeekCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		end  dateValue
		kind string
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Summarize sleep or exercise over the 7 days ending on a date",
		Long: `Summarize the 7-day window [end-6, end].

Sleep uses the latest log of each day; exercise adds a day's sessions.
The average divides by the days that have data and is rounded half-up to
one decimal place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(rootOpts, f, func(app *App) error {
				endDate := end.Or(app.Tracker.Today())

				var (
					summary domain.WeeklySummary
					err     error
				)
				switch domain.SummaryKind(kind) {
				case domain.SummarySleep:
					summary, err = app.Tracker.GetWeeklySummary(cmd.Context(), app.User, endDate)
				case domain.SummaryExercise:
					summary, err = app.Tracker.GetExerciseSummary(cmd.Context(), app.User, endDate)
				default:
					err = domain.NewValidationError("kind", fmt.Sprintf("unknown summary kind %q, want sleep or exercise", kind))
				}
				if err != nil {
					return err
				}
				return f.Render(summary, func(w io.Writer, p palette) {
					writeWeeklySummary(w, p, summary)
				})
			})
		},
	}
	addDateFlag(cmd.Flags(), &end, "end", "last date of the window")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(domain.SummarySleep), "sleep|exercise")
	return cmd
}

func writeWeeklySummary(w io.Writer, p palette, s domain.WeeklySummary) {
	unit := "h"
	if s.Kind == domain.SummaryExercise {
		unit = "min"
	}

	fmt.Fprintln(w, p.head(fmt.Sprintf("%s %s to %s", s.Kind, s.Start, s.End)))
	for _, day := range s.Days {
		if day.Duration == nil {
			fmt.Fprintf(w, "  %s %s\n", day.Date, p.dim("-"))
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n", day.Date, day.Duration.Text('f'), unit)
	}
	fmt.Fprintf(w, "days with data: %d\n", s.DaysWithData)
	fmt.Fprintf(w, "total: %s %s\n", decimalText(s.TotalDuration), unit)
	fmt.Fprintf(w, "average: %s %s\n", decimalText(s.AvgDuration), unit)
	for _, sk := range s.Skipped {
		fmt.Fprintf(w, "%s skipped %s on %s: %s\n", p.warn("!"), sk.LogID, sk.Date, sk.Reason)
	}
}
