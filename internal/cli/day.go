package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/healthsync/internal/domain"
)

// NewDayCommand creates the day command.
func NewDayCommand(rootOpts *RootOptions) *cobra.Command {
	var date dateValue

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show everything logged and planned for a date",
		Long: `Show the daily view: meals, exercise, water, the day's sleep and the
plan. Unless reconcile_on_read is disabled in the config, plan items that
an earlier log should have completed are completed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(rootOpts, f, func(app *App) error {
				view, err := app.Tracker.GetDailyView(cmd.Context(), app.User, date.Or(app.Tracker.Today()))
				if err != nil {
					return err
				}
				return f.Render(view, func(w io.Writer, p palette) {
					writeDailyView(w, p, view)
				})
			})
		},
	}
	addDateFlag(cmd.Flags(), &date, "date", "date to show")
	return cmd
}

func writeDailyView(w io.Writer, p palette, view domain.DailyView) {
	fmt.Fprintln(w, p.head(view.Date.String()))

	fmt.Fprintln(w, p.head("Meals"))
	for _, m := range view.Meals {
		fmt.Fprintf(w, "  %s x%s %s\n", m.MealID, decimalText(m.Servings), p.dim(m.ID))
	}
	if len(view.Meals) == 0 {
		fmt.Fprintln(w, p.dim("  none"))
	}

	fmt.Fprintln(w, p.head("Exercise"))
	for _, e := range view.Exercises {
		fmt.Fprintf(w, "  %s %s min, %d kcal %s\n", e.ExerciseID, decimalText(e.DurationMinutes), e.CaloriesBurned, p.dim(e.ID))
	}
	if len(view.Exercises) == 0 {
		fmt.Fprintln(w, p.dim("  none"))
	}

	fmt.Fprintln(w, p.head("Water"))
	total := 0
	for _, l := range view.Water {
		total += l.AmountML
	}
	fmt.Fprintf(w, "  %d ml in %d log(s)\n", total, len(view.Water))

	fmt.Fprintln(w, p.head("Sleep"))
	if view.Sleep == nil {
		fmt.Fprintln(w, p.dim("  none"))
	} else {
		fmt.Fprintf(w, "  %s h", decimalText(view.Sleep.DurationHours))
		if view.Sleep.Quality > 0 {
			fmt.Fprintf(w, ", quality %d", view.Sleep.Quality)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, p.head("Plan"))
	for _, item := range view.Plan {
		writePlanItem(w, p, item)
	}
	if len(view.Plan) == 0 {
		fmt.Fprintln(w, p.dim("  nothing planned"))
	}
}
