package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var date dateValue

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Complete plan items that a date's logs already satisfy",
		Long: `Re-derive plan completions for one date from its logs.

Use this after a log was recorded but its plan update failed, or with
reconcile_on_read disabled. Items already completed are left unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(rootOpts, f, func(app *App) error {
				day := date.Or(app.Tracker.Today())
				res, err := app.Tracker.Reconcile(cmd.Context(), app.User, day)
				if err != nil {
					return err
				}
				return f.Render(res, func(w io.Writer, p palette) {
					if res.Completed == 0 {
						fmt.Fprintf(w, "%s %s: nothing to complete\n", p.ok("✓"), day)
						return
					}
					fmt.Fprintf(w, "%s %s\n", p.ok("✓"), day)
					writeCompletion(w, res)
				})
			})
		},
	}
	addDateFlag(cmd.Flags(), &date, "date", "date to reconcile")
	return cmd
}
