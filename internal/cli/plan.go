package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/healthsync/internal/domain"
	"github.com/roach88/healthsync/internal/planfile"
)

// NewPlanCommand creates the plan command group.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Schedule and inspect plan items",
	}

	cmd.AddCommand(newPlanAddCommand(rootOpts))
	cmd.AddCommand(newPlanImportCommand(rootOpts))
	cmd.AddCommand(newPlanValidateCommand(rootOpts))
	cmd.AddCommand(newPlanListCommand(rootOpts))
	cmd.AddCommand(newPlanStatusCommand(rootOpts))
	cmd.AddCommand(newPlanCompleteCommand(rootOpts))
	return cmd
}

// PlanAddOptions holds flags for plan add.
type PlanAddOptions struct {
	*RootOptions
	Date        dateValue
	Time        string
	Type        string
	ReferenceID string
	Description string
}

func newPlanAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a pending plan item",
		Long: `Add a pending plan item.

Meal and exercise items complete automatically when a log with the same
--ref is recorded for the date. Sleep and water items complete on any log
of their type for the date. Items of type other only complete explicitly.

Example:
  healthsync plan add "Breakfast" --type meal --ref oats --time 07:30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts.RootOptions, cmd)
			return withApp(opts.RootOptions, f, func(app *App) error {
				tod, err := domain.ParseTimeOfDay(opts.Time)
				if err != nil {
					return err
				}
				kind, err := domain.ParseActivityType(opts.Type)
				if err != nil {
					return err
				}
				item, err := app.Tracker.CreatePlanItem(cmd.Context(), domain.PlanItem{
					UserID:      app.User,
					Date:        opts.Date.Or(app.Tracker.Today()),
					Time:        tod,
					Type:        kind,
					ReferenceID: opts.ReferenceID,
					Title:       args[0],
					Description: opts.Description,
				})
				if err != nil {
					return err
				}
				return f.Render(item, func(w io.Writer, p palette) {
					fmt.Fprintf(w, "%s Added plan item %s\n", p.ok("✓"), p.dim(item.ID))
					writePlanItem(w, p, item)
				})
			})
		},
	}

	addDateFlag(cmd.Flags(), &opts.Date, "date", "date the item is planned for")
	cmd.Flags().StringVar(&opts.Time, "time", "", "time of day, HH:MM (required)")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "meal|exercise|sleep|water|other (required)")
	cmd.Flags().StringVar(&opts.ReferenceID, "ref", "", "meal or exercise catalog id")
	cmd.Flags().StringVar(&opts.Description, "description", "", "longer description")
	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// ImportResult is the plan import payload.
type ImportResult struct {
	Count int               `json:"count"`
	Items []domain.PlanItem `json:"items"`
}

func newPlanImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import plan items from a CUE or JSON plan file",
		Long: `Import plan items from a plan file. The whole file is checked
before anything is stored.

File format:
  plan: [
    {date: "2024-03-01", time: "07:30", type: "meal", reference_id: "oats", title: "Breakfast"},
  ]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(rootOpts, f, func(app *App) error {
				items, err := loadPlanFile(args[0], app.User)
				if err != nil {
					return err
				}
				f.VerboseLog("loaded %d plan item(s) from %s", len(items), args[0])
				created, err := app.Tracker.ImportPlan(cmd.Context(), items)
				if err != nil {
					return err
				}
				return f.Render(ImportResult{Count: len(created), Items: created}, func(w io.Writer, p palette) {
					fmt.Fprintf(w, "%s Imported %d plan item(s)\n", p.ok("✓"), len(created))
					for _, item := range created {
						writePlanItem(w, p, item)
					}
				})
			})
		},
	}
	return cmd
}

// ValidationResult is the plan validate payload.
type ValidationResult struct {
	Valid bool `json:"valid"`
	Count int  `json:"count"`
}

func newPlanValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a plan file without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			items, err := loadPlanFile(args[0], rootOpts.Config.User)
			if err != nil {
				return f.Fail(ErrCodeGeneric, err)
			}
			for i := range items {
				if err := domain.ValidatePlanItem(&items[i]); err != nil {
					return f.Fail(ErrCodeGeneric, fmt.Errorf("plan item %d: %w", i, err))
				}
			}
			return f.Render(ValidationResult{Valid: true, Count: len(items)}, func(w io.Writer, p palette) {
				fmt.Fprintf(w, "%s %s: %d plan item(s)\n", p.ok("✓"), args[0], len(items))
			})
		},
	}
	return cmd
}

// loadPlanFile loads a plan file, turning schema problems into
// validation errors.
func loadPlanFile(path, userID string) ([]domain.PlanItem, error) {
	items, err := planfile.Load(path, userID)
	var perr *planfile.Error
	if errors.As(err, &perr) {
		return nil, &domain.Error{Code: domain.ErrCodeValidation, Message: perr.Error(), Field: "plan"}
	}
	return items, err
}

func newPlanListCommand(rootOpts *RootOptions) *cobra.Command {
	var date dateValue

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plan items for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(rootOpts, f, func(app *App) error {
				day := date.Or(app.Tracker.Today())
				items, err := app.Tracker.ListPlan(cmd.Context(), app.User, day)
				if err != nil {
					return err
				}
				return f.Render(items, func(w io.Writer, p palette) {
					fmt.Fprintln(w, p.head("Plan "+day.String()))
					if len(items) == 0 {
						fmt.Fprintln(w, p.dim("  nothing planned"))
					}
					for _, item := range items {
						writePlanItem(w, p, item)
					}
				})
			})
		},
	}
	addDateFlag(cmd.Flags(), &date, "date", "date to list")
	return cmd
}

// StatusResult is the plan status payload.
type StatusResult struct {
	ID     string            `json:"id"`
	Status domain.PlanStatus `json:"status"`
	Item   *domain.PlanItem  `json:"item,omitempty"`
}

func newPlanStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show whether a plan item is pending, completed or not found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(rootOpts, f, func(app *App) error {
				status, item, err := app.Tracker.PlanStatus(cmd.Context(), app.User, args[0])
				if err != nil {
					return err
				}
				return f.Render(StatusResult{ID: args[0], Status: status, Item: item}, func(w io.Writer, p palette) {
					fmt.Fprintf(w, "%s: %s\n", args[0], statusText(p, status))
				})
			})
		},
	}
	return cmd
}

func newPlanCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a plan item completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return withApp(rootOpts, f, func(app *App) error {
				item, err := app.Tracker.CompletePlanItem(cmd.Context(), app.User, args[0])
				if err != nil {
					return err
				}
				return f.Render(item, func(w io.Writer, p palette) {
					fmt.Fprintf(w, "%s Completed %s\n", p.ok("✓"), p.dim(item.ID))
					writePlanItem(w, p, item)
				})
			})
		},
	}
	return cmd
}

func writePlanItem(w io.Writer, p palette, item domain.PlanItem) {
	mark := "[ ]"
	if item.Completed {
		mark = p.ok("[x]")
	}
	ref := ""
	if item.ReferenceID != "" {
		ref = " " + p.dim("("+item.ReferenceID+")")
	}
	fmt.Fprintf(w, "  %s %s %-8s %s%s %s\n",
		mark, item.Time.String()[:5], item.Type, item.Title, ref, p.dim(item.ID))
}

func statusText(p palette, s domain.PlanStatus) string {
	switch s {
	case domain.PlanCompleted:
		return p.ok(string(s))
	case domain.PlanPending:
		return p.warn(string(s))
	default:
		return p.bad(string(s))
	}
}
