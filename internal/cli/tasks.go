package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dayplan/internal/sqlite"
	"github.com/mesh-intelligence/dayplan/internal/tasks"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

func newTasksCmd(f *rootFlags) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Administer a user's tasks directly against the datastore",
		Long: `Run task operations as --user without going through the HTTP server.

Example:
  dayplan tasks add --user alice --date 2025-12-01 "Buy groceries"
  dayplan tasks list --user alice --date 2025-12-01
  dayplan tasks dates --user alice --limit 7
  dayplan tasks reorder --user alice --date 2025-12-01 <id> <id> ...`,
	}
	cmd.PersistentFlags().StringVar(&user, "user", "", "acting user id (required)")

	runAs := func(fn func(ctx context.Context, svc *tasks.Service, owner string, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return fmt.Errorf("%w: --user is required", errUsage)
			}
			return withService(f, func(svc *tasks.Service) error {
				return fn(cmd.Context(), svc, user, cmd.OutOrStdout())
			})
		}
	}

	cmd.AddCommand(newTasksListCmd(f, runAs))
	cmd.AddCommand(newTasksAddCmd(f, runAs))
	cmd.AddCommand(newTasksDatesCmd(f, runAs))
	cmd.AddCommand(newTasksReorderCmd(runAs))
	return cmd
}

type taskRunner func(fn func(ctx context.Context, svc *tasks.Service, owner string, out io.Writer) error) func(*cobra.Command, []string) error

// withService attaches the datastore for the duration of fn.
func withService(f *rootFlags, fn func(*tasks.Service) error) (err error) {
	s, err := loadSettings(f)
	if err != nil {
		return err
	}
	backend := sqlite.NewBackend()
	if err := backend.Attach(s.Store); err != nil {
		return fmt.Errorf("attaching datastore: %w", err)
	}
	defer func() {
		if derr := backend.Detach(); derr != nil && err == nil {
			err = fmt.Errorf("detaching datastore: %w", derr)
		}
	}()
	store, err := backend.Tasks()
	if err != nil {
		return err
	}
	return fn(tasks.NewService(store))
}

func newTasksListCmd(f *rootFlags, runAs taskRunner) *cobra.Command {
	var search, date, completed string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in display order",
		Args:  cobra.NoArgs,
		RunE: runAs(func(ctx context.Context, svc *tasks.Service, owner string, out io.Writer) error {
			var filter types.TaskFilter
			if s := strings.TrimSpace(search); s != "" {
				filter.Search = &s
			}
			if date != "" {
				d, err := types.ParseDate("date", date)
				if err != nil {
					return err
				}
				filter.Date = &d
			}
			switch completed {
			case "":
			case "yes", "true":
				done := true
				filter.IsCompleted = &done
			case "no", "false":
				done := false
				filter.IsCompleted = &done
			default:
				return types.Invalid("completed", types.ErrInvalidFlag)
			}

			list, err := svc.List(ctx, owner, filter)
			if err != nil {
				return err
			}
			if f.jsonMode {
				return writeJSON(out, list)
			}
			return printTaskTable(out, list)
		}),
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text to look for in statements")
	cmd.Flags().StringVar(&date, "date", "", "only tasks on this YYYY-MM-DD date")
	cmd.Flags().StringVar(&completed, "completed", "", "filter by completion (yes or no)")
	return cmd
}

func newTasksAddCmd(f *rootFlags, runAs taskRunner) *cobra.Command {
	var (
		date string
		done bool
	)
	cmd := &cobra.Command{
		Use:   "add <statement>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statement := strings.Join(args, " ")
			return runAs(func(ctx context.Context, svc *tasks.Service, owner string, out io.Writer) error {
				task, err := svc.Create(ctx, owner, types.NewTask{Statement: statement, TaskDate: date, IsCompleted: done})
				if err != nil {
					return err
				}
				if f.jsonMode {
					return writeJSON(out, task)
				}
				fmt.Fprintf(out, "Created task %s on %s\n", task.ID, task.TaskDate)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "task date, YYYY-MM-DD (required)")
	cmd.Flags().BoolVar(&done, "done", false, "create the task already completed")
	return cmd
}

func newTasksDatesCmd(f *rootFlags, runAs taskRunner) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Show task counts per date, most recent first",
		Args:  cobra.NoArgs,
		RunE: runAs(func(ctx context.Context, svc *tasks.Service, owner string, out io.Writer) error {
			dates, err := svc.Dates(ctx, owner, limit)
			if err != nil {
				return err
			}
			if f.jsonMode {
				return writeJSON(out, dates)
			}
			if len(dates) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTASKS")
			for _, d := range dates {
				fmt.Fprintf(w, "%s\t%d\n", d.Date, d.TaskCount)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 0, fmt.Sprintf("number of dates (default %d, max %d)", types.DefaultDatesLimit, types.MaxDatesLimit))
	return cmd
}

func newTasksReorderCmd(runAs taskRunner) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "reorder <task-id>...",
		Short: "Set the display order of a date's tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAs(func(ctx context.Context, svc *tasks.Service, owner string, out io.Writer) error {
				if err := svc.Reorder(ctx, owner, date, args); err != nil {
					return err
				}
				fmt.Fprintf(out, "Reordered %d task(s) on %s\n", len(args), date)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date whose tasks are reordered, YYYY-MM-DD (required)")
	return cmd
}

func writeJSON(out io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// printTaskTable prints tasks in a human-readable table.
func printTaskTable(out io.Writer, list []*types.Task) error {
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDONE\tSTATEMENT")
	for _, t := range list {
		done := " "
		if t.IsCompleted {
			done = "x"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.TaskDate, done, t.Statement)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Total: %d task(s)\n", len(list))
	return nil
}
