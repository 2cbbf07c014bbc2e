package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/lifecycle"
	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
	"github.com/nhle/facultyflow/internal/store"
	"github.com/nhle/facultyflow/internal/taskview"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksStartCmd(app))
	cmd.AddCommand(newTasksSubmitCmd(app))
	cmd.AddCommand(newTasksReviewCmd(app))
	cmd.AddCommand(newTasksHistoryCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksByUserCmd(app))
	cmd.AddCommand(newTasksCachedCmd(app))
	return cmd
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseStatusFlag(s string) (model.TaskStatus, error) {
	return taskview.ParseStatusFilter(s)
}

func newTasksListCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks visible to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStatusFlag(status)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, user, err := app.require(cmd.Context(), session.RouteTasks)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := c.ListTasks(cmd.Context(), st)
			if err != nil {
				return writeErr(cmd, err)
			}
			if st == "" {
				app.saveSnapshot(cmd, user.ID, tasks)
			}
			taskview.SortByUpdated(tasks)
			return writeOut(cmd, app, tasks, func(w io.Writer) {
				fmt.Fprintln(w, taskview.Title(user.Role))
				renderTasks(w, tasks)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status (PENDING, IN_PROGRESS, SUBMITTED, COMPLETED, OVERDUE)")
	return cmd
}

// saveSnapshot refreshes the offline cache after a full listing. Failures
// are logged and otherwise ignored.
func (a *App) saveSnapshot(cmd *cobra.Command, viewerID int64, tasks []model.Task) {
	st, err := openCache(a.cfg.Cache.Path)
	if err != nil {
		logging.Logger.WithError(err).Warn("saving task snapshot")
		return
	}
	defer st.Close()
	if err := st.SaveSnapshot(cmd.Context(), viewerID, tasks, time.Now()); err != nil {
		logging.Logger.WithError(err).Warn("saving task snapshot")
	}
}

func renderTasks(w io.Writer, tasks []model.Task) {
	now := time.Now()
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := t.DueAt.Local().Format("2006-01-02 15:04")
		if t.IsOverdue(now) {
			due += " !"
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			truncate(t.Title, 40),
			t.Status.Label(),
			string(t.Band()),
			due,
			displayRef(t.AssignedTo),
		})
	}
	renderTable(w, []string{"ID", "Title", "Status", "Priority", "Due", "Assigned to"}, rows)
}

func displayRef(r model.UserRef) string {
	if r.Name != "" {
		return r.Name
	}
	return r.Email
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its submission and permitted actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, user, err := app.require(cmd.Context(), session.RouteTasks)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := lifecycle.NewController(c).Load(cmd.Context(), user, id)
			if err != nil {
				return writeErr(cmd, notFound(err, id))
			}
			return writeOut(cmd, app, detailJSON(d), func(w io.Writer) {
				renderDetail(w, d)
			})
		},
	}
}

// notFound rewords a 404 for a task id.
func notFound(err error, id int64) error {
	if api.IsNotFound(err) {
		return fmt.Errorf("task #%d was not found", id)
	}
	return err
}

type detailOut struct {
	Task        model.Task         `json:"task"`
	Submissions []model.Submission `json:"submissions"`
	Actions     []string           `json:"actions"`
}

func detailJSON(d lifecycle.Detail) detailOut {
	out := detailOut{Task: d.Task, Submissions: d.Submissions, Actions: []string{}}
	for _, a := range d.Actions.Actions() {
		out.Actions = append(out.Actions, a.String())
	}
	return out
}

func renderDetail(w io.Writer, d lifecycle.Detail) {
	t := d.Task
	renderFields(w, [][2]string{
		{"Task", fmt.Sprintf("#%d %s", t.ID, t.Title)},
		{"Status", t.Status.Label()},
		{"Priority", fmt.Sprintf("%d (%s)", t.Priority, t.Band())},
		{"Due", t.DueAt.Local().Format("Mon 2006-01-02 15:04")},
		{"Assigned to", displayRef(t.AssignedTo)},
		{"Assigned by", displayRef(t.AssignedBy)},
		{"Links", strings.Join(t.Links, " ")},
	})
	if desc := strings.TrimSpace(t.Description); desc != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, desc)
	}
	if sub, ok := d.Relevant(); ok {
		fmt.Fprintln(w)
		renderFields(w, [][2]string{
			{"Submission", fmt.Sprintf("#%d %s", sub.ID, sub.Decision)},
			{"Submitted", sub.SubmittedAt.Local().Format("2006-01-02 15:04")},
			{"Summary", truncate(sub.Summary, 72)},
			{"Note", sub.Note},
		})
	}
	if d.SubmissionsErr != nil {
		fmt.Fprintln(w, "Submission history unavailable:", errorText(d.SubmissionsErr))
	}
	if d.Actions != 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Actions:", d.Actions.String())
	}
}

// loadForAction fetches the task so the transition is checked against
// the server's current state.
func loadForAction(cmd *cobra.Command, app *App, arg string) (*lifecycle.Controller, model.User, model.Task, error) {
	id, err := parseTaskID(arg)
	if err != nil {
		return nil, model.User{}, model.Task{}, err
	}
	c, user, err := app.require(cmd.Context(), session.RouteTasks)
	if err != nil {
		return nil, model.User{}, model.Task{}, err
	}
	ctrl := lifecycle.NewController(c)
	d, err := ctrl.Load(cmd.Context(), user, id)
	if err != nil {
		return nil, model.User{}, model.Task{}, notFound(err, id)
	}
	return ctrl, user, d.Task, nil
}

func newTasksStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Start a pending or overdue task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, user, task, err := loadForAction(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := ctrl.Start(cmd.Context(), user, task)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, detailJSON(d), func(w io.Writer) {
				fmt.Fprintf(w, "Task #%d is now %s\n", d.Task.ID, d.Task.Status.Label())
			})
		},
	}
}

func newTasksSubmitCmd(app *App) *cobra.Command {
	var summary string
	var links []string

	cmd := &cobra.Command{
		Use:   "submit <task-id>",
		Short: "Submit completed work for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, user, task, err := loadForAction(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := ctrl.Submit(cmd.Context(), user, task, lifecycle.SubmitInput{Summary: summary, Links: links})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, detailJSON(d), func(w io.Writer) {
				fmt.Fprintf(w, "Task #%d submitted for review\n", d.Task.ID)
			})
		},
	}

	cmd.Flags().StringVar(&summary, "summary", "", "What was done")
	cmd.Flags().StringArrayVar(&links, "link", nil, "Evidence URL (repeatable)")
	return cmd
}

func newTasksReviewCmd(app *App) *cobra.Command {
	var decision, note string

	cmd := &cobra.Command{
		Use:   "review <task-id>",
		Short: "Approve or reject the pending submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, user, task, err := loadForAction(cmd, app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := ctrl.Review(cmd.Context(), user, task, lifecycle.ReviewInput{Decision: decision, Note: note})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, detailJSON(d), func(w io.Writer) {
				fmt.Fprintf(w, "Task #%d is now %s\n", d.Task.ID, d.Task.Status.Label())
			})
		},
	}

	cmd.Flags().StringVar(&decision, "decision", "", "APPROVED or REJECTED")
	cmd.Flags().StringVar(&note, "note", "", "Feedback for the faculty member")
	return cmd
}

func newTasksHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <task-id>",
		Short: "List a task's submissions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, _, err := app.require(cmd.Context(), session.RouteTasks)
			if err != nil {
				return writeErr(cmd, err)
			}
			subs, err := lifecycle.NewController(c).History(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, notFound(err, id))
			}
			return writeOut(cmd, app, subs, func(w io.Writer) {
				rows := make([][]string, 0, len(subs))
				for _, s := range subs {
					reviewer := ""
					if s.ReviewedBy != nil {
						reviewer = displayRef(*s.ReviewedBy)
					}
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						s.SubmittedAt.Local().Format("2006-01-02 15:04"),
						string(s.Decision),
						truncate(s.Summary, 40),
						reviewer,
					})
				}
				renderTable(w, []string{"ID", "Submitted", "Decision", "Summary", "Reviewed by"}, rows)
			})
		},
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var (
		in    model.TaskCreate
		due   string
		links []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Assign a new task (HOD and ADMIN)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, user, err := app.require(cmd.Context(), session.RouteCreateTask)
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(due) != "" {
				t, err := lifecycle.ParseDueDate(due, time.Local)
				if err != nil {
					return writeErr(cmd, err)
				}
				in.DueAt = t
			}
			in.Links = links
			t, err := lifecycle.NewController(c).Create(cmd.Context(), user, in)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, t, func(w io.Writer) {
				fmt.Fprintf(w, "Created task #%d %q\n", t.ID, t.Title)
			})
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Task description (markdown)")
	cmd.Flags().StringVar(&due, "due", "", "Due date, 2025-01-31 or \"2025-01-31 17:00\"")
	cmd.Flags().Int64Var(&in.AssignedToUserID, "assignee", 0, "User id of the assignee")
	cmd.Flags().IntVar(&in.Priority, "priority", 0, fmt.Sprintf("Priority %d-%d (default %d)", lifecycle.MinTaskPriority, lifecycle.MaxTaskPriority, model.DefaultPriority))
	cmd.Flags().StringArrayVar(&links, "link", nil, "Reference URL (repeatable)")
	return cmd
}

func newTasksByUserCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "by-user <user-id>",
		Short: "List tasks assigned to one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || uid <= 0 {
				return writeErr(cmd, fmt.Errorf("invalid user id %q", args[0]))
			}
			st, err := parseStatusFlag(status)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, _, err := app.require(cmd.Context(), session.RouteTasks)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := c.TasksByUser(cmd.Context(), uid, st)
			if err != nil {
				return writeErr(cmd, err)
			}
			taskview.SortByUpdated(tasks)
			return writeOut(cmd, app, tasks, func(w io.Writer) {
				renderTasks(w, tasks)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status")
	return cmd
}

func newTasksCachedCmd(app *App) *cobra.Command {
	var status, query string

	cmd := &cobra.Command{
		Use:   "cached",
		Short: "List the last fetched tasks without contacting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStatusFlag(status)
			if err != nil {
				return writeErr(cmd, err)
			}
			token, err := app.tokens.Get(credential.TokenKey)
			if errors.Is(err, credential.ErrNotFound) {
				return writeErr(cmd, errNotSignedIn)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			viewer, ok := session.TokenSubject(token)
			if !ok {
				return writeErr(cmd, errors.New("stored token does not identify a user; run `facultyflow tasks list` while online"))
			}

			s, err := openCache(app.cfg.Cache.Path)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			fetched, err := s.LastFetched(cmd.Context(), viewer)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := s.GetTasks(cmd.Context(), viewer, store.TaskFilter{Status: st, Query: query})
			if err != nil {
				return writeErr(cmd, err)
			}
			out := struct {
				FetchedAt time.Time    `json:"fetchedAt"`
				Tasks     []model.Task `json:"tasks"`
			}{fetched, tasks}
			return writeOut(cmd, app, out, func(w io.Writer) {
				if fetched.IsZero() {
					fmt.Fprintln(w, "No cached tasks yet")
					return
				}
				fmt.Fprintln(w, "Cached at", fetched.Local().Format("2006-01-02 15:04"))
				renderTasks(w, tasks)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status")
	cmd.Flags().StringVar(&query, "search", "", "Match title or description")
	return cmd
}
