package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/app"
	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
	"github.com/nhle/facultyflow/internal/store"
	tasksync "github.com/nhle/facultyflow/internal/sync"
)

type App struct {
	ConfigPath string
	Server     string
	JSON       bool

	cfg    *model.AppConfig
	tokens credential.Store
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "facultyflow",
		Short:        "Faculty task management client (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  facultyflow

  # Sign in once, then script against the API
  facultyflow login --email hod@uni.edu
  facultyflow tasks list --status PENDING
  facultyflow tasks submit 12 --summary "Marks uploaded" --link https://lms.example/grades
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.load()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("FACULTYFLOW_CONFIG", model.DefaultConfigPath()), "Path to config.yaml")
	cmd.PersistentFlags().StringVar(&app.Server, "server", "", "API root URL (overrides api.base_url)")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print JSON instead of tables")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newPortfolioCmd(app))
	cmd.AddCommand(newAnalyticsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// load reads the configuration and starts file logging.
func (a *App) load() error {
	cfg, err := model.LoadConfig(a.ConfigPath)
	if err != nil {
		return err
	}
	if s := strings.TrimRight(strings.TrimSpace(a.Server), "/"); s != "" {
		cfg.API.BaseURL = s
	}
	a.cfg = cfg

	if err := logging.Init(cfg.Log.Path, cfg.Log.Level); err != nil {
		fmt.Fprintln(os.Stderr, "warning: file logging disabled:", err)
	}
	if a.tokens == nil {
		a.tokens = credential.NewKeyringStore(model.ConfigDir())
	}
	return nil
}

func (a *App) client() *api.Client {
	return api.NewClient(a.cfg.API.BaseURL, a.tokens, api.WithTimeout(a.cfg.API.HTTPTimeout()))
}

// signedIn restores the saved session and returns it with its client.
func (a *App) signedIn(ctx context.Context) (*api.Client, *session.Provider, model.User, error) {
	c := a.client()
	p := session.New(c, a.tokens)
	if err := p.Init(ctx); err != nil {
		return nil, nil, model.User{}, err
	}
	user, ok := p.Current()
	if !ok {
		return nil, nil, model.User{}, errNotSignedIn
	}
	return c, p, user, nil
}

// require is signedIn plus a role check for route.
func (a *App) require(ctx context.Context, route session.Route) (*api.Client, model.User, error) {
	c, p, _, err := a.signedIn(ctx)
	if err != nil {
		return nil, model.User{}, err
	}
	user, err := p.Require(route)
	if err != nil {
		return nil, model.User{}, err
	}
	return c, user, nil
}

var errNotSignedIn = errors.New("not signed in; run `facultyflow login`")

func runTUI(a *App) error {
	cfg := a.cfg

	st, err := openCache(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	client := a.client()
	sess := session.New(client, a.tokens)

	var poller *tasksync.Poller
	if cfg.Sync.Enabled {
		poller = tasksync.New(client, st, sess.Current, cfg.Sync.PollInterval())
	}

	m := app.New(app.Deps{
		Client:     client,
		Session:    sess,
		Store:      st,
		Poller:     poller,
		Config:     *cfg,
		ConfigPath: a.ConfigPath,
	})

	logging.Logger.WithField("server", cfg.API.BaseURL).Info("starting TUI")
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// openCache opens the task snapshot database, creating its directory.
func openCache(path string) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return st, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), errorText(err))
	return err
}

// errorText prefers the server's message for API errors.
func errorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status == 0 {
			return "cannot reach server: " + apiErr.Message
		}
		return apiErr.Message
	}
	return err.Error()
}
