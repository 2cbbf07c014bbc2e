package settings

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
	tasksync "github.com/nhle/facultyflow/internal/sync"
	"github.com/nhle/facultyflow/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeInfo       Mode = iota // Account, connection and sync summary
	ModeForm                   // Editing preferences
	ModeValidating             // Testing the connection
)

// CheckFunc probes the API at baseURL.
type CheckFunc func(ctx context.Context, baseURL string) error

// SavedMsg is dispatched after the configuration file was written.
type SavedMsg struct {
	Config model.AppConfig
	// Restart is set when a change only applies after a restart.
	Restart bool
}

// CheckResultMsg carries the result of a connection test.
type CheckResultMsg struct {
	BaseURL string
	Err     error
}

type savedInternalMsg struct {
	cfg     model.AppConfig
	restart bool
	err     error
}

type formBindings struct {
	baseURL     string
	timeout     string
	syncEnabled bool
	interval    string
	theme       string
}

// Model is the Bubble Tea model for the settings screen.
type Model struct {
	mode       Mode
	cfg        model.AppConfig
	configPath string
	user       model.User
	sync       tasksync.SyncStatus
	check      CheckFunc
	form       *huh.Form
	fb         *formBindings
	spinner    spinner.Model
	checkErr   error
	checked    bool
	statusMsg  string
	keys       *keys.KeyMap
	width      int
	height     int
}

// New creates a settings view for cfg stored at configPath.
func New(cfg model.AppConfig, configPath string, check CheckFunc, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:       ModeInfo,
		cfg:        cfg,
		configPath: configPath,
		check:      check,
		fb:         &formBindings{},
		spinner:    sp,
		keys:       k,
		width:      width,
		height:     height,
	}
}

// SetUser sets the signed-in account shown on the screen.
func (m *Model) SetUser(u model.User) { m.user = u }

// SetSyncStatus sets the background refresh status shown on the screen.
func (m *Model) SetSyncStatus(s tasksync.SyncStatus) { m.sync = s }

// Config returns the current configuration.
func (m Model) Config() model.AppConfig { return m.cfg }

// Mode returns the current mode.
func (m Model) Mode() Mode { return m.mode }

// Editing reports whether the preferences form is open.
func (m Model) Editing() bool { return m.mode == ModeForm }

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case CheckResultMsg:
		m.mode = ModeInfo
		m.checked = true
		m.checkErr = msg.Err
		return m, nil

	case savedInternalMsg:
		m.mode = ModeInfo
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Settings saved"
		if msg.restart {
			m.statusMsg += ". Restart to apply connection and sync changes"
		}
		cfg, restart := msg.cfg, msg.restart
		return m, func() tea.Msg { return SavedMsg{Config: cfg, Restart: restart} }

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)
	case ModeInfo:
		if km, ok := msg.(tea.KeyMsg); ok {
			return m.handleInfoKeys(km)
		}
	}
	return m, nil
}

func (m Model) handleInfoKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Edit):
		m.statusMsg = ""
		m.loadBindings()
		m.form = m.buildForm()
		m.mode = ModeForm
		return m, m.form.Init()
	case msg.String() == "t":
		return m.startCheck()
	}
	return m, nil
}

func (m Model) startCheck() (Model, tea.Cmd) {
	if m.check == nil {
		return m, nil
	}
	m.mode = ModeValidating
	m.checked = false
	check, base := m.check, m.cfg.API.BaseURL
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return CheckResultMsg{BaseURL: base, Err: check(ctx, base)}
		},
	)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		m.mode = ModeInfo
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.save()
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeInfo
		return m, nil
	}
	return m, cmd
}

func (m *Model) loadBindings() {
	m.fb.baseURL = m.cfg.API.BaseURL
	m.fb.timeout = strconv.Itoa(m.cfg.API.HTTPTimeoutSec)
	m.fb.syncEnabled = m.cfg.Sync.Enabled
	m.fb.interval = strconv.Itoa(m.cfg.Sync.PollIntervalSec)
	m.fb.theme = m.cfg.Display.Theme
	if m.fb.theme == "" {
		m.fb.theme = "dark"
	}
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("API root including /api").
				Placeholder(model.DefaultBaseURL).
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Description("0 keeps the default").
				Value(&m.fb.timeout).
				Validate(validateSeconds(0)),
			huh.NewConfirm().
				Title("Refresh tasks in the background?").
				Value(&m.fb.syncEnabled),
			huh.NewInput().
				Title("Refresh every (seconds)").
				Value(&m.fb.interval).
				Validate(validateSeconds(MinPollInterval)),
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
					huh.NewOption("No colors", "notty"),
					huh.NewOption("ASCII", "ascii"),
				).
				Value(&m.fb.theme),
		),
	).WithWidth(m.formWidth()).WithHeight(max(m.height-4, 10))
}

// MinPollInterval is the shortest background refresh accepted.
const MinPollInterval = 10

// apply returns cfg updated from the form and whether a restart is
// needed for it to take effect.
func (fb *formBindings) apply(cfg model.AppConfig) (model.AppConfig, bool) {
	out := cfg
	out.API.BaseURL = strings.TrimRight(strings.TrimSpace(fb.baseURL), "/")
	out.API.HTTPTimeoutSec, _ = strconv.Atoi(strings.TrimSpace(fb.timeout))
	out.Sync.Enabled = fb.syncEnabled
	out.Sync.PollIntervalSec, _ = strconv.Atoi(strings.TrimSpace(fb.interval))
	out.Display.Theme = fb.theme

	restart := out.API != cfg.API || out.Sync != cfg.Sync
	return out, restart
}

func (m Model) save() tea.Cmd {
	cfg, restart := m.fb.apply(m.cfg)
	path := m.configPath
	return func() tea.Msg {
		if err := model.SaveConfig(path, &cfg); err != nil {
			return savedInternalMsg{err: err}
		}
		return savedInternalMsg{cfg: cfg, restart: restart}
	}
}

// View renders the settings screen.
func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.TitleStyle.Render("Preferences") + "\n\n" + m.form.View(),
		)
	case ModeValidating:
		return lipgloss.NewStyle().Padding(1, 2).Render(
			fmt.Sprintf("%s Testing connection to %s...", m.spinner.View(), m.cfg.API.BaseURL),
		)
	}
	return m.viewInfo()
}

func (m Model) viewInfo() string {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", theme.LabelStyle.Width(18).Render(label), theme.ValueStyle.Render(value))
	}

	b.WriteString(theme.TitleStyle.Render("Account") + "\n")
	if m.user.ID != 0 {
		row("Name", m.user.Name)
		row("Email", m.user.Email)
		row("Role", string(m.user.Role))
		if m.user.Department != "" {
			row("Department", m.user.Department)
		}
	} else {
		row("Signed in", "no")
	}

	b.WriteString("\n" + theme.TitleStyle.Render("Connection") + "\n")
	row("Server", m.cfg.API.BaseURL)
	if m.cfg.API.HTTPTimeoutSec > 0 {
		row("Timeout", fmt.Sprintf("%ds", m.cfg.API.HTTPTimeoutSec))
	}
	if m.checked {
		if m.checkErr != nil {
			row("Status", theme.ErrorStyle.Render("unreachable: "+api.MessageOf(m.checkErr)))
		} else {
			row("Status", theme.SuccessStyle.Render("reachable"))
		}
	}

	b.WriteString("\n" + theme.TitleStyle.Render("Background refresh") + "\n")
	if m.cfg.Sync.Enabled {
		row("Every", fmt.Sprintf("%ds", m.cfg.Sync.PollIntervalSec))
		row("State", m.sync.State.String())
		if !m.sync.LastSync.IsZero() {
			row("Last refresh", m.sync.LastSync.Local().Format("Jan 02 15:04:05"))
		}
		if m.sync.Error != nil {
			row("Last error", theme.ErrorStyle.Render(api.MessageOf(m.sync.Error)))
		}
		row("Circuit", m.sync.Breaker.String())
	} else {
		row("Enabled", "no")
	}

	b.WriteString("\n" + theme.TitleStyle.Render("Files") + "\n")
	row("Config", m.configPath)
	row("Cache", m.cfg.Cache.Path)
	row("Log", m.cfg.Log.Path)
	row("Theme", m.cfg.Display.Theme)

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(m.Hints()))
	return b.String()
}

// Hints returns status bar hints for the current mode.
func (m Model) Hints() string {
	switch m.mode {
	case ModeForm:
		return "enter next | esc cancel"
	case ModeValidating:
		return "testing..."
	}
	return "e edit | t test connection | L sign out"
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// Reachable reports whether err from a probe still proves the server
// answered. Any HTTP status counts; only transport failures do not.
func Reachable(err error) bool {
	return err == nil || api.StatusOf(err) > 0
}

// ProbeAPI returns a CheckFunc that asks the server who is signed in
// without sending a token. A 401 is the expected healthy answer.
func ProbeAPI(timeout time.Duration) CheckFunc {
	return func(ctx context.Context, baseURL string) error {
		c := api.NewClient(baseURL, nil, api.WithTimeout(timeout))
		_, err := c.Me(ctx)
		if Reachable(err) {
			return nil
		}
		return err
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("URL must include http:// or https:// and a host")
	}
	return nil
}

func validateSeconds(minimum int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("enter a whole number of seconds")
		}
		if n < minimum {
			return fmt.Errorf("must be at least %d", minimum)
		}
		return nil
	}
}
