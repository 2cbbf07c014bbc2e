package settings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
)

func baseConfig() model.AppConfig {
	return model.AppConfig{
		API:     model.APIConfig{BaseURL: "http://localhost:8080/api"},
		Sync:    model.SyncConfig{Enabled: true, PollIntervalSec: 120},
		Display: model.DisplayConfig{Theme: "dark"},
	}
}

func TestInfoView(t *testing.T) {
	m := New(baseConfig(), "/tmp/config.yaml", nil, keys.DefaultKeyMap(), 100, 40)
	m.SetUser(model.User{ID: 1, Name: "Ada", Email: "ada@uni.edu", Role: model.RoleFaculty})

	out := m.View()
	assert.Contains(t, out, "ada@uni.edu")
	assert.Contains(t, out, "http://localhost:8080/api")
	assert.Contains(t, out, "120s")
	assert.Contains(t, out, "closed")
}

func TestEditOpensForm(t *testing.T) {
	m := New(baseConfig(), "/tmp/config.yaml", nil, keys.DefaultKeyMap(), 100, 40)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.NotNil(t, cmd)
	assert.True(t, m.Editing())
	assert.Equal(t, "120", m.fb.interval)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeInfo, m.Mode())
}

func TestApply(t *testing.T) {
	cfg := baseConfig()
	fb := &formBindings{baseURL: "http://localhost:8080/api/", timeout: "0", syncEnabled: true, interval: "120", theme: "light"}
	out, restart := fb.apply(cfg)
	assert.False(t, restart, "theme applies live")
	assert.Equal(t, "light", out.Display.Theme)
	assert.Equal(t, "http://localhost:8080/api", out.API.BaseURL)

	fb.interval = "30"
	out, restart = fb.apply(cfg)
	assert.True(t, restart)
	assert.Equal(t, 30, out.Sync.PollIntervalSec)
}

func TestSaveWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := New(baseConfig(), path, nil, keys.DefaultKeyMap(), 100, 40)
	m.loadBindings()
	m.fb.theme = "ascii"

	m, cmd := m.Update(m.save()())
	require.NotNil(t, cmd)
	saved := cmd().(SavedMsg)
	assert.Equal(t, "ascii", saved.Config.Display.Theme)
	assert.Contains(t, m.View(), "Settings saved")

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ascii", loaded.Display.Theme)
}

func TestConnectionCheck(t *testing.T) {
	check := func(context.Context, string) error { return errors.New("dial tcp: refused") }
	m := New(baseConfig(), "/tmp/config.yaml", check, keys.DefaultKeyMap(), 100, 40)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	require.NotNil(t, cmd)
	assert.Equal(t, ModeValidating, m.Mode())

	m, _ = m.Update(CheckResultMsg{Err: check(context.Background(), "")})
	assert.Equal(t, ModeInfo, m.Mode())
	assert.Contains(t, m.View(), "unreachable")
}

func TestReachable(t *testing.T) {
	assert.True(t, Reachable(nil))
	assert.True(t, Reachable(&api.Error{Status: http.StatusUnauthorized}))
	assert.False(t, Reachable(&api.Error{Status: 0, Message: api.MsgNetworkError}))
	assert.False(t, Reachable(errors.New("other")))
}

func TestProbeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	probe := ProbeAPI(0)
	assert.NoError(t, probe(context.Background(), srv.URL))
	srv.Close()
	assert.Error(t, probe(context.Background(), srv.URL))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateURL("https://portal.example.edu/api"))
	assert.Error(t, validateURL("portal.example.edu"))
	assert.Error(t, validateURL(""))
	assert.NoError(t, validateSeconds(10)("10"))
	assert.Error(t, validateSeconds(10)("5"))
	assert.Error(t, validateSeconds(0)("soon"))
}
