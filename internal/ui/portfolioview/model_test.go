package portfolioview

import (
	"context"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/apitest"
	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/keys"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/portfolio"
)

var (
	faculty = model.User{ID: 1, Name: "Ada Faculty", Email: "ada@uni.edu", Role: model.RoleFaculty}
	hod     = model.User{ID: 2, Name: "Hal Head", Email: "hal@uni.edu", Role: model.RoleHOD}
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func setup(t *testing.T, as model.User) (Model, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(faculty, "secret")
	srv.AddUser(hod, "secret")
	tokens := credential.NewMemoryStore()
	require.NoError(t, tokens.Set(credential.TokenKey, srv.Token(t, as.ID)))
	svc := portfolio.NewService(api.NewClient(srv.URL(), tokens))
	return New(svc, keys.DefaultKeyMap(), 100, 40), srv
}

func load(t *testing.T, m Model, as model.User) Model {
	t.Helper()
	cmd := m.Load(context.Background(), as)
	m, _ = m.Update(cmd())
	return m
}

func TestEmptyStateOffersCreate(t *testing.T) {
	m, _ := setup(t, faculty)
	m = load(t, m, faculty)

	assert.Nil(t, m.Mine())
	assert.Contains(t, m.View(), "You have not created a portfolio yet.")
	assert.Equal(t, "e create", m.Hints())

	_, cmd := m.Update(runes("e"))
	require.NotNil(t, cmd)
	req := cmd().(EditRequestMsg)
	assert.Nil(t, req.Existing)
	assert.Equal(t, int64(0), req.UserID)
}

func TestLoadErrorIsShown(t *testing.T) {
	m, srv := setup(t, faculty)
	srv.Respond(http.MethodGet, "/portfolio/me", http.StatusInternalServerError, `{"error":"boom"}`)
	m = load(t, m, faculty)
	assert.Contains(t, m.View(), "boom")

	_, cmd := m.Update(runes("e"))
	assert.Nil(t, cmd, "nothing to edit before a successful load")
}

func TestSaveThenReload(t *testing.T) {
	m, _ := setup(t, faculty)
	m = load(t, m, faculty)

	msg := m.Save(0, model.PortfolioInput{Bio: "Compilers"})()
	saved := msg.(SavedMsg)
	require.NoError(t, saved.Err)

	m, cmd := m.Update(saved)
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	require.NotNil(t, m.Mine())
	assert.Equal(t, "Compilers", m.Mine().Bio)
	assert.Contains(t, m.View(), "Portfolio saved")
	assert.Equal(t, "e edit | d delete", m.Hints())
}

func TestDeleteAsksFirst(t *testing.T) {
	m, srv := setup(t, faculty)
	srv.SetPortfolio(model.Portfolio{UserID: faculty.ID, UserName: faculty.Name, Bio: "x"})
	m = load(t, m, faculty)

	m, _ = m.Update(runes("d"))
	assert.True(t, m.Confirming())
	assert.Contains(t, m.View(), "Delete your portfolio?")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Confirming())
	assert.Equal(t, 0, srv.CallCount(http.MethodDelete, "/portfolio/me"))
}

func TestDeleteResult(t *testing.T) {
	m, srv := setup(t, faculty)
	srv.SetPortfolio(model.Portfolio{UserID: faculty.ID, Bio: "x"})
	m = load(t, m, faculty)

	m, cmd := m.Update(m.deleteMine()())
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Nil(t, m.Mine())
	assert.Contains(t, m.View(), "Portfolio deleted")
}

func TestManagerBrowsesReadOnly(t *testing.T) {
	m, srv := setup(t, hod)
	srv.SetPortfolio(model.Portfolio{UserID: faculty.ID, UserName: "Ada", Bio: "Compilers"})
	srv.SetPortfolio(model.Portfolio{UserID: 3, UserName: "Cy", Bio: "Networks"})
	m = load(t, m, hod)

	assert.Contains(t, m.View(), "2 portfolios")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "Faculty Portfolios")

	m, _ = m.Update(runes("j"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.viewing)
	assert.Equal(t, int64(3), m.viewing.UserID)
	assert.Contains(t, m.View(), "Networks")

	_, cmd := m.Update(runes("e"))
	assert.Nil(t, cmd, "other people's portfolios are view-only here")
	m, _ = m.Update(runes("d"))
	assert.False(t, m.Confirming())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.viewing)
}

func TestFacultyCannotBrowse(t *testing.T) {
	m, _ := setup(t, faculty)
	m = load(t, m, faculty)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.directory)
}
