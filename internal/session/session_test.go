package session_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/apitest"
	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
)

var (
	faculty = model.User{ID: 1, Name: "Ada Faculty", Email: "ada@uni.edu", Department: "CS", Role: model.RoleFaculty}
	hod     = model.User{ID: 2, Name: "Hal Head", Email: "hal@uni.edu", Department: "CS", Role: model.RoleHOD}
)

type fixture struct {
	srv    *apitest.Server
	client *api.Client
	tokens *credential.MemoryStore
	sess   *session.Provider
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(faculty, "secret")
	srv.AddUser(hod, "secret")
	tokens := credential.NewMemoryStore()
	client := api.NewClient(srv.URL(), tokens)
	return &fixture{srv: srv, client: client, tokens: tokens, sess: session.New(client, tokens)}
}

func TestInitWithoutTokenIsSignedOut(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.sess.Init(context.Background()))
	assert.False(t, f.sess.Authenticated())
	assert.Equal(t, 0, f.srv.CallCount(http.MethodGet, "/auth/me"))
}

func TestInitRestoresSession(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.tokens.Set(credential.TokenKey, f.srv.Token(t, hod.ID)))

	require.NoError(t, f.sess.Init(context.Background()))

	user, ok := f.sess.Current()
	require.True(t, ok)
	assert.Equal(t, hod, user)
}

func TestInitDropsExpiredTokenWithoutCallingServer(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.tokens.Set(credential.TokenKey, f.srv.ExpiredToken(t, faculty.ID)))

	require.NoError(t, f.sess.Init(context.Background()))

	assert.False(t, f.sess.Authenticated())
	assert.Equal(t, 0, f.srv.CallCount(http.MethodGet, "/auth/me"))
	_, err := f.tokens.Get(credential.TokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestInitWithRejectedTokenClearsIt(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.tokens.Set(credential.TokenKey, "opaque-token"))

	require.NoError(t, f.sess.Init(context.Background()))

	assert.False(t, f.sess.Authenticated())
	assert.Equal(t, 1, f.srv.CallCount(http.MethodGet, "/auth/me"))
	_, err := f.tokens.Get(credential.TokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestInitReportsServerFailure(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.tokens.Set(credential.TokenKey, f.srv.Token(t, faculty.ID)))
	f.srv.Respond(http.MethodGet, "/auth/me", http.StatusInternalServerError, `{"error":"db down"}`)

	err := f.sess.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, "db down", api.MessageOf(err))

	// The token is kept; only a 401 invalidates it.
	_, err = f.tokens.Get(credential.TokenKey)
	assert.NoError(t, err)
}

func TestLoginAndLogout(t *testing.T) {
	f := setup(t)
	var events []session.Event
	f.sess.Subscribe(func(e session.Event) { events = append(events, e) })

	user, err := f.sess.Login(context.Background(), "ada@uni.edu", "secret")
	require.NoError(t, err)
	assert.Equal(t, faculty, user)

	tok, err := f.tokens.Get(credential.TokenKey)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	require.NoError(t, f.sess.Logout())
	assert.False(t, f.sess.Authenticated())
	_, err = f.tokens.Get(credential.TokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)

	assert.Equal(t, []session.Event{session.EventLoggedIn, session.EventLoggedOut}, events)
}

func TestLoginValidatesBeforeRequest(t *testing.T) {
	f := setup(t)

	_, err := f.sess.Login(context.Background(), "  ", "secret")
	assert.ErrorIs(t, err, session.ErrMissingCredentials)
	assert.Equal(t, 0, f.srv.CallCount(http.MethodPost, "/auth/login"))
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	f := setup(t)

	_, err := f.sess.Login(context.Background(), "ada@uni.edu", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", api.MessageOf(err))
	assert.False(t, f.sess.Authenticated())
}

func TestUnauthorizedResponseTearsDownSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.sess.Login(ctx, "ada@uni.edu", "secret")
	require.NoError(t, err)

	var expired int
	f.sess.Subscribe(func(e session.Event) {
		if e == session.EventExpired {
			expired++
		}
	})

	tok, err := f.tokens.Get(credential.TokenKey)
	require.NoError(t, err)
	f.srv.Revoke(tok)

	_, err = f.client.ListTasks(ctx, "")
	require.True(t, api.IsUnauthorized(err))

	_, err = f.tokens.Get(credential.TokenKey)
	assert.ErrorIs(t, err, credential.ErrNotFound)
	assert.Equal(t, 1, expired)

	// The next guarded area sends the user back to login.
	_, err = f.sess.Require(session.RouteTasks)
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestRequireChecksRole(t *testing.T) {
	f := setup(t)
	_, err := f.sess.Login(context.Background(), "ada@uni.edu", "secret")
	require.NoError(t, err)

	_, err = f.sess.Require(session.RouteTasks)
	assert.NoError(t, err)

	_, err = f.sess.Require(session.RouteAnalytics)
	var forbidden *session.ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	assert.Equal(t, model.RoleFaculty, forbidden.Role)
}

func TestRouteTable(t *testing.T) {
	tests := []struct {
		role  model.Role
		route session.Route
		want  bool
	}{
		{model.RoleFaculty, session.RoutePortfolio, true},
		{model.RoleFaculty, session.RouteCreateTask, false},
		{model.RoleHOD, session.RouteAnalytics, true},
		{model.RoleAdmin, session.RouteCreateTask, true},
		{model.RoleIT, session.RoutePortfolio, false},
		{model.RoleIT, session.RouteTasks, true},
		{model.Role("GUEST"), session.RouteTasks, false},
		{model.RoleHOD, session.Route("nowhere"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, session.CanAccess(tt.role, tt.route), "%s on %s", tt.role, tt.route)
	}

	assert.Equal(t,
		[]session.Route{session.RouteDashboard, session.RouteTasks, session.RoutePortfolio, session.RouteSettings},
		session.Routes(model.RoleFaculty))
}

func TestTokenSubject(t *testing.T) {
	f := setup(t)

	id, ok := session.TokenSubject(f.srv.Token(t, hod.ID))
	assert.True(t, ok)
	assert.Equal(t, hod.ID, id)

	_, ok = session.TokenSubject("opaque-token")
	assert.False(t, ok)
}
