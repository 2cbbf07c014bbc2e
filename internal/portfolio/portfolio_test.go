package portfolio_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/apitest"
	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/portfolio"
)

var (
	faculty = model.User{ID: 1, Name: "Ada Faculty", Email: "ada@uni.edu", Department: "CS", Role: model.RoleFaculty}
	hod     = model.User{ID: 2, Name: "Hal Head", Email: "hal@uni.edu", Department: "CS", Role: model.RoleHOD}
)

func setup(t *testing.T, as model.User) (*portfolio.Service, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(faculty, "secret")
	srv.AddUser(hod, "secret")
	tokens := credential.NewMemoryStore()
	require.NoError(t, tokens.Set(credential.TokenKey, srv.Token(t, as.ID)))
	return portfolio.NewService(api.NewClient(srv.URL(), tokens)), srv
}

func TestMissingPortfolioIsEmptyState(t *testing.T) {
	svc, _ := setup(t, faculty)

	p, err := svc.Mine(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestOtherErrorsAreReported(t *testing.T) {
	svc, srv := setup(t, faculty)
	srv.Respond(http.MethodGet, "/portfolio/me", http.StatusInternalServerError, `{"error":"boom"}`)

	_, err := svc.Mine(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", api.MessageOf(err))
}

func TestSaveCreateThenUpdate(t *testing.T) {
	svc, srv := setup(t, faculty)
	ctx := context.Background()

	created, err := svc.SaveMine(ctx, model.PortfolioInput{Bio: "Teaches compilers", GithubURL: " https://github.com/ada "})
	require.NoError(t, err)
	assert.Equal(t, faculty.ID, created.UserID)
	assert.Equal(t, "https://github.com/ada", created.GithubURL)
	assert.Equal(t, "Ada Faculty", created.UserName)

	in := created.Input()
	in.Bio = "Teaches compilers and OS"
	updated, err := svc.SaveMine(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Teaches compilers and OS", updated.Bio)
	assert.Equal(t, 2, srv.CallCount(http.MethodPost, "/portfolio/me"))

	require.NoError(t, svc.DeleteMine(ctx))
	p, err := svc.Mine(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestInvalidInputIsNotSent(t *testing.T) {
	svc, srv := setup(t, faculty)

	_, err := svc.SaveMine(context.Background(), model.PortfolioInput{
		Bio:               strings.Repeat("x", model.MaxLongTextLen+1),
		ResearchInterests: strings.Repeat("y", model.MaxShortTextLen+1),
		WebsiteURL:        "ftp://files.example",
	})

	var verr *portfolio.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"bio", "researchInterests", "websiteUrl"}, fields)
	assert.Equal(t, 0, srv.CallCount(http.MethodPost, "/portfolio/me"))
}

func TestValidateCountsCharacters(t *testing.T) {
	in := model.PortfolioInput{Bio: strings.Repeat("é", model.MaxLongTextLen)}
	assert.NoError(t, portfolio.Validate(in))

	in.TwitterURL = "HTTPS://twitter.com/ada"
	assert.NoError(t, portfolio.Validate(in))
}

func TestCanEditIsIdentityNotRole(t *testing.T) {
	own := &model.Portfolio{UserID: faculty.ID}

	assert.True(t, portfolio.CanEdit(faculty, own))
	assert.False(t, portfolio.CanEdit(hod, own), "managers may view but not edit")
	assert.False(t, portfolio.CanEdit(faculty, nil))
	assert.False(t, portfolio.CanEdit(model.User{}, &model.Portfolio{}))
}

func TestLoadForManagers(t *testing.T) {
	svc, srv := setup(t, hod)
	srv.SetPortfolio(model.Portfolio{UserID: faculty.ID, UserName: faculty.Name, Bio: "a"})
	srv.SetPortfolio(model.Portfolio{UserID: hod.ID, UserName: hod.Name, Bio: "b"})

	ov, err := svc.Load(context.Background(), hod)
	require.NoError(t, err)
	require.NotNil(t, ov.Mine)
	assert.Equal(t, "b", ov.Mine.Bio)
	assert.Len(t, ov.All, 2)
	assert.NoError(t, ov.AllErr)
}

func TestLoadForFacultySkipsList(t *testing.T) {
	svc, srv := setup(t, faculty)

	ov, err := svc.Load(context.Background(), faculty)
	require.NoError(t, err)
	assert.Nil(t, ov.Mine)
	assert.Nil(t, ov.All)
	assert.Equal(t, 0, srv.CallCount(http.MethodGet, "/portfolio/all"))
}

func TestManagerOperations(t *testing.T) {
	svc, srv := setup(t, hod)
	ctx := context.Background()

	p, err := svc.SaveFor(ctx, hod, faculty.ID, model.PortfolioInput{Education: "PhD"})
	require.NoError(t, err)
	assert.Equal(t, faculty.ID, p.UserID)

	got, err := svc.ForUser(ctx, faculty.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "PhD", got.Education)

	require.NoError(t, svc.DeleteFor(ctx, hod, faculty.ID))
	got, err = svc.ForUser(ctx, faculty.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.All(ctx, faculty)
	assert.ErrorIs(t, err, portfolio.ErrForbidden)
	assert.Equal(t, 0, srv.CallCount(http.MethodGet, "/portfolio/all"))
}
