// Package portfolio manages the single portfolio document each user may
// own: loading (where absence is a normal state), validation before save,
// and the owner-only edit rule.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nhle/facultyflow/internal/api"
	"github.com/nhle/facultyflow/internal/logging"
	"github.com/nhle/facultyflow/internal/model"
)

// ErrForbidden is returned for admin operations attempted by other roles.
var ErrForbidden = errors.New("only HOD or ADMIN may manage other users' portfolios")

// FieldError describes one invalid field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field of a portfolio input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

type textField struct {
	name  string
	label string
	value string
	max   int
}

func textFields(in model.PortfolioInput) []textField {
	return []textField{
		{"bio", "Bio", in.Bio, model.MaxLongTextLen},
		{"researchInterests", "Research interests", in.ResearchInterests, model.MaxShortTextLen},
		{"experience", "Experience", in.Experience, model.MaxLongTextLen},
		{"education", "Education", in.Education, model.MaxLongTextLen},
		{"achievements", "Achievements", in.Achievements, model.MaxLongTextLen},
	}
}

func urlFields(in model.PortfolioInput) []textField {
	return []textField{
		{"websiteUrl", "Website", in.WebsiteURL, model.MaxShortTextLen},
		{"linkedinUrl", "LinkedIn", in.LinkedinURL, model.MaxShortTextLen},
		{"githubUrl", "GitHub", in.GithubURL, model.MaxShortTextLen},
		{"twitterUrl", "Twitter", in.TwitterURL, model.MaxShortTextLen},
	}
}

// Normalize trims the URL fields. Free text is kept as typed.
func Normalize(in model.PortfolioInput) model.PortfolioInput {
	in.WebsiteURL = strings.TrimSpace(in.WebsiteURL)
	in.LinkedinURL = strings.TrimSpace(in.LinkedinURL)
	in.GithubURL = strings.TrimSpace(in.GithubURL)
	in.TwitterURL = strings.TrimSpace(in.TwitterURL)
	return in
}

// Validate checks field lengths (in characters) and that every URL that
// is set uses http or https.
func Validate(in model.PortfolioInput) error {
	var errs []FieldError
	for _, f := range textFields(in) {
		if n := utf8.RuneCountInString(f.value); n > f.max {
			errs = append(errs, FieldError{f.name, fmt.Sprintf("%s must be at most %d characters (has %d)", f.label, f.max, n)})
		}
	}
	for _, f := range urlFields(in) {
		if f.value == "" {
			continue
		}
		if utf8.RuneCountInString(f.value) > f.max {
			errs = append(errs, FieldError{f.name, fmt.Sprintf("%s URL must be at most %d characters", f.label, f.max)})
			continue
		}
		lower := strings.ToLower(f.value)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			errs = append(errs, FieldError{f.name, fmt.Sprintf("%s URL must start with http:// or https://", f.label)})
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// CanEdit reports whether viewer may edit p. Only the owner can, whatever
// the viewer's role.
func CanEdit(viewer model.User, p *model.Portfolio) bool {
	return p != nil && viewer.ID != 0 && viewer.ID == p.UserID
}

// CanManage reports whether viewer may browse all portfolios and manage
// them on behalf of their owners.
func CanManage(viewer model.User) bool {
	return viewer.Role.In(model.RoleHOD, model.RoleAdmin)
}

// Backend is the part of the API client this package uses.
type Backend interface {
	MyPortfolio(ctx context.Context) (model.Portfolio, error)
	SaveMyPortfolio(ctx context.Context, in model.PortfolioInput) (model.Portfolio, error)
	DeleteMyPortfolio(ctx context.Context) error
	UserPortfolio(ctx context.Context, userID int64) (model.Portfolio, error)
	SaveUserPortfolio(ctx context.Context, userID int64, in model.PortfolioInput) (model.Portfolio, error)
	DeleteUserPortfolio(ctx context.Context, userID int64) error
	AllPortfolios(ctx context.Context) ([]model.Portfolio, error)
}

// Service wraps Backend with validation and the absence rule.
type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// absent turns a 404 into (nil, nil).
func absent(p model.Portfolio, err error) (*model.Portfolio, error) {
	if err != nil {
		if api.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Mine returns the viewer's portfolio, or nil when none exists yet.
func (s *Service) Mine(ctx context.Context) (*model.Portfolio, error) {
	return absent(s.backend.MyPortfolio(ctx))
}

// ForUser returns another user's portfolio, or nil when none exists.
func (s *Service) ForUser(ctx context.Context, userID int64) (*model.Portfolio, error) {
	return absent(s.backend.UserPortfolio(ctx, userID))
}

// SaveMine validates and stores the viewer's portfolio, then reads it back.
func (s *Service) SaveMine(ctx context.Context, in model.PortfolioInput) (model.Portfolio, error) {
	in = Normalize(in)
	if err := Validate(in); err != nil {
		return model.Portfolio{}, err
	}
	if _, err := s.backend.SaveMyPortfolio(ctx, in); err != nil {
		return model.Portfolio{}, err
	}
	return s.backend.MyPortfolio(ctx)
}

func (s *Service) DeleteMine(ctx context.Context) error {
	return s.backend.DeleteMyPortfolio(ctx)
}

// SaveFor stores a portfolio on behalf of userID.
func (s *Service) SaveFor(ctx context.Context, viewer model.User, userID int64, in model.PortfolioInput) (model.Portfolio, error) {
	if !CanManage(viewer) {
		return model.Portfolio{}, ErrForbidden
	}
	in = Normalize(in)
	if err := Validate(in); err != nil {
		return model.Portfolio{}, err
	}
	if _, err := s.backend.SaveUserPortfolio(ctx, userID, in); err != nil {
		return model.Portfolio{}, err
	}
	return s.backend.UserPortfolio(ctx, userID)
}

func (s *Service) DeleteFor(ctx context.Context, viewer model.User, userID int64) error {
	if !CanManage(viewer) {
		return ErrForbidden
	}
	return s.backend.DeleteUserPortfolio(ctx, userID)
}

// All lists every portfolio for HOD and ADMIN viewers.
func (s *Service) All(ctx context.Context, viewer model.User) ([]model.Portfolio, error) {
	if !CanManage(viewer) {
		return nil, ErrForbidden
	}
	return s.backend.AllPortfolios(ctx)
}

// Overview is what the portfolio screen shows on entry.
type Overview struct {
	Mine *model.Portfolio

	// All is only loaded for managers. AllErr records a failed listing
	// without hiding the viewer's own portfolio.
	All    []model.Portfolio
	AllErr error
}

// Load fetches the viewer's portfolio and, for managers, the full list.
func (s *Service) Load(ctx context.Context, viewer model.User) (Overview, error) {
	var ov Overview

	mine, err := s.Mine(ctx)
	if err != nil {
		return Overview{}, err
	}
	ov.Mine = mine

	if CanManage(viewer) {
		all, err := s.All(ctx, viewer)
		if err != nil {
			if ctx.Err() != nil {
				return Overview{}, err
			}
			logging.Logger.WithError(err).Warn("listing portfolios")
			ov.AllErr = err
		}
		ov.All = all
	}
	return ov, nil
}
