package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/portfolio"
	"github.com/nhle/facultyflow/internal/session"
	"github.com/nhle/facultyflow/internal/ui"
)

func newPortfolioCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio commands",
	}
	cmd.AddCommand(newPortfolioShowCmd(app))
	cmd.AddCommand(newPortfolioSaveCmd(app))
	cmd.AddCommand(newPortfolioDeleteCmd(app))
	cmd.AddCommand(newPortfolioListCmd(app))
	return cmd
}

// portfolioService opens the portfolio area for the signed-in user.
func (a *App) portfolioService(ctx context.Context) (*portfolio.Service, model.User, error) {
	c, user, err := a.require(ctx, session.RoutePortfolio)
	if err != nil {
		return nil, model.User{}, err
	}
	return portfolio.NewService(c), user, nil
}

func newPortfolioShowCmd(app *App) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show your portfolio, or another user's with --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, user, err := app.portfolioService(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			var p *model.Portfolio
			if userID == 0 || userID == user.ID {
				p, err = svc.Mine(cmd.Context())
			} else {
				p, err = svc.ForUser(cmd.Context(), userID)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, p, func(w io.Writer) {
				if p == nil {
					fmt.Fprintln(w, "No portfolio yet. Create one with `facultyflow portfolio save`.")
					return
				}
				fmt.Fprint(w, ui.RenderMarkdown(portfolio.Markdown(*p), 80))
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id (HOD and ADMIN)")
	return cmd
}

func newPortfolioSaveCmd(app *App) *cobra.Command {
	var (
		userID int64
		in     model.PortfolioInput
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a portfolio; unset flags keep their current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, user, err := app.portfolioService(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			own := userID == 0 || userID == user.ID

			var current *model.Portfolio
			if own {
				current, err = svc.Mine(ctx)
			} else {
				current, err = svc.ForUser(ctx, userID)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			merged := mergePortfolioInput(cmd, current, in)

			var saved model.Portfolio
			if own {
				saved, err = svc.SaveMine(ctx, merged)
			} else {
				saved, err = svc.SaveFor(ctx, user, userID, merged)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved, func(w io.Writer) {
				fmt.Fprintf(w, "Portfolio saved for %s\n", portfolioOwner(saved))
			})
		},
	}

	f := cmd.Flags()
	f.Int64Var(&userID, "user", 0, "Save on behalf of this user id (HOD and ADMIN)")
	f.StringVar(&in.Bio, "bio", "", "Short biography")
	f.StringVar(&in.ResearchInterests, "research", "", "Research interests")
	f.StringVar(&in.Achievements, "achievements", "", "Achievements")
	f.StringVar(&in.Education, "education", "", "Education")
	f.StringVar(&in.Experience, "experience", "", "Experience")
	f.StringVar(&in.WebsiteURL, "website", "", "Personal website URL")
	f.StringVar(&in.LinkedinURL, "linkedin", "", "LinkedIn URL")
	f.StringVar(&in.GithubURL, "github", "", "GitHub URL")
	f.StringVar(&in.TwitterURL, "twitter", "", "Twitter URL")
	return cmd
}

// mergePortfolioInput overlays the flags that were set on the existing
// portfolio, so "save --bio x" leaves the other sections alone.
func mergePortfolioInput(cmd *cobra.Command, current *model.Portfolio, in model.PortfolioInput) model.PortfolioInput {
	var out model.PortfolioInput
	if current != nil {
		out = current.Input()
	}
	set := func(flag string, dst *string, v string) {
		if cmd.Flags().Changed(flag) {
			*dst = v
		}
	}
	set("bio", &out.Bio, in.Bio)
	set("research", &out.ResearchInterests, in.ResearchInterests)
	set("achievements", &out.Achievements, in.Achievements)
	set("education", &out.Education, in.Education)
	set("experience", &out.Experience, in.Experience)
	set("website", &out.WebsiteURL, in.WebsiteURL)
	set("linkedin", &out.LinkedinURL, in.LinkedinURL)
	set("github", &out.GithubURL, in.GithubURL)
	set("twitter", &out.TwitterURL, in.TwitterURL)
	return out
}

func portfolioOwner(p model.Portfolio) string {
	switch {
	case p.UserName != "":
		return p.UserName
	case p.UserEmail != "":
		return p.UserEmail
	}
	return "user " + strconv.FormatInt(p.UserID, 10)
}

func newPortfolioDeleteCmd(app *App) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your portfolio, or another user's with --user",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, user, err := app.portfolioService(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if userID == 0 || userID == user.ID {
				err = svc.DeleteMine(cmd.Context())
			} else {
				err = svc.DeleteFor(cmd.Context(), user, userID)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]bool{"deleted": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Portfolio deleted")
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id (HOD and ADMIN)")
	return cmd
}

func newPortfolioListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all portfolios (HOD and ADMIN)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, user, err := app.portfolioService(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			all, err := svc.All(cmd.Context(), user)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, all, func(w io.Writer) {
				rows := make([][]string, 0, len(all))
				for _, p := range all {
					rows = append(rows, []string{
						strconv.FormatInt(p.UserID, 10),
						portfolioOwner(p),
						string(p.UserRole),
						p.UserDepartment,
						truncate(p.ResearchInterests, 40),
					})
				}
				renderTable(w, []string{"User", "Name", "Role", "Department", "Research"}, rows)
			})
		},
	}
}
