package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/facultyflow/internal/model"
	"github.com/nhle/facultyflow/internal/session"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token in the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" || password == "" {
				if err := promptCredentials(&email, &password); err != nil {
					return writeErr(cmd, err)
				}
			}

			p := session.New(app.client(), app.tokens)
			user, err := p.Login(cmd.Context(), email, password)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, user, func(w io.Writer) {
				fmt.Fprintf(w, "Signed in as %s (%s)\n", displayName(user), user.Role)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("FACULTYFLOW_PASSWORD"), "Account password (default $FACULTYFLOW_PASSWORD; prompted when empty)")
	return cmd
}

// promptCredentials asks for whatever is missing.
func promptCredentials(email, password *string) error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Email").Value(email),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("login cancelled")
		}
		return err
	}
	return nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := session.New(app.client(), app.tokens)
			if err := p.Logout(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]bool{"signedOut": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Signed out")
			})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and what they can open",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, user, err := app.signedIn(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			routes := session.Routes(user.Role)
			out := struct {
				model.User
				Routes []session.Route `json:"routes"`
			}{user, routes}
			return writeOut(cmd, app, out, func(w io.Writer) {
				names := make([]string, len(routes))
				for i, r := range routes {
					names[i] = string(r)
				}
				renderFields(w, [][2]string{
					{"Name", user.Name},
					{"Email", user.Email},
					{"Role", string(user.Role)},
					{"Department", user.Department},
					{"Server", app.cfg.API.BaseURL},
					{"Areas", strings.Join(names, ", ")},
				})
			})
		},
	}
}

func displayName(u model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
