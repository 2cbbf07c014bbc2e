package cli

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/facultyflow/internal/model"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the client configuration",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetServerCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			return writeOut(cmd, app, cfg, func(w io.Writer) {
				timeout := "transport default"
				if cfg.API.HTTPTimeoutSec > 0 {
					timeout = cfg.API.HTTPTimeout().String()
				}
				refresh := "off"
				if cfg.Sync.Enabled {
					refresh = "every " + cfg.Sync.PollInterval().String()
				}
				renderFields(w, [][2]string{
					{"Config file", app.ConfigPath},
					{"Server", cfg.API.BaseURL},
					{"Timeout", timeout},
					{"Refresh", refresh},
					{"Cache", cfg.Cache.Path},
					{"Log", cfg.Log.Path + " (" + cfg.Log.Level + ")"},
					{"Theme", cfg.Display.Theme},
				})
			})
		},
	}
}

func newConfigSetServerCmd(app *App) *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:   "set-server <url>",
		Short: "Save the API root URL (including /api)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := normalizeServer(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			// Reload so a --server override is not written back.
			cfg, err := model.LoadConfig(app.ConfigPath)
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.API.BaseURL = base
			if cmd.Flags().Changed("timeout") {
				if timeout < 0 {
					return writeErr(cmd, fmt.Errorf("timeout must not be negative"))
				}
				cfg.API.HTTPTimeoutSec = timeout
			}
			if err := model.SaveConfig(app.ConfigPath, cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, cfg.API, func(w io.Writer) {
				fmt.Fprintf(w, "Server set to %s in %s\n", base, app.ConfigPath)
			})
		},
	}

	cmd.Flags().IntVar(&timeout, "timeout", 0, "Request timeout in seconds (0 for the transport default)")
	return cmd
}

// normalizeServer requires an absolute http(s) URL and drops trailing
// slashes.
func normalizeServer(raw string) (string, error) {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("server must be an http(s) URL, got %s", strconv.Quote(raw))
	}
	return s, nil
}
