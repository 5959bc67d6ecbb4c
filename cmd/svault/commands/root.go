package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/securevault/svault/internal/apiclient"
	"github.com/securevault/svault/internal/app"
	"github.com/securevault/svault/internal/observability"
	"github.com/securevault/svault/internal/vaultapi"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr).Run(ctx, args)
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "svault",
		Usage:     "Secure File Vault client",
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "log exporter (none|stdout|otlp-http|otlp-grpc)",
				Value: string(app.DefaultConfigLogExporter),
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "API base URL",
				Value: app.DefaultConfigAPIBaseURL,
			},
			&cli.DurationFlag{
				Name:  "api--timeout",
				Usage: "per-request timeout including the response body (0 disables)",
			},
			&cli.BoolFlag{
				Name:  "api--strict-json",
				Usage: "fail on successful responses that are not valid JSON",
			},
			&cli.StringFlag{
				Name:  "session--mode",
				Usage: "session transport (token|cookie)",
				Value: string(app.DefaultConfigSessionMode),
			},
			&cli.StringFlag{
				Name:  "session--storage",
				Usage: "session storage (file|keyring|none)",
				Value: string(app.DefaultConfigSessionStorage),
			},
			&cli.StringFlag{
				Name:  "session--dir",
				Usage: "directory for file session storage",
			},
			&cli.StringFlag{
				Name:  "session--key",
				Usage: "storage key for the session credential",
				Value: app.DefaultConfigSessionKey,
			},
			&cli.StringFlag{
				Name:  "session--keyring-service",
				Usage: "keyring service name",
				Value: app.DefaultConfigKeyringService,
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			registerCommand(),
			whoamiCommand(),
			dashboardCommand(),
			filesCommand(),
			usageCommand(),
			profileCommand(),
			adminCommand(),
			passwordCommand(),
			verifyCommand(),
		},
	}
}

// session is what every API-backed action works with.
type session struct {
	app    *app.App
	vault  *vaultapi.Service
	out    io.Writer
	errOut io.Writer
	prompt *prompter
}

type sessionAction func(ctx context.Context, cmd *cli.Command, s *session) error

// withSession loads configuration, sets up logging and builds the app before running fn.
// Canceled requests end the command silently.
func withSession(fn sessionAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		root := cmd.Root()

		cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Set up observability before creating app
		shutdown, err := observability.Instrument(ctx, observability.LogConfig{
			Level:    cfg.LogLevel.String(),
			Format:   cfg.LogFormat,
			Exporter: cfg.LogExporter,
			Writer:   root.ErrWriter,
		})
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				fmt.Fprintf(root.ErrWriter, "failed to flush logs: %v\n", err)
			}
		}()

		application, err := app.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}

		unsubscribe := application.OnUnauthorized(func() {
			fmt.Fprintln(root.ErrWriter, "session expired, please log in again")
		})
		defer unsubscribe()

		s := &session{
			app:    application,
			vault:  application.Vault(),
			out:    root.Writer,
			errOut: root.ErrWriter,
			prompt: newPrompter(root.Reader, root.ErrWriter),
		}

		runErr := fn(ctx, cmd, s)
		if apiclient.IsCanceled(runErr) {
			slog.DebugContext(ctx, "command canceled", "command", cmd.FullName())
			runErr = nil
		}

		if err := application.Close(context.WithoutCancel(ctx)); err != nil {
			runErr = errors.Join(runErr, err)
		}
		return runErr
	}
}
