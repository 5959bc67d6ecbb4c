package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/securevault/svault/internal/credential"
	"github.com/securevault/svault/internal/vaultapi"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "sign in and keep the session",
		ArgsUsage: "[email]",
		Action:    withSession(loginAction),
	}
}

func loginAction(ctx context.Context, cmd *cli.Command, s *session) error {
	email := cmd.Args().First()
	if email == "" {
		var err error
		if email, err = s.prompt.line("Email: "); err != nil {
			return err
		}
	}
	password, err := s.prompt.secret("Password: ")
	if err != nil {
		return err
	}

	if _, err := s.vault.Login(ctx, email, password); err != nil {
		return fmt.Errorf("invalid credentials or server error: %w", err)
	}

	fmt.Fprintf(s.out, "Logged in as %s\n", email)
	if s.app.Store().Mode() == credential.ModeToken && !s.app.Store().StorageAvailable() {
		fmt.Fprintln(s.errOut, "warning: session storage unavailable, the session ends with this process")
	}
	return nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "end the session",
		Action: withSession(logoutAction),
	}
}

func logoutAction(ctx context.Context, _ *cli.Command, s *session) error {
	err := s.vault.Logout(ctx)
	if clearErr := s.app.ClearSession(ctx); clearErr != nil {
		err = errors.Join(err, clearErr)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Logged out")
	return nil
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "create an account",
		ArgsUsage: "[email]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "full name",
			},
		},
		Action: withSession(registerAction),
	}
}

func registerAction(ctx context.Context, cmd *cli.Command, s *session) error {
	email := cmd.Args().First()
	if email == "" {
		var err error
		if email, err = s.prompt.line("Email: "); err != nil {
			return err
		}
	}
	password, err := s.prompt.newSecret("Password: ")
	if err != nil {
		return err
	}

	_, err = s.vault.Register(ctx, vaultapi.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: cmd.String("name"),
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintln(s.out, "Account created! Check your inbox to verify your email, then log in.")
	return nil
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "show the signed-in user",
		Action: withSession(whoamiAction),
	}
}

func whoamiAction(ctx context.Context, _ *cli.Command, s *session) error {
	me, err := s.vault.Me(ctx)
	if err != nil {
		return err
	}
	printProfile(s.out, me)

	// Token expiry is only visible to the client in token mode
	if token := s.app.Store().Credential(); token != "" {
		if claims, err := credential.ParseClaims(token); err == nil && claims.ExpiresAt != nil {
			fmt.Fprintf(s.out, "Session expires %s\n", claims.ExpiresAt.Local().Format(time.DateTime))
		}
	}
	return nil
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "confirm an email address with the token from the verification link",
		ArgsUsage: "<token>",
		Action:    withSession(verifyAction),
	}
}

func verifyAction(ctx context.Context, cmd *cli.Command, s *session) error {
	token := cmd.Args().First()
	if token == "" {
		return errors.New("verification token required")
	}

	if err := s.vault.VerifyEmail(ctx, token); err != nil {
		return fmt.Errorf("this verification link is invalid or has already been used: %w", err)
	}

	fmt.Fprintln(s.out, "Email verified successfully. You can now log in to your account.")
	return nil
}

func passwordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "recover a forgotten password",
		Commands: []*cli.Command{
			{
				Name:      "forgot",
				Usage:     "send a reset link",
				ArgsUsage: "[email]",
				Action:    withSession(forgotPasswordAction),
			},
			{
				Name:  "reset",
				Usage: "set a new password with a reset token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "token",
						Usage:    "reset token from the email",
						Required: true,
					},
				},
				Action: withSession(resetPasswordAction),
			},
		},
	}
}

func forgotPasswordAction(ctx context.Context, cmd *cli.Command, s *session) error {
	email := cmd.Args().First()
	if email == "" {
		var err error
		if email, err = s.prompt.line("Email: "); err != nil {
			return err
		}
	}
	if email == "" {
		return errors.New("please enter your email address")
	}

	if err := s.vault.ForgotPassword(ctx, email); err != nil {
		return fmt.Errorf("failed to send reset link: %w", err)
	}

	fmt.Fprintln(s.out, "If this email is registered, you will receive a reset link.")
	return nil
}

func resetPasswordAction(ctx context.Context, cmd *cli.Command, s *session) error {
	password, err := s.prompt.newSecret("New password: ")
	if err != nil {
		return err
	}

	err = s.vault.ResetPassword(ctx, cmd.String("token"), password)
	switch {
	case errors.Is(err, vaultapi.ErrSamePassword):
		return errors.New("new password must be different from your previous one")
	case err != nil:
		return fmt.Errorf("failed to reset password, the token may be invalid or expired: %w", err)
	}

	fmt.Fprintln(s.out, "Password reset. You can now log in with your new password.")
	return nil
}
