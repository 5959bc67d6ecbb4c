package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/urfave/cli/v3"
)

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "manage your account",
		Commands: []*cli.Command{
			{
				Name:      "name",
				Usage:     "change your display name",
				ArgsUsage: "<full name>",
				Action:    withSession(profileNameAction),
			},
			{
				Name:   "password",
				Usage:  "change your password",
				Action: withSession(profilePasswordAction),
			},
			{
				Name:      "picture",
				Usage:     "upload a profile picture",
				ArgsUsage: "<path>",
				Action:    withSession(profilePictureAction),
			},
			{
				Name:  "delete",
				Usage: "permanently delete your account and all files",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "skip the confirmation question",
					},
				},
				Action: withSession(deleteAccountAction),
			},
		},
	}
}

func profileNameAction(ctx context.Context, cmd *cli.Command, s *session) error {
	name := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if name == "" {
		return errors.New("full name required")
	}
	if err := s.vault.UpdateFullName(ctx, name); err != nil {
		return fmt.Errorf("failed to update name: %w", err)
	}
	fmt.Fprintln(s.out, "Name updated")
	return nil
}

func profilePasswordAction(ctx context.Context, _ *cli.Command, s *session) error {
	current, err := s.prompt.secret("Current password: ")
	if err != nil {
		return err
	}
	next, err := s.prompt.newSecret("New password: ")
	if err != nil {
		return err
	}
	if err := s.vault.ChangePassword(ctx, current, next); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	fmt.Fprintln(s.out, "Password changed")
	return nil
}

func profilePictureAction(ctx context.Context, cmd *cli.Command, s *session) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("image path required")
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return fmt.Errorf("%s is not an image (%s)", path, mtype)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := s.vault.UploadProfilePicture(ctx, filepath.Base(path), mtype.String(), f); err != nil {
		return fmt.Errorf("failed to upload picture: %w", err)
	}
	fmt.Fprintln(s.out, "Profile picture updated")
	return nil
}

func deleteAccountAction(ctx context.Context, cmd *cli.Command, s *session) error {
	if !cmd.Bool("yes") {
		ok, err := s.prompt.confirm("Delete your account and all files? This cannot be undone.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "Aborted")
			return nil
		}
	}

	password, err := s.prompt.secret("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password required to delete the account")
	}

	if err := s.vault.DeleteAccount(ctx, password); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if err := s.app.ClearSession(ctx); err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Account deleted")
	return nil
}
