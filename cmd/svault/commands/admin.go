package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/securevault/svault/internal/vaultapi"
)

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "administer the vault (admin role required)",
		Commands: []*cli.Command{
			{
				Name:   "audit",
				Usage:  "show the audit log",
				Action: withSession(adminOnly(auditAction)),
			},
			{
				Name:   "files",
				Usage:  "list every user's files",
				Action: withSession(adminOnly(adminFilesAction)),
			},
			{
				Name:      "delete",
				Usage:     "delete any file, by id or by upload audit entry",
				ArgsUsage: "[id]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "entry",
						Usage: "row number of an upload entry in the audit log",
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "skip the confirmation question",
					},
				},
				Action: withSession(adminOnly(adminDeleteAction)),
			},
			{
				Name:  "export",
				Usage: "download the audit log as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "destination path, - for stdout (default: audit-<date>.csv)",
					},
				},
				Action: withSession(adminOnly(exportAuditAction)),
			},
		},
	}
}

// adminOnly refuses to run fn for sessions without the admin role.
func adminOnly(fn sessionAction) sessionAction {
	return func(ctx context.Context, cmd *cli.Command, s *session) error {
		if err := s.vault.RequireAdmin(); err != nil {
			return fmt.Errorf("access denied: %w", err)
		}
		return fn(ctx, cmd, s)
	}
}

func auditAction(ctx context.Context, _ *cli.Command, s *session) error {
	overview, err := s.vault.Audit(ctx)
	if err != nil {
		return err
	}
	printAudit(s.out, overview.Entries)
	return nil
}

func adminFilesAction(ctx context.Context, _ *cli.Command, s *session) error {
	files, err := s.vault.AdminFiles(ctx)
	if err != nil {
		return err
	}
	printFiles(s.out, files)
	return nil
}

func adminDeleteAction(ctx context.Context, cmd *cli.Command, s *session) error {
	entryNo := cmd.Int("entry")
	if entryNo == 0 && cmd.Args().Len() == 0 {
		return errors.New("file id or --entry required")
	}

	if entryNo == 0 {
		id, err := fileID(cmd)
		if err != nil {
			return err
		}
		if ok, err := confirmDelete(cmd, s, fmt.Sprintf("file %d", id)); err != nil || !ok {
			return err
		}
		if err := s.vault.AdminDeleteFile(ctx, id); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Fprintf(s.out, "Deleted file %d\n", id)
		return nil
	}

	overview, err := s.vault.Audit(ctx)
	if err != nil {
		return err
	}
	if entryNo < 1 || entryNo > len(overview.Entries) {
		return fmt.Errorf("no audit entry %d", entryNo)
	}
	entry := overview.Entries[entryNo-1]
	if !entry.IsUpload() {
		return fmt.Errorf("audit entry %d is not an upload", entryNo)
	}

	name := entry.UploadedFilename()
	if ok, err := confirmDelete(cmd, s, fmt.Sprintf("%q uploaded by %s", name, entry.UserEmail())); err != nil || !ok {
		return err
	}
	file, err := s.vault.DeleteFileForEntry(ctx, entry, overview.Files)
	if errors.Is(err, vaultapi.ErrFileNotFound) {
		return fmt.Errorf("file %q no longer exists", name)
	}
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Fprintf(s.out, "Deleted file %d (%s)\n", file.ID, file.Filename)
	return nil
}

func confirmDelete(cmd *cli.Command, s *session, what string) (bool, error) {
	if cmd.Bool("yes") {
		return true, nil
	}
	ok, err := s.prompt.confirm("Delete " + what + "?")
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(s.out, "Aborted")
	}
	return ok, nil
}

func exportAuditAction(ctx context.Context, cmd *cli.Command, s *session) error {
	output := cmd.String("output")
	if output == "" {
		output = "audit-" + time.Now().Format(time.DateOnly) + ".csv"
	}

	blob, err := s.vault.ExportAudit(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := writeOutput(output, blob.Data, s.out); err != nil {
		return err
	}
	if output != stdoutPath {
		fmt.Fprintf(s.out, "Exported audit log to %s\n", output)
	}
	return nil
}
