package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v3"

	"github.com/securevault/svault/internal/apiclient"
	"github.com/securevault/svault/internal/vaultapi"
)

// stdoutPath selects standard output for --output.
const stdoutPath = "-"

func listingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "search",
			Usage: "filter by filename",
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "sort by (date|name|size)",
			Value: "date",
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "sort order (asc|desc)",
			Value: "desc",
		},
	}
}

func listingParams(cmd *cli.Command) vaultapi.ListFilesParams {
	return vaultapi.ListFilesParams{
		Search: cmd.String("search"),
		SortBy: cmd.String("sort"),
		Order:  cmd.String("order"),
	}
}

func filesCommand() *cli.Command {
	return &cli.Command{
		Name:  "files",
		Usage: "manage stored files",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list your files",
				Flags:  listingFlags(),
				Action: withSession(listFilesAction),
			},
			{
				Name:      "upload",
				Usage:     "upload a file",
				ArgsUsage: "<path>",
				Action:    withSession(uploadAction),
			},
			{
				Name:      "download",
				Usage:     "download a file",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "destination path, - for stdout (default: the stored filename)",
					},
					&cli.BoolFlag{
						Name:  "inline",
						Usage: "request the preview rendition",
					},
				},
				Action: withSession(downloadAction),
			},
			{
				Name:      "delete",
				Usage:     "delete a file",
				ArgsUsage: "<id>",
				Action:    withSession(deleteFileAction),
			},
		},
	}
}

func listFilesAction(ctx context.Context, cmd *cli.Command, s *session) error {
	files, err := s.vault.ListFiles(ctx, listingParams(cmd))
	if err != nil {
		return err
	}
	printFiles(s.out, files)
	return nil
}

func uploadAction(ctx context.Context, cmd *cli.Command, s *session) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("no file selected")
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	stop := startSpinner(s.errOut, "Uploading "+name)
	msg, err := s.vault.Upload(ctx, name, mtype.String(), f)
	stop()
	if errors.Is(err, vaultapi.ErrUnverified) {
		return errors.New("please verify your email to upload files")
	}
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	if msg == "" {
		msg = "File uploaded successfully!"
	}
	fmt.Fprintln(s.out, msg)
	return nil
}

func downloadAction(ctx context.Context, cmd *cli.Command, s *session) error {
	id, err := fileID(cmd)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		if output, err = storedFilename(ctx, s.vault, id); err != nil {
			return err
		}
	}

	stop := startSpinner(s.errOut, "Downloading")
	blob, err := s.vault.Download(ctx, id, cmd.Bool("inline"))
	stop()
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if err := writeOutput(output, blob.Data, s.out); err != nil {
		return err
	}
	if output != stdoutPath {
		fmt.Fprintf(s.out, "Saved %s (%s, %d bytes)\n", output, blob.ContentType, len(blob.Data))
	}
	return nil
}

// storedFilename looks up the name a file was uploaded under, falling back to file-<id>.
func storedFilename(ctx context.Context, vault *vaultapi.Service, id int) (string, error) {
	files, err := vault.ListFiles(ctx, vaultapi.ListFilesParams{})
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if f.ID == id && f.Filename != "" {
			return filepath.Base(f.Filename), nil
		}
	}
	return fmt.Sprintf("file-%d", id), nil
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdoutPath {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func deleteFileAction(ctx context.Context, cmd *cli.Command, s *session) error {
	id, err := fileID(cmd)
	if err != nil {
		return err
	}
	if err := s.vault.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Fprintf(s.out, "Deleted file %d\n", id)
	return nil
}

func fileID(cmd *cli.Command) (int, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return 0, errors.New("file id required")
	}
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid file id %q", arg)
	}
	return id, nil
}

func usageCommand() *cli.Command {
	return &cli.Command{
		Name:   "usage",
		Usage:  "show storage usage",
		Action: withSession(usageAction),
	}
}

func usageAction(ctx context.Context, _ *cli.Command, s *session) error {
	usage, err := s.vault.StorageUsage(ctx)
	if err != nil {
		return err
	}
	printUsage(s.out, usage)
	return nil
}

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "show profile, files and usage",
		Flags: append(listingFlags(),
			&cli.DurationFlag{
				Name:  "watch",
				Usage: "refresh at this interval until interrupted",
			},
		),
		Action: withSession(dashboardAction),
	}
}

type dashboardResult struct {
	dashboard *vaultapi.Dashboard
	err       error
}

func dashboardAction(ctx context.Context, cmd *cli.Command, s *session) error {
	params := listingParams(cmd)
	loader := vaultapi.NewDashboardLoader(s.vault)

	interval := cmd.Duration("watch")
	if interval <= 0 {
		d, err := loader.Load(ctx, params)
		if err != nil {
			return err
		}
		printDashboard(s.out, d)
		return nil
	}

	results := make(chan dashboardResult)
	refresh := func() {
		go func() {
			d, err := loader.Load(ctx, params)
			select {
			case results <- dashboardResult{dashboard: d, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer loader.Cancel()

	refresh()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			refresh()
		case r := <-results:
			switch {
			case apiclient.IsCanceled(r.err):
				// superseded by a newer refresh
			case apiclient.IsUnauthorized(r.err):
				return r.err
			case r.err != nil:
				fmt.Fprintln(s.errOut, text.FgRed.Sprintf("Fetch failed: %v", r.err))
			default:
				fmt.Fprintf(s.out, "\n── %s ──\n", time.Now().Format(time.TimeOnly))
				printDashboard(s.out, r.dashboard)
			}
		}
	}
}
