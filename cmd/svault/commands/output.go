package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/securevault/svault/internal/vaultapi"
)

// newTable creates a table with standard styling
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(columns ...string) table.Row {
	row := make(table.Row, len(columns))
	for i, c := range columns {
		row[i] = text.FgHiCyan.Sprint(c)
	}
	return row
}

// startSpinner shows progress on w while a transfer runs. It is a no-op unless
// w is a terminal. The returned func stops it.
func startSpinner(w io.Writer, suffix string) func() {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}

// timestampLayouts covers the API's ISO timestamps with and without a zone.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"}

func formatTimestamp(s string) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Local().Format(time.DateTime)
		}
	}
	return s
}

func printFiles(w io.Writer, files []vaultapi.File) {
	if len(files) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No files found."))
		return
	}

	t := newTable(w)
	t.AppendHeader(header("ID", "NAME", "TYPE", "SIZE"))
	for _, f := range files {
		t.AppendRow(table.Row{f.ID, f.Filename, f.FileType, f.Size})
	}
	t.Render()
}

const usageBarWidth = 30

func printUsage(w io.Writer, usage vaultapi.Usage) {
	filled := int(usage.Percent() / 100 * usageBarWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", usageBarWidth-filled)

	color := text.FgGreen
	if usage.Full() {
		color = text.FgRed
	}
	fmt.Fprintf(w, "Storage used: %.2f MB / %d MB\n%s\n", usage.UsedMB, vaultapi.QuotaMB, color.Sprint(bar))
}

func printProfile(w io.Writer, p *vaultapi.Profile) {
	verified := text.FgGreen.Sprint("yes")
	if !p.IsVerified {
		verified = text.FgYellow.Sprint("no")
	}

	t := newTable(w)
	t.AppendHeader(header("KEY", "VALUE"))
	t.AppendRows([]table.Row{
		{"Email", p.Email},
		{"Name", p.FullName},
		{"Verified", verified},
		{"Role", p.Role},
		{"Member since", formatTimestamp(p.CreatedAt)},
	})
	if p.ProfilePicture != "" {
		t.AppendRow(table.Row{"Picture", p.ProfilePicture})
	}
	t.Render()
}

var categoryOrder = []vaultapi.Category{vaultapi.CategoryImages, vaultapi.CategoryVideos, vaultapi.CategoryOthers}

func printDashboard(w io.Writer, d *vaultapi.Dashboard) {
	if d.Profile != nil {
		name := d.Profile.FullName
		if name == "" {
			name = d.Profile.Email
		}
		fmt.Fprintf(w, "Signed in as %s\n", text.Bold.Sprint(name))
		if !d.Profile.IsVerified {
			fmt.Fprintln(w, text.FgRed.Sprint("Please verify your email to upload files."))
		}
	}
	printUsage(w, d.Usage)

	groups := vaultapi.GroupByCategory(d.Files)
	for _, c := range categoryOrder {
		fmt.Fprintf(w, "\n%s\n", text.Bold.Sprint(strings.ToUpper(string(c[:1]))+string(c[1:])))
		printFiles(w, groups[c])
	}
}

func printAudit(w io.Writer, entries []vaultapi.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No audit entries."))
		return
	}

	t := newTable(w)
	t.AppendHeader(header("#", "TIME", "USER", "ACTION"))
	for i, e := range entries {
		action := e.Action
		if e.IsUpload() {
			action = text.FgHiBlack.Sprint("⇪ ") + action
		}
		t.AppendRow(table.Row{strconv.Itoa(i + 1), formatTimestamp(e.Timestamp), e.UserEmail(), action})
	}
	t.Render()
}
