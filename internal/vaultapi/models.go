package vaultapi

import (
	"regexp"
	"strings"

	"github.com/securevault/svault/internal/credential"
)

// QuotaMB is the per-user storage quota enforced by the API.
const QuotaMB = 100

// Profile is the signed-in user as returned by GET /me.
type Profile struct {
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	IsVerified     bool   `json:"is_verified"`
	ProfilePicture string `json:"profile_picture"`
	CreatedAt      string `json:"created_at"`
	Role           string `json:"role"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == credential.RoleAdmin
}

// Category groups files for display.
type Category string

const (
	CategoryImages Category = "images"
	CategoryVideos Category = "videos"
	CategoryOthers Category = "others"
)

// File is a stored file's metadata.
type File struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
	FileType string `json:"file_type"`
	// Size is preformatted by the API, e.g. "1.2 MB".
	Size string `json:"size"`
}

// Category derives the display group from the MIME type.
func (f *File) Category() Category {
	switch {
	case strings.HasPrefix(f.FileType, "image/"):
		return CategoryImages
	case strings.HasPrefix(f.FileType, "video/"):
		return CategoryVideos
	default:
		return CategoryOthers
	}
}

// GroupByCategory splits files into display groups, preserving order within each.
func GroupByCategory(files []File) map[Category][]File {
	groups := map[Category][]File{
		CategoryImages: {},
		CategoryVideos: {},
		CategoryOthers: {},
	}
	for _, f := range files {
		c := f.Category()
		groups[c] = append(groups[c], f)
	}
	return groups
}

// Usage is the caller's storage consumption.
type Usage struct {
	UsedMB float64 `json:"used_mb"`
}

// Percent returns usage relative to QuotaMB, capped at 100.
func (u Usage) Percent() float64 {
	return min(u.UsedMB/QuotaMB*100, 100)
}

// Full reports whether the quota is exhausted.
func (u Usage) Full() bool {
	return u.UsedMB >= QuotaMB
}

// UnknownUser is shown for audit entries without an identifiable user.
const UnknownUser = "UNKNOWN"

// uploadedPrefix matches the action prefix of upload audit entries.
var uploadedPrefix = regexp.MustCompile(`(?i)^Uploaded file:\s*`)

// AuditEntry is one row of the admin audit log.
type AuditEntry struct {
	Timestamp string `json:"timestamp"`
	// User is either an email string or an object with an email field.
	User   any    `json:"user"`
	Action string `json:"action"`
}

// UserEmail returns the acting user's email, or UnknownUser.
func (e *AuditEntry) UserEmail() string {
	switch u := e.User.(type) {
	case string:
		return u
	case map[string]any:
		if email, ok := u["email"].(string); ok {
			return email
		}
	}
	return UnknownUser
}

// IsUpload reports whether the entry records a file upload.
func (e *AuditEntry) IsUpload() bool {
	return strings.HasPrefix(e.Action, "Uploaded file:")
}

// UploadedFilename extracts the filename from an upload action such as
// "Uploaded file: report.pdf | 1.2 MB".
func (e *AuditEntry) UploadedFilename() string {
	name := uploadedPrefix.ReplaceAllString(e.Action, "")
	name, _, _ = strings.Cut(name, "|")
	return strings.TrimSpace(name)
}

// FindFileForEntry resolves an upload audit entry to the file it names.
func FindFileForEntry(entry AuditEntry, files []File) (File, bool) {
	name := entry.UploadedFilename()
	for _, f := range files {
		if f.Filename == name {
			return f, true
		}
	}
	return File{}, false
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
