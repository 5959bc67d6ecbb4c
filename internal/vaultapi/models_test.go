package vaultapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileCategory(t *testing.T) {
	tests := []struct {
		fileType string
		want     Category
	}{
		{"image/png", CategoryImages},
		{"video/mp4", CategoryVideos},
		{"application/pdf", CategoryOthers},
		{"", CategoryOthers},
		{"imagex/odd", CategoryOthers},
	}

	for _, tt := range tests {
		t.Run(tt.fileType, func(t *testing.T) {
			f := File{FileType: tt.fileType}
			assert.Equal(t, tt.want, f.Category())
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	groups := GroupByCategory([]File{
		{ID: 1, FileType: "image/png"},
		{ID: 2, FileType: "text/plain"},
		{ID: 3, FileType: "image/jpeg"},
	})

	assert.Len(t, groups[CategoryImages], 2)
	assert.Empty(t, groups[CategoryVideos])
	assert.Len(t, groups[CategoryOthers], 1)
	assert.Equal(t, 3, groups[CategoryImages][1].ID)
}

func TestUploadedFilename(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"Uploaded file: report.pdf | 1.2 MB", "report.pdf"},
		{"Uploaded file:report.pdf", "report.pdf"},
		{"uploaded FILE:   spaced name.txt  |x|y", "spaced name.txt"},
		{"Deleted file: a.txt", "Deleted file: a.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			e := AuditEntry{Action: tt.action}
			assert.Equal(t, tt.want, e.UploadedFilename())
		})
	}
}

func TestAuditEntryIsUpload(t *testing.T) {
	assert.True(t, (&AuditEntry{Action: "Uploaded file: a"}).IsUpload())
	assert.False(t, (&AuditEntry{Action: "uploaded file: a"}).IsUpload())
	assert.False(t, (&AuditEntry{Action: "Logged in"}).IsUpload())
}

func TestFindFileForEntry(t *testing.T) {
	files := []File{{ID: 1, Filename: "a.txt"}, {ID: 2, Filename: "b.txt"}}

	f, ok := FindFileForEntry(AuditEntry{Action: "Uploaded file: b.txt | 2 KB"}, files)
	assert.True(t, ok)
	assert.Equal(t, 2, f.ID)

	_, ok = FindFileForEntry(AuditEntry{Action: "Uploaded file: c.txt"}, files)
	assert.False(t, ok)
}

func TestUsage(t *testing.T) {
	assert.InDelta(t, 0, Usage{}.Percent(), 0.001)
	assert.InDelta(t, 50, Usage{UsedMB: 50}.Percent(), 0.001)
	assert.False(t, Usage{UsedMB: 99.9}.Full())
	assert.True(t, Usage{UsedMB: 100}.Full())
}

func TestPathAndQueryParams(t *testing.T) {
	p, err := pathParam("id", 42)
	assert.NoError(t, err)
	assert.Equal(t, "42", p)

	p, err = pathParam("name", "a b/c")
	assert.NoError(t, err)
	assert.Equal(t, "a%20b%2Fc", p)

	assert.Equal(t, "/files", withQuery("/files", nil))
}
