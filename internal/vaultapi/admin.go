package vaultapi

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/securevault/svault/internal/apiclient"
	"github.com/securevault/svault/internal/credential"
)

// RequireAdmin checks the role claim of the current bearer token. In cookie mode
// the token is not visible to the client, so the API remains the only gate.
func (s *Service) RequireAdmin() error {
	if s.store.Mode() == credential.ModeCookie {
		return nil
	}

	claims, err := credential.ParseClaims(s.store.Credential())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotAdmin, err)
	}
	if !claims.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// AuditLog returns every audit entry.
func (s *Service) AuditLog(ctx context.Context) ([]AuditEntry, error) {
	var entries []AuditEntry
	if err := s.get(ctx, "/admin/audit", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AdminFiles returns every user's files.
func (s *Service) AdminFiles(ctx context.Context) ([]File, error) {
	var files []File
	if err := s.get(ctx, "/admin/files", &files); err != nil {
		return nil, err
	}
	return files, nil
}

// AuditOverview holds the audit log and the file list it is resolved against.
type AuditOverview struct {
	Entries []AuditEntry
	Files   []File
}

// Audit loads the audit log and all files in parallel.
func (s *Service) Audit(ctx context.Context) (*AuditOverview, error) {
	var overview AuditOverview

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.AuditLog(ctx)
		overview.Entries = entries
		return err
	})
	g.Go(func() error {
		files, err := s.AdminFiles(ctx)
		overview.Files = files
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &overview, nil
}

// AdminDeleteFile removes any user's file.
func (s *Service) AdminDeleteFile(ctx context.Context, id int) error {
	p, err := pathParam("id", id)
	if err != nil {
		return err
	}
	_, err = s.client.Delete(ctx, "/admin/files/"+p)
	return err
}

// DeleteFileForEntry deletes the file an upload audit entry refers to.
func (s *Service) DeleteFileForEntry(ctx context.Context, entry AuditEntry, files []File) (File, error) {
	file, ok := FindFileForEntry(entry, files)
	if !ok {
		return File{}, fmt.Errorf("%w: %q", ErrFileNotFound, entry.UploadedFilename())
	}
	if err := s.AdminDeleteFile(ctx, file.ID); err != nil {
		return File{}, err
	}
	return file, nil
}

// ExportAudit downloads the audit log as CSV.
func (s *Service) ExportAudit(ctx context.Context) (*apiclient.Blob, error) {
	data, err := s.client.Get(ctx, "/admin/audit/export",
		apiclient.WithHeader("Accept", "text/csv"),
		apiclient.WithResponseType(apiclient.ResponseBlob),
	)
	if err != nil {
		return nil, err
	}
	blob, ok := data.(*apiclient.Blob)
	if !ok {
		return nil, fmt.Errorf("GET /admin/audit/export: unexpected response %T", data)
	}
	return blob, nil
}
