package vaultapi

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/securevault/svault/internal/apiclient"
)

// Dashboard is the combined view of profile, files and usage.
type Dashboard struct {
	Profile *Profile
	Files   []File
	Usage   Usage
}

// Dashboard loads profile, files and usage in parallel. The first failure cancels
// the remaining requests.
func (s *Service) Dashboard(ctx context.Context, params ListFilesParams) (*Dashboard, error) {
	var d Dashboard

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.Me(ctx)
		d.Profile = p
		return err
	})
	g.Go(func() error {
		files, err := s.ListFiles(ctx, params)
		d.Files = files
		return err
	})
	g.Go(func() error {
		usage, err := s.StorageUsage(ctx)
		d.Usage = usage
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &d, nil
}

// DashboardLoader refreshes the dashboard so that only the latest load completes.
// Starting a load cancels the one in flight; its caller receives a canceled error,
// which apiclient.IsCanceled recognizes.
type DashboardLoader struct {
	service *Service
	slot    apiclient.CancelSlot
}

// NewDashboardLoader creates a loader over s.
func NewDashboardLoader(s *Service) *DashboardLoader {
	return &DashboardLoader{service: s}
}

// Load supersedes any load in flight and fetches the dashboard.
func (l *DashboardLoader) Load(ctx context.Context, params ListFilesParams) (*Dashboard, error) {
	ctx, release := l.slot.Next(ctx)
	defer release()

	d, err := l.service.Dashboard(ctx, params)
	// A superseded result is discarded, whatever it was
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Cancel aborts the load in flight, if any.
func (l *DashboardLoader) Cancel() {
	l.slot.Cancel()
}
