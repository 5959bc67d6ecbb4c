package vaultapi

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/securevault/svault/internal/apiclient"
)

// ListFilesParams filters and orders the file listing.
type ListFilesParams struct {
	Search string
	SortBy string `validate:"omitempty,oneof=date name size"`
	Order  string `validate:"omitempty,oneof=asc desc"`
}

const (
	defaultSortBy = "date"
	defaultOrder  = "desc"
)

// query renders the parameters. All three are always sent, as the API expects.
func (p ListFilesParams) query() (url.Values, error) {
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = defaultSortBy
	}
	order := p.Order
	if order == "" {
		order = defaultOrder
	}

	q := url.Values{}
	if err := queryParam(q, "search", p.Search); err != nil {
		return nil, err
	}
	if err := queryParam(q, "sort_by", sortBy); err != nil {
		return nil, err
	}
	if err := queryParam(q, "order", order); err != nil {
		return nil, err
	}
	return q, nil
}

// ListFiles returns the caller's files.
func (s *Service) ListFiles(ctx context.Context, params ListFilesParams) ([]File, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid listing parameters: %w", err)
	}
	q, err := params.query()
	if err != nil {
		return nil, err
	}

	var files []File
	if err := s.get(ctx, withQuery("/files", q), &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Upload stores a new file. Unverified accounts are refused before anything is sent.
func (s *Service) Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	me, err := s.Me(ctx)
	if err != nil {
		return "", err
	}
	if !me.IsVerified {
		return "", ErrUnverified
	}

	form := apiclient.NewForm().AddFile(apiclient.FormFile{
		Field:       "upload_file",
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})

	data, err := s.client.Post(ctx, "/upload", apiclient.Multipart(form))
	if err != nil {
		return "", err
	}
	s.logger.DebugContext(ctx, "file uploaded", "filename", filename)
	return message(data), nil
}

// Download fetches a file's content. inline requests a preview disposition.
func (s *Service) Download(ctx context.Context, id int, inline bool) (*apiclient.Blob, error) {
	p, err := pathParam("id", id)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if inline {
		if err := queryParam(q, "inline", true); err != nil {
			return nil, err
		}
	}

	data, err := s.client.Get(ctx, withQuery("/download/"+p, q), apiclient.WithResponseType(apiclient.ResponseBlob))
	if err != nil {
		return nil, err
	}
	blob, ok := data.(*apiclient.Blob)
	if !ok {
		return nil, fmt.Errorf("GET /download/%s: unexpected response %T", p, data)
	}
	return blob, nil
}

// DeleteFile removes one of the caller's files.
func (s *Service) DeleteFile(ctx context.Context, id int) error {
	p, err := pathParam("id", id)
	if err != nil {
		return err
	}
	_, err = s.client.Delete(ctx, "/files/"+p)
	return err
}

// StorageUsage returns the caller's storage consumption.
func (s *Service) StorageUsage(ctx context.Context) (Usage, error) {
	var usage Usage
	if err := s.get(ctx, "/storage-usage", &usage); err != nil {
		return Usage{}, err
	}
	return usage, nil
}
