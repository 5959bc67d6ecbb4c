package vaultapi

import (
	"context"
	"fmt"
	"io"

	"github.com/securevault/svault/internal/apiclient"
)

// Me returns the signed-in user's profile.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := s.get(ctx, "/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateFullName changes the display name.
func (s *Service) UpdateFullName(ctx context.Context, fullName string) error {
	_, err := s.client.Patch(ctx, "/me/full-name", apiclient.JSON(map[string]string{"full_name": fullName}))
	return err
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("current and new password are required")
	}

	_, err := s.client.Patch(ctx, "/me/password", apiclient.JSON(map[string]string{
		"current_password": current,
		"new_password":     next,
	}))
	return err
}

// UploadProfilePicture replaces the avatar image.
func (s *Service) UploadProfilePicture(ctx context.Context, filename, contentType string, content io.Reader) error {
	form := apiclient.NewForm().AddFile(apiclient.FormFile{
		Field:       "file",
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})

	_, err := s.client.Patch(ctx, "/me/profile-picture", apiclient.Multipart(form))
	return err
}

// DeleteAccount permanently removes the account, confirmed by password, and
// clears the local credential on success.
func (s *Service) DeleteAccount(ctx context.Context, password string) error {
	_, err := s.client.Delete(ctx, "/me", apiclient.WithBody(apiclient.JSON(map[string]string{"password": password})))
	if err != nil {
		return err
	}

	s.store.ClearCredential(ctx)
	return nil
}
