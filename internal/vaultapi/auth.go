package vaultapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/securevault/svault/internal/apiclient"
	"github.com/securevault/svault/internal/credential"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name"`
}

// Login exchanges email and password for a session. In token mode the returned
// access token becomes the current credential; in cookie mode the API sets the
// session cookie and the credential store is left untouched.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}

	data, err := s.client.Post(ctx, "/login", apiclient.URLEncoded(form))
	if err != nil {
		return nil, err
	}

	var token Token
	if err := apiclient.Decode(data, &token); err != nil {
		return nil, fmt.Errorf("POST /login: %w", err)
	}

	if s.store.Mode() == credential.ModeCookie {
		s.logger.DebugContext(ctx, "logged in with cookie session")
		return &token, nil
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("POST /login: response carried no access token")
	}
	s.store.SetCredential(ctx, token.AccessToken)
	s.logger.DebugContext(ctx, "logged in", "token_type", token.TokenType)

	return &token, nil
}

// Register creates an account. The email must be well-formed and the password non-empty.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("invalid registration: %w", err)
	}

	data, err := s.client.Post(ctx, "/register", apiclient.JSON(req))
	if err != nil {
		return "", err
	}
	return message(data), nil
}

// Logout ends the session on the API and clears the local credential.
// The credential is cleared even when the API call fails.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.client.Post(ctx, "/logout", nil)
	s.store.ClearCredential(ctx)

	// A 401 means the session was already gone
	if err != nil && !errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	return nil
}

// VerifyEmail confirms an email address with the token from the verification link.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	q := url.Values{}
	if err := queryParam(q, "token", token); err != nil {
		return err
	}

	_, err := s.client.Get(ctx, withQuery("/verify-email", q), apiclient.WithResponseType(apiclient.ResponseText))
	return err
}

// ForgotPassword requests a reset link. The API answers the same way whether or not
// the address is registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	_, err := s.client.Post(ctx, "/forgot-password", apiclient.JSON(map[string]string{"email": email}))
	return err
}

// samePasswordDetail is the API's detail for a reset reusing the current password.
const samePasswordDetail = "New password must be different from the old one"

// ResetPassword sets a new password using a reset token. Returns an error wrapping
// ErrSamePassword when the new password equals the old one.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("reset token and new password are required")
	}

	_, err := s.client.Post(ctx, "/reset-password", apiclient.JSON(map[string]string{
		"token":        token,
		"new_password": newPassword,
	}))

	var reqErr *apiclient.RequestError
	if errors.As(err, &reqErr) && reqErr.Detail() == samePasswordDetail {
		return fmt.Errorf("%w: %w", ErrSamePassword, err)
	}
	return err
}
