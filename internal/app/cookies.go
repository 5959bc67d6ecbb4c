package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"

	"github.com/securevault/svault/internal/tokenstore"
)

// SessionJar is a cookie jar for cookie-mode sessions whose cookies for the API
// origin survive across CLI invocations. Cookies are kept in the session storage.
// A nil storage keeps them in memory only.
type SessionJar struct {
	*cookiejar.Jar

	origin  *url.URL
	storage tokenstore.Storage
	key     string
}

// Compile-time check that SessionJar implements http.CookieJar
var _ http.CookieJar = (*SessionJar)(nil)

// storedCookie is the persisted form of a cookie. The jar only exposes name and
// value for outgoing requests, so that is all that survives a restart.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewSessionJar creates an empty jar for baseURL. Call Load to restore saved cookies.
func NewSessionJar(baseURL string, storage tokenstore.Storage, key string) (*SessionJar, error) {
	origin, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &SessionJar{
		Jar:     jar,
		origin:  &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: "/"},
		storage: storage,
		key:     key,
	}, nil
}

// Load restores cookies saved by a previous Save. A missing entry is not an error.
func (j *SessionJar) Load(ctx context.Context) error {
	if j.storage == nil {
		return nil
	}

	raw, err := j.storage.Read(ctx, j.key)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading session cookies: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("decoding session cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	j.SetCookies(j.origin, cookies)
	return nil
}

// Save persists the cookies the jar would send to the API origin.
// An empty jar removes the stored entry.
func (j *SessionJar) Save(ctx context.Context) error {
	if j.storage == nil {
		return nil
	}

	cookies := j.Cookies(j.origin)
	if len(cookies) == 0 {
		return j.storage.Delete(ctx, j.key)
	}

	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding session cookies: %w", err)
	}
	return j.storage.Write(ctx, j.key, string(data))
}

// Clear expires every cookie for the API origin and removes the stored entry.
func (j *SessionJar) Clear(ctx context.Context) error {
	cookies := j.Cookies(j.origin)
	for _, c := range cookies {
		c.Path = "/"
		c.MaxAge = -1
	}
	j.SetCookies(j.origin, cookies)

	if j.storage == nil {
		return nil
	}
	return j.storage.Delete(ctx, j.key)
}
