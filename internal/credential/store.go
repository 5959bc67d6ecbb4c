package credential

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/securevault/svault/internal/tokenstore"
)

// Mode selects how the session is carried to the API.
type Mode string

const (
	ModeToken  Mode = "token"
	ModeCookie Mode = "cookie"
)

// probeKey is written and removed once at construction to detect usable storage.
const probeKey = "__sv_test__"

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for storage warnings.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// Store is the single source of truth for the session credential.
// It is safe for concurrent use.
type Store struct {
	mode             Mode
	storage          tokenstore.Storage
	key              string
	storageAvailable bool
	logger           *slog.Logger

	mu          sync.Mutex
	token       string
	subscribers map[uint64]func()
	nextID      uint64
}

// NewStore creates a Store and probes storage once. In token mode the credential is
// restored from storage when the probe succeeds. A nil storage counts as unavailable.
func NewStore(ctx context.Context, mode Mode, storage tokenstore.Storage, key string, opts ...StoreOption) *Store {
	cfg := &storeConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Store{
		mode:        mode,
		storage:     storage,
		key:         key,
		logger:      cfg.logger,
		subscribers: make(map[uint64]func()),
	}

	s.storageAvailable = s.probe(ctx)

	if mode == ModeToken && s.storageAvailable {
		token, err := storage.Read(ctx, key)
		switch {
		case err == nil:
			s.token = token
		case errors.Is(err, tokenstore.ErrNotFound):
		default:
			s.logger.WarnContext(ctx, "failed to restore stored credential", "key", key, "error", err)
		}
	}

	return s
}

// probe reports whether storage accepts a write followed by a delete.
func (s *Store) probe(ctx context.Context) bool {
	if s.storage == nil {
		s.logger.DebugContext(ctx, "no durable storage configured, credentials kept in memory")
		return false
	}

	err := s.storage.Write(ctx, probeKey, "1")
	if err == nil {
		err = s.storage.Delete(ctx, probeKey)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "durable storage unavailable, falling back to memory", "error", err)
		return false
	}
	return true
}

// Mode returns the session transport mode.
func (s *Store) Mode() Mode {
	return s.mode
}

// StorageAvailable reports the cached result of the startup probe.
func (s *Store) StorageAvailable() bool {
	return s.storageAvailable
}

// Credential returns the current bearer token, or "" if there is none.
// Always "" in cookie mode.
func (s *Store) Credential() string {
	if s.mode == ModeCookie {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetCredential replaces the current credential. An empty token removes it.
// Ignored with a warning in cookie mode.
func (s *Store) SetCredential(ctx context.Context, token string) {
	if s.mode == ModeCookie {
		s.logger.WarnContext(ctx, "cookie session mode enabled, ignoring credential assignment")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token

	if !s.storageAvailable {
		if token != "" {
			s.logger.WarnContext(ctx, "persisting credential in memory only, sessions will not survive a restart")
		}
		return
	}

	var err error
	if token != "" {
		err = s.storage.Write(ctx, s.key, token)
	} else {
		err = s.storage.Delete(ctx, s.key)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to persist credential", "key", s.key, "error", err)
	}
}

// ClearCredential removes the current credential from memory and, in token mode,
// from durable storage.
func (s *Store) ClearCredential(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""

	if s.mode == ModeCookie || !s.storageAvailable {
		return
	}
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logger.WarnContext(ctx, "failed to remove stored credential", "key", s.key, "error", err)
	}
}

// SubscribeUnauthorized registers fn to be called on every forced logout.
// The returned function removes the registration; calling it more than once is harmless.
func (s *Store) SubscribeUnauthorized(fn func()) (unsubscribe func()) {
	if fn == nil {
		panic("credential: nil unauthorized callback")
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Logout clears the credential and invokes every registered callback once.
// Callbacks run outside the store lock and may subscribe or unsubscribe.
func (s *Store) Logout(ctx context.Context) {
	s.ClearCredential(ctx)

	s.mu.Lock()
	ids := make([]uint64, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		// Skip callbacks removed by an earlier callback in this pass
		s.mu.Lock()
		fn, ok := s.subscribers[id]
		s.mu.Unlock()
		if ok {
			fn()
		}
	}
}
