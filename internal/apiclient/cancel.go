package apiclient

import (
	"context"
	"sync"
)

// CancelSlot holds the cancellation handle of the current fetch cycle.
// Starting a new cycle cancels the previous one, so only the latest result is applied.
type CancelSlot struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// Next cancels the cycle occupying the slot and installs a new one derived from parent.
// release cancels the new cycle's context and empties the slot if it is still current.
func (s *CancelSlot) Next(parent context.Context) (ctx context.Context, release func()) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	return ctx, func() {
		cancel()
		s.mu.Lock()
		if s.gen == gen {
			s.cancel = nil
		}
		s.mu.Unlock()
	}
}

// Cancel cancels the current cycle, if any.
func (s *CancelSlot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
