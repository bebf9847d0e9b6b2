package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/studio/internal/studio"
)

// Snapshot is the latest service health known to the UI.
type Snapshot struct {
	Health              studio.Health
	HasHealth           bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // consecutive failed health checks
}

// IsOffline reports whether the service has been unreachable for multiple checks.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Ready reports whether the last check succeeded with a healthy status.
func (s Snapshot) Ready() bool {
	return s.HasHealth && s.LastError == nil && s.Health.OK()
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Update records a health check. When err is non-nil the previous health is
// kept and the error recorded.
func (s *Store) Update(health *studio.Health, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = s.clock()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if health != nil {
		s.snapshot.Health = *health
		s.snapshot.HasHealth = true
	} else {
		s.snapshot.Health = studio.Health{}
		s.snapshot.HasHealth = false
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
