package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched session is kept
const DefaultIdleTTL = 2 * time.Hour

type entry struct {
	controller *Controller
	lastSeen   time.Time
}

// Store keeps one Controller per browser session in memory
type Store struct {
	generator Generator
	timeout   time.Duration
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore creates an empty session registry
func NewStore(generator Generator, generationTimeout, idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Store{
		generator: generator,
		timeout:   generationTimeout,
		idleTTL:   idleTTL,
		now:       time.Now,
		sessions:  make(map[string]*entry),
	}
}

func newID() string {
	return uuid.New().String()
}

// GetOrCreate returns the session for id, creating an empty one if needed.
// An empty id gets a freshly generated one.
func (s *Store) GetOrCreate(id string) *Controller {
	if id == "" {
		id = newID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		e.lastSeen = s.now()
		return e.controller
	}

	controller := NewController(id, s.generator, s.timeout)
	s.sessions[id] = &entry{controller: controller, lastSeen: s.now()}
	return controller
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL. Sessions with a generation in
// flight are kept. Returns the number removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) <= s.idleTTL {
			continue
		}
		if e.controller.Snapshot().IsGenerating {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// StartSweeper runs Sweep on every tick until ctx is done
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := s.Sweep(now); n > 0 {
					log.Printf("🧹 Expired %d idle sessions", n)
				}
			}
		}
	}()
}
