// Package session holds wizard input between independently rendered steps.
//
// State lives for one browser session only. Keys are namespaced by session and
// bill identifier, so two wizards opened for different bills never see each
// other's input.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Keys read and written by the wizard steps
const (
	KeyPaymentAmount = "paymentAmount"
	KeySelectedBank  = "selectedBank"
)

// DefaultIdleTTL is how long an untouched session survives in the store
const DefaultIdleTTL = 2 * time.Hour

// Store is a string key/value area. Last writer wins.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Scope namespaces keys by browser session and bill identifier
type Scope struct {
	SessionID string
	BillID    string
}

// NewSessionID returns a fresh random session identifier
func NewSessionID() string {
	return uuid.NewString()
}

// Key returns the store key for name within the scope
func (s Scope) Key(name string) string {
	return strings.Join([]string{s.SessionID, s.BillID, name}, "/")
}

// Get reads name within the scope
func (s Scope) Get(ctx context.Context, store Store, name string) (string, bool) {
	return store.Get(ctx, s.Key(name))
}

// Set writes name within the scope
func (s Scope) Set(ctx context.Context, store Store, name, value string) {
	store.Set(ctx, s.Key(name), value)
}

type entry struct {
	value   string
	touched time.Time
}

// MemoryStore keeps session state in process memory.
// Entries untouched for longer than the idle TTL are evicted by a janitor.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
}

// NewMemoryStore creates a store and starts its janitor.
// Close must be called to stop the janitor.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	s := &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.janitor(ttl / 2)
	return s
}

// Get returns the value stored under key
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if s.expired(e) {
		delete(s.entries, key)
		return "", false
	}
	e.touched = s.now()
	s.entries[key] = e
	return e.value, true
}

// Set stores value under key
func (s *MemoryStore) Set(_ context.Context, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, touched: s.now()}
}

// Len returns the number of live entries
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts every expired entry
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
		}
	}
}

// Close stops the janitor
func (s *MemoryStore) Close() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

func (s *MemoryStore) expired(e entry) bool {
	return s.now().Sub(e.touched) > s.ttl
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
