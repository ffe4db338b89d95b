package cache

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Entry is a cached value with its expiration deadline.
type Entry struct {
	Value      interface{}
	Expiration int64 // UnixNano; entries past this are treated as absent
}

// Store is a process-local TTL cache. All entries in a store share one
// TTL; independent concerns (captions, failure markers) get their own
// namespaced store rather than duplicating expiry logic.
type Store struct {
	namespace string
	ttl       time.Duration
	entries   sync.Map
}

// New creates a TTL store for the given namespace.
func New(namespace string, ttl time.Duration) *Store {
	return &Store{
		namespace: namespace,
		ttl:       ttl,
	}
}

// Namespace returns the store's namespace label.
func (s *Store) Namespace() string {
	return s.namespace
}

// TTL returns the store's entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the live value for key. Expired entries are deleted on
// the way out and reported as missing.
func (s *Store) Get(key string) (interface{}, bool) {
	v, ok := s.entries.Load(key)
	if !ok {
		return nil, false
	}
	entry := v.(Entry)
	if time.Now().UnixNano() > entry.Expiration {
		s.entries.Delete(key)
		return nil, false
	}
	return entry.Value, true
}

// Set stores value under key with the store's TTL.
func (s *Store) Set(key string, value interface{}) {
	s.entries.Store(key, Entry{
		Value:      value,
		Expiration: time.Now().Add(s.ttl).UnixNano(),
	})
}

// Delete removes key from the store.
func (s *Store) Delete(key string) {
	s.entries.Delete(key)
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.entries.Range(func(key, _ interface{}) bool {
		s.entries.Delete(key)
		return true
	})
}

// Range iterates over all entries, including ones past their deadline
// that the janitor has not collected yet.
func (s *Store) Range(fn func(key string, entry Entry) bool) {
	s.entries.Range(func(k, v interface{}) bool {
		return fn(k.(string), v.(Entry))
	})
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	n := 0
	s.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// purge deletes every expired entry and returns how many were removed.
func (s *Store) purge() int {
	removed := 0
	now := time.Now().UnixNano()
	s.entries.Range(func(k, v interface{}) bool {
		if now > v.(Entry).Expiration {
			s.entries.Delete(k)
			removed++
		}
		return true
	})
	return removed
}

// StartJanitor runs periodic purging until stop is closed. Expiry is
// already enforced lazily on Get; the janitor only reclaims memory for
// keys that are never read again.
func (s *Store) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := s.purge(); removed > 0 {
					log.Infof("[Cache:Janitor] Purged %d expired %s entries", removed, s.namespace)
				}
			case <-stop:
				return
			}
		}
	}()
}
