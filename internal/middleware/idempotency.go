package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyHeader carries the client-chosen key for a retried write
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore keeps responses to keyed POST and PATCH requests so a
// retry (for example a repeated loan application) replays the first outcome
// instead of creating a second record
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	now      func() time.Time
	stopOnce sync.Once
	stopChan chan struct{}
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{} // closed once the first request finishes
}

func (e *idempotencyEntry) inFlight() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
}

// NewIdempotencyStore creates a store and starts its cleanup loop
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}
	s := newIdempotencyStore(cfg.TTL, time.Now)
	go s.cleanupLoop(cfg.Cleanup)
	return s
}

func newIdempotencyStore(ttl time.Duration, now func() time.Time) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      ttl,
		now:      now,
		stopChan: make(chan struct{}),
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !entry.inFlight() && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// claim returns the completed entry for key if one is still valid. Otherwise
// it registers a new in-flight entry owned by the caller. A caller that finds
// an in-flight entry waits for it.
func (s *IdempotencyStore) claim(key string) (cached *idempotencyEntry, owned *idempotencyEntry) {
	for {
		s.mu.Lock()
		entry, ok := s.entries[key]
		switch {
		case !ok:
			entry = &idempotencyEntry{done: make(chan struct{})}
			s.entries[key] = entry
			s.mu.Unlock()
			return nil, entry
		case entry.inFlight():
			s.mu.Unlock()
			<-entry.done
			continue
		case entry.expiresAt.After(s.now()):
			s.mu.Unlock()
			return entry, nil
		default:
			delete(s.entries, key)
			s.mu.Unlock()
		}
	}
}

// complete records the response for an owned entry. Server errors are not
// kept so the client can retry them.
func (s *IdempotencyStore) complete(key string, entry *idempotencyEntry, rec *recordingWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		entry.status = rec.status
		entry.headers = rec.Header().Clone()
		entry.body = rec.body.Bytes()
		entry.expiresAt = s.now().Add(s.ttl)
	}
	close(entry.done)
}

func fingerprint(actorID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{actorID, idempotencyKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// recordingWriter passes the response through while keeping a copy
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency returns middleware that honours Idempotency-Key on POST and
// PATCH requests
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get(IdempotencyHeader)
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			actorID := GetActorID(r.Context())
			if actorID == "" {
				actorID = clientAddr(r)
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(actorID, idempotencyKey, r.Method, r.URL.Path, body)

			cached, owned := store.claim(key)
			if cached != nil {
				replay(w, cached)
				return
			}

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if p := recover(); p != nil {
					rec.status = http.StatusInternalServerError
					store.complete(key, owned, rec)
					panic(p)
				}
				store.complete(key, owned, rec)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
