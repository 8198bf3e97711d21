package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	apperrors "slotkeeper/pkg/errors"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	OwnerTokenHeader     = "X-Owner-Token"
)

type IdempotencyStore interface {
	Get(key string) (*CachedResponse, bool)
	Set(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	// Fingerprint is the hash of the request body that produced the response.
	Fingerprint string
	StatusCode  int
	Headers     http.Header
	Body        []byte
	CreatedAt   time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.RWMutex
	store    map[string]*CachedResponse
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		store:  make(map[string]*CachedResponse),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *InMemoryIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	s.mu.RLock()
	response, exists := s.store[key]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(response.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, false
	}

	return response, true
}

func (s *InMemoryIdempotencyStore) Set(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.CreatedAt = time.Now()
	s.store[key] = response
}

func (s *InMemoryIdempotencyStore) cleanup() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for key, response := range s.store {
				if time.Since(response.CreatedAt) > s.ttl {
					delete(s.store, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored 2xx response when a client retries a
// mutating request with the same key, so a retried reserve returns the
// original hold instead of a conflict with itself. Keys are scoped to the
// owner token, so one client's key never replays another client's response.
// Reusing a key with a different body is rejected. Failures are not cached.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			body, err := readBody(r)
			if err != nil {
				// Oversized or broken bodies are reported by the handler's decoder.
				next.ServeHTTP(w, r)
				return
			}

			fingerprint := digest(body)
			scoped := r.Method + " " + r.URL.Path + " " + digest([]byte(requestOwner(r, body))) + " " + key
			if cached, found := store.Get(scoped); found {
				if cached.Fingerprint != fingerprint {
					_ = apperrors.WriteError(w, apperrors.Validation(
						"Idempotency-Key was already used with a different request",
						map[string]any{"header": IdempotencyKeyHeader},
					))
					return
				}
				replayCachedResponse(w, cached)
				return
			}

			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Set(scoped, &CachedResponse{
					Fingerprint: fingerprint,
					StatusCode:  capture.statusCode,
					Headers:     w.Header().Clone(),
					Body:        capture.body.Bytes(),
				})
			}
		})
	}
}

// readBody drains the request body and puts an identical reader back. On a
// read error the consumed prefix is put back in front of the failing reader.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	return body, err
}

// requestOwner prefers the owner header and falls back to the body's owner_token.
func requestOwner(r *http.Request, body []byte) string {
	if token := r.Header.Get(OwnerTokenHeader); token != "" {
		return token
	}
	var payload struct {
		OwnerToken string `json:"owner_token"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.OwnerToken
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		if key == RequestIDHeader {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
