package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgo/lending/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingHandler(calls *int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Location", "/v1/loans/loan:"+string(rune('0'+n)))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"n":` + string(rune('0'+n)) + `}`))
	})
}

func keyedRequest(method, key, body string) *http.Request {
	req := httptest.NewRequest(method, "/v1/loans", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	return withTestActor(req, "account:1", model.RoleStandard)
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	t.Parallel()
	store := newIdempotencyStore(time.Hour, newClock().Now)
	var calls int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, keyedRequest(http.MethodPost, "abc", `{"amount":"100"}`))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, keyedRequest(http.MethodPost, "abc", `{"amount":"100"}`))

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "/v1/loans/loan:1", second.Header().Get("Location"))
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_DifferentFingerprintRunsAgain(t *testing.T) {
	t.Parallel()
	store := newIdempotencyStore(time.Hour, newClock().Now)
	var calls int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "abc", `{"amount":"100"}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "abc", `{"amount":"200"}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "def", `{"amount":"100"}`))

	assert.Equal(t, int32(3), calls)
}

func TestIdempotency_PassThrough(t *testing.T) {
	t.Parallel()
	store := newIdempotencyStore(time.Hour, newClock().Now)
	var calls int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusOK))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodDelete, "abc", ``))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodDelete, "abc", ``))

	assert.Equal(t, int32(4), calls)
	assert.Empty(t, store.entries)
}

func TestIdempotency_ServerErrorsAreNotKept(t *testing.T) {
	t.Parallel()
	store := newIdempotencyStore(time.Hour, newClock().Now)
	var calls int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusServiceUnavailable))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPatch, "abc", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPatch, "abc", `{}`))

	assert.Equal(t, int32(2), calls)
}

func TestIdempotency_ExpiredEntryRunsAgain(t *testing.T) {
	t.Parallel()
	clock := newClock()
	store := newIdempotencyStore(time.Minute, clock.Now)
	var calls int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "abc", `{}`))
	clock.Advance(2 * time.Minute)
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "abc", `{}`))

	assert.Equal(t, int32(2), calls)
}

func TestIdempotency_RestoresBody(t *testing.T) {
	t.Parallel()
	store := newIdempotencyStore(time.Hour, newClock().Now)
	var got string
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "abc", `{"category":"Auto"}`))

	assert.Equal(t, `{"category":"Auto"}`, got)
}

func TestIdempotency_ConcurrentDuplicateWaits(t *testing.T) {
	t.Parallel()
	store := newIdempotencyStore(time.Hour, time.Now)
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
	}))

	var wg sync.WaitGroup
	codes := make([]int, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, keyedRequest(http.MethodPost, "abc", `{}`))
		codes[0] = rr.Code
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, keyedRequest(http.MethodPost, "abc", `{}`))
		codes[1] = rr.Code
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated}, codes)
}

func TestIdempotencyStore_Cleanup(t *testing.T) {
	t.Parallel()
	clock := newClock()
	store := newIdempotencyStore(time.Minute, clock.Now)
	var calls int32
	h := Idempotency(store)(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "old", `{}`))
	clock.Advance(2 * time.Minute)
	h.ServeHTTP(httptest.NewRecorder(), keyedRequest(http.MethodPost, "new", `{}`))
	require.Len(t, store.entries, 2)

	store.cleanup()
	assert.Len(t, store.entries, 1)
}

func TestFingerprint_SeparatesFields(t *testing.T) {
	t.Parallel()

	assert.Equal(t, fingerprint("a", "k", "POST", "/p", []byte("b")), fingerprint("a", "k", "POST", "/p", []byte("b")))
	assert.NotEqual(t, fingerprint("ab", "k", "POST", "/p", nil), fingerprint("a", "bk", "POST", "/p", nil))
}
