package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/lockstep/internal/errors"
)

// ledgerServer is a minimal in-memory REST endpoint speaking the
// envelope protocol: GET wraps the array in {"record": ...}, PUT
// replaces the array wholesale.
type ledgerServer struct {
	mu      sync.Mutex
	records []TrackedCommit
	status  int // forced response status, 0 = normal
	gotAuth string
}

func (s *ledgerServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.gotAuth = r.Header.Get("X-Access-Key")
		if s.status != 0 {
			w.WriteHeader(s.status)
			return
		}

		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"record": s.records})
		case http.MethodPut:
			var records []TrackedCommit
			if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			s.records = records
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func TestNewRESTStore_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"relative", "api/bins/abc"},
		{"no host", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRESTStore(tt.url, nil)
			assert.ErrorIs(t, err, errors.ErrInvalidStoreConfig)
		})
	}
}

func TestNewRESTStore_InvalidHeaderName(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"space", "X Access Key"},
		{"colon", "X-Access-Key:"},
		{"control", "X-Key\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRESTStore("https://api.example.com/bins/abc",
				map[string]string{tt.header: "value"})
			assert.ErrorIs(t, err, errors.ErrInvalidStoreConfig)
		})
	}
}

func TestRESTStore_ReadWriteRoundTrip(t *testing.T) {
	server := &ledgerServer{}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	store, err := NewRESTStore(ts.URL, nil)
	require.NoError(t, err)

	ctx := context.Background()

	records, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	want := []TrackedCommit{
		{Sha: "abc", Remote: "origin-url", Changes: []string{"art/model.fbx"},
			Date: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), Author: "Ada"},
		{Remote: "origin-url", Clone: "/work/b", Changes: []string{"art/rig.fbx"}},
	}
	require.NoError(t, store.Write(ctx, want))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRESTStore_HeadersExpanded(t *testing.T) {
	server := &ledgerServer{}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	t.Setenv("LEDGER_KEY", "s3cret")

	store, err := NewRESTStore(ts.URL, map[string]string{"X-Access-Key": "$LEDGER_KEY"})
	require.NoError(t, err)

	_, err = store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3cret", server.gotAuth)
}

func TestRESTStore_NonOKIsUnreachable(t *testing.T) {
	server := &ledgerServer{status: http.StatusServiceUnavailable}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	store, err := NewRESTStore(ts.URL, nil)
	require.NoError(t, err)

	_, err = store.Read(context.Background())
	assert.ErrorIs(t, err, errors.ErrStoreUnreachable)

	var storeErr *errors.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, http.StatusServiceUnavailable, storeErr.StatusCode)

	err = store.Write(context.Background(), nil)
	assert.ErrorIs(t, err, errors.ErrStoreUnreachable)
}

func TestRESTStore_ConnectionRefusedIsUnreachable(t *testing.T) {
	// A closed server is the simplest unreachable transport.
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	store, err := NewRESTStore(ts.URL, nil)
	require.NoError(t, err)

	_, err = store.Read(context.Background())
	assert.ErrorIs(t, err, errors.ErrStoreUnreachable)

	// The transport error survives as a cause so logs can tell a refused
	// connection from a DNS failure or timeout.
	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr)
}

// Two clones read the same ledger, each appends its own claim for the
// same path, and each writes the full list back. The store keeps whatever
// arrived last; both writes are individually valid arrays and no record
// is corrupted. This is the documented last-writer-wins trade-off, not a
// bug.
func TestRESTStore_ConcurrentClaimsLastWriterWins(t *testing.T) {
	server := &ledgerServer{}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	ctx := context.Background()

	storeA, err := NewRESTStore(ts.URL, nil)
	require.NoError(t, err)
	storeB, err := NewRESTStore(ts.URL, nil)
	require.NoError(t, err)

	base, err := storeA.Read(ctx)
	require.NoError(t, err)
	baseB, err := storeB.Read(ctx)
	require.NoError(t, err)

	claimA := TrackedCommit{Remote: "origin-url", Clone: "/work/a", Changes: []string{"art/model.fbx"}}
	claimB := TrackedCommit{Remote: "origin-url", Clone: "/work/b", Changes: []string{"art/model.fbx"}}

	require.NoError(t, storeA.Write(ctx, append(base, claimA)))
	require.NoError(t, storeB.Write(ctx, append(baseB, claimB)))

	got, err := storeA.Read(ctx)
	require.NoError(t, err)

	// Only the later write survives; clone A's claim is gone.
	require.Len(t, got, 1)
	assert.Equal(t, "/work/b", got[0].Clone)
	assert.True(t, got[0].Same(&claimB))
}
