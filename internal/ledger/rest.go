package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Iron-Ham/lockstep/internal/errors"
)

// transportTimeout is the fixed client timeout for ledger round-trips.
// The endpoint serves a small JSON document; anything slower is treated
// as unreachable.
const transportTimeout = 5 * time.Second

// Store owns the ledger's persistence.
type Store interface {
	// Read returns the full ledger.
	Read(ctx context.Context) ([]TrackedCommit, error)

	// Write atomically replaces the full ledger.
	Write(ctx context.Context, records []TrackedCommit) error
}

// envelope is the REST endpoint's document shape. JSONBin-style services
// wrap the stored array in a "record" key on reads.
type envelope struct {
	Record []TrackedCommit `json:"record"`
}

// RESTStore persists the ledger through a REST endpoint: GET returns the
// enveloped record array, PUT replaces it. Header values are expanded
// against the environment on every call so secrets can live outside the
// repository config.
type RESTStore struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewRESTStore validates the endpoint configuration and creates a store.
func NewRESTStore(endpoint string, headers map[string]string) (*RESTStore, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.NewValidationError("store URL must be absolute").
			WithField("store_url").
			WithValue(endpoint).
			WithCause(errors.ErrInvalidStoreConfig)
	}
	for name := range headers {
		if !validHeaderName(name) {
			return nil, errors.NewValidationError("store header name is not a valid HTTP field name").
				WithField("store_headers").
				WithValue(name).
				WithCause(errors.ErrInvalidStoreConfig)
		}
	}
	if headers == nil {
		headers = map[string]string{}
	}
	return &RESTStore{
		url:     endpoint,
		headers: headers,
		client:  &http.Client{Timeout: transportTimeout},
	}, nil
}

// Read fetches the authoritative ledger.
func (s *RESTStore) Read(ctx context.Context) ([]TrackedCommit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.NewStoreError("building ledger request", err).WithURL(s.url)
	}
	s.applyHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.NewStoreError("ledger read failed",
			errors.Join(errors.ErrStoreUnreachable, err)).WithURL(s.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewStoreError("ledger read failed", errors.ErrStoreUnreachable).
			WithURL(s.url).
			WithStatusCode(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewStoreError("reading ledger response",
			errors.Join(errors.ErrStoreUnreachable, err)).WithURL(s.url)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.NewStoreError("decoding ledger response", err).WithURL(s.url)
	}
	return env.Record, nil
}

// Write replaces the full ledger at the endpoint.
func (s *RESTStore) Write(ctx context.Context, records []TrackedCommit) error {
	if records == nil {
		records = []TrackedCommit{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return errors.NewStoreError("encoding ledger", err).WithURL(s.url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url, bytes.NewReader(body))
	if err != nil {
		return errors.NewStoreError("building ledger request", err).WithURL(s.url)
	}
	s.applyHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.NewStoreError("ledger write failed",
			errors.Join(errors.ErrStoreUnreachable, err)).WithURL(s.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewStoreError("ledger write failed", errors.ErrStoreUnreachable).
			WithURL(s.url).
			WithStatusCode(resp.StatusCode)
	}
	return nil
}

func (s *RESTStore) applyHeaders(req *http.Request) {
	for key, value := range s.headers {
		req.Header.Set(key, os.ExpandEnv(value))
	}
}

// headerNameChars is the RFC 7230 token alphabet, the only bytes a
// header field name may contain.
const headerNameChars = "!#$%&'*+-.^_`|~0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if strings.IndexByte(headerNameChars, name[i]) < 0 {
			return false
		}
	}
	return true
}

var _ Store = (*RESTStore)(nil)
