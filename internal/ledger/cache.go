package ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/lockstep/internal/errors"
	"github.com/Iron-Ham/lockstep/internal/logging"
)

// CacheFileName is the ledger cache file inside the clone's data directory.
const CacheFileName = "ledger.json"

// CachedStore wraps a transport Store with a local on-disk cache. Reads
// within the TTL are served from the cache file; authoritative reads and
// successful writes refresh it. When the transport fails but a cache
// file exists, the stale cache is served as a degraded mode.
type CachedStore struct {
	inner  Store
	path   string
	ttl    time.Duration
	logger *logging.Logger

	// now is stubbed in tests.
	now func() time.Time
}

// NewCachedStore creates a cache layer over inner. path is the cache
// file location, ttl the maximum cache age before an authoritative read.
func NewCachedStore(inner Store, path string, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &CachedStore{
		inner:  inner,
		path:   path,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Read serves the ledger from the cache file when it is fresh enough,
// otherwise from the transport.
func (s *CachedStore) Read(ctx context.Context) ([]TrackedCommit, error) {
	if s.fresh() {
		records, err := s.readLocal()
		if err == nil {
			return records, nil
		}
		s.logger.Warn("ledger cache unreadable, falling back to transport", "path", s.path, "error", err)
	}

	records, err := s.inner.Read(ctx)
	if err != nil {
		if stale, cacheErr := s.readLocal(); cacheErr == nil {
			s.logger.Warn("store unreachable, serving stale ledger cache", "path", s.path)
			return stale, nil
		}
		return nil, err
	}

	if err := s.writeLocal(records); err != nil {
		s.logger.Warn("failed to refresh ledger cache", "path", s.path, "error", err)
	}
	return records, nil
}

// Write replaces the ledger at the transport, then refreshes the cache.
func (s *CachedStore) Write(ctx context.Context, records []TrackedCommit) error {
	if err := s.inner.Write(ctx, records); err != nil {
		return err
	}
	if err := s.writeLocal(records); err != nil {
		s.logger.Warn("failed to refresh ledger cache after write", "path", s.path, "error", err)
	}
	return nil
}

// fresh reports whether the cache file exists and is younger than the TTL.
func (s *CachedStore) fresh() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	return s.now().Sub(info.ModTime()) < s.ttl
}

func (s *CachedStore) readLocal() ([]TrackedCommit, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "reading ledger cache")
	}
	var records []TrackedCommit
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "decoding ledger cache")
	}
	return records, nil
}

func (s *CachedStore) writeLocal(records []TrackedCommit) error {
	if records == nil {
		records = []TrackedCommit{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "encoding ledger cache")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, "creating ledger cache directory")
	}
	return os.WriteFile(s.path, data, 0644)
}

var _ Store = (*CachedStore)(nil)
