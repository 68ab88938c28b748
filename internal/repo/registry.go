package repo

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Iron-Ham/lockstep/internal/errors"
	"github.com/Iron-Ham/lockstep/internal/gitcmd"
	"github.com/Iron-Ham/lockstep/internal/logging"
)

// Registry resolves and caches repositories by canonical working
// directory for the lifetime of one top-level operation. It also owns
// the per-repository pull-rate limiter.
type Registry struct {
	executor gitcmd.Executor
	logger   *logging.Logger

	mu    sync.Mutex
	repos map[string]*Repository

	pulls *gocache.Cache
}

// NewRegistry creates an empty registry. A nil executor falls back to
// running real git commands.
func NewRegistry(executor gitcmd.Executor, logger *logging.Logger) *Registry {
	if executor == nil {
		executor = gitcmd.NewCLIExecutor()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Registry{
		executor: executor,
		logger:   logger,
		repos:    map[string]*Repository{},
		pulls:    gocache.New(gocache.NoExpiration, time.Minute),
	}
}

// Executor returns the command executor repositories are resolved with.
func (reg *Registry) Executor() gitcmd.Executor {
	return reg.executor
}

// Find resolves the repository owning path. Paths outside any managed
// repository resolve to (nil, nil): no information, not an error.
func (reg *Registry) Find(ctx context.Context, path string) (*Repository, error) {
	// File paths, including not-yet-created ones, resolve through their
	// parent directory.
	if info, statErr := os.Stat(path); statErr != nil || !info.IsDir() {
		path = filepath.Dir(path)
	}
	toplevel, err := gitcmd.FindToplevel(ctx, reg.executor, path)
	if err != nil {
		if errors.Is(err, errors.ErrNotGitRepository) {
			return nil, nil
		}
		return nil, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if repository, ok := reg.repos[toplevel]; ok {
		return repository, nil
	}

	repository, err := Open(ctx, toplevel, reg.executor, reg.logger)
	if err != nil {
		if errors.Is(err, errors.ErrRepositoryNotSetup) {
			return nil, nil
		}
		return nil, err
	}
	reg.repos[toplevel] = repository
	return repository, nil
}

// Add registers an already-open repository, keyed by its working
// directory.
func (reg *Registry) Add(repository *Repository) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.repos[repository.WorkingDir()] = repository
}

// MarkPulled records a successful fetch for the repository. The mark
// expires after the repository's pull threshold.
func (reg *Registry) MarkPulled(repository *Repository) {
	ttl := time.Duration(repository.Config().PullThreshold) * time.Second
	reg.pulls.Set(repository.WorkingDir(), time.Now(), ttl)
}

// PulledRecently reports whether the repository was fetched within its
// pull threshold.
func (reg *Registry) PulledRecently(repository *Repository) bool {
	_, found := reg.pulls.Get(repository.WorkingDir())
	return found
}
