// Package repo resolves managed repositories: their identity, their
// configuration, and the ledger store they coordinate through.
package repo

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iron-Ham/lockstep/internal/errors"
	"github.com/Iron-Ham/lockstep/internal/gitcmd"
	"github.com/Iron-Ham/lockstep/internal/ledger"
	"github.com/Iron-Ham/lockstep/internal/logging"
	"github.com/Iron-Ham/lockstep/internal/spread"
)

// Repository is one managed clone: its working directory, canonical
// remote URL, local identity, resolved configuration and ledger store.
type Repository struct {
	git       *gitcmd.Git
	remoteURL string
	user      string
	host      string
	config    Config
	store     ledger.Store
	logger    *logging.Logger
}

// Open resolves the repository owning path. It fails with
// ErrNotGitRepository when path is outside any working copy and with
// ErrRepositoryNotSetup when the working copy carries no .lockstep.yaml.
func Open(ctx context.Context, path string, executor gitcmd.Executor, logger *logging.Logger) (*Repository, error) {
	if executor == nil {
		executor = gitcmd.NewCLIExecutor()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	toplevel, err := gitcmd.FindToplevel(ctx, executor, path)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(toplevel)
	if err != nil {
		return nil, err
	}

	git := gitcmd.NewWithExecutor(toplevel, executor)
	remoteURL, err := git.RemoteURL(ctx)
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	rest, err := ledger.NewRESTStore(cfg.StoreURL, cfg.StoreHeaders)
	if err != nil {
		return nil, err
	}
	cachePath := filepath.Join(toplevel, DataDirName, ledger.CacheFileName)
	ttl := time.Duration(cfg.PullThreshold) * time.Second
	store := ledger.NewCachedStore(rest, cachePath, ttl, logger)

	return &Repository{
		git:       git,
		remoteURL: remoteURL,
		user:      git.UserName(ctx),
		host:      hostname,
		config:    cfg,
		store:     store,
		logger:    logger.WithRepository(toplevel),
	}, nil
}

// WorkingDir is the repository toplevel.
func (r *Repository) WorkingDir() string {
	return r.git.Dir()
}

// RemoteURL is the canonical remote the ledger is scoped to.
func (r *Repository) RemoteURL() string {
	return r.remoteURL
}

// Config returns the resolved repository configuration.
func (r *Repository) Config() Config {
	return r.config
}

// Store returns the ledger store for this clone.
func (r *Repository) Store() ledger.Store {
	return r.store
}

// Git returns the query layer bound to this working copy.
func (r *Repository) Git() *gitcmd.Git {
	return r.git
}

// Logger returns the repository-scoped logger.
func (r *Repository) Logger() *logging.Logger {
	return r.logger
}

// DataDir is the per-clone state directory.
func (r *Repository) DataDir() string {
	return filepath.Join(r.git.Dir(), DataDirName)
}

// Identity describes this clone for spread classification and claim
// records.
func (r *Repository) Identity() spread.Identity {
	return spread.Identity{
		User:  r.user,
		Host:  r.host,
		Clone: r.git.Dir(),
	}
}

// State snapshots the repository for a classification run.
func (r *Repository) State(ctx context.Context) (spread.State, error) {
	branch, err := r.git.ActiveBranch(ctx)
	if err != nil {
		return spread.State{}, err
	}
	return spread.State{Identity: r.Identity(), ActiveBranch: branch}, nil
}

// RelativePath rebases path onto the repository toplevel, in slash form.
// Already-relative paths are cleaned and returned as-is.
func (r *Repository) RelativePath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}
	rel, err := filepath.Rel(r.git.Dir(), path)
	if err != nil {
		return "", errors.Wrap(err, "rebasing path onto repository")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.NewRepositoryError("path is outside the repository", nil).WithPath(path)
	}
	return filepath.ToSlash(rel), nil
}

// AbsolutePath resolves a repository-relative path to an absolute one.
func (r *Repository) AbsolutePath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(r.git.Dir(), filepath.FromSlash(rel))
}

// TrackedFiles lists the committed files lockstep manages in this
// repository: those matching a tracked extension, plus binaries when
// track_binaries is enabled.
func (r *Repository) TrackedFiles(ctx context.Context) ([]string, error) {
	files, err := r.git.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make([]string, 0, len(files))
	for _, file := range files {
		if r.Tracks(file) {
			tracked = append(tracked, file)
		}
	}
	return tracked, nil
}

// Tracks reports whether a repository-relative path is managed by
// lockstep under the current configuration.
func (r *Repository) Tracks(rel string) bool {
	ext := strings.TrimPrefix(filepath.Ext(rel), ".")
	for _, tracked := range r.config.TrackedExtensions {
		if strings.EqualFold(strings.TrimPrefix(tracked, "."), ext) {
			return true
		}
	}
	if r.config.TrackBinaries {
		return isBinary(r.AbsolutePath(rel))
	}
	return false
}

// LocallyChangedFiles returns the repository-relative paths changed by
// this clone: files touched by commits not yet on any remote, plus
// files with uncommitted worktree changes.
func (r *Repository) LocallyChangedFiles(ctx context.Context) ([]string, error) {
	changed := map[string]struct{}{}
	var ordered []string
	add := func(paths []string) {
		for _, p := range paths {
			if _, seen := changed[p]; !seen {
				changed[p] = struct{}{}
				ordered = append(ordered, p)
			}
		}
	}

	shas, err := r.git.LocalOnlyShas(ctx)
	if err != nil {
		return nil, err
	}
	for _, sha := range shas {
		paths, err := r.git.NumstatChanges(ctx, sha)
		if err != nil {
			return nil, err
		}
		add(paths)
	}

	status, err := r.git.StatusPaths(ctx)
	if err != nil {
		return nil, err
	}
	add(status)
	return ordered, nil
}

// isBinary sniffs the first chunk of a file for a NUL byte.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 8000)
	n, err := f.Read(buf)
	if n <= 0 || (err != nil && n == 0) {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
