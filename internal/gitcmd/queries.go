package gitcmd

import (
	"context"
	"strings"
	"time"

	"github.com/Iron-Ham/lockstep/internal/errors"
)

// emptyTree is git's well-known empty tree object, used as the diff base
// for parentless commits.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Git issues version-control queries against a single working directory.
type Git struct {
	dir      string
	executor Executor
}

// New creates a Git query handle for the given working directory.
func New(dir string) *Git {
	return &Git{dir: dir, executor: NewCLIExecutor()}
}

// NewWithExecutor creates a Git query handle with a custom executor.
// This is primarily useful for testing.
func NewWithExecutor(dir string, executor Executor) *Git {
	return &Git{dir: dir, executor: executor}
}

// Dir returns the working directory queries are scoped to.
func (g *Git) Dir() string {
	return g.dir
}

// Executor returns the underlying executor, so collaborators created for
// the same clone can share it.
func (g *Git) Executor() Executor {
	return g.executor
}

// FindToplevel resolves the root of the repository containing path.
// Returns ErrNotGitRepository when the path is not inside a work tree.
func FindToplevel(ctx context.Context, executor Executor, path string) (string, error) {
	output, err := executor.Run(ctx, path, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.NewRepositoryError("cannot resolve repository root", errors.ErrNotGitRepository).
			WithPath(path)
	}
	return strings.TrimSpace(string(output)), nil
}

// RemoteURL returns the URL of the origin remote.
func (g *Git) RemoteURL(ctx context.Context) (string, error) {
	output, err := g.executor.Run(ctx, g.dir, "git", "remote", "get-url", "origin")
	if err != nil {
		return "", errors.NewRepositoryError("cannot resolve remote URL", errors.ErrNoRemote).
			WithPath(g.dir)
	}
	return strings.TrimSpace(string(output)), nil
}

// ActiveBranch returns the currently checked-out branch name.
func (g *Git) ActiveBranch(ctx context.Context) (string, error) {
	output, err := g.executor.Run(ctx, g.dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// UserName returns the configured git identity name, or "" when unset.
func (g *Git) UserName(ctx context.Context) string {
	output, err := g.executor.Run(ctx, g.dir, "git", "config", "user.name")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// LastShaForPath returns the most recent commit touching the given
// repository-relative path, searching history across all local and
// remote refs. Returns "" when no commit touches the path.
func (g *Git) LastShaForPath(ctx context.Context, relPath string) (string, error) {
	output, err := g.executor.Run(ctx, g.dir, "git", "log",
		"--all", "--remotes", `--pretty=format:"%H"`, "--", relPath)
	if err != nil {
		return "", err
	}
	shas := parseShaList(output)
	if len(shas) == 0 {
		return "", nil
	}
	return shas[0], nil
}

// BranchesContaining returns the leaf names of branches containing the
// commit. With remote set, remote-tracking branches are listed instead of
// local ones.
func (g *Git) BranchesContaining(ctx context.Context, sha string, remote bool) ([]string, error) {
	args := []string{"branch"}
	if remote {
		args = append(args, "--remotes")
	}
	args = append(args, "--contains", sha)
	output, err := g.executor.Run(ctx, g.dir, "git", args...)
	if err != nil {
		return nil, err
	}
	return parseBranchNames(output), nil
}

// NumstatChanges returns the paths touched by a commit, diffed against
// its first parent, or against the empty tree for a parentless commit.
func (g *Git) NumstatChanges(ctx context.Context, sha string) ([]string, error) {
	base := sha + "^"
	if g.executor.RunQuiet(ctx, g.dir, "git", "rev-parse", "--verify", "--quiet", base) != nil {
		base = emptyTree
	}
	output, err := g.executor.Run(ctx, g.dir, "git", "diff", "--numstat", "--no-renames", base, sha)
	if err != nil {
		return nil, err
	}
	return parseNumstatPaths(output), nil
}

// Fetch updates remote-tracking refs from origin, optionally pruning
// deleted remote branches.
func (g *Git) Fetch(ctx context.Context, prune bool) error {
	args := []string{"fetch", "origin"}
	if prune {
		args = append(args, "--prune")
	}
	return g.executor.RunQuiet(ctx, g.dir, "git", args...)
}

// LocalOnlyShas returns commits reachable from local branches but absent
// from every remote-tracking ref, newest first.
func (g *Git) LocalOnlyShas(ctx context.Context) ([]string, error) {
	output, err := g.executor.Run(ctx, g.dir, "git", "log",
		"--branches", "--not", "--remotes", `--pretty=format:"%H"`)
	if err != nil {
		return nil, err
	}
	return parseShaList(output), nil
}

// StatusPaths returns the paths with uncommitted changes in the work tree.
func (g *Git) StatusPaths(ctx context.Context) ([]string, error) {
	output, err := g.executor.Run(ctx, g.dir, "git", "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseStatusPaths(output), nil
}

// TrackedFiles returns every path under version control.
func (g *Git) TrackedFiles(ctx context.Context) ([]string, error) {
	output, err := g.executor.Run(ctx, g.dir, "git", "ls-files")
	if err != nil {
		return nil, err
	}
	return parseLines(output), nil
}

// CommitMeta is commit metadata resolved from the object store.
type CommitMeta struct {
	Sha    string
	Author string
	Date   time.Time
}

// ShowMeta resolves the author and committer date of a commit.
func (g *Git) ShowMeta(ctx context.Context, sha string) (CommitMeta, error) {
	output, err := g.executor.Run(ctx, g.dir, "git", "show", "-s", "--format=%H%n%an%n%cI", sha)
	if err != nil {
		return CommitMeta{}, err
	}
	lines := parseLines(output)
	if len(lines) < 3 {
		return CommitMeta{}, errors.NewCommandError("unexpected show output for "+sha, errors.ErrCommandFailed).
			WithDir(g.dir)
	}
	date, err := time.Parse(time.RFC3339, lines[2])
	if err != nil {
		return CommitMeta{}, errors.Wrapf(err, "parsing commit date %q", lines[2])
	}
	return CommitMeta{Sha: lines[0], Author: lines[1], Date: date}, nil
}
