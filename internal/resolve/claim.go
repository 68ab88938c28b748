package resolve

import (
	"context"
	"time"

	"github.com/Iron-Ham/lockstep/internal/ledger"
	"github.com/Iron-Ham/lockstep/internal/perms"
	"github.com/Iron-Ham/lockstep/internal/repo"
	"github.com/Iron-Ham/lockstep/internal/spread"
)

// ClaimResult is the outcome of claiming one path. A nil Conflict means
// the claim succeeded. PermissionErr reports a failed permission toggle
// for this file; it never aborts the batch.
type ClaimResult struct {
	Path          string
	Spread        spread.Mask
	Conflict      *ledger.TrackedCommit
	PermissionErr error
}

// Claimed reports whether the claim went through.
func (r *ClaimResult) Claimed() bool {
	return r.Conflict == nil
}

// Claim attempts to take ownership of each path: the path's last commit
// is resolved and classified, and claimable files get an uncommitted
// claim record appended to their repository's ledger. Files whose spread
// carries a foreign bit return the conflicting record and keep their
// permissions untouched. Unmanaged paths claim trivially.
func (s *Service) Claim(ctx context.Context, paths []string, prune bool) ([]ClaimResult, error) {
	commits, err := s.LastCommits(ctx, paths, prune)
	if err != nil {
		return nil, err
	}

	results := make([]ClaimResult, len(paths))
	queued := map[*repo.Repository][]ledger.TrackedCommit{}

	for i, path := range paths {
		results[i].Path = path

		repository, err := s.registry.Find(ctx, path)
		if err != nil {
			return nil, err
		}
		if repository == nil {
			continue
		}

		state, err := repository.State(ctx)
		if err != nil {
			return nil, err
		}
		mask := s.classifier.Of(&commits[i], state)
		results[i].Spread = mask
		if !mask.Claimable() {
			conflict := commits[i].Copy()
			results[i].Conflict = &conflict
			continue
		}

		rel, err := repository.RelativePath(path)
		if err != nil {
			return nil, err
		}
		if repository.Config().ModifyPermissions {
			if err := perms.SetReadOnly(repository.AbsolutePath(rel), false); err != nil {
				results[i].PermissionErr = err
				s.logger.Warn("failed to make claimed file writable", "path", path, "error", err)
			}
		}

		identity := repository.Identity()
		queued[repository] = append(queued[repository], ledger.TrackedCommit{
			Remote:  repository.RemoteURL(),
			Clone:   identity.Clone,
			Host:    identity.Host,
			User:    identity.User,
			Changes: []string{rel},
			Date:    time.Now(),
		})
	}

	for repository, claims := range queued {
		if err := s.Update(ctx, repository, claims); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Status resolves and classifies each path, returning the rendered
// status line together with the mask and record.
type PathStatus struct {
	Path   string
	Spread spread.Mask
	Status spread.Status
	Commit ledger.TrackedCommit
}

// Line renders the fixed-width status line for tooling.
func (p *PathStatus) Line() string {
	return spread.StatusLine(p.Spread, p.Path, &p.Commit)
}

// Statuses computes the spread report for each path.
func (s *Service) Statuses(ctx context.Context, paths []string, prune bool) ([]PathStatus, error) {
	commits, err := s.LastCommits(ctx, paths, prune)
	if err != nil {
		return nil, err
	}

	statuses := make([]PathStatus, len(paths))
	for i, path := range paths {
		statuses[i] = PathStatus{Path: path, Commit: commits[i]}

		repository, err := s.registry.Find(ctx, path)
		if err != nil {
			return nil, err
		}
		if repository == nil {
			continue
		}
		state, err := repository.State(ctx)
		if err != nil {
			return nil, err
		}
		statuses[i].Spread = s.classifier.Of(&commits[i], state)
		statuses[i].Status = spread.StatusOf(statuses[i].Spread)
	}
	return statuses, nil
}
