package resolve

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/Iron-Ham/lockstep/internal/ledger"
)

// gitMeta is the metadata a raw history hit needs to become a full
// record.
type gitMeta struct {
	author string
	date   time.Time
}

// changesOf resolves the change list of one ref. Already-resolved
// records keep their stored changes; raw handles run a numstat diff in
// their clone. Failures yield an empty list.
func (s *Service) changesOf(ctx context.Context, ref *commitRef) []string {
	if ref.resolved != nil && len(ref.resolved.Changes) > 0 {
		return ref.resolved.Changes
	}
	sha := ref.shaOf()
	if sha == "" || ref.clone == "" {
		return nil
	}
	changes, err := s.gitFor(ref.clone).NumstatChanges(ctx, sha)
	if err != nil {
		s.logger.Debug("change-set lookup failed", "sha", sha, "error", err)
		return nil
	}
	return changes
}

// metaOf resolves author and date for raw history hits. Resolved
// records already carry both.
func (s *Service) metaOf(ctx context.Context, ref *commitRef) gitMeta {
	if ref.resolved != nil || ref.sha == "" {
		return gitMeta{}
	}
	meta, err := s.gitFor(ref.clone).ShowMeta(ctx, ref.sha)
	if err != nil {
		s.logger.Debug("commit metadata lookup failed", "sha", ref.sha, "error", err)
		return gitMeta{}
	}
	return gitMeta{author: meta.Author, date: meta.Date}
}

// branchesOf resolves branch membership for one ref, scoped to the
// ref's clone. Failures yield an empty set: membership is best-effort
// annotation.
func (s *Service) branchesOf(ctx context.Context, ref *commitRef, remote bool) []string {
	sha := ref.shaOf()
	if sha == "" || ref.clone == "" {
		return nil
	}
	branches, err := s.gitFor(ref.clone).BranchesContaining(ctx, sha, remote)
	if err != nil {
		s.logger.Debug("branch membership lookup failed",
			"sha", sha, "remote", remote, "error", err)
		return nil
	}
	return branches
}

// BranchesContaining resolves branch membership for a batch of records
// concurrently, one set per record in input order. Records without a
// sha or clone yield empty sets.
func (s *Service) BranchesContaining(ctx context.Context, commits []ledger.TrackedCommit, remote bool) [][]string {
	return iter.Map(commits, func(commit *ledger.TrackedCommit) []string {
		ref := commitRef{resolved: commit, clone: commit.Clone}
		return s.branchesOf(ctx, &ref, remote)
	})
}

// Changes resolves the change list for a batch of records concurrently,
// in input order.
func (s *Service) Changes(ctx context.Context, commits []ledger.TrackedCommit) [][]string {
	return iter.Map(commits, func(commit *ledger.TrackedCommit) []string {
		ref := commitRef{resolved: commit, clone: commit.Clone}
		return s.changesOf(ctx, &ref)
	})
}
