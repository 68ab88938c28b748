package resolve

import (
	"context"

	"github.com/sourcegraph/conc/iter"

	"github.com/Iron-Ham/lockstep/internal/ledger"
	"github.com/Iron-Ham/lockstep/internal/repo"
)

// LastCommits resolves the most relevant prior-touching commit for each
// path, in input order. Unmanaged paths yield empty records. With prune
// set, the rate-limited history fetch prunes deleted remote branches.
//
// Ledger candidates win over history: the ledger is filtered to records
// scoped to the repository's remote that touch the path, claims included
// only when track_uncommitted is enabled, and the latest record by date
// is selected. Ties are broken by ledger order: of the tied records the
// one appearing last wins, which matches a stable sort by date.
func (s *Service) LastCommits(ctx context.Context, paths []string, prune bool) ([]ledger.TrackedCommit, error) {
	refs := make([]commitRef, len(paths))
	for i, path := range paths {
		ref, err := s.lastCommitFor(ctx, path, prune)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}

	s.enrich(ctx, refs)

	commits := make([]ledger.TrackedCommit, len(refs))
	for i := range refs {
		commits[i] = normalize(&refs[i])
	}
	return commits, nil
}

// lastCommitFor resolves one path: ledger first, then rate-limited
// history fallback.
func (s *Service) lastCommitFor(ctx context.Context, path string, prune bool) (commitRef, error) {
	repository, err := s.registry.Find(ctx, path)
	if err != nil {
		return commitRef{}, err
	}
	if repository == nil {
		return commitRef{}, nil
	}

	rel, err := repository.RelativePath(path)
	if err != nil {
		return commitRef{}, err
	}

	records, err := repository.Store().Read(ctx)
	if err != nil {
		return commitRef{}, err
	}

	if selected, ok := selectCandidate(records, repository, rel); ok {
		ref := commitRef{
			resolved: selected,
			clone:    selected.Clone,
			remote:   repository.RemoteURL(),
		}
		if ref.clone == "" {
			ref.clone = repository.WorkingDir()
		}
		s.selfHeal(ctx, repository, records, ref.resolved, ref.clone)
		return ref, nil
	}

	s.fetchIfStale(ctx, repository, prune)

	sha, err := repository.Git().LastShaForPath(ctx, rel)
	if err != nil {
		return commitRef{}, err
	}
	if sha == "" {
		return commitRef{}, nil
	}
	return commitRef{
		clone:  repository.WorkingDir(),
		sha:    sha,
		remote: repository.RemoteURL(),
	}, nil
}

// selectCandidate filters the ledger for records relevant to the path
// and picks the latest by date. The returned record is a deep copy.
func selectCandidate(records []ledger.TrackedCommit, repository *repo.Repository, rel string) (*ledger.TrackedCommit, bool) {
	trackUncommitted := repository.Config().TrackUncommitted
	var selected *ledger.TrackedCommit
	for i := range records {
		record := &records[i]
		if record.Remote != repository.RemoteURL() {
			continue
		}
		if record.IsClaim() && !trackUncommitted {
			continue
		}
		if !record.TouchesPath(rel) {
			continue
		}
		if selected == nil || !record.Date.Before(selected.Date) {
			selected = record
		}
	}
	if selected == nil {
		return nil, false
	}
	copied := selected.Copy()
	return &copied, true
}

// selfHeal demotes a ledger entry that turned out to be an already
// pushed claim: when the selected record is reachable from a remote
// branch, every matching ledger entry is removed and the working copy
// loses its clone context. Heal failures are logged, never surfaced.
func (s *Service) selfHeal(ctx context.Context, repository *repo.Repository, records []ledger.TrackedCommit, selected *ledger.TrackedCommit, clone string) {
	if selected.Sha == "" || selected.Clone == "" {
		return
	}
	remoteBranches, err := s.gitFor(clone).BranchesContaining(ctx, selected.Sha, true)
	if err != nil || len(remoteBranches) == 0 {
		return
	}

	kept := make([]ledger.TrackedCommit, 0, len(records))
	for i := range records {
		if !records[i].Same(selected) {
			kept = append(kept, records[i])
		}
	}
	if len(kept) < len(records) {
		if err := repository.Store().Write(ctx, kept); err != nil {
			s.logger.Warn("failed to prune pushed claim from ledger",
				"sha", selected.Sha, "error", err)
		}
	}
	selected.StripContext()
	selected.SetBranches(nil, remoteBranches)
}

// fetchIfStale runs an opportunistic fetch unless one happened within
// the repository's pull threshold. Fetch failures are swallowed: stale
// local history is an acceptable degraded mode.
func (s *Service) fetchIfStale(ctx context.Context, repository *repo.Repository, prune bool) {
	if s.registry.PulledRecently(repository) {
		return
	}
	if err := repository.Git().Fetch(ctx, prune); err != nil {
		s.logger.Warn("fetch failed, using local history",
			"repository", repository.WorkingDir(), "error", err)
		return
	}
	s.registry.MarkPulled(repository)
}

// enrich fills change sets and branch membership for the whole batch:
// one concurrent dispatch per concern, joined before results merge, with
// input order preserved.
func (s *Service) enrich(ctx context.Context, refs []commitRef) {
	changes := iter.Map(refs, func(ref *commitRef) []string {
		return s.changesOf(ctx, ref)
	})
	metas := iter.Map(refs, func(ref *commitRef) gitMeta {
		return s.metaOf(ctx, ref)
	})
	locals := iter.Map(refs, func(ref *commitRef) []string {
		return s.branchesOf(ctx, ref, false)
	})
	remotes := iter.Map(refs, func(ref *commitRef) []string {
		return s.branchesOf(ctx, ref, true)
	})

	for i := range refs {
		ref := &refs[i]
		if ref.empty() {
			continue
		}
		if ref.resolved == nil {
			ref.resolved = &ledger.TrackedCommit{
				Sha:    ref.sha,
				Remote: ref.remote,
				Date:   metas[i].date,
				Author: metas[i].author,
			}
		}
		if len(ref.resolved.Changes) == 0 {
			ref.resolved.Changes = changes[i]
		}
		ref.resolved.SetBranches(locals[i], remotes[i])
	}
}

// normalize converts a ref to the record shape callers see.
func normalize(ref *commitRef) ledger.TrackedCommit {
	if ref.resolved == nil {
		return ledger.TrackedCommit{}
	}
	return *ref.resolved
}
