package resolve

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/Iron-Ham/lockstep/internal/ledger"
	"github.com/Iron-Ham/lockstep/internal/perms"
	"github.com/Iron-Ham/lockstep/internal/repo"
)

// Update rewrites the repository's slice of the ledger: every record
// previously issued by this clone is dropped and replaced with fresh
// local-only commits plus one uncommitted-changes record covering any
// queued claims and, when track_uncommitted is enabled, the work tree's
// pending changes. The write is a whole-ledger replace; concurrent writers race
// and the last one wins. Tracked-file permissions are refreshed
// afterwards when modify_permissions is enabled.
func (s *Service) Update(ctx context.Context, repository *repo.Repository, claims []ledger.TrackedCommit) error {
	records, err := repository.Store().Read(ctx)
	if err != nil {
		return err
	}

	identity := repository.Identity()
	remoteURL := repository.RemoteURL()

	kept := make([]ledger.TrackedCommit, 0, len(records))
	for i := range records {
		if !records[i].IssuedBy(identity.Clone, remoteURL) {
			kept = append(kept, records[i])
		}
	}

	local, err := s.localCommitRecords(ctx, repository)
	if err != nil {
		return err
	}
	kept = append(kept, local...)

	if record, ok := s.uncommittedRecord(ctx, repository, claims); ok {
		kept = append(kept, record)
	}

	if err := repository.Store().Write(ctx, kept); err != nil {
		return err
	}

	if repository.Config().ModifyPermissions {
		s.refreshPermissions(ctx, repository)
	}
	return nil
}

// localCommitRecords builds one ledger record per commit that exists
// only in this clone, with changes and metadata resolved concurrently.
func (s *Service) localCommitRecords(ctx context.Context, repository *repo.Repository) ([]ledger.TrackedCommit, error) {
	shas, err := repository.Git().LocalOnlyShas(ctx)
	if err != nil {
		return nil, err
	}
	if len(shas) == 0 {
		return nil, nil
	}

	identity := repository.Identity()
	remoteURL := repository.RemoteURL()
	git := repository.Git()

	records := iter.Map(shas, func(sha *string) ledger.TrackedCommit {
		record := ledger.TrackedCommit{
			Sha:    *sha,
			Remote: remoteURL,
			Clone:  identity.Clone,
			Host:   identity.Host,
			User:   identity.User,
		}
		if changes, err := git.NumstatChanges(ctx, *sha); err == nil {
			record.Changes = changes
		} else {
			s.logger.Debug("change-set lookup failed", "sha", *sha, "error", err)
		}
		if meta, err := git.ShowMeta(ctx, *sha); err == nil {
			record.Date = meta.Date
			record.Author = meta.Author
		} else {
			s.logger.Debug("commit metadata lookup failed", "sha", *sha, "error", err)
		}
		return record
	})
	return records, nil
}

// uncommittedRecord builds the single claim record covering any freshly
// queued claims plus, when track_uncommitted is enabled, the work
// tree's pending changes.
func (s *Service) uncommittedRecord(ctx context.Context, repository *repo.Repository, claims []ledger.TrackedCommit) (ledger.TrackedCommit, bool) {
	changes := map[string]struct{}{}
	var ordered []string
	add := func(paths []string) {
		for _, p := range paths {
			if _, seen := changes[p]; !seen {
				changes[p] = struct{}{}
				ordered = append(ordered, p)
			}
		}
	}

	if repository.Config().TrackUncommitted {
		status, err := repository.Git().StatusPaths(ctx)
		if err != nil {
			s.logger.Warn("work tree status failed", "error", err)
		} else {
			add(status)
		}
	}
	for i := range claims {
		add(claims[i].Changes)
	}
	if len(ordered) == 0 {
		return ledger.TrackedCommit{}, false
	}

	identity := repository.Identity()
	return ledger.TrackedCommit{
		Remote:  repository.RemoteURL(),
		Clone:   identity.Clone,
		Host:    identity.Host,
		User:    identity.User,
		Changes: ordered,
		Date:    time.Now(),
	}, true
}

// refreshPermissions makes locally changed tracked files writable and
// everything else read-only. Per-file failures are logged and skipped.
func (s *Service) refreshPermissions(ctx context.Context, repository *repo.Repository) {
	tracked, err := repository.TrackedFiles(ctx)
	if err != nil {
		s.logger.Warn("tracked file listing failed", "error", err)
		return
	}
	changed, err := repository.LocallyChangedFiles(ctx)
	if err != nil {
		s.logger.Warn("locally changed file listing failed", "error", err)
		return
	}
	changedSet := map[string]struct{}{}
	for _, p := range changed {
		changedSet[p] = struct{}{}
	}

	for _, rel := range tracked {
		_, writable := changedSet[rel]
		if err := perms.SetReadOnly(repository.AbsolutePath(rel), !writable); err != nil {
			s.logger.Warn("permission refresh failed", "path", rel, "error", err)
		}
	}
}
