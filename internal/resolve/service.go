// Package resolve implements the batched resolution pipeline: for a set
// of file paths, find the single most relevant prior-touching commit per
// path, enrich the batch concurrently with change sets and branch
// membership, and drive the claim and ledger-update protocols on top.
package resolve

import (
	"github.com/Iron-Ham/lockstep/internal/gitcmd"
	"github.com/Iron-Ham/lockstep/internal/ledger"
	"github.com/Iron-Ham/lockstep/internal/logging"
	"github.com/Iron-Ham/lockstep/internal/repo"
	"github.com/Iron-Ham/lockstep/internal/spread"
)

// Service is the caller-facing resolution pipeline. It is constructed
// per top-level operation around an explicit repository registry.
type Service struct {
	registry   *repo.Registry
	classifier *spread.Classifier
	logger     *logging.Logger
}

// NewService creates a resolution service over the given registry.
func NewService(registry *repo.Registry, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Service{
		registry:   registry,
		classifier: spread.NewClassifier(),
		logger:     logger,
	}
}

// Registry returns the repository registry the service resolves through.
func (s *Service) Registry() *repo.Registry {
	return s.registry
}

// Classifier returns the spread classifier used by claim and status
// operations.
func (s *Service) Classifier() *spread.Classifier {
	return s.classifier
}

// gitFor returns a query layer scoped to an arbitrary clone directory,
// sharing the registry's executor.
func (s *Service) gitFor(clone string) *gitcmd.Git {
	return gitcmd.NewWithExecutor(clone, s.registry.Executor())
}

// commitRef is the resolver's internal commit representation: either a
// record already resolved from the ledger, or a raw (clone, sha) handle
// found in history. It is normalized to a ledger.TrackedCommit before
// leaving the package. clone stays populated for enrichment scoping even
// after the resolved record's context is stripped.
type commitRef struct {
	resolved *ledger.TrackedCommit
	clone    string
	sha      string
	remote   string
}

// empty reports whether the ref carries no commit at all.
func (r *commitRef) empty() bool {
	return r.resolved == nil && r.sha == ""
}

// shaOf returns the commit hash the ref points at, or "".
func (r *commitRef) shaOf() string {
	if r.resolved != nil {
		return r.resolved.Sha
	}
	return r.sha
}
