package spread

import (
	"github.com/Iron-Ham/lockstep/internal/ledger"
)

// Identity describes the local clone: the configured git user, the
// machine hostname, and the absolute path of the working copy.
type Identity struct {
	User  string
	Host  string
	Clone string
}

// State is the snapshot of the local repository a classification runs
// against.
type State struct {
	Identity     Identity
	ActiveBranch string
}

// IdentityMatcher decides whether a tracked commit belongs to the local
// user. Claims and commits are matched differently: a claim carries no
// author, only the issuing clone's context.
type IdentityMatcher interface {
	OwnsClaim(commit *ledger.TrackedCommit, state State) bool
	OwnsCommit(commit *ledger.TrackedCommit, state State) bool
}

// defaultMatcher matches claims by issuing host and clone path, and
// commits by author against the configured git user.
type defaultMatcher struct{}

func (defaultMatcher) OwnsClaim(commit *ledger.TrackedCommit, state State) bool {
	return commit.Host == state.Identity.Host && commit.Clone == state.Identity.Clone
}

func (defaultMatcher) OwnsCommit(commit *ledger.TrackedCommit, state State) bool {
	author := commit.Author
	if author == "" {
		author = commit.User
	}
	return author != "" && author == state.Identity.User
}

var _ IdentityMatcher = defaultMatcher{}

// Classifier computes spread masks for tracked commits.
type Classifier struct {
	matcher IdentityMatcher
}

// NewClassifier returns a classifier using the default identity
// matching rules.
func NewClassifier() *Classifier {
	return &Classifier{matcher: defaultMatcher{}}
}

// NewClassifierWithMatcher returns a classifier with a custom identity
// matcher.
func NewClassifierWithMatcher(matcher IdentityMatcher) *Classifier {
	if matcher == nil {
		matcher = defaultMatcher{}
	}
	return &Classifier{matcher: matcher}
}

// Of computes the spread mask of commit relative to state. Branch
// membership must already be resolved on the record; unresolved branch
// sets simply contribute no bits.
func (c *Classifier) Of(commit *ledger.TrackedCommit, state State) Mask {
	if commit == nil || commit.IsEmpty() {
		return 0
	}

	var mask Mask
	if commit.IsClaim() {
		if c.matcher.OwnsClaim(commit, state) {
			mask |= MineUncommitted
		} else {
			mask |= TheirUncommitted
		}
		return mask
	}

	mine := c.matcher.OwnsCommit(commit, state)
	for _, branch := range commit.LocalBranches() {
		switch {
		case branch == state.ActiveBranch && mine:
			mask |= MineActiveBranch
		case branch == state.ActiveBranch:
			mask |= TheirMatchingBranch
		case mine:
			mask |= MineOtherBranch
		default:
			mask |= TheirOtherBranch
		}
	}
	for _, branch := range commit.RemoteBranches() {
		if branch == state.ActiveBranch {
			mask |= RemoteMatchingBranch
		} else {
			mask |= RemoteOtherBranch
		}
	}
	return mask
}
