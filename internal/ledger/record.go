// Package ledger implements the shared tracked-commit store: the record
// format, the REST transport it is persisted through, and the local
// cache that bounds transport round-trips.
//
// The ledger is an ordered list of TrackedCommit records with no
// uniqueness constraint. Writers replace the whole list optimistically;
// concurrent writers from different clones race and the last writer
// wins. Readers must tolerate duplicate and stale entries.
package ledger

import (
	"path/filepath"
	"time"
)

// Branches holds the lazily-resolved branch membership of a commit.
// Each slice is an unordered set of leaf branch names.
type Branches struct {
	Local  []string `json:"local,omitempty"`
	Remote []string `json:"remote,omitempty"`
}

// TrackedCommit is one ledger record: either a real commit observed on
// some clone, or an uncommitted claim (no sha) asserting that a clone is
// currently editing the listed paths.
type TrackedCommit struct {
	Sha      string    `json:"sha,omitempty"`
	Remote   string    `json:"remote,omitempty"`
	Clone    string    `json:"clone,omitempty"`
	Host     string    `json:"host,omitempty"`
	User     string    `json:"user,omitempty"`
	Changes  []string  `json:"changes,omitempty"`
	Date     time.Time `json:"date,omitempty"`
	Author   string    `json:"author,omitempty"`
	Branches *Branches `json:"branches,omitempty"`
}

// IsClaim reports whether the record is an uncommitted claim.
func (c *TrackedCommit) IsClaim() bool {
	return c.Sha == ""
}

// IsEmpty reports whether the record carries no information at all.
// Empty records are valid results for unmanaged paths.
func (c *TrackedCommit) IsEmpty() bool {
	return c.Sha == "" && c.Remote == "" && len(c.Changes) == 0
}

// TouchesPath reports whether the record's change list contains the
// given repository-relative path, compared after normalization.
func (c *TrackedCommit) TouchesPath(relPath string) bool {
	want := filepath.Clean(filepath.ToSlash(relPath))
	for _, change := range c.Changes {
		if filepath.Clean(filepath.ToSlash(change)) == want {
			return true
		}
	}
	return false
}

// Same reports whether two records describe the same real commit.
// Committed records compare by sha; claims compare by remote plus an
// overlap in their change lists.
func (c *TrackedCommit) Same(other *TrackedCommit) bool {
	if c.Sha != "" || other.Sha != "" {
		return c.Sha == other.Sha
	}
	if c.Remote != other.Remote {
		return false
	}
	for _, change := range other.Changes {
		if c.TouchesPath(change) {
			return true
		}
	}
	return false
}

// IssuedBy reports whether the record was produced by the clone at the
// given location for the given remote. Used to scope ledger rewrites to
// the local clone's own entries.
func (c *TrackedCommit) IssuedBy(clonePath, remoteURL string) bool {
	return c.Clone == clonePath && c.Remote == remoteURL
}

// LocalBranches returns the record's local branch set, or nil.
func (c *TrackedCommit) LocalBranches() []string {
	if c.Branches == nil {
		return nil
	}
	return c.Branches.Local
}

// RemoteBranches returns the record's remote branch set, or nil.
func (c *TrackedCommit) RemoteBranches() []string {
	if c.Branches == nil {
		return nil
	}
	return c.Branches.Remote
}

// SetBranches annotates the record with resolved branch membership.
// Empty sets leave the existing annotation untouched.
func (c *TrackedCommit) SetBranches(local, remote []string) {
	if len(local) == 0 && len(remote) == 0 {
		return
	}
	if c.Branches == nil {
		c.Branches = &Branches{}
	}
	if len(local) > 0 {
		c.Branches.Local = local
	}
	if len(remote) > 0 {
		c.Branches.Remote = remote
	}
}

// StripContext removes the repository-identity fields that only make
// sense while the record lives in the ledger. Commit facts (sha, remote,
// changes, date, author, branches) survive, so the demoted record can
// still be enriched and classified.
func (c *TrackedCommit) StripContext() {
	c.Clone = ""
	c.Host = ""
	c.User = ""
}

// Copy returns a deep copy of the record.
func (c *TrackedCommit) Copy() TrackedCommit {
	out := *c
	out.Changes = append([]string(nil), c.Changes...)
	if c.Branches != nil {
		out.Branches = &Branches{
			Local:  append([]string(nil), c.Branches.Local...),
			Remote: append([]string(nil), c.Branches.Remote...),
		}
	}
	return out
}
