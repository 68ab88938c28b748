// Package spread classifies where a tracked commit lives relative to the
// local clone: which branches carry it, whether it belongs to the local
// user, and whether it is still uncommitted somewhere. The resulting
// bitmask is the sole input to the file lock status.
package spread

import "strings"

// Mask is the commit-spread bitmask. It is computed fresh per query and
// never persisted.
type Mask uint8

const (
	// MineUncommitted marks a pending claim issued by this clone.
	MineUncommitted Mask = 1 << iota
	// MineActiveBranch marks a locally authored commit reachable from the
	// checked-out branch.
	MineActiveBranch
	// MineOtherBranch marks a locally authored commit reachable only from
	// other local branches.
	MineOtherBranch
	// RemoteMatchingBranch marks a commit on the remote branch matching
	// the checked-out branch, regardless of author.
	RemoteMatchingBranch
	// RemoteOtherBranch marks a commit on some other remote branch.
	RemoteOtherBranch
	// TheirOtherBranch marks a foreign commit on a non-matching branch.
	TheirOtherBranch
	// TheirMatchingBranch marks a foreign commit on the branch matching
	// the checked-out branch.
	TheirMatchingBranch
	// TheirUncommitted marks another clone's pending claim.
	TheirUncommitted
)

// theirBits are the foreign bits that block editing.
const theirBits = TheirOtherBranch | TheirMatchingBranch | TheirUncommitted

// renderOrder is the fixed column order of the status flag string.
var renderOrder = []Mask{
	MineUncommitted,
	MineActiveBranch,
	MineOtherBranch,
	RemoteMatchingBranch,
	RemoteOtherBranch,
	TheirOtherBranch,
	TheirMatchingBranch,
	TheirUncommitted,
}

// Has reports whether every bit of flag is set.
func (m Mask) Has(flag Mask) bool {
	return m&flag == flag
}

// String renders the fixed-width +/- form, one column per flag.
func (m Mask) String() string {
	var b strings.Builder
	b.Grow(len(renderOrder))
	for _, flag := range renderOrder {
		if m.Has(flag) {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Claimable reports whether a file with this spread can be claimed: no
// foreign bit may be set. A zero mask (no history at all) is claimable.
func (m Mask) Claimable() bool {
	return m&theirBits == 0
}

// Status is a file's lock status, derived entirely from the spread mask.
type Status int

const (
	// Free means nobody holds the file.
	Free Status = iota
	// ClaimedLocally means this clone holds the file, either through a
	// pending claim or an unpushed commit on the active branch.
	ClaimedLocally
	// Blocked means another party holds the file. The status stays
	// Blocked until their work is pushed and observed; it is recomputed
	// on demand, never pushed.
	Blocked
)

func (s Status) String() string {
	switch s {
	case ClaimedLocally:
		return "claimed"
	case Blocked:
		return "blocked"
	default:
		return "free"
	}
}

// StatusOf derives the lock status from a spread mask.
func StatusOf(m Mask) Status {
	if m&theirBits != 0 {
		return Blocked
	}
	if m.Has(MineUncommitted) || m.Has(MineActiveBranch) {
		return ClaimedLocally
	}
	return Free
}
