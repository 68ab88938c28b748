package spread

import (
	"strings"

	"github.com/Iron-Ham/lockstep/internal/ledger"
)

// StatusLine renders the one-line status for a file: the spread flags,
// the path, and the last tracked commit's sha, branches, host and
// author. Absent fields render as "-".
func StatusLine(mask Mask, path string, commit *ledger.TrackedCommit) string {
	sha := "-"
	local := "-"
	remote := "-"
	host := "-"
	author := "-"
	if commit != nil {
		if commit.Sha != "" {
			sha = commit.Sha
		}
		if branches := commit.LocalBranches(); len(branches) > 0 {
			local = strings.Join(branches, ",")
		}
		if branches := commit.RemoteBranches(); len(branches) > 0 {
			remote = strings.Join(branches, ",")
		}
		if commit.Host != "" {
			host = commit.Host
		}
		switch {
		case commit.Author != "":
			author = commit.Author
		case commit.User != "":
			author = commit.User
		}
	}
	return strings.Join([]string{mask.String(), path, sha, local, remote, host, author}, " ")
}
