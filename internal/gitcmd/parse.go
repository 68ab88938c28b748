package gitcmd

import (
	"strings"
)

// parseShaList parses `git log --pretty=format:"%H"` output: one commit
// hash per line with surrounding quotes stripped. Order is preserved.
func parseShaList(output []byte) []string {
	var shas []string
	for _, line := range strings.Split(string(output), "\n") {
		sha := strings.Trim(strings.TrimSpace(line), `"`)
		if sha != "" {
			shas = append(shas, sha)
		}
	}
	return shas
}

// parseNumstatPaths parses `git diff --numstat` output. The path is the
// third whitespace-delimited column of each non-empty line; binary files
// report "-" in the count columns but still carry a path.
func parseNumstatPaths(output []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		// Columns are additions, deletions, path. Paths containing
		// spaces keep their remaining fields.
		paths = append(paths, strings.Join(fields[2:], " "))
	}
	return paths
}

// parseBranchNames parses `git branch [--remotes] --contains` output.
// Each line drops the leading selection marker and surrounding
// whitespace; only the text after the final path separator is kept, so
// "origin/topic" and "topic" collapse to the same name. The result is a
// deduplicated set in first-seen order.
func parseBranchNames(output []byte) []string {
	seen := make(map[string]bool)
	var names []string
	for _, line := range strings.Split(string(output), "\n") {
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if name == "" || strings.Contains(name, "->") {
			// "origin/HEAD -> origin/main" entries are aliases, not branches.
			continue
		}
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// parseStatusPaths parses `git status --porcelain` output into the list
// of touched paths. Rename entries keep the destination path.
func parseStatusPaths(output []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(output), "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

// parseLines splits output into trimmed non-empty lines.
func parseLines(output []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
