package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/lockstep/internal/errors"
	"github.com/Iron-Ham/lockstep/internal/gitcmd"
	"github.com/Iron-Ham/lockstep/internal/ledger"
)

// SetupOptions configures a repository for lockstep.
type SetupOptions struct {
	StoreURL          string
	StoreHeaders      map[string]string
	PullThreshold     int
	TrackedExtensions []string
	TrackBinaries     bool
	TrackUncommitted  bool
	ModifyPermissions bool

	// UpdateGitignore appends the data directory to .gitignore.
	UpdateGitignore bool
	// UpdateHooks installs post-commit and post-checkout hooks that run
	// "lockstep update".
	UpdateHooks bool
}

var hookNames = []string{"post-commit", "post-checkout"}

const hookScript = "#!/bin/sh\nlockstep update\n"

// Setup writes .lockstep.yaml at the repository owning path and
// optionally updates .gitignore and installs hooks. The store URL is
// validated before anything is written.
func Setup(ctx context.Context, path string, executor gitcmd.Executor, opts SetupOptions) error {
	if executor == nil {
		executor = gitcmd.NewCLIExecutor()
	}
	if _, err := ledger.NewRESTStore(opts.StoreURL, opts.StoreHeaders); err != nil {
		return err
	}

	toplevel, err := gitcmd.FindToplevel(ctx, executor, path)
	if err != nil {
		return err
	}

	if opts.PullThreshold <= 0 {
		opts.PullThreshold = DefaultPullThreshold
	}
	cfg := Config{
		StoreURL:          opts.StoreURL,
		StoreHeaders:      opts.StoreHeaders,
		PullThreshold:     opts.PullThreshold,
		TrackedExtensions: opts.TrackedExtensions,
		TrackBinaries:     opts.TrackBinaries,
		TrackUncommitted:  opts.TrackUncommitted,
		ModifyPermissions: opts.ModifyPermissions,
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding repository configuration")
	}
	if err := os.WriteFile(filepath.Join(toplevel, ConfigFileName), data, 0644); err != nil {
		return errors.Wrap(err, "writing repository configuration")
	}

	if opts.UpdateGitignore {
		if err := ensureIgnored(toplevel, DataDirName+"/"); err != nil {
			return err
		}
	}
	if opts.UpdateHooks {
		if err := installHooks(toplevel); err != nil {
			return err
		}
	}
	return nil
}

// ensureIgnored appends entry to .gitignore unless already present.
func ensureIgnored(toplevel, entry string) error {
	path := filepath.Join(toplevel, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "reading .gitignore")
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == strings.TrimSuffix(entry, "/") ||
			strings.TrimSpace(line) == entry {
			return nil
		}
	}
	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrap(err, "updating .gitignore")
	}
	return nil
}

// installHooks writes the post-commit and post-checkout hooks.
func installHooks(toplevel string) error {
	hooksDir := filepath.Join(toplevel, ".git", "hooks")
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return errors.Wrap(err, "creating hooks directory")
	}
	for _, name := range hookNames {
		if err := os.WriteFile(filepath.Join(hooksDir, name), []byte(hookScript), 0755); err != nil {
			return errors.Wrapf(err, "installing %s hook", name)
		}
	}
	return nil
}
