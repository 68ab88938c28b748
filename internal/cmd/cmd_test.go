package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/lockstep/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if rootCmd.Use != "lockstep" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "lockstep")
	}

	expected := []string{"status", "claim", "update", "config", "setup", "version"}
	registered := map[string]bool{}
	for _, sub := range rootCmd.Commands() {
		registered[sub.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestStatusCommand_RequiresArgs(t *testing.T) {
	if _, err := executeCommand(rootCmd, "status"); err == nil {
		t.Error("expected an error when no files are given")
	}
}

func TestClaimCommand_RequiresArgs(t *testing.T) {
	if _, err := executeCommand(rootCmd, "claim"); err == nil {
		t.Error("expected an error when no files are given")
	}
}

func TestConfigCommand_OutsideRepository(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repositoryFlag = t.TempDir()
	defer func() { repositoryFlag = "" }()

	if _, err := executeCommand(rootCmd, "config", "store-url"); err == nil {
		t.Error("expected an error outside a repository")
	}
}

func TestSetupCommand_InvalidHeader(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir := testutil.SetupTestRepo(t)
	repositoryFlag = repoDir
	defer func() { repositoryFlag = "" }()

	_, err := executeCommand(rootCmd, "setup", "https://example.com/ledger",
		"--store-header", "missing-equals")
	if err == nil {
		t.Error("expected an error for a malformed header")
	}
}

func TestSetupThenConfigRoundTrip(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir := testutil.SetupTestRepo(t)
	repositoryFlag = repoDir
	setupHeaders = nil
	defer func() { repositoryFlag = "" }()

	_, err := executeCommand(rootCmd, "setup", "https://example.com/ledger",
		"--pull-threshold", "30",
		"--tracked-extensions", "fbx,png",
		"--modify-permissions")
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := executeCommand(rootCmd, "config", "store-url"); err != nil {
		t.Errorf("config store-url failed: %v", err)
	}
	if _, err := executeCommand(rootCmd, "config", "modify-permissions"); err != nil {
		t.Errorf("config modify-permissions failed: %v", err)
	}
	if _, err := executeCommand(rootCmd, "config", "bogus"); err == nil {
		t.Error("expected an error for an unknown property")
	}
}
