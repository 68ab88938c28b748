package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/lockstep/internal/repo"
)

var setupCmd = &cobra.Command{
	Use:   "setup <store-url>",
	Short: "Configure this repository for lockstep",
	Long: `Write .lockstep.yaml at the repository root, pointing the clone at the
shared ledger endpoint. Optionally ignores the lockstep data directory
and installs post-commit/post-checkout hooks that run "lockstep update".`,
	Args: cobra.ExactArgs(1),
	RunE: runSetup,
}

var (
	setupHeaders           []string
	setupPullThreshold     int
	setupTrackedExtensions []string
	setupTrackBinaries     bool
	setupTrackUncommitted  bool
	setupModifyPermissions bool
	setupUpdateGitignore   bool
	setupUpdateHooks       bool
)

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().StringArrayVar(&setupHeaders, "store-header", nil,
		"Header sent to the ledger endpoint, as key=value (repeatable; values may reference $ENV_VARS)")
	setupCmd.Flags().IntVar(&setupPullThreshold, "pull-threshold", repo.DefaultPullThreshold,
		"Minimum seconds between fetches, also the ledger cache TTL")
	setupCmd.Flags().StringSliceVar(&setupTrackedExtensions, "tracked-extensions", nil,
		"File extensions lockstep manages (e.g. fbx,png)")
	setupCmd.Flags().BoolVar(&setupTrackBinaries, "track-binaries", false,
		"Manage all binary files regardless of extension")
	setupCmd.Flags().BoolVar(&setupTrackUncommitted, "track-uncommitted", false,
		"Publish uncommitted work tree changes to the ledger")
	setupCmd.Flags().BoolVar(&setupModifyPermissions, "modify-permissions", false,
		"Enforce claims through file permissions")
	setupCmd.Flags().BoolVar(&setupUpdateGitignore, "update-gitignore", true,
		"Add the lockstep data directory to .gitignore")
	setupCmd.Flags().BoolVar(&setupUpdateHooks, "update-hooks", false,
		"Install post-commit and post-checkout hooks running \"lockstep update\"")
}

func runSetup(cmd *cobra.Command, args []string) error {
	headers := map[string]string{}
	for _, header := range setupHeaders {
		key, value, found := strings.Cut(header, "=")
		if !found {
			return fmt.Errorf("invalid --store-header %q, expected key=value", header)
		}
		headers[key] = value
	}

	err := repo.Setup(cmd.Context(), workingPath(), nil, repo.SetupOptions{
		StoreURL:          args[0],
		StoreHeaders:      headers,
		PullThreshold:     setupPullThreshold,
		TrackedExtensions: setupTrackedExtensions,
		TrackBinaries:     setupTrackBinaries,
		TrackUncommitted:  setupTrackUncommitted,
		ModifyPermissions: setupModifyPermissions,
		UpdateGitignore:   setupUpdateGitignore,
		UpdateHooks:       setupUpdateHooks,
	})
	if err != nil {
		return err
	}
	fmt.Println("Repository configured for lockstep")
	return nil
}
