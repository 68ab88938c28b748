package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/lockstep/internal/gitcmd"
	"github.com/Iron-Ham/lockstep/internal/repo"
)

var configCmd = &cobra.Command{
	Use:   "config <property>",
	Short: "Print a repository configuration property",
	Long: `Print the value of a property from the repository's .lockstep.yaml.
Property names may use dashes or underscores, e.g. "pull-threshold" or
"pull_threshold".`,
	Args: cobra.ExactArgs(1),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	executor := gitcmd.NewCLIExecutor()
	toplevel, err := gitcmd.FindToplevel(cmd.Context(), executor, workingPath())
	if err != nil {
		return err
	}
	cfg, err := repo.LoadConfig(toplevel)
	if err != nil {
		return err
	}

	prop := strings.ReplaceAll(args[0], "-", "_")
	switch prop {
	case "store_url":
		fmt.Println(cfg.StoreURL)
	case "pull_threshold":
		fmt.Println(cfg.PullThreshold)
	case "tracked_extensions":
		fmt.Println(strings.Join(cfg.TrackedExtensions, ","))
	case "track_binaries":
		fmt.Println(strconv.FormatBool(cfg.TrackBinaries))
	case "track_uncommitted":
		fmt.Println(strconv.FormatBool(cfg.TrackUncommitted))
	case "modify_permissions":
		fmt.Println(strconv.FormatBool(cfg.ModifyPermissions))
	case "store_headers":
		for key, value := range cfg.StoreHeaders {
			fmt.Printf("%s=%s\n", key, value)
		}
	default:
		return fmt.Errorf("unknown configuration property %q", args[0])
	}
	return nil
}
