package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/lockstep/internal/spread"
)

var claimCmd = &cobra.Command{
	Use:   "claim <file>...",
	Short: "Claim files for editing",
	Long: `Attempt to take ownership of each file. Claimable files get an
uncommitted claim record appended to the shared ledger and, when
modify_permissions is enabled, are made writable.

Files held by another clone print the conflicting record and the command
exits non-zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClaim,
}

var claimPrune bool

func init() {
	rootCmd.AddCommand(claimCmd)

	claimCmd.Flags().BoolVar(&claimPrune, "prune", false, "Prune deleted remote branches when fetching")
}

func runClaim(cmd *cobra.Command, args []string) error {
	service, logger := newService(cmd.Context())
	defer logger.Close()

	paths := make([]string, len(args))
	for i, arg := range args {
		paths[i] = resolveInput(arg)
	}

	results, err := service.Claim(cmd.Context(), paths, claimPrune)
	if err != nil {
		return err
	}

	conflicts := 0
	for i := range results {
		result := &results[i]
		switch {
		case result.Conflict != nil:
			conflicts++
			fmt.Println(blockedStyle.Render(spread.StatusLine(result.Spread, args[i], result.Conflict)))
		case result.PermissionErr != nil:
			fmt.Printf("%s claimed, but could not be made writable: %v\n", args[i], result.PermissionErr)
		default:
			fmt.Println(freeStyle.Render(args[i] + " claimed"))
		}
	}
	if conflicts > 0 {
		return fmt.Errorf("%d file(s) are held by another clone", conflicts)
	}
	return nil
}
