package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/lockstep/internal/spread"
)

var statusCmd = &cobra.Command{
	Use:   "status <file>...",
	Short: "Show who last touched each file",
	Long: `Display the spread of each file's last tracked commit as a fixed-width
flag string followed by the commit, its branches, and its author.

The eight flag columns are, in order: mine-uncommitted, mine-active-branch,
mine-other-branch, remote-matching-branch, remote-other-branch,
their-other-branch, their-matching-branch, their-uncommitted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

var statusPrune bool

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusPrune, "prune", false, "Prune deleted remote branches when fetching")
}

var (
	freeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	claimedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func styleFor(status spread.Status) lipgloss.Style {
	switch status {
	case spread.Blocked:
		return blockedStyle
	case spread.ClaimedLocally:
		return claimedStyle
	default:
		return freeStyle
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	service, logger := newService(cmd.Context())
	defer logger.Close()

	paths := make([]string, len(args))
	for i, arg := range args {
		paths[i] = resolveInput(arg)
	}

	statuses, err := service.Statuses(cmd.Context(), paths, statusPrune)
	if err != nil {
		return err
	}
	for i := range statuses {
		fmt.Println(styleFor(statuses[i].Status).Render(statuses[i].Line()))
	}
	return nil
}
