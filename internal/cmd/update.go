package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var updateCmd = &cobra.Command{
	Use:   "update [repository]...",
	Short: "Publish this clone's changes to the shared ledger",
	Long: `Rewrite this clone's slice of the shared ledger: records previously
issued by this clone are replaced with its current local-only commits
and, when track_uncommitted is enabled, its pending work tree changes.

Additional repository paths can be given to update several clones in one
run; each repository is updated once, concurrently.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	service, logger := newService(cmd.Context())
	defer logger.Close()

	paths := append([]string{workingPath()}, args...)

	// Dedupe by toplevel so a repository given twice syncs once.
	var mu sync.Mutex
	seen := map[string]bool{}

	group, ctx := errgroup.WithContext(cmd.Context())
	for _, path := range paths {
		path := path
		group.Go(func() error {
			repository, err := service.Registry().Find(ctx, path)
			if err != nil {
				return err
			}
			if repository == nil {
				return nil
			}

			mu.Lock()
			already := seen[repository.WorkingDir()]
			seen[repository.WorkingDir()] = true
			mu.Unlock()
			if already {
				return nil
			}

			if err := service.Update(ctx, repository, nil); err != nil {
				return fmt.Errorf("updating %s: %w", repository.WorkingDir(), err)
			}
			return nil
		})
	}
	return group.Wait()
}
