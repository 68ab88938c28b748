// Package cmd implements the lockstep command-line interface.
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/lockstep/internal/gitcmd"
	"github.com/Iron-Ham/lockstep/internal/logging"
	"github.com/Iron-Ham/lockstep/internal/repo"
	"github.com/Iron-Ham/lockstep/internal/resolve"
)

var rootCmd = &cobra.Command{
	Use:   "lockstep",
	Short: "Coordinate edits to unmergeable files across git clones",
	Long: `Lockstep lets multiple clones of the same repository coordinate edits
to files that cannot be merged (binary assets), through a shared ledger
of who last touched what. A file is safe to edit when no other clone
holds an uncommitted claim or unpushed commit for it.`,
	SilenceUsage: true,
}

var repositoryFlag string

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&repositoryFlag, "repository", "C", "",
		"Path inside the repository to operate on (default: current directory)")
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.config/lockstep")
	viper.AddConfigPath(".")

	viper.SetDefault("log_level", "info")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOCKSTEP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// workingPath resolves the directory operations run against.
func workingPath() string {
	if repositoryFlag != "" {
		return repositoryFlag
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// resolveInput rebases a path argument onto the working path unless it
// is already absolute.
func resolveInput(arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	return filepath.Join(workingPath(), arg)
}

// newService builds the resolution service for one command invocation.
// The debug log lands in the enclosing repository's data directory when
// there is one; otherwise logging is disabled.
func newService(ctx context.Context) (*resolve.Service, *logging.Logger) {
	executor := gitcmd.NewCLIExecutor()
	logger := logging.NopLogger()
	if toplevel, err := gitcmd.FindToplevel(ctx, executor, workingPath()); err == nil {
		if fileLogger, err := logging.NewLogger(filepath.Join(toplevel, repo.DataDirName), viper.GetString("log_level")); err == nil {
			logger = fileLogger
		}
	}
	registry := repo.NewRegistry(executor, logger)
	return resolve.NewService(registry, logger), logger
}
