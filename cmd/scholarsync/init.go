package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kangning-huang/scholarsync/internal/config"
	"github.com/kangning-huang/scholarsync/internal/fileutil"
)

// siteGitignore keeps local run state out of the site repository.
const siteGitignore = config.CacheDir + "/\n" + config.LockFile + "\n"

var (
	initAuthorID string
	initForce    bool
)

func init() {
	initCmd.Flags().StringVar(&initAuthorID, "author-id", "", "Google Scholar profile id")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a scholarsync config in the site repository",
	Long: `Create .scholarsync/config.yml with default settings in the current
directory (or the directory given by --site).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := sitePath
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			exitWithError(ExitError, "getting current directory: %v", err)
		}
		root = cwd
	}
	root, err := filepath.Abs(config.ExpandPath(root))
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	cfgPath := config.ConfigPath(root)
	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		exitWithError(ExitConfigError, "config already exists at %s (use --force to overwrite)", cfgPath)
	}

	cfg := config.Defaults()
	cfg.AuthorID = initAuthorID
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "writing config: %v", err)
	}
	ignorePath := filepath.Join(config.SitePath(root), ".gitignore")
	if err := fileutil.WriteFileAtomic(ignorePath, []byte(siteGitignore), 0o644); err != nil {
		exitWithError(ExitError, "writing %s: %v", ignorePath, err)
	}

	if humanOutput {
		fmt.Printf("Created %s\n", cfgPath)
		if cfg.AuthorID == "" {
			fmt.Printf("Set the profile id with: scholarsync config author-id <id> (or %s)\n", config.EnvAuthorID)
		}
		return nil
	}
	return outputJSON(StatusResponse{Status: "created", Path: cfgPath})
}
