package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kangning-huang/scholarsync/internal/config"
)

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  scholarsync config                           # Show all config
  scholarsync config author-id                 # Get specific value
  scholarsync config author-id AbCdEfGhIjk     # Set value
  scholarsync config cv-path public/cv.md      # Set CV path
  scholarsync config path                      # Show the config file path

Keys:
  author-id          Google Scholar profile id (the user= parameter)
  scholar-base-url   Scholar host
  snapshot-path      Citation snapshot JSON, relative to the site root
  curated-path       Curated publication list (YAML)
  blog-path          Blog posts JSON
  cv-path            CV file with a "citations: N; h-index: M" line
  blog-api-url       Blog JSON API (e.g. https://name.substack.com/api/v1/posts)
  blog-feed-url      RSS feed used when the API fails
  blog-base-url      Base URL for post links without a canonical URL
  blog-limit         Number of posts to keep
  openalex-base-url  OpenAlex API host
  openalex-mailto    Contact address for the OpenAlex polite pool

Fetch and match tuning lives in the fetch: and match: blocks of the file.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the path of the site config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := mustFindSite()
		path := config.ConfigPath(root)
		if humanOutput {
			fmt.Println(path)
			return nil
		}
		return outputJSON(StatusResponse{Status: "ok", Path: path})
	},
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindSite()
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		values := make(map[string]string, len(config.Keys))
		for _, k := range config.Keys {
			v, _ := cfg.Get(k)
			values[k] = v
		}
		if humanOutput {
			for _, k := range config.Keys {
				fmt.Printf("%-18s %s\n", k+":", values[k])
			}
		} else {
			outputJSON(values)
		}
		return nil
	}

	key := config.NormalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitConfigError, "%v\nValid keys: %v", err, config.Keys)
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{key: v})
		}
		return nil
	}

	// Two args: set value. Reload without environment overrides so they are
	// not written back to the file.
	fileCfg, err := config.LoadFile(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	value := args[1]
	if err := fileCfg.Set(key, value); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := fileCfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}
