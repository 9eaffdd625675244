package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/kangning-huang/scholarsync/internal/config"
	"github.com/kangning-huang/scholarsync/internal/cvtext"
)

var cvPath string

func init() {
	cvCmd.Flags().StringVar(&cvPath, "file", "", "CV file to update (default: cv_path from config)")
	rootCmd.AddCommand(cvCmd)
}

var cvCmd = &cobra.Command{
	Use:   "cv",
	Short: "Update the citation summary line of the CV",
	Long: `Rewrite every "citations: N; h-index: M" fragment of the CV with the
values of the stored snapshot. The file is only written when a value changed.`,
	Args: cobra.NoArgs,
	RunE: runCV,
}

// CVResponse is the response for the cv command.
type CVResponse struct {
	Path      string `json:"path"`
	Changed   bool   `json:"changed"`
	Citations int    `json:"citations"`
	HIndex    int    `json:"hIndex"`
}

func runCV(cmd *cobra.Command, args []string) error {
	root := mustFindSite()
	cfg := mustLoadConfig(root)

	path := cvPath
	if path == "" {
		path = cfg.CVPath
	}
	if path == "" {
		exitWithError(ExitConfigError, "no CV configured (set cv-path or pass --file)")
	}
	path = config.Resolve(root, path)

	_, snap := mustLoadSnapshot(root, cfg)

	changed, err := cvtext.UpdateFile(path, snap.TotalCitations, snap.HIndex)
	if err != nil {
		code := ExitError
		if errors.Is(err, fs.ErrNotExist) {
			code = ExitDataError
		}
		exitWithError(code, "updating CV: %v", err)
	}

	if humanOutput {
		if changed {
			fmt.Printf("Updated %s: citations %s, h-index %d\n", path, formatCount(snap.TotalCitations), snap.HIndex)
		} else {
			fmt.Printf("%s already current\n", path)
		}
		return nil
	}
	return outputJSON(CVResponse{
		Path:      path,
		Changed:   changed,
		Citations: snap.TotalCitations,
		HIndex:    snap.HIndex,
	})
}
