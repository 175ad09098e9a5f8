package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/safedata/internal/sanitize"
)

var restoreMapFile string

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace tags on stdin with the originals from a boomerang map",
	RunE: func(cmd *cobra.Command, args []string) error {
		if restoreMapFile == "" {
			return usageError{fmt.Errorf("--map is required")}
		}
		data, err := os.ReadFile(restoreMapFile)
		if err != nil {
			return fmt.Errorf("read map: %w", err)
		}
		var m sanitize.BoomerangMap
		if err := json.Unmarshal(data, &m); err != nil {
			return usageError{fmt.Errorf("parse map %s: %w", restoreMapFile, err)}
		}
		_, err = io.Copy(cmd.OutOrStdout(), sanitize.NewRestoringReader(cmd.InOrStdin(), &m))
		return err
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreMapFile, "map", "", "JSON file holding an original -> tag object")
}
