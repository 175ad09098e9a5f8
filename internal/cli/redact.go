package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	redactText    string
	redactEpsilon float64
	redactSafe    bool
)

var redactCmd = &cobra.Command{
	Use:   "redact",
	Short: "Redact text from --text or stdin and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := redactText
		if !cmd.Flags().Changed("text") {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(b)
		}
		if strings.TrimSpace(text) == "" {
			return usageError{fmt.Errorf("no input text")}
		}
		eps := cfg.DefaultEpsilon
		if cmd.Flags().Changed("epsilon") {
			eps = redactEpsilon
		}

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		res := p.Text(cmd.Context(), text, eps)

		if redactSafe {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), res.SafeContent)
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	redactCmd.Flags().StringVar(&redactText, "text", "", "text to redact (default: read stdin)")
	redactCmd.Flags().Float64Var(&redactEpsilon, "epsilon", 0, "privacy parameter (default: DEFAULT_EPSILON)")
	redactCmd.Flags().BoolVar(&redactSafe, "safe-only", false, "print only the redacted text")
}
