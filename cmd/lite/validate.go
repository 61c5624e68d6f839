package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lite-hq/lite/pkg/providerfactory"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file with environment overrides and check it.

Every configured provider is also checked the way the API checks a new
provider. Nothing is contacted over the network.

Examples:
  lite validate
  lite validate --config /etc/lite/lite.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path == "" {
		fmt.Fprintln(out, "✓ Configuration valid (defaults and environment)")
	} else {
		fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
	}

	invalid := 0
	for _, p := range cfg.Providers {
		res := providerfactory.ValidateConfig(p.ProviderConfig)
		if res.Valid {
			fmt.Fprintf(out, "  ✓ provider %s (%s)\n", p.Name, p.Type)
			continue
		}
		invalid++
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  ✗ provider %s: %s\n", p.Name, e)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d provider(s) failed validation", invalid)
	}
	return nil
}
