package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lite-hq/lite/pkg/cli"
	"lite-hq/lite/pkg/providers"
)

var modelsFlags struct {
	providerID int64
	refresh    bool
	chatOnly   bool
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models of a stored provider",
	Long: `List the models offered by a provider.

Without --provider the default provider is used. Prices are USD per one
million tokens and are shown only when the vendor publishes them.

Examples:
  lite models
  lite models --provider 2 --refresh
  lite models -o json`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().Int64VarP(&modelsFlags.providerID, "provider", "p", 0, "provider id (default provider when omitted)")
	modelsCmd.Flags().BoolVar(&modelsFlags.refresh, "refresh", false, "bypass the model cache")
	modelsCmd.Flags().BoolVar(&modelsFlags.chatOnly, "chat-only", false, "only list chat-capable models")
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx, cancel := cli.SignalContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	models, err := a.chat.Models(ctx, optionalID(modelsFlags.providerID), !modelsFlags.refresh)
	if err != nil {
		return cli.NewCommandError("models", err)
	}

	if modelsFlags.chatOnly {
		filtered := models[:0]
		for _, m := range models {
			if m.SupportsChat {
				filtered = append(filtered, m)
			}
		}
		models = filtered
	}

	return formatter().FormatTo(cmd.OutOrStdout(), modelTable(models))
}

func modelTable(models []providers.Model) *cli.Table {
	t := &cli.Table{
		Headers: []string{"ID", "NAME", "CONTEXT", "PROMPT $/1M", "COMPLETION $/1M"},
		Data:    models,
	}
	for _, m := range models {
		prompt, completion := "-", "-"
		if m.Pricing != nil {
			prompt = strconv.FormatFloat(m.Pricing.Prompt, 'f', -1, 64)
			completion = strconv.FormatFloat(m.Pricing.Completion, 'f', -1, 64)
		}
		t.Rows = append(t.Rows, []string{m.ID, m.Name, fmt.Sprint(m.ContextWindow), prompt, completion})
	}
	return t
}

// optionalID maps the zero flag value to "not set".
func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
