package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lite-hq/lite/pkg/cli"
	"lite-hq/lite/pkg/providerfactory"
	"lite-hq/lite/pkg/providers"
	"lite-hq/lite/pkg/storage"
)

var providerAddFlags struct {
	name         string
	typ          string
	apiKey       string
	baseURL      string
	organization string
	headers      []string
	setDefault   bool
}

var providersCmd = &cobra.Command{
	Use:     "providers",
	Aliases: []string{"provider"},
	Short:   "Manage stored providers",
	Long: `List, add, remove and test the providers stored in the database.

API keys are always shown masked.`,
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored providers",
	Args:  cobra.NoArgs,
	RunE:  runProvidersList,
}

var providersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a provider",
	Long: `Add a provider after validating its configuration.

Examples:
  lite providers add --type openai --api-key sk-... --default
  lite providers add --name local --type custom --api-key none --base-url http://localhost:11434/v1`,
	Args: cobra.NoArgs,
	RunE: runProvidersAdd,
}

var providersRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a provider and its model preferences",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersRemove,
}

var providersDefaultCmd = &cobra.Command{
	Use:   "default <id>",
	Short: "Make a provider the default",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersDefault,
}

var providersTestCmd = &cobra.Command{
	Use:   "test [id]",
	Short: "Check a provider by listing its models",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProvidersTest,
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd, providersAddCmd, providersRemoveCmd, providersDefaultCmd, providersTestCmd)

	f := providersAddCmd.Flags()
	f.StringVar(&providerAddFlags.name, "name", "", "display name (defaults to the type)")
	f.StringVar(&providerAddFlags.typ, "type", "", "provider type: openai, anthropic, openrouter, custom")
	f.StringVar(&providerAddFlags.apiKey, "api-key", "", "API key")
	f.StringVar(&providerAddFlags.baseURL, "base-url", "", "base URL override (required for custom)")
	f.StringVar(&providerAddFlags.organization, "organization", "", "OpenAI organization id")
	f.StringArrayVar(&providerAddFlags.headers, "header", nil, "extra request header as Name=Value (repeatable)")
	f.BoolVar(&providerAddFlags.setDefault, "default", false, "make this the default provider")
	_ = providersAddCmd.MarkFlagRequired("type")
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.NewUsageError("invalid provider id %q", arg)
	}
	return id, nil
}

func runProvidersList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	recs, err := a.store.ListProviders(ctx)
	if err != nil {
		return cli.NewCommandError("providers list", err)
	}

	t := &cli.Table{Headers: []string{"ID", "NAME", "TYPE", "API KEY", "BASE URL", "DEFAULT"}}
	data := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		key := providers.MaskKey(r.APIKey)
		def := ""
		if r.IsDefault {
			def = "*"
		}
		t.Rows = append(t.Rows, []string{fmt.Sprint(r.ID), r.Name, string(r.Type), key, r.BaseURL, def})
		data = append(data, map[string]any{
			"id": r.ID, "name": r.Name, "type": r.Type, "apiKey": key,
			"baseUrl": r.BaseURL, "isDefault": r.IsDefault,
		})
	}
	t.Data = data
	return formatter().FormatTo(cmd.OutOrStdout(), t)
}

func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, cli.NewUsageError("invalid header %q (want Name=Value)", p)
		}
		headers[strings.TrimSpace(name)] = value
	}
	return headers, nil
}

func runProvidersAdd(cmd *cobra.Command, args []string) error {
	headers, err := parseHeaders(providerAddFlags.headers)
	if err != nil {
		return err
	}

	rec := &storage.ProviderRecord{
		Name:          providerAddFlags.name,
		Type:          providers.ProviderType(providerAddFlags.typ),
		APIKey:        providerAddFlags.apiKey,
		BaseURL:       providerAddFlags.baseURL,
		Organization:  providerAddFlags.organization,
		CustomHeaders: headers,
	}
	if rec.Name == "" {
		rec.Name = string(rec.Type)
	}

	if res := providerfactory.ValidateConfig(rec.Config()); !res.Valid {
		return cli.NewUsageError("invalid provider configuration: %s", strings.Join(res.Errors, "; "))
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	id, err := a.store.CreateProvider(ctx, rec, providerAddFlags.setDefault)
	if err != nil {
		return cli.NewCommandError("providers add", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Provider %q added (id %d)\n", rec.Name, id)
	return nil
}

func runProvidersRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := a.store.DeleteProvider(ctx, id); err != nil {
		return cli.NewCommandError("providers remove", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Provider %d removed\n", id)
	return nil
}

func runProvidersDefault(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := a.store.SetDefaultProvider(ctx, id); err != nil {
		return cli.NewCommandError("providers default", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Provider %d is now the default\n", id)
	return nil
}

func runProvidersTest(cmd *cobra.Command, args []string) error {
	var id *int64
	if len(args) == 1 {
		parsed, err := parseID(args[0])
		if err != nil {
			return err
		}
		id = &parsed
	}

	ctx, cancel := cli.SignalContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	rec, err := a.chat.ResolveProvider(ctx, id)
	if err != nil {
		return cli.NewCommandError("providers test", err)
	}

	start := time.Now()
	models, err := a.manager.Models(ctx, rec.Config(), false)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %s (%s): %v\n", rec.Name, rec.Type, err)
		return cli.NewCommandError("providers test", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s): %d models in %s\n",
		rec.Name, rec.Type, len(models), time.Since(start).Round(time.Millisecond))
	return nil
}
