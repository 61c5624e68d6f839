package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"lite-hq/lite/pkg/cli"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, envFile, outputFormat, logLevel = defaultConfigFile, ".env", "text", ""
	for _, name := range []string{"config", "env-file", "output", "log-level"} {
		if f := rootCmd.PersistentFlags().Lookup(name); f != nil {
			f.Changed = false
		}
	}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a config backed by a pure-Go SQLite file in a temp dir.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lite.yaml")
	body := `storage:
  backend: sqlite
  sqlite:
    driver: sqlite
    path: ` + filepath.Join(dir, "lite.db") + `
telemetry:
  logging:
    level: error
` + extra
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateCommand(t *testing.T) {
	path := writeConfig(t, `providers:
  - name: main
    type: openai
    api_key: sk-test
`)

	out, err := runCLI(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, "provider main (openai)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestValidateCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lite.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: postgres\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "validate", "--config", path)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if got := cli.ExitCode(err); got != cli.ExitConfig {
		t.Errorf("exit code = %d, want %d", got, cli.ExitConfig)
	}
}

func TestValidateCommand_MissingExplicitEnvFile(t *testing.T) {
	_, err := runCLI(t, "validate", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("expected error for missing --env-file")
	}
}

func TestRoot_RejectsUnknownFormat(t *testing.T) {
	_, err := runCLI(t, "version", "-o", "yaml")
	if err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestProvidersCommands(t *testing.T) {
	path := writeConfig(t, "")

	out, err := runCLI(t, "providers", "add", "--config", path,
		"--name", "work", "--type", "openai", "--api-key", "sk-abcdefghijklmnop", "--default")
	if err != nil {
		t.Fatalf("providers add: %v", err)
	}
	if !strings.Contains(out, `Provider "work" added`) {
		t.Errorf("unexpected add output: %s", out)
	}

	out, err = runCLI(t, "providers", "list", "--config", path, "-o", "json")
	if err != nil {
		t.Fatalf("providers list: %v", err)
	}
	var listed []map[string]any
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	if len(listed) != 1 {
		t.Fatalf("got %d providers, want 1", len(listed))
	}
	if listed[0]["name"] != "work" || listed[0]["isDefault"] != true {
		t.Errorf("unexpected provider: %v", listed[0])
	}
	if key, _ := listed[0]["apiKey"].(string); strings.Contains(key, "abcdefghijklmnop") {
		t.Errorf("api key not masked: %q", key)
	}

	if _, err := runCLI(t, "providers", "default", "--config", path, "1"); err != nil {
		t.Errorf("providers default: %v", err)
	}
	if _, err := runCLI(t, "providers", "remove", "--config", path, "1"); err != nil {
		t.Errorf("providers remove: %v", err)
	}
	if _, err := runCLI(t, "providers", "remove", "--config", path, "1"); err == nil {
		t.Error("removing a missing provider should fail")
	}
}

func TestProvidersAdd_Invalid(t *testing.T) {
	path := writeConfig(t, "")

	_, err := runCLI(t, "providers", "add", "--config", path, "--type", "custom", "--api-key", "x")
	if err == nil {
		t.Fatal("custom provider without base URL should be rejected")
	}
	var usage *cli.UsageError
	if !errors.As(err, &usage) {
		t.Errorf("error = %T, want *cli.UsageError", err)
	}
}

func TestProvidersRemove_BadID(t *testing.T) {
	_, err := runCLI(t, "providers", "remove", "abc")
	if got := cli.ExitCode(err); got != cli.ExitUsage {
		t.Errorf("exit code = %d, want %d", got, cli.ExitUsage)
	}
}

func TestModelsAndProvidersTest(t *testing.T) {
	var requests atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"gpt-4o-mini"},{"id":"whisper-1"}]}`))
	}))
	defer upstream.Close()

	path := writeConfig(t, `providers:
  - name: stub
    type: openai
    api_key: sk-test
    base_url: `+upstream.URL+`
    default: true
`)

	out, err := runCLI(t, "models", "--config", path)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if !strings.Contains(out, "gpt-4o-mini") || strings.Contains(out, "whisper-1") {
		t.Errorf("unexpected models output:\n%s", out)
	}

	out, err = runCLI(t, "providers", "test", "--config", path)
	if err != nil {
		t.Fatalf("providers test: %v", err)
	}
	if !strings.Contains(out, "stub (openai): 1 models") {
		t.Errorf("unexpected test output: %s", out)
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("upstream requests = %d, want 2", n)
	}
}
