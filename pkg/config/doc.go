// Package config provides configuration management for Lite.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from the environment and validated before use.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("lite.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("lite.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LITE_SECTION_FIELD:
//
//   - LITE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - LITE_STORAGE_SQLITE_PATH overrides storage.sqlite.path
//   - LITE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Provider entries are addressed by name, as in
// LITE_PROVIDERS_OPENAI_API_KEY. Setting the API key of openai, anthropic
// or openrouter adds an entry of that type when the file has none.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation
//
// # Hot Reload
//
// Watcher reloads the file on change and hands each valid configuration to
// a callback. Invalid edits are logged and the previous configuration stays
// in effect.
package config
