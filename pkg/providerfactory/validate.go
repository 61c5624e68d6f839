package providerfactory

import (
	"fmt"
	"net/url"

	"lite-hq/lite/pkg/providers"
)

// ValidationResult is the outcome of ValidateConfig. Errors is empty when
// Valid is true.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateConfig checks cfg without constructing an adapter or touching the
// network. It never fails; every problem is reported in the result.
func ValidateConfig(cfg providers.ProviderConfig) ValidationResult {
	errs := []string{}

	if !cfg.Type.IsSupported() {
		errs = append(errs, fmt.Sprintf("Unsupported provider type: %s", cfg.Type))
	}

	if cfg.APIKey == "" {
		errs = append(errs, "API key is required")
	}

	if cfg.Type == providers.TypeCustom && cfg.BaseURL == "" {
		errs = append(errs, "Base URL is required for custom providers")
	}

	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("Base URL is not a valid absolute URL: %s", cfg.BaseURL))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
