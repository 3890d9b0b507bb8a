package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the seed source registry
type Loader struct {
	sourcesFile string
}

// NewLoader creates a new source registry loader
func NewLoader(sourcesFile string) *Loader {
	return &Loader{sourcesFile: sourcesFile}
}

// Load reads and validates the YAML source registry. A missing file is not
// an error; sources can also be managed entirely through the API.
func (l *Loader) Load() ([]SourceConfig, error) {
	if _, err := os.Stat(l.sourcesFile); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(l.sourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool)
	for i := range file.Sources {
		l.setDefaults(&file.Sources[i])

		if err := l.validate(&file.Sources[i]); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}

		if seen[file.Sources[i].RootDomain] {
			return nil, fmt.Errorf("duplicate root domain at index %d: %s", i, file.Sources[i].RootDomain)
		}
		seen[file.Sources[i].RootDomain] = true
	}

	return file.Sources, nil
}

// setDefaults applies default values to a source definition
func (l *Loader) setDefaults(source *SourceConfig) {
	source.RootDomain = normalizeDomain(source.RootDomain)

	if source.Name == "" {
		source.Name = source.RootDomain
	}
}

// validate validates a source definition
func (l *Loader) validate(source *SourceConfig) error {
	if source.RootDomain == "" {
		return fmt.Errorf("root domain is required")
	}
	if strings.ContainsAny(source.RootDomain, "/ ") {
		return fmt.Errorf("root domain must be a bare host: %s", source.RootDomain)
	}

	for i, keyword := range source.Keywords {
		if strings.TrimSpace(keyword) == "" {
			return fmt.Errorf("empty keyword at index %d", i)
		}
	}

	return nil
}

// normalizeDomain strips scheme, path and port so "https://example.org/x"
// and "example.org" register as the same source.
func normalizeDomain(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}

	if strings.Contains(raw, "://") {
		if parsed, err := url.Parse(raw); err == nil && parsed.Hostname() != "" {
			return parsed.Hostname()
		}
	}

	if idx := strings.IndexAny(raw, "/:"); idx >= 0 {
		raw = raw[:idx]
	}

	return raw
}
