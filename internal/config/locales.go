package config

import (
	"fmt"
	"os"

	"github.com/windoze95/saltybytes-search/internal/i18n"
)

// LoadLocales returns the translation catalog. An empty path selects the
// tables embedded in the binary; otherwise the YAML file at path replaces
// them entirely.
func LoadLocales(path, fallback string) (*i18n.Catalog, error) {
	if path == "" {
		return i18n.Default(fallback)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locales file: %w", err)
	}

	catalog, err := i18n.Parse(data, fallback)
	if err != nil {
		return nil, fmt.Errorf("failed to parse locales YAML: %w", err)
	}

	return catalog, nil
}
