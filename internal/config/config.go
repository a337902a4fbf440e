package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/caarlos0/env/v11"
	"github.com/windoze95/saltybytes-search/internal/i18n"
)

// Config holds the application configuration.
type Config struct {
	EnvVars EnvVars       `json:"env"`
	Locales *i18n.Catalog `json:"-"`
}

// EnvVars holds environment variables required by the application.
// Fields tagged `optional:"true"` are skipped by CheckConfigEnvFields.
type EnvVars struct {
	Port             string `env:"PORT" envDefault:"3000"`
	RecipeAPIBaseURL string `env:"RECIPE_API_BASE_URL" envDefault:"http://localhost:8080"`
	SessionSecret    string `env:"SESSION_SECRET"`
	DefaultLocale    string `env:"DEFAULT_LOCALE" envDefault:"en"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," optional:"true"`
	RedisURL       string   `env:"REDIS_URL" optional:"true"`
	LocalesPath    string   `env:"LOCALES_PATH" optional:"true"`

	Suggest    SuggestVars   `envPrefix:"SUGGEST_"`
	Upstream   UpstreamVars
	RateLimit  int           `env:"RATE_LIMIT_RPS" envDefault:"20"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`
}

// SuggestVars tunes the autocomplete pipeline.
type SuggestVars struct {
	Debounce time.Duration `env:"DEBOUNCE" envDefault:"500ms"`
	MinChars int           `env:"MIN_CHARS" envDefault:"2"`
	Limit    int           `env:"LIMIT" envDefault:"5"`
}

// UpstreamVars tunes calls to the recipe data service.
type UpstreamVars struct {
	SearchLimit           int           `env:"SEARCH_LIMIT" envDefault:"10"`
	IngredientConcurrency int           `env:"INGREDIENT_CONCURRENCY" envDefault:"4"`
	Timeout               time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	CacheTTL              time.Duration `env:"CACHE_TTL" envDefault:"1h"`
}

// LoadConfig parses environment variables into the Config struct.
func LoadConfig() (*Config, error) {
	var config Config
	if err := env.Parse(&config.EnvVars); err != nil {
		return nil, err
	}
	return &config, nil
}

// CheckConfigEnvFields validates that all required EnvVars fields are set
// and that the upstream base URL is usable.
func (c *Config) CheckConfigEnvFields() error {
	if err := checkFieldsRecursive(reflect.ValueOf(c.EnvVars)); err != nil {
		return err
	}
	if !govalidator.IsRequestURL(c.EnvVars.RecipeAPIBaseURL) {
		return fmt.Errorf("$RECIPE_API_BASE_URL is not a valid URL: %q", c.EnvVars.RecipeAPIBaseURL)
	}
	for _, origin := range c.EnvVars.AllowedOrigins {
		if !govalidator.IsRequestURL(origin) {
			return fmt.Errorf("$ALLOWED_ORIGINS contains an invalid origin: %q", origin)
		}
	}
	return nil
}

func checkFieldsRecursive(v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := v.Type().Field(i)
		if fieldType.Tag.Get("optional") == "true" {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := checkFieldsRecursive(field); err != nil {
				return err
			}
			continue
		}
		if field.IsZero() {
			name := fieldType.Tag.Get("env")
			if name == "" {
				name = fieldType.Name
			}
			return fmt.Errorf("$%s must be set", name)
		}
	}
	return nil
}
