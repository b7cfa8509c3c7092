package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix   = "DATAWEB_"
	TokenEnvVar = "TRADE_API_KEY"
	DotEnvFile  = ".env"
)

var defaultFiles = []string{"dataweb.yaml", "dataweb.yml"}

// shortKeys maps single-level env names to their nested keys, so
// DATAWEB_TOKEN works alongside DATAWEB_DATAWEB__TOKEN.
var shortKeys = map[string]string{
	"token":    "dataweb.token",
	"base_url": "dataweb.base_url",
}

// flagKeys maps command-line flags to configuration keys. Flags not listed
// here are not configuration.
var flagKeys = map[string]string{
	"base-url":          "dataweb.base_url",
	"token":             "dataweb.token",
	"timeout":           "dataweb.timeout",
	"insecure":          "dataweb.insecure_skip_verify",
	"years":             "sweep.years",
	"measures":          "sweep.measures",
	"countries":         "sweep.countries",
	"exclude-countries": "sweep.exclude_countries",
	"granularity":       "sweep.granularity",
	"trade-type":        "sweep.trade_type",
	"classification":    "sweep.classification",
	"split-by":          "sweep.split_by",
	"total-records":     "sweep.total_records",
	"reconcile":         "sweep.reconcile",
	"max-attempts":      "retry.max_attempts",
	"min-interval":      "retry.min_interval",
	"csv":               "output.csv",
	"db":                "output.db",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

// Load reads configuration. Precedence, highest first: explicitly set
// flags, environment variables, .env, the YAML file, defaults. An empty path
// falls back to dataweb.yaml in the working directory when present.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	dotenv, err := readDotEnv(DotEnvFile)
	if err != nil {
		return nil, err
	}
	if len(dotenv) > 0 {
		if err := k.Load(confmap.Provider(dotenv, "."), nil); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", DotEnvFile, err)
		}
	}

	if err := k.Load(env.Provider(TokenEnvVar, ".", func(s string) string {
		if s != TokenEnvVar {
			return ""
		}
		return "dataweb.token"
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", TokenEnvVar, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile() string {
	for _, name := range defaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey maps DATAWEB_SWEEP__YEARS to sweep.years.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if short, ok := shortKeys[key]; ok {
		return short
	}
	if !strings.Contains(key, ".") {
		return ""
	}
	return key
}

// readDotEnv maps the recognised variables of a .env file to config keys
// without touching the process environment.
func readDotEnv(path string) (map[string]any, error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	out := make(map[string]any, len(values))
	for name, value := range values {
		switch {
		case name == TokenEnvVar:
			if _, set := out["dataweb.token"]; !set {
				out["dataweb.token"] = value
			}
		case strings.HasPrefix(name, EnvPrefix):
			if key := envKey(name); key != "" {
				out[key] = value
			}
		}
	}
	return out, nil
}
