// Package config loads collector settings from defaults, a YAML file, a .env
// file, DATAWEB_ environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dataweb/internal/dataset"
	"dataweb/internal/model"
	"dataweb/internal/providers/dataweb"
	"dataweb/internal/query"
	"dataweb/internal/sweep"
)

var ErrMissingToken = errors.New("config: api token is required (set TRADE_API_KEY or DATAWEB_TOKEN)")

type Config struct {
	DataWeb DataWebConfig `koanf:"dataweb"`
	Sweep   SweepConfig   `koanf:"sweep"`
	Retry   RetryConfig   `koanf:"retry"`
	Output  OutputConfig  `koanf:"output"`
	Log     LogConfig     `koanf:"log"`
}

type DataWebConfig struct {
	BaseURL            string        `koanf:"base_url"`
	Token              string        `koanf:"token"`
	Timeout            time.Duration `koanf:"timeout"`
	UserAgent          string        `koanf:"user_agent"`
	InsecureSkipVerify bool          `koanf:"insecure_skip_verify"`
}

type SweepConfig struct {
	Years            []string `koanf:"years"`
	Measures         []string `koanf:"measures"`
	Countries        []string `koanf:"countries"`
	ExcludeCountries []string `koanf:"exclude_countries"`
	Granularity      string   `koanf:"granularity"`
	TradeType        string   `koanf:"trade_type"`
	Classification   string   `koanf:"classification"`
	SplitBy          []string `koanf:"split_by"`
	TotalRecords     int      `koanf:"total_records"`
	Reconcile        string   `koanf:"reconcile"`
}

type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	BaseBackoff time.Duration `koanf:"base_backoff"`
	MaxBackoff  time.Duration `koanf:"max_backoff"`
	Multiplier  float64       `koanf:"multiplier"`
	MinInterval time.Duration `koanf:"min_interval"`
}

type OutputConfig struct {
	CSV string `koanf:"csv"`
	DB  string `koanf:"db"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]any {
	return map[string]any{
		"dataweb.base_url":             dataweb.DefaultBaseURL,
		"dataweb.timeout":              "120s",
		"dataweb.insecure_skip_verify": false,
		"sweep.years":                  []string{"1996-2005"},
		"sweep.measures":               []string{"CONS_VAL_MO", "CONS_FIR_UNIT_QUANT", "CONS_DUTY_MO"},
		"sweep.countries":              []string{},
		"sweep.exclude_countries":      []string{},
		"sweep.granularity":            string(model.Granularity10),
		"sweep.trade_type":             string(model.TradeImport),
		"sweep.classification":         string(model.ClassificationHTS),
		"sweep.split_by":               []string{string(model.AxisYear)},
		"sweep.total_records":          query.DefaultTotalRecords,
		"sweep.reconcile":              string(dataset.Positional),
		"retry.max_attempts":           sweep.DefaultMaxAttempts,
		"retry.base_backoff":           sweep.DefaultBaseBackoff.String(),
		"retry.max_backoff":            sweep.DefaultMaxBackoff.String(),
		"retry.multiplier":             sweep.DefaultMultiplier,
		"retry.min_interval":           sweep.DefaultMinInterval.String(),
		"output.csv":                   "output/dataweb.csv",
		"output.db":                    "",
		"log.level":                    "info",
		"log.format":                   "console",
	}
}

// normalize splits comma-separated list entries and expands year ranges.
func (c *Config) normalize() error {
	c.DataWeb.Token = strings.TrimSpace(c.DataWeb.Token)
	c.Sweep.Measures = splitList(c.Sweep.Measures)
	c.Sweep.Countries = splitList(c.Sweep.Countries)
	c.Sweep.ExcludeCountries = splitList(c.Sweep.ExcludeCountries)
	c.Sweep.SplitBy = splitList(c.Sweep.SplitBy)

	years, err := query.ExpandYears(splitList(c.Sweep.Years))
	if err != nil {
		return err
	}
	c.Sweep.Years = years
	return nil
}

// ValidateSweep checks everything needed to plan a sweep offline.
func (c *Config) ValidateSweep() error {
	if _, err := c.Plan(); err != nil {
		return err
	}
	if _, err := c.Reconcile(); err != nil {
		return err
	}
	return c.Policy().Validate()
}

// Validate checks everything needed to run a sweep against the API.
func (c *Config) Validate() error {
	if c.DataWeb.Token == "" {
		return ErrMissingToken
	}
	return c.ValidateSweep()
}

func (c *Config) Axes() query.Axes {
	return query.Axes{
		Years:          c.Sweep.Years,
		Measures:       c.Sweep.Measures,
		Countries:      c.Sweep.Countries,
		Granularity:    model.Granularity(c.Sweep.Granularity),
		TradeType:      model.TradeType(c.Sweep.TradeType),
		Classification: model.Classification(strings.ToUpper(c.Sweep.Classification)),
		TotalRecords:   c.Sweep.TotalRecords,
	}
}

// Plan returns the sweep plan. Country exclusion needs the country list and
// is applied by the caller.
func (c *Config) Plan() (sweep.Plan, error) {
	split, err := sweep.ParseSplit(c.Sweep.SplitBy)
	if err != nil {
		return sweep.Plan{}, err
	}
	axes := c.Axes()
	if err := axes.Validate(); err != nil {
		return sweep.Plan{}, err
	}
	return sweep.Plan{Axes: axes, SplitBy: split}, nil
}

func (c *Config) Reconcile() (dataset.Policy, error) {
	return dataset.ParsePolicy(c.Sweep.Reconcile)
}

func (c *Config) Policy() sweep.Policy {
	policy := sweep.DefaultPolicy()
	policy.MaxAttempts = c.Retry.MaxAttempts
	policy.BaseBackoff = c.Retry.BaseBackoff
	policy.MaxBackoff = c.Retry.MaxBackoff
	policy.Multiplier = c.Retry.Multiplier
	policy.MinInterval = c.Retry.MinInterval
	return policy
}

func (c *Config) Client() dataweb.Config {
	return dataweb.Config{
		BaseURL:            c.DataWeb.BaseURL,
		Token:              c.DataWeb.Token,
		Timeout:            c.DataWeb.Timeout,
		UserAgent:          c.DataWeb.UserAgent,
		InsecureSkipVerify: c.DataWeb.InsecureSkipVerify,
	}
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) String() string {
	token := "unset"
	if c.DataWeb.Token != "" {
		token = "set"
	}
	return fmt.Sprintf("base_url=%s token=%s years=%d measures=%d countries=%d split_by=%s",
		c.DataWeb.BaseURL, token, len(c.Sweep.Years), len(c.Sweep.Measures), len(c.Sweep.Countries),
		strings.Join(c.Sweep.SplitBy, ","))
}
