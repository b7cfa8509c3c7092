package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataweb/internal/dataset"
	"dataweb/internal/model"
)

// isolate runs the test in an empty directory with no DataWeb variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, entry := range os.Environ() {
		name, _, _ := strings.Cut(entry, "=")
		if name == TokenEnvVar || strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://datawebws.usitc.gov/dataweb", cfg.DataWeb.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.DataWeb.Timeout)
	assert.Len(t, cfg.Sweep.Years, 10)
	assert.Equal(t, "1996", cfg.Sweep.Years[0])
	assert.Equal(t, "2005", cfg.Sweep.Years[9])
	assert.Equal(t, []string{"CONS_VAL_MO", "CONS_FIR_UNIT_QUANT", "CONS_DUTY_MO"}, cfg.Sweep.Measures)
	assert.Empty(t, cfg.Sweep.Countries)
	assert.Equal(t, []string{"year"}, cfg.Sweep.SplitBy)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.MinInterval)
	assert.Equal(t, "output/dataweb.csv", cfg.Output.CSV)

	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)
	assert.NoError(t, cfg.ValidateSweep())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
dataweb:
  token: from-file
sweep:
  years: ["2001", "2002"]
  measures: [CONS_VAL_MO]
  countries: ["5700"]
  split_by: [year, country]
  reconcile: label
retry:
  max_attempts: 5
  base_backoff: 500ms
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "from-file", cfg.DataWeb.Token)
	assert.Equal(t, []string{"2001", "2002"}, cfg.Sweep.Years)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Policy().BaseBackoff)

	plan, err := cfg.Plan()
	require.NoError(t, err)
	assert.Equal(t, []model.Axis{model.AxisYear, model.AxisCountry}, plan.SplitBy)

	policy, err := cfg.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, dataset.ByLabel, policy)
}

func TestLoadDiscoversDefaultFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "dataweb.yaml"), "sweep:\n  measures: [GEN_VAL_MO]\n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"GEN_VAL_MO"}, cfg.Sweep.Measures)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("TRADE_API_KEY", "alias-token")
	t.Setenv("DATAWEB_SWEEP__YEARS", "1999, 2000-2001")
	t.Setenv("DATAWEB_SWEEP__COUNTRIES", "5700,1220")
	t.Setenv("DATAWEB_RETRY__MIN_INTERVAL", "250ms")
	t.Setenv("DATAWEB_BASE_URL", "http://localhost:9999")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "alias-token", cfg.DataWeb.Token)
	assert.Equal(t, []string{"1999", "2000", "2001"}, cfg.Sweep.Years)
	assert.Equal(t, []string{"5700", "1220"}, cfg.Sweep.Countries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.MinInterval)
	assert.Equal(t, "http://localhost:9999", cfg.Client().BaseURL)
}

func TestPrefixedTokenWinsOverAlias(t *testing.T) {
	isolate(t)
	t.Setenv("TRADE_API_KEY", "alias-token")
	t.Setenv("DATAWEB_TOKEN", "prefixed-token")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "prefixed-token", cfg.DataWeb.Token)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "TRADE_API_KEY=dotenv-token\nDATAWEB_LOG__LEVEL=debug\nUNRELATED=1\n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.DataWeb.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
	_, set := os.LookupEnv("UNRELATED")
	assert.False(t, set)

	t.Setenv("TRADE_API_KEY", "process-token")
	cfg, err = Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "process-token", cfg.DataWeb.Token)
}

func TestFlagsOverrideEverything(t *testing.T) {
	isolate(t)
	t.Setenv("DATAWEB_SWEEP__MEASURES", "CONS_VAL_MO")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSlice("measures", nil, "")
	flags.StringSlice("years", nil, "")
	flags.Int("max-attempts", 0, "")
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--measures", "CONS_DUTY_MO,CONS_FIR_UNIT_QUANT", "--verbose"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"CONS_DUTY_MO", "CONS_FIR_UNIT_QUANT"}, cfg.Sweep.Measures)
	assert.Len(t, cfg.Sweep.Years, 10, "unset flags keep lower layers")
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestValidateSweepRejectsBadInput(t *testing.T) {
	isolate(t)
	t.Setenv("DATAWEB_SWEEP__SPLIT_BY", "district")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.ValidateSweep(), model.ErrValidation)

	t.Setenv("DATAWEB_SWEEP__YEARS", "2005-19x")
	_, err = Load("", nil)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "sweep.years", envKey("DATAWEB_SWEEP__YEARS"))
	assert.Equal(t, "dataweb.token", envKey("DATAWEB_TOKEN"))
	assert.Equal(t, "", envKey("DATAWEB_SOMETHING"))
}

func TestStringHidesToken(t *testing.T) {
	cfg := &Config{DataWeb: DataWebConfig{Token: "secret"}}
	assert.NotContains(t, cfg.String(), "secret")
}
