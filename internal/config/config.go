// Package config loads run configuration for the sentiment pipeline.
//
// Sources are applied in order, later ones winning:
//   - defaults (Default)
//   - a TOML file (explicit path, or sentiment-lab.toml in the working directory)
//   - a .env file, which only fills variables not already set in the environment
//   - environment variables prefixed SENTLAB_ (for example SENTLAB_CAUSALITY_MAX_LAG)
//
// Command-line flags are applied by the caller, which then calls Validate.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SENTLAB"

// ProjectConfigFile is looked up in the working directory when no path is given.
const ProjectConfigFile = "sentiment-lab.toml"

//go:embed sample_config.toml
var sampleConfig string

// Records configures the text record source.
type Records struct {
	Path           string  `toml:"path" split_words:"true"`
	DateColumn     string  `toml:"date_column" split_words:"true"`
	TextColumn     string  `toml:"text_column" split_words:"true"`
	SampleFraction float64 `toml:"sample_fraction" split_words:"true"`
	Seed           uint64  `toml:"seed" split_words:"true"`
	CleanText      bool    `toml:"clean_text" split_words:"true"`
	Workers        int     `toml:"workers" split_words:"true"` // 0 = one per CPU
	Start          string  `toml:"start" split_words:"true"`   // YYYY-MM-DD, empty = open
	End            string  `toml:"end" split_words:"true"`     // YYYY-MM-DD inclusive, empty = open
}

// Window returns the record time window in UTC. End covers the whole end
// day. A bound left empty comes back as the zero time.
func (r Records) Window() (start, end time.Time, err error) {
	if r.Start != "" {
		d, err := civil.ParseDate(r.Start)
		if err != nil {
			return start, end, fmt.Errorf("records.start: %w", err)
		}
		start = d.In(time.UTC)
	}
	if r.End != "" {
		d, err := civil.ParseDate(r.End)
		if err != nil {
			return start, end, fmt.Errorf("records.end: %w", err)
		}
		end = d.AddDays(1).In(time.UTC).Add(-time.Nanosecond)
	}
	return start, end, nil
}

// Market configures the daily price source.
type Market struct {
	Ticker           string `toml:"ticker" split_words:"true"`
	Source           string `toml:"source" split_words:"true"` // yahoo or clickhouse
	VolatilityWindow int    `toml:"volatility_window" split_words:"true"`
	YahooBaseURL     string `toml:"yahoo_base_url" split_words:"true"`
	TimeoutSeconds   int    `toml:"timeout_seconds" split_words:"true"`
	MaxRetries       int    `toml:"max_retries" split_words:"true"`
}

// Causality configures the Granger test.
type Causality struct {
	Predictor string  `toml:"predictor" split_words:"true"`
	Target    string  `toml:"target" split_words:"true"`
	MaxLag    int     `toml:"max_lag" split_words:"true"`
	Alpha     float64 `toml:"alpha" split_words:"true"`
}

// Storage holds optional database sources. An empty DSN disables the source.
type Storage struct {
	PostgresDSN   string `toml:"postgres_dsn" split_words:"true"`
	ClickhouseDSN string `toml:"clickhouse_dsn" split_words:"true"`
}

// Output configures where artifacts are written.
type Output struct {
	Dir         string `toml:"dir" split_words:"true"`
	MetricsFile string `toml:"metrics_file" split_words:"true"`
}

// Logging configures log output.
type Logging struct {
	Level  string `toml:"level" split_words:"true"`
	Pretty bool   `toml:"pretty" split_words:"true"`
}

// Config encapsulates all configuration values for a run.
type Config struct {
	Records     Records   `toml:"records"`
	Market      Market    `toml:"market"`
	Causality   Causality `toml:"causality"`
	Storage     Storage   `toml:"storage"`
	Output      Output    `toml:"output"`
	Logging     Logging   `toml:"logging"`
	UseFixtures bool      `toml:"use_fixtures" split_words:"true"`
}

// Load builds a Config from defaults, the TOML file at path, env files and
// the environment, then validates it. An explicit path must exist; an empty
// path falls back to ProjectConfigFile when present. envFiles default to
// ".env"; missing env files are ignored. The returned string is the config
// file that was read, empty if none.
func Load(path string, envFiles ...string) (*Config, string, error) {
	cfg := Default()

	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}
	if resolved != "" {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", err
		}
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, "", err
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, "", fmt.Errorf("process env config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolved, nil
}

// SampleConfig returns an annotated configuration file with default values.
func SampleConfig() string {
	return sampleConfig
}

// Parse decodes TOML data over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("stat config: %w", err)
		}
		return path, nil
	}

	info, err := os.Stat(ProjectConfigFile)
	switch {
	case err == nil && !info.IsDir():
		return ProjectConfigFile, nil
	case err == nil || errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", fmt.Errorf("stat config: %w", err)
	}
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Records.Path = strings.TrimSpace(c.Records.Path)
	c.Market.Ticker = strings.TrimSpace(c.Market.Ticker)
	c.Market.Source = strings.ToLower(strings.TrimSpace(c.Market.Source))
	c.Causality.Predictor = strings.TrimSpace(c.Causality.Predictor)
	c.Causality.Target = strings.TrimSpace(c.Causality.Target)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Storage.PostgresDSN = strings.TrimSpace(c.Storage.PostgresDSN)
	c.Storage.ClickhouseDSN = strings.TrimSpace(c.Storage.ClickhouseDSN)
}
