// Package config loads and validates the test-selection configuration from a
// YAML file with environment-variable overrides. It provides typed structs for
// every subsystem (Index, Query, Selection, Source, Vocabulary, Logging,
// Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Line policies accepted by QueryConfig.Lines.
const (
	LinesAdded           = "added"
	LinesAddedAndRemoved = "added+removed"
)

// Config is the top-level application configuration.
type Config struct {
	Index      IndexConfig      `yaml:"index"`
	Query      QueryConfig      `yaml:"query"`
	Selection  SelectionConfig  `yaml:"selection"`
	Source     SourceConfig     `yaml:"source"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// IndexConfig controls where the per-project document index lives and how
// many files are parsed concurrently while bootstrapping it.
type IndexConfig struct {
	DataDir   string `yaml:"dataDir"`
	Namespace string `yaml:"namespace"`
	InMemory  bool   `yaml:"inMemory"`
	Workers   int    `yaml:"workers"`
}

// QueryConfig controls how hunks are turned into retrieval queries.
type QueryConfig struct {
	Lines     string `yaml:"lines"`
	Extension string `yaml:"extension"`
}

// SelectionConfig holds the retrieval depth and the annotation names that
// mark a method as a test case or as skipped.
type SelectionConfig struct {
	Limit             int      `yaml:"limit"`
	TestAnnotations   []string `yaml:"testAnnotations"`
	IgnoreAnnotations []string `yaml:"ignoreAnnotations"`
}

// SourceConfig bounds the files handed to the parser.
type SourceConfig struct {
	MaxFileBytes int64 `yaml:"maxFileBytes"`
}

// VocabularyConfig optionally replaces the embedded stop-word and keyword
// lists with files on disk (one word per line).
type VocabularyConfig struct {
	StopwordsFile string `yaml:"stopwordsFile"`
	KeywordsFile  string `yaml:"keywordsFile"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus textfile written after a run.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values, validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with the defaults used when no file is given.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			DataDir: ".rts",
			Workers: 4,
		},
		Query: QueryConfig{
			Lines:     LinesAddedAndRemoved,
			Extension: ".java",
		},
		Selection: SelectionConfig{
			Limit:             5,
			TestAnnotations:   []string{"Test"},
			IgnoreAnnotations: []string{"Ignore", "Disabled"},
		},
		Source: SourceConfig{
			MaxFileBytes: 4 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Index.DataDir == "" && !c.Index.InMemory {
		return fmt.Errorf("index.dataDir must be set unless index.inMemory is true")
	}
	if c.Index.Workers <= 0 {
		return fmt.Errorf("index.workers must be positive, got %d", c.Index.Workers)
	}
	switch c.Query.Lines {
	case LinesAdded, LinesAddedAndRemoved:
	default:
		return fmt.Errorf("query.lines must be %q or %q, got %q", LinesAdded, LinesAddedAndRemoved, c.Query.Lines)
	}
	if !strings.HasPrefix(c.Query.Extension, ".") {
		return fmt.Errorf("query.extension must start with a dot, got %q", c.Query.Extension)
	}
	if c.Selection.Limit <= 0 {
		return fmt.Errorf("selection.limit must be positive, got %d", c.Selection.Limit)
	}
	if len(c.Selection.TestAnnotations) == 0 {
		return fmt.Errorf("selection.testAnnotations must not be empty")
	}
	return nil
}

// applyEnvOverrides reads RTS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RTS_INDEX_DATA_DIR"); v != "" {
		cfg.Index.DataDir = v
	}
	if v := os.Getenv("RTS_INDEX_NAMESPACE"); v != "" {
		cfg.Index.Namespace = v
	}
	if v := os.Getenv("RTS_INDEX_IN_MEMORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Index.InMemory = b
		}
	}
	if v := os.Getenv("RTS_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.Workers = n
		}
	}
	if v := os.Getenv("RTS_QUERY_LINES"); v != "" {
		cfg.Query.Lines = v
	}
	if v := os.Getenv("RTS_SELECTION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Selection.Limit = n
		}
	}
	if v := os.Getenv("RTS_SELECTION_TEST_ANNOTATIONS"); v != "" {
		cfg.Selection.TestAnnotations = strings.Split(v, ",")
	}
	if v := os.Getenv("RTS_SELECTION_IGNORE_ANNOTATIONS"); v != "" {
		cfg.Selection.IgnoreAnnotations = strings.Split(v, ",")
	}
	if v := os.Getenv("RTS_VOCABULARY_STOPWORDS_FILE"); v != "" {
		cfg.Vocabulary.StopwordsFile = v
	}
	if v := os.Getenv("RTS_VOCABULARY_KEYWORDS_FILE"); v != "" {
		cfg.Vocabulary.KeywordsFile = v
	}
	if v := os.Getenv("RTS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RTS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RTS_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = v
	}
}
