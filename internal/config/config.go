package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RMahshie/tscmscan/internal/detect"
)

// Config holds all configuration for the application
type Config struct {
	Env       string
	Analysis  AnalysisConfig
	Output    OutputConfig
	Discovery DiscoveryConfig
	Heatmap   HeatmapConfig
	Log       LogConfig
}

// AnalysisConfig holds candidate detection configuration
type AnalysisConfig struct {
	MarginDB      float64
	Reducer       string
	CommentPrefix string
}

// OutputConfig holds artifact and report destinations. Empty paths disable
// the optional outputs; an empty Dir writes artifacts beside each input.
type OutputConfig struct {
	Dir         string
	MetricsFile string
	SummaryFile string
}

// DiscoveryConfig holds batch folder discovery configuration
type DiscoveryConfig struct {
	SearchRoot    string
	FolderPattern string
}

// HeatmapConfig holds heatmap image configuration
type HeatmapConfig struct {
	Width  int
	Height int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// flagKeys maps CLI flag names onto configuration keys
var flagKeys = map[string]string{
	"margin-db":      "MARGIN_DB",
	"reducer":        "REDUCER",
	"comment":        "COMMENT_PREFIX",
	"output-dir":     "OUTPUT_DIR",
	"metrics-file":   "METRICS_FILE",
	"summary-file":   "SUMMARY_FILE",
	"search-root":    "SEARCH_ROOT",
	"folder-pattern": "FOLDER_PATTERN",
	"width":          "HEATMAP_WIDTH",
	"height":         "HEATMAP_HEIGHT",
	"log-level":      "LOG_LEVEL",
}

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Float64P("margin-db", "m", detect.DefaultMarginDB, "dB above the median baseline a bin must exceed")
	fs.String("reducer", string(detect.ReducerMean), "per-frequency reduction over time (mean, median)")
	fs.String("comment", "#", "comment marker in sweep logs")
	fs.StringP("output-dir", "o", "", "directory for artifacts (default: beside each input)")
	fs.String("metrics-file", "", "write Prometheus textfile metrics to this path")
	fs.String("summary-file", "", "write a YAML run summary to this path")
	fs.String("search-root", ".", "where batch mode looks for sweep folders")
	fs.String("folder-pattern", "tscm_test_*", "glob for sweep folders in batch mode")
	fs.Int("width", 2400, "heatmap width in pixels")
	fs.Int("height", 1200, "heatmap height in pixels")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.StringP("config", "c", "", "optional YAML/TOML/JSON configuration file")
}

// Load loads configuration from defaults, .env files, an optional config
// file, environment variables and finally command line flags
func Load(fs *pflag.FlagSet) (*Config, error) {
	// Set defaults
	viper.SetDefault("MARGIN_DB", detect.DefaultMarginDB)
	viper.SetDefault("REDUCER", string(detect.ReducerMean))
	viper.SetDefault("COMMENT_PREFIX", "#")
	viper.SetDefault("OUTPUT_DIR", "")
	viper.SetDefault("METRICS_FILE", "")
	viper.SetDefault("SUMMARY_FILE", "")
	viper.SetDefault("SEARCH_ROOT", ".")
	viper.SetDefault("FOLDER_PATTERN", "tscm_test_*")
	viper.SetDefault("HEATMAP_WIDTH", 2400)
	viper.SetDefault("HEATMAP_HEIGHT", 1200)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.BindEnv("ENVIRONMENT")
	env := GetStringOrDefault("ENVIRONMENT", "dev")

	// Try to read .env file for the current environment
	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // file may not exist

	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			if err := mergeConfigFile(f.Value.String()); err != nil {
				return nil, err
			}
		}
	}

	// Environment variables override file values
	viper.AutomaticEnv()
	for _, key := range []string{
		"MARGIN_DB", "REDUCER", "COMMENT_PREFIX", "OUTPUT_DIR", "METRICS_FILE",
		"SUMMARY_FILE", "SEARCH_ROOT", "FOLDER_PATTERN", "HEATMAP_WIDTH",
		"HEATMAP_HEIGHT", "LOG_LEVEL",
	} {
		viper.BindEnv(key)
	}

	// Flags override everything when set
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := viper.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var config Config
	config.Env = env
	config.Analysis.MarginDB = viper.GetFloat64("MARGIN_DB")
	config.Analysis.Reducer = viper.GetString("REDUCER")
	config.Analysis.CommentPrefix = viper.GetString("COMMENT_PREFIX")
	config.Output.Dir = viper.GetString("OUTPUT_DIR")
	config.Output.MetricsFile = viper.GetString("METRICS_FILE")
	config.Output.SummaryFile = viper.GetString("SUMMARY_FILE")
	config.Discovery.SearchRoot = viper.GetString("SEARCH_ROOT")
	config.Discovery.FolderPattern = viper.GetString("FOLDER_PATTERN")
	config.Heatmap.Width = viper.GetInt("HEATMAP_WIDTH")
	config.Heatmap.Height = viper.GetInt("HEATMAP_HEIGHT")
	config.Log.Level = viper.GetString("LOG_LEVEL")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("env", config.Env).
		Float64("margin_db", config.Analysis.MarginDB).
		Str("reducer", config.Analysis.Reducer).
		Str("output_dir", config.Output.Dir).
		Msg("Configuration loaded")

	return &config, nil
}

func mergeConfigFile(path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || ext == "yml" {
		ext = "yaml"
	}
	viper.SetConfigFile(path)
	viper.SetConfigType(ext)
	if err := viper.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	if math.IsNaN(c.Analysis.MarginDB) || math.IsInf(c.Analysis.MarginDB, 0) || c.Analysis.MarginDB < 0 {
		return fmt.Errorf("margin_db must be a finite non-negative number, got %v", c.Analysis.MarginDB)
	}
	if _, err := detect.ParseReducer(c.Analysis.Reducer); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.Analysis.CommentPrefix) != 1 {
		return fmt.Errorf("comment_prefix must be a single character, got %q", c.Analysis.CommentPrefix)
	}
	if c.CommentRune() == ',' {
		return fmt.Errorf("comment_prefix cannot be the column delimiter")
	}
	if c.Heatmap.Width < 200 || c.Heatmap.Height < 100 {
		return fmt.Errorf("heatmap must be at least 200x100 pixels, got %dx%d", c.Heatmap.Width, c.Heatmap.Height)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.Log.Level, err)
	}
	return nil
}

// CommentRune returns the comment marker as a rune
func (c *Config) CommentRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Analysis.CommentPrefix)
	return r
}

// Reducer returns the validated reducer
func (c *Config) Reducer() detect.Reducer {
	r, err := detect.ParseReducer(c.Analysis.Reducer)
	if err != nil {
		return detect.ReducerMean
	}
	return r
}

// LogLevel returns the configured zerolog level, defaulting to info
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// GetStringOrDefault returns the value from viper if set, otherwise returns the default
func GetStringOrDefault(envVar, def string) string {
	if viper.IsSet(envVar) {
		return viper.GetString(envVar)
	}
	return def
}
