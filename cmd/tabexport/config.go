package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-tabular-export/export"
	"gopkg.in/yaml.v3"
)

// Config holds CLI settings. Flags override file values.
type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Engine selects the data source: "sql" (database/sql) or "bun".
	Engine string `yaml:"engine"`
	Format string `yaml:"format"`
	// OutputDir receives files named by Filename when no explicit output is given.
	OutputDir     string        `yaml:"output_dir"`
	Filename      string        `yaml:"filename"`
	StrictColumns bool          `yaml:"strict_columns"`
	PreviewLimit  int           `yaml:"preview_limit"`
	CSV           CSVConfig     `yaml:"csv"`
	JSON          JSONConfig    `yaml:"json"`
	Log           LogConfig     `yaml:"log"`
	Metrics       MetricsConfig `yaml:"metrics"`
}

type CSVConfig struct {
	Delimiter string `yaml:"delimiter"`
	NoHeader  bool   `yaml:"no_header"`
}

type JSONConfig struct {
	// Indent is applied to array output; "none" writes compact JSON.
	Indent string `yaml:"indent"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type MetricsConfig struct {
	// Textfile is a Prometheus textfile collector path written after each run.
	Textfile  string `yaml:"textfile"`
	Namespace string `yaml:"namespace"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Driver:       "sqlite",
		Engine:       "sql",
		Format:       string(export.FormatCSV),
		Filename:     export.DefaultFilenamePattern,
		PreviewLimit: 20,
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Metrics: MetricsConfig{
			Namespace: "tabexport",
		},
	}
}

// LoadConfig reads a YAML file over the defaults, expanding ${VAR} references
// from the environment.
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that every command relies on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Driver) == "" {
		return fmt.Errorf("driver is required")
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("dsn is required")
	}
	switch c.Engine {
	case "", "sql", "bun":
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	if d := c.CSV.Delimiter; d != "" && len([]rune(d)) != 1 {
		return fmt.Errorf("csv delimiter must be a single character, got %q", d)
	}
	return nil
}

// RenderOptions translates output settings for the exporter.
func (c Config) RenderOptions() export.RenderOptions {
	opts := export.RenderOptions{}
	if c.CSV.Delimiter != "" {
		opts.CSV.Delimiter = []rune(c.CSV.Delimiter)[0]
	}
	if c.CSV.NoHeader {
		opts.CSV.HeadersSet = true
	}
	switch c.JSON.Indent {
	case "":
	case "none":
		opts.JSON.IndentSet = true
	default:
		opts.JSON.Indent = c.JSON.Indent
		opts.JSON.IndentSet = true
	}
	return opts
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
