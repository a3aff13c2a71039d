package command

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-tabular-export/export"
	"gopkg.in/yaml.v3"
)

// BatchRequest describes one table export in a batch file.
type BatchRequest struct {
	Table  string        `yaml:"table" json:"table"`
	Format export.Format `yaml:"format" json:"format"`
	// Output is a file path; empty uses the executor's filename pattern.
	Output string `yaml:"output" json:"output"`
}

// BatchLoader loads batch requests from a source.
type BatchLoader func(ctx context.Context) ([]BatchRequest, error)

// BatchExecutor runs a single batch entry.
type BatchExecutor interface {
	ExecuteTable(ctx context.Context, req BatchRequest) error
}

// BatchExecutorFunc adapts a function to a BatchExecutor.
type BatchExecutorFunc func(ctx context.Context, req BatchRequest) error

func (f BatchExecutorFunc) ExecuteTable(ctx context.Context, req BatchRequest) error {
	if f == nil {
		return errors.New("batch executor is required", errors.CategoryInternal).
			WithTextCode("BATCH_EXECUTOR_NIL")
	}
	return f(ctx, req)
}

// BatchLimits bounds batch execution throughput.
type BatchLimits struct {
	MaxRequests int
	MinInterval time.Duration
}

// BatchCommand exports several tables in sequence.
type BatchCommand struct {
	executor  BatchExecutor
	loader    BatchLoader
	cliConfig gcmd.CLIConfig
	limits    BatchLimits
	sleep     func(time.Duration)
}

// BatchCLIConfig is the default CLI metadata for batch exports.
func BatchCLIConfig() gcmd.CLIConfig {
	return gcmd.CLIConfig{
		Path:        []string{"batch"},
		Description: "Export every table listed in a YAML or JSON batch file",
		Group:       "exports",
	}
}

// BatchOption customizes batch commands.
type BatchOption func(*BatchCommand)

// WithBatchCLIConfig overrides CLI configuration.
func WithBatchCLIConfig(cfg gcmd.CLIConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cliConfig = cfg
	}
}

// WithBatchLimits overrides batch execution limits.
func WithBatchLimits(limits BatchLimits) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.limits = limits
	}
}

// WithBatchLoader sets the loader used when no batch file is given.
func WithBatchLoader(loader BatchLoader) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.loader = loader
	}
}

// NewBatchCommand creates a batch export command.
func NewBatchCommand(executor BatchExecutor, opts ...BatchOption) *BatchCommand {
	cmd := &BatchCommand{
		executor:  executor,
		cliConfig: BatchCLIConfig(),
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// CLIOptions returns CLI configuration.
func (c *BatchCommand) CLIOptions() gcmd.CLIConfig {
	if c == nil {
		return gcmd.CLIConfig{}
	}
	return c.cliConfig
}

// Run executes the requests read from the file at from, or from the loader
// when from is empty. It stops at the first failure and reports how many
// entries completed.
func (c *BatchCommand) Run(ctx context.Context, from string) (int, error) {
	if c == nil {
		return 0, errors.New("batch command is nil", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	if c.executor == nil {
		return 0, errors.New("batch executor is required", errors.CategoryValidation).
			WithTextCode("EXECUTOR_REQUIRED")
	}

	requests, err := c.loadRequests(ctx, from)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, req := range requests {
		if c.limits.MaxRequests > 0 && count >= c.limits.MaxRequests {
			break
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if strings.TrimSpace(req.Table) == "" {
			return count, errors.New("batch entry table is required", errors.CategoryValidation).
				WithTextCode("TABLE_REQUIRED")
		}
		if err := c.executor.ExecuteTable(ctx, req); err != nil {
			return count, err
		}
		count++
		if c.limits.MinInterval > 0 && c.sleep != nil {
			c.sleep(c.limits.MinInterval)
		}
	}
	return count, nil
}

func (c *BatchCommand) loadRequests(ctx context.Context, from string) ([]BatchRequest, error) {
	if strings.TrimSpace(from) != "" {
		return LoadBatchRequests(from)
	}
	if c.loader == nil {
		return nil, errors.New("batch loader not configured", errors.CategoryValidation).
			WithTextCode("LOADER_REQUIRED")
	}
	return c.loader(ctx)
}

// LoadBatchRequests reads a YAML or JSON list of batch requests.
func LoadBatchRequests(path string) ([]BatchRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "read batch file failed").
			WithTextCode("BATCH_FILE_READ")
	}

	var requests []BatchRequest
	if err := yaml.Unmarshal(content, &requests); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "batch file invalid").
			WithTextCode("BATCH_FILE_INVALID")
	}
	return requests, nil
}

// FileExecutor exports tables into files.
type FileExecutor struct {
	Handler *ExportTableHandler
	Source  export.DataSource
	// Dir is prepended to relative output paths.
	Dir string
	// Pattern names outputs that have no explicit path.
	Pattern string
	// DefaultFormat applies to entries without a format.
	DefaultFormat export.Format
	Now           func() time.Time
}

// ExecuteTable exports one table and writes the file.
func (e *FileExecutor) ExecuteTable(ctx context.Context, req BatchRequest) error {
	if e == nil || e.Handler == nil {
		return errors.New("export handler is required", errors.CategoryInternal).
			WithTextCode("HANDLER_REQUIRED")
	}
	format := req.Format
	if format == "" {
		format = e.DefaultFormat
	}

	var out []byte
	if err := e.Handler.Execute(ctx, ExportTable{Source: e.Source, Table: req.Table, Format: format, Result: &out}); err != nil {
		return err
	}

	path, err := e.outputPath(req.Table, format, req.Output)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "write export file failed").
			WithTextCode("OUTPUT_WRITE")
	}
	return nil
}

func (e *FileExecutor) outputPath(table string, format export.Format, output string) (string, error) {
	if output == "" {
		now := time.Now()
		if e.Now != nil {
			now = e.Now()
		}
		name, err := export.RenderFilename(e.Pattern, table, format, now)
		if err != nil {
			return "", errors.Wrap(err, errors.CategoryValidation, "invalid filename pattern").
				WithTextCode("FILENAME_INVALID")
		}
		output = name
	}
	if e.Dir != "" && !filepath.IsAbs(output) {
		output = filepath.Join(e.Dir, output)
	}
	return output, nil
}
