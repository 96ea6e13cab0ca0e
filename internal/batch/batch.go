// Package batch converts a directory tree of WordPress post bodies.
//
// Every file with the configured extension under the source directory is
// converted to Markdown and written to the same relative path under the
// destination directory, with an .md extension. Files are converted
// concurrently against a single shared converter.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tesh254/wp2md/internal/api"
	"github.com/tesh254/wp2md/internal/logging"
	"github.com/tesh254/wp2md/internal/translator"
)

// Config holds configuration options for a batch run.
type Config struct {
	// MaxConcurrent limits how many files are converted at the same time.
	MaxConcurrent int
	// Extension selects the input files, including the leading dot.
	Extension string
	// Options is handed to the converter for every file.
	Options translator.Options
	// Verbose prints banners and a result table to Out.
	Verbose bool
	// Out receives the verbose output. Defaults to os.Stdout.
	Out io.Writer
}

// DefaultConfig returns a configuration with reasonable values.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent: 4,
		Extension:     ".html",
		Out:           os.Stdout,
	}
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Source   string
	Target   string
	Bytes    int
	Cached   bool
	Duration time.Duration
	Err      error
}

// Summary counts the outcomes of a run.
type Summary struct {
	Converted int
	Cached    int
	Failed    int
}

// Runner converts every matching file below SrcDir into DstDir.
type Runner struct {
	// RunID tags the log lines of one run.
	RunID  string
	SrcDir string
	DstDir string
	Config *Config
	// Results holds one entry per file, sorted by source path once Run returns.
	Results []FileResult

	api        *api.API
	requestSem chan struct{}
	mutex      sync.Mutex
}

// New creates a runner. If config is nil, DefaultConfig is used.
func New(a *api.API, srcDir, dstDir string, config *Config) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	if config.Extension == "" {
		config.Extension = ".html"
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}

	return &Runner{
		RunID:      uuid.New().String(),
		SrcDir:     srcDir,
		DstDir:     dstDir,
		Config:     config,
		api:        a,
		requestSem: make(chan struct{}, config.MaxConcurrent),
	}
}

// Discover lists the input files below SrcDir relative to it, sorted.
func (r *Runner) Discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.SrcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), r.Config.Extension) {
			return nil
		}
		rel, err := filepath.Rel(r.SrcDir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", r.SrcDir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run converts every discovered file. A failing file is logged and counted
// but does not stop the run; only discovery errors and cancellation are
// returned as errors.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	logger := logging.FromContext(ctx).With("run", r.RunID)
	ctx = logging.WithLogger(ctx, logger)

	r.displayInitBanner()

	files, err := r.Discover()
	if err != nil {
		r.displayError(err)
		return nil, err
	}
	logger.Info("starting batch", "src", r.SrcDir, "dst", r.DstDir, "files", len(files))

	var wg sync.WaitGroup
	for _, rel := range files {
		if ctx.Err() != nil {
			break
		}

		r.requestSem <- struct{}{}
		wg.Add(1)
		go func(rel string) {
			defer wg.Done()
			defer func() { <-r.requestSem }()

			res := r.convertFile(ctx, rel)
			if res.Err != nil {
				logger.Error("conversion failed", "file", rel, "err", res.Err)
			} else {
				logger.Debug("converted", "file", rel, "cached", res.Cached, "duration", res.Duration)
			}

			r.mutex.Lock()
			r.Results = append(r.Results, res)
			r.mutex.Unlock()
		}(rel)
	}
	wg.Wait()

	sort.Slice(r.Results, func(i, j int) bool { return r.Results[i].Source < r.Results[j].Source })

	summary := &Summary{}
	for _, res := range r.Results {
		switch {
		case res.Err != nil:
			summary.Failed++
		case res.Cached:
			summary.Cached++
		default:
			summary.Converted++
		}
	}

	r.displayResults()
	r.displaySummary(summary)
	logger.Info("batch finished", "converted", summary.Converted, "cached", summary.Cached, "failed", summary.Failed)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) convertFile(ctx context.Context, rel string) FileResult {
	start := time.Now()
	target := TargetPath(r.DstDir, rel)
	res := FileResult{Source: rel, Target: target}

	source := filepath.Join(r.SrcDir, rel)
	content, err := os.ReadFile(source)
	if err != nil {
		res.Err = fmt.Errorf("failed to read: %w", err)
		return res
	}

	key, err := filepath.Abs(source)
	if err != nil {
		res.Err = fmt.Errorf("failed to resolve %s: %w", source, err)
		return res
	}

	out, err := r.api.Render(ctx, key, string(content), r.Config.Options)
	if err != nil {
		res.Err = err
		return res
	}

	if err := writeFile(target, out.Markdown); err != nil {
		res.Err = err
		return res
	}

	res.Bytes = len(out.Markdown)
	res.Cached = out.Cached
	res.Duration = time.Since(start)
	return res
}

// TargetPath maps a source path relative to the source directory onto the
// Markdown file it is written to.
func TargetPath(dstDir, rel string) string {
	return filepath.Join(dstDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".md")
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Err returns an error naming the failed files, or nil.
func (r *Runner) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Source, res.Err))
		}
	}
	return errors.Join(errs...)
}
