package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/samber/lo"

	"video-transcriber/internal/config"
	"video-transcriber/internal/domain"
	"video-transcriber/internal/transcode"
)

// Diagnostic item IDs.
const (
	ItemFFmpeg     = "tool_ffmpeg"
	ItemMP3Encoder = "encoder_libmp3lame"
	ItemAPIBaseURL = "api_base_url"
	ItemWorkDir    = "work_dir"
)

// Checker validates the ffmpeg install, the service URL and the work directory.
type Checker struct {
	lookPath   func(string) (string, error)
	probe      func(ctx context.Context, ffmpegPath string) (*transcode.Engine, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		probe:      transcode.Probe,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(ctx context.Context, settings domain.Settings) domain.DiagnosticReport {
	settings = config.Normalize(settings)

	tool := c.checkTool(settings.FFmpegPath)
	items := []domain.DiagnosticItem{
		tool,
		c.checkEncoder(ctx, settings.FFmpegPath, tool.Status == domain.DiagnosticStatusPass),
		c.checkAPIBaseURL(settings.APIBaseURL),
		c.checkWorkDir(settings.WorkDir),
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: lo.SomeBy(items, func(item domain.DiagnosticItem) bool {
			return item.Status == domain.DiagnosticStatusFail
		}),
		Items: items,
	}
}

// checkTool verifies the configured ffmpeg executable resolves.
func (c *Checker) checkTool(ffmpegPath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: ItemFFmpeg, Name: "ffmpeg"}

	path, err := c.lookPath(ffmpegPath)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Tool not found: %s", ffmpegPath)
		item.Hint = "Install ffmpeg and ensure it is on PATH, or set its full path in settings."
		item.Fixable = true
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkEncoder verifies ffmpeg was built with the MP3 encoder.
func (c *Checker) checkEncoder(ctx context.Context, ffmpegPath string, toolFound bool) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: ItemMP3Encoder, Name: "MP3 encoder"}

	if !toolFound {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Skipped: ffmpeg is not available."
		item.Hint = "Resolve the ffmpeg check first."
		return item
	}

	engine, err := c.probe(ctx, ffmpegPath)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		var convErr *transcode.ConversionError
		if errors.As(err, &convErr) {
			item.Message = convErr.Message
		} else {
			item.Message = err.Error()
		}
		item.Hint = "Install an ffmpeg build that includes libmp3lame."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("libmp3lame available (%s)", engine.Version)
	return item
}

// checkAPIBaseURL validates the service root without contacting it.
func (c *Checker) checkAPIBaseURL(baseURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: ItemAPIBaseURL, Name: "API base URL"}

	if err := config.ValidateBaseURL(baseURL); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = err.Error()
		item.Hint = "Use an absolute http:// or https:// URL, for example http://localhost:3333."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Uploads go to %s/videos", baseURL)
	return item
}

// checkWorkDir validates work directory existence and write access.
func (c *Checker) checkWorkDir(workDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: ItemWorkDir, Name: "Work directory"}

	if strings.TrimSpace(workDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Work directory is empty."
		item.Hint = "Set a directory where temporary conversion files can be written."
		return item
	}

	if err := c.mkdirAll(workDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create work directory: %s", workDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		item.Fixable = true
		return item
	}

	tmpFile, err := c.createTemp(workDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Work directory is not writable: %s", workDir)
		item.Hint = "Choose a writable directory for temporary conversion files."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", workDir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	probe func(ctx context.Context, ffmpegPath string) (*transcode.Engine, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		probe:      probe,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
