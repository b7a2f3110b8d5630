package transcode

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// mp3Encoder is the encoder every conversion depends on.
const mp3Encoder = "libmp3lame"

// Engine is an initialized ffmpeg installation able to encode MP3.
type Engine struct {
	Path    string
	Version string
	runner  commandRunner
}

// Provider hands out the process-wide Engine, initializing it on first use.
// Concurrent first callers wait on the same initialization. A successful
// engine is kept for the life of the process; a failed one is not cached.
type Provider struct {
	ffmpegPath string
	newEngine  func(ctx context.Context) (*Engine, error)
	log        logger.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	engine *Engine
}

// NewProvider builds a provider that probes the given ffmpeg binary.
func NewProvider(ffmpegPath string, log logger.Logger) *Provider {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	p := &Provider{ffmpegPath: ffmpegPath, log: log}
	p.newEngine = func(ctx context.Context) (*Engine, error) {
		return Probe(ctx, p.ffmpegPath)
	}
	return p
}

// Probe resolves ffmpegPath and verifies it can encode MP3 without caching
// the result. Diagnostics use it directly.
func Probe(ctx context.Context, ffmpegPath string) (*Engine, error) {
	return probeEngine(ctx, &execRunner{}, exec.LookPath, ffmpegPath)
}

// Engine returns the shared engine, creating it if needed.
func (p *Provider) Engine(ctx context.Context) (*Engine, error) {
	if e := p.cached(); e != nil {
		return e, nil
	}

	v, err, shared := p.group.Do("engine", func() (interface{}, error) {
		// A caller that lost the race to an already finished init lands here.
		if e := p.cached(); e != nil {
			return e, nil
		}
		e, err := p.newEngine(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.engine = e
		p.mu.Unlock()
		if p.log != nil {
			p.log.Info(fmt.Sprintf("transcode engine ready: %s (%s)", e.Path, e.Version))
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if shared && p.log != nil {
		p.log.Debug("transcode engine initialization shared between callers")
	}
	return v.(*Engine), nil
}

func (p *Provider) cached() *Engine {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.engine
}

// probeEngine resolves ffmpeg and verifies the MP3 encoder is compiled in.
func probeEngine(ctx context.Context, runner commandRunner, lookPath func(string) (string, error), ffmpegPath string) (*Engine, error) {
	path, err := lookPath(ffmpegPath)
	if err != nil {
		return nil, &ConversionError{
			Op:      "init",
			Message: fmt.Sprintf("ffmpeg not found: %s", ffmpegPath),
			Err:     err,
		}
	}

	args := []string{"-hide_banner", "-encoders"}
	res, err := runner.Run(ctx, nil, path, args...)
	log := CommandLog{Command: path, Args: args, ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}
	if err != nil {
		return nil, &ConversionError{
			Op:         "init",
			Message:    "cannot list ffmpeg encoders",
			CommandLog: log,
			Err:        err,
		}
	}
	if !hasEncoder(res.Stdout, mp3Encoder) {
		return nil, &ConversionError{
			Op:         "init",
			Message:    fmt.Sprintf("ffmpeg was built without %s", mp3Encoder),
			CommandLog: log,
		}
	}

	version := "unknown"
	vres, err := runner.Run(ctx, nil, path, "-hide_banner", "-version")
	if err == nil {
		if line, _, _ := strings.Cut(vres.Stdout, "\n"); strings.TrimSpace(line) != "" {
			version = strings.TrimSpace(line)
		}
	}

	return &Engine{Path: path, Version: version, runner: runner}, nil
}

// hasEncoder scans `ffmpeg -encoders` output for an encoder name.
func hasEncoder(listing, name string) bool {
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

// NewProviderForTests constructs a provider with an injectable engine factory.
func NewProviderForTests(newEngine func(ctx context.Context) (*Engine, error)) *Provider {
	return &Provider{ffmpegPath: "ffmpeg", newEngine: newEngine}
}

// NewEngineForTests builds an engine that executes through runner.
func NewEngineForTests(path string, runner commandRunner) *Engine {
	return &Engine{Path: path, Version: "test", runner: runner}
}
