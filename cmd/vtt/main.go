// Command vtt converts one video to audio, uploads it and requests its
// transcription from the video service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/wailsapp/wails/v2/pkg/logger"

	"video-transcriber/internal/artifact"
	"video-transcriber/internal/config"
	"video-transcriber/internal/diagnostics"
	"video-transcriber/internal/domain"
	"video-transcriber/internal/selection"
	"video-transcriber/internal/transcode"
	"video-transcriber/internal/workflow"
)

type options struct {
	input      string
	prompt     string
	configPath string
	apiBaseURL string
	ffmpegPath string
	workDir    string
	check      bool
	saveConfig bool
	verbose    bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	out := newConsole(os.Stderr)

	opts, set, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		out.fail("%v", err)
		return 2
	}

	settings, err := resolveSettings(opts, set)
	if err != nil {
		out.fail("%v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.saveConfig {
		if err := config.SaveINI(opts.configPath, settings); err != nil {
			out.fail("%v", err)
			return 1
		}
		out.ok("settings written to %s", opts.configPath)
		return 0
	}
	if opts.check {
		return runCheck(ctx, out, settings)
	}
	if opts.input == "" {
		out.fail("missing --input/-i video path")
		return 2
	}

	file, err := selection.ReadFile(opts.input)
	if err != nil {
		out.fail("%v", err)
		return 2
	}
	if !selection.IsRecommended(file) {
		out.warn("%s (%s) is not an MP4 video; conversion may fail", file.Name, file.MediaType)
	}

	log := logger.NewDefaultLogger()
	var wfLog logger.Logger
	if opts.verbose {
		wfLog = log
	}

	var artifactID string
	ctrl := workflow.New(workflow.Options{
		Converter: transcode.NewAdapter(transcode.NewProvider(settings.FFmpegPath, wfLog), settings.WorkDir, wfLog),
		Artifacts: artifact.NewClient(settings.APIBaseURL, nil),
		OnCompletion: func(id string) {
			artifactID = id
		},
		OnTransition: func(snap workflow.Snapshot) {
			if !snap.Failed() {
				out.info("%s", snap.Label)
			}
		},
		OnProgress: func(_ string, p float64) {
			out.progress(p)
		},
		Logger: wfLog,
	})

	if err := ctrl.Select(file); err != nil {
		out.fail("%v", err)
		return 1
	}

	out.info("selected %s (%.1f MB)", file.Name, float64(file.Size)/(1<<20))
	if err := ctrl.Submit(ctx, opts.prompt); err != nil {
		var runErr *workflow.RunError
		if errors.As(err, &runErr) {
			out.fail("failed while %s: %v", runErr.Phase, runErr.Err)
			var convErr *transcode.ConversionError
			if opts.verbose && errors.As(err, &convErr) && convErr.CommandLog.Stderr != "" {
				fmt.Fprintln(os.Stderr, convErr.CommandLog.Stderr)
			}
			return 1
		}
		out.fail("%v", err)
		return 1
	}

	out.ok("transcription requested for video %s", artifactID)
	fmt.Println(artifactID)
	return 0
}

// parseFlags returns the options and the names of flags set explicitly.
func parseFlags(args []string) (options, map[string]bool, error) {
	var opts options
	fs := flag.NewFlagSet("vtt", flag.ContinueOnError)
	fs.StringVar(&opts.input, "input", "", "Input video file path (-i)")
	fs.StringVar(&opts.input, "i", "", "Input video file path")
	fs.StringVar(&opts.prompt, "prompt", "", "Transcription prompt, e.g. keywords separated by commas (-p)")
	fs.StringVar(&opts.prompt, "p", "", "Transcription prompt")
	fs.StringVar(&opts.configPath, "config", defaultConfigPath(), "INI configuration file")
	fs.StringVar(&opts.apiBaseURL, "api", "", "Video service base URL (overrides [api] base_url)")
	fs.StringVar(&opts.ffmpegPath, "ffmpeg", "", "ffmpeg binary (overrides [ffmpeg] path)")
	fs.StringVar(&opts.workDir, "workdir", "", "Temporary working directory (overrides [ffmpeg] work_dir)")
	fs.BoolVar(&opts.check, "check", false, "Run environment diagnostics and exit")
	fs.BoolVar(&opts.saveConfig, "save-config", false, "Write the effective settings to the config file and exit")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	if opts.input == "" && fs.NArg() > 0 {
		opts.input = fs.Arg(0)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return opts, set, nil
}

// resolveSettings layers explicitly set flags over the INI file over defaults.
func resolveSettings(opts options, set map[string]bool) (domain.Settings, error) {
	settings, err := config.LoadINI(opts.configPath)
	if err != nil {
		return domain.Settings{}, err
	}
	if set["api"] {
		settings.APIBaseURL = opts.apiBaseURL
	}
	if set["ffmpeg"] {
		settings.FFmpegPath = opts.ffmpegPath
	}
	if set["workdir"] {
		settings.WorkDir = opts.workDir
	}

	settings = config.Normalize(settings)
	if err := config.Validate(settings); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func runCheck(ctx context.Context, out *console, settings domain.Settings) int {
	report := diagnostics.NewChecker().Run(ctx, settings)
	for _, item := range report.Items {
		if item.Status == domain.DiagnosticStatusPass {
			out.ok("%s: %s", item.Name, item.Message)
			continue
		}
		out.fail("%s: %s", item.Name, item.Message)
		if item.Hint != "" {
			out.warn("%s", item.Hint)
		}
	}
	if report.HasFailures {
		return 1
	}
	return 0
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".video-transcriber", "vtt.ini")
}
