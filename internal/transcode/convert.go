package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tcolgate/mp3"
	"github.com/wailsapp/wails/v2/pkg/logger"

	"video-transcriber/internal/domain"
)

// Fixed encoding profile. Audio only at a low bitrate keeps uploads small.
const (
	Codec           = "libmp3lame"
	Bitrate         = "20k"
	StreamMap       = "0:a"
	OutputMediaType = "audio/mpeg"
	OutputName      = "audio.mp3"
)

// NewRequest builds the conversion request for a selected file.
func NewRequest(file domain.SelectedFile) domain.TranscodeRequest {
	return domain.TranscodeRequest{
		Source:          file.Data,
		SourceName:      file.Name,
		Codec:           Codec,
		Bitrate:         Bitrate,
		StreamMap:       StreamMap,
		OutputMediaType: OutputMediaType,
		OutputName:      OutputName,
	}
}

// engineSource yields the shared engine.
type engineSource interface {
	Engine(ctx context.Context) (*Engine, error)
}

// Adapter converts in-memory video into in-memory MP3 audio.
type Adapter struct {
	engines   engineSource
	workDir   string
	log       logger.Logger
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	writeFile func(name string, data []byte, perm os.FileMode) error
	readFile  func(name string) ([]byte, error)
}

// NewAdapter constructs the production adapter. workDir may be empty to use
// the OS temp dir.
func NewAdapter(engines *Provider, workDir string, log logger.Logger) *Adapter {
	return &Adapter{
		engines:   engines,
		workDir:   workDir,
		log:       log,
		mkdirTemp: os.MkdirTemp,
		removeAll: os.RemoveAll,
		writeFile: os.WriteFile,
		readFile:  os.ReadFile,
	}
}

// Convert runs one conversion. onProgress may be nil and may be called from
// another goroutine.
func (a *Adapter) Convert(ctx context.Context, req domain.TranscodeRequest, onProgress func(float64)) (domain.TranscodeResult, error) {
	if len(req.Source) == 0 {
		return domain.TranscodeResult{}, &ConversionError{
			Op:      "convert",
			Message: "source media is empty",
		}
	}

	engine, err := a.engines.Engine(ctx)
	if err != nil {
		var convErr *ConversionError
		if errors.As(err, &convErr) {
			return domain.TranscodeResult{}, convErr
		}
		return domain.TranscodeResult{}, &ConversionError{
			Op:      "init",
			Message: "transcode engine unavailable",
			Err:     err,
		}
	}

	tempDir, err := a.mkdirTemp(a.workDir, "video-transcriber-*")
	if err != nil {
		return domain.TranscodeResult{}, &ConversionError{
			Op:      "convert",
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}
	defer func() {
		if err := a.removeAll(tempDir); err != nil && a.log != nil {
			a.log.Warning(fmt.Sprintf("cleanup %s: %v", tempDir, err))
		}
	}()

	inPath := filepath.Join(tempDir, inputFileName(req.SourceName))
	outName := req.OutputName
	if outName == "" {
		outName = OutputName
	}
	outPath := filepath.Join(tempDir, outName)

	if err := a.writeFile(inPath, req.Source, 0o600); err != nil {
		return domain.TranscodeResult{}, &ConversionError{
			Op:      "convert",
			Message: "failed to stage source media",
			Err:     err,
		}
	}

	args := buildFFmpegArgs(req, inPath, outPath)
	tracker := newProgressTracker(onProgress)
	start := time.Now()
	res, runErr := engine.runner.Run(ctx, tracker.Line, engine.Path, args...)
	log := CommandLog{
		Command:  engine.Path,
		Args:     args,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}
	if runErr != nil {
		return domain.TranscodeResult{}, &ConversionError{
			Op:         "convert",
			Message:    "ffmpeg audio conversion failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	data, err := a.readFile(outPath)
	if err != nil {
		return domain.TranscodeResult{}, &ConversionError{
			Op:         "convert",
			Message:    "ffmpeg completed but output file is missing",
			CommandLog: log,
			Err:        err,
		}
	}

	duration, err := mp3Duration(data)
	if err != nil {
		return domain.TranscodeResult{}, &ConversionError{
			Op:         "convert",
			Message:    "ffmpeg output is not a decodable MP3 stream",
			CommandLog: log,
			Err:        err,
		}
	}

	if onProgress != nil {
		onProgress(1)
	}
	if a.log != nil {
		a.log.Info(fmt.Sprintf("converted %d bytes of video to %d bytes of audio (%s) in %s",
			len(req.Source), len(data), duration.Round(time.Millisecond), time.Since(start).Round(time.Millisecond)))
	}

	mediaType := req.OutputMediaType
	if mediaType == "" {
		mediaType = OutputMediaType
	}
	return domain.TranscodeResult{
		Data:      data,
		MediaType: mediaType,
		FileName:  outName,
		Duration:  duration,
	}, nil
}

// buildFFmpegArgs maps a request onto the ffmpeg command line.
func buildFFmpegArgs(req domain.TranscodeRequest, inPath, outPath string) []string {
	codec := req.Codec
	if codec == "" {
		codec = Codec
	}
	bitrate := req.Bitrate
	if bitrate == "" {
		bitrate = Bitrate
	}
	streamMap := req.StreamMap
	if streamMap == "" {
		streamMap = StreamMap
	}
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inPath,
		"-map", streamMap,
		"-b:a", bitrate,
		"-acodec", codec,
		outPath,
	}
}

// inputFileName keeps the source extension so ffmpeg's probing has a hint.
func inputFileName(sourceName string) string {
	ext := strings.ToLower(filepath.Ext(sourceName))
	if ext == "" || len(ext) > 6 {
		ext = ".mp4"
	}
	return "input" + ext
}

// mp3Duration decodes every frame of data and sums their durations.
func mp3Duration(data []byte) (time.Duration, error) {
	dec := mp3.NewDecoder(bytes.NewReader(data))
	var (
		frame   mp3.Frame
		skipped int
		frames  int
		total   time.Duration
	)
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if frames > 0 {
				break
			}
			if errors.Is(err, io.EOF) {
				return 0, errors.New("no MP3 frames found")
			}
			return 0, err
		}
		frames++
		total += frame.Duration()
	}
	return total, nil
}

// NewAdapterForTests constructs an adapter with injectable dependencies.
func NewAdapterForTests(
	engines engineSource,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
) *Adapter {
	return &Adapter{
		engines:   engines,
		mkdirTemp: mkdirTemp,
		removeAll: removeAll,
		writeFile: os.WriteFile,
		readFile:  os.ReadFile,
	}
}
