// Package workflow sequences one conversion, one upload and one
// transcription request per run, gated by a strictly forward phase.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/logger"

	"video-transcriber/internal/domain"
	"video-transcriber/internal/transcode"
)

var (
	// ErrNotIdle is returned when selection or submission is attempted outside idle.
	ErrNotIdle = errors.New("workflow is not idle")

	// ErrNoFileSelected is returned when submission is attempted without a file.
	ErrNoFileSelected = errors.New("no file selected")

	// ErrRunInFlight is returned when reset is requested while a step is running.
	ErrRunInFlight = errors.New("run in flight")
)

// Converter turns a selected video into audio.
type Converter interface {
	Convert(ctx context.Context, req domain.TranscodeRequest, onProgress func(float64)) (domain.TranscodeResult, error)
}

// ArtifactService uploads audio and requests its transcription.
type ArtifactService interface {
	Submit(ctx context.Context, audio domain.TranscodeResult) (domain.Artifact, error)
	RequestTranscription(ctx context.Context, artifactID string, prompt string) error
}

// Failure records where a run halted. The phase is left where the step failed.
type Failure struct {
	Phase   domain.Phase `json:"phase"`
	Kind    ErrorKind    `json:"kind"`
	Message string       `json:"message"`
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	RunID      string       `json:"runId,omitempty"`
	Phase      domain.Phase `json:"phase"`
	Label      string       `json:"label"`
	Failure    *Failure     `json:"failure,omitempty"`
	ArtifactID string       `json:"artifactId,omitempty"`
	Prompt     string       `json:"prompt,omitempty"`
	FileName   string       `json:"fileName,omitempty"`
}

// Failed reports whether the run halted on an error.
func (s Snapshot) Failed() bool {
	return s.Failure != nil
}

// RunError is returned by Submit when a step fails.
type RunError struct {
	RunID string
	Phase domain.Phase
	Kind  ErrorKind
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s failed at %s: %v", e.RunID, e.Phase, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Options configures a Controller.
type Options struct {
	// Converter and Artifacts are required.
	Converter Converter
	Artifacts ArtifactService

	// OnCompletion fires once per successful run with the artifact id.
	OnCompletion func(artifactID string)

	// OnTransition observes every phase change, failures and resets.
	OnTransition func(Snapshot)

	// OnProgress receives best-effort conversion progress in [0,1].
	OnProgress func(runID string, progress float64)

	Logger logger.Logger
}

func (o *Options) validate() {
	if o.Converter == nil {
		panic("workflow: Converter is required")
	}
	if o.Artifacts == nil {
		panic("workflow: Artifacts is required")
	}
}

// Controller owns the selected file and the phase of the current run.
// At most one run is in flight; acceptance is gated on PhaseIdle.
type Controller struct {
	opts Options

	mu         sync.RWMutex
	phase      domain.Phase
	runID      string
	file       *domain.SelectedFile
	prompt     string
	artifactID string
	failure    *Failure
}

// New creates a controller in idle state. It panics if required options are nil.
func New(opts Options) *Controller {
	opts.validate()
	return &Controller{
		opts:  opts,
		phase: domain.PhaseIdle,
	}
}

// Select replaces the selected file. Only accepted while idle.
func (c *Controller) Select(file domain.SelectedFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseIdle {
		return ErrNotIdle
	}
	c.file = &file
	return nil
}

// Submit starts a run with the prompt as typed at submission time and blocks
// until it completes or halts. Outside idle, or without a file, it is a
// no-op. Steps are not cancellable: ctx only supplies values.
func (c *Controller) Submit(ctx context.Context, prompt string) error {
	_, done, err := c.Start(ctx, prompt)
	if err != nil {
		return err
	}
	return <-done
}

// Start accepts a run like Submit but executes it in the background. The
// returned channel yields the run outcome once.
func (c *Controller) Start(ctx context.Context, prompt string) (Snapshot, <-chan error, error) {
	runID, file, snap, err := c.accept(prompt)
	if err != nil {
		return Snapshot{}, nil, err
	}

	c.infof("run %s: accepted %s (%d bytes)", runID, file.Name, file.Size)
	c.notify(snap)

	done := make(chan error, 1)
	go func() {
		done <- c.run(context.WithoutCancel(ctx), runID, file, prompt)
	}()
	return snap, done, nil
}

// accept is the check-and-set that admits at most one run.
func (c *Controller) accept(prompt string) (string, domain.SelectedFile, Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseIdle {
		return "", domain.SelectedFile{}, Snapshot{}, ErrNotIdle
	}
	if c.file == nil {
		return "", domain.SelectedFile{}, Snapshot{}, ErrNoFileSelected
	}
	file := *c.file
	c.runID = uuid.New().String()
	c.prompt = prompt
	c.artifactID = ""
	c.failure = nil
	c.phase = domain.PhaseConverting
	return c.runID, file, c.snapshotLocked(), nil
}

// run executes the three steps in order.
func (c *Controller) run(ctx context.Context, runID string, file domain.SelectedFile, prompt string) error {
	onProgress := func(p float64) {
		if c.opts.OnProgress != nil {
			c.opts.OnProgress(runID, p)
		}
	}

	audio, err := c.opts.Converter.Convert(ctx, transcode.NewRequest(file), onProgress)
	if err != nil {
		return c.fail(runID, domain.PhaseConverting, err)
	}
	if err := c.advance(runID, domain.PhaseConverting, domain.PhaseUploading, ""); err != nil {
		return err
	}

	artifact, err := c.opts.Artifacts.Submit(ctx, audio)
	if err != nil {
		return c.fail(runID, domain.PhaseUploading, err)
	}
	if err := c.advance(runID, domain.PhaseUploading, domain.PhaseTranscribing, artifact.ID); err != nil {
		return err
	}

	if err := c.opts.Artifacts.RequestTranscription(ctx, artifact.ID, prompt); err != nil {
		return c.fail(runID, domain.PhaseTranscribing, err)
	}
	if err := c.advance(runID, domain.PhaseTranscribing, domain.PhaseCompleted, ""); err != nil {
		return err
	}

	c.infof("run %s: completed with artifact %s", runID, artifact.ID)
	if c.opts.OnCompletion != nil {
		c.opts.OnCompletion(artifact.ID)
	}
	return nil
}

// advance moves the run from one phase to the next.
func (c *Controller) advance(runID string, from, to domain.Phase, artifactID string) error {
	c.mu.Lock()
	if c.runID != runID || c.phase != from || !isValidTransition(from, to) {
		current := c.phase
		c.mu.Unlock()
		return fmt.Errorf("invalid transition: %s -> %s (current %s)", from, to, current)
	}
	c.phase = to
	if artifactID != "" {
		c.artifactID = artifactID
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.infof("run %s: %s -> %s", runID, from, to)
	c.notify(snap)
	return nil
}

// fail parks the run in phase and records the failure.
func (c *Controller) fail(runID string, phase domain.Phase, err error) error {
	kind := kindFor(phase)
	c.mu.Lock()
	if c.runID == runID {
		c.failure = &Failure{Phase: phase, Kind: kind, Message: err.Error()}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.opts.Logger != nil {
		c.opts.Logger.Error(fmt.Sprintf("run %s: %s failed: %v", runID, phase, err))
	}
	c.notify(snap)
	return &RunError{RunID: runID, Phase: phase, Kind: kind, Err: err}
}

// Reset clears the selection, prompt and outcome and returns to idle.
// It is refused while a step is running.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if isStep(c.phase) && c.failure == nil {
		c.mu.Unlock()
		return ErrRunInFlight
	}
	c.phase = domain.PhaseIdle
	c.runID = ""
	c.file = nil
	c.prompt = ""
	c.artifactID = ""
	c.failure = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Phase returns the current phase.
func (c *Controller) Phase() domain.Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// IsRunning reports whether a step is in flight.
func (c *Controller) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return isStep(c.phase) && c.failure == nil
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		RunID:      c.runID,
		Phase:      c.phase,
		Label:      Label(c.phase),
		ArtifactID: c.artifactID,
		Prompt:     c.prompt,
	}
	if c.file != nil {
		snap.FileName = c.file.Name
	}
	if c.failure != nil {
		f := *c.failure
		snap.Failure = &f
	}
	return snap
}

func (c *Controller) notify(snap Snapshot) {
	if c.opts.OnTransition != nil {
		c.opts.OnTransition(snap)
	}
}

func (c *Controller) infof(format string, args ...interface{}) {
	if c.opts.Logger != nil {
		c.opts.Logger.Info(fmt.Sprintf(format, args...))
	}
}
