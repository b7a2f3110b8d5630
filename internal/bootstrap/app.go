package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"video-transcriber/internal/artifact"
	"video-transcriber/internal/config"
	"video-transcriber/internal/diagnostics"
	"video-transcriber/internal/domain"
	"video-transcriber/internal/selection"
	"video-transcriber/internal/transcode"
	"video-transcriber/internal/workflow"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Runtime event names pushed to the front end.
const (
	EventWorkflow = "workflow:event"
	EventUploaded = "video:uploaded"
)

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "MP4 video",
		Pattern:     "*.mp4",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// SelectionInfo describes the selected video to the front end.
type SelectionInfo struct {
	Name        string              `json:"name"`
	MediaType   string              `json:"mediaType"`
	Size        int64               `json:"size"`
	Container   selection.Container `json:"container"`
	Recommended bool                `json:"recommended"`
	PreviewURL  string              `json:"previewUrl"`
}

// diagnosticsRunner isolates environment checks behind an interface.
type diagnosticsRunner interface {
	Run(ctx context.Context, settings domain.Settings) domain.DiagnosticReport
}

// App wires configuration, the workflow controller, previews and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Workflow    *workflow.Controller
	Surface     *selection.Surface
	Previews    *selection.Registry
	Diagnostics domain.DiagnosticReport
	Logger      logger.Logger

	assets  fs.FS
	checker diagnosticsRunner
	events  *workflow.EventBus

	// newWorkflow builds a controller for settings; nil uses buildWorkflow.
	newWorkflow func(domain.Settings) *workflow.Controller
	engines     *transcode.Provider
	enginePath  string

	// flowMu is held across every check-then-act on the controller:
	// selection, submission, settings rebuilds and reset.
	flowMu sync.Mutex

	mu         sync.Mutex
	runtimeCtx context.Context
	emit       func(ctx context.Context, name string, data ...interface{})
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	store := config.NewJSONStore(config.DefaultPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	log := logger.NewDefaultLogger()
	checker := diagnostics.NewChecker()
	previews := selection.NewRegistry()

	a := &App{
		Settings:    settings,
		Store:       store,
		Surface:     selection.NewSurface(previews),
		Previews:    previews,
		Diagnostics: checker.Run(context.Background(), settings),
		Logger:      log,
		assets:      assets,
		checker:     checker,
		events:      workflow.NewEventBus(1000),
	}
	a.Workflow = a.workflowFor(settings)
	return a, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	return wails.Run(&options.App{
		Title:  "Video Transcriber",
		Width:  960,
		Height: 720,
		AssetServer: &assetserver.Options{
			Assets:  a.assets,
			Handler: a.assetHandler(),
		},
		Logger:     a.Logger,
		OnStartup:  a.Startup,
		OnShutdown: a.Shutdown,
		Bind:       []interface{}{a},
	})
}

// assetHandler serves previews and, without embedded assets, the frontend folder.
func (a *App) assetHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(selection.PreviewPrefix, a.Previews)
	if a.assets == nil {
		mux.Handle("/", http.FileServer(http.Dir("./frontend")))
	}
	return mux
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown drops the runtime context and revokes the preview.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = nil
	a.mu.Unlock()
	if a.Surface != nil {
		_ = a.Surface.Close()
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings persists settings and refreshes diagnostics. The workflow
// picks them up now when idle, otherwise on the next reset.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)

	a.flowMu.Lock()
	defer a.flowMu.Unlock()
	if a.controller().Phase() == domain.PhaseIdle && !a.rebuildWorkflow(normalized, true) {
		a.warn("workflow left idle during save; settings apply on next reset")
	}
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// PickVideoFile opens a native file dialog and selects the chosen video.
// A cancelled dialog returns an empty selection.
func (a *App) PickVideoFile() (SelectionInfo, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return SelectionInfo{}, err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select video",
		Filters: videoDialogFilter,
	})
	if err != nil {
		return SelectionInfo{}, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return SelectionInfo{}, nil
	}

	return a.SelectVideoFile(path)
}

// SelectVideoFile loads path and makes it the current selection.
func (a *App) SelectVideoFile(path string) (SelectionInfo, error) {
	a.flowMu.Lock()
	defer a.flowMu.Unlock()

	ctrl := a.controller()
	if ctrl.Phase() != domain.PhaseIdle {
		return SelectionInfo{}, workflow.ErrNotIdle
	}

	file, err := selection.ReadFile(path)
	if err != nil {
		return SelectionInfo{}, err
	}
	if err := ctrl.Select(file); err != nil {
		return SelectionInfo{}, err
	}

	handle := a.Surface.Replace(file)
	info := SelectionInfo{
		Name:        file.Name,
		MediaType:   file.MediaType,
		Size:        file.Size,
		Container:   selection.Identify(file.Data),
		Recommended: selection.IsRecommended(file),
		PreviewURL:  handle.URL,
	}
	if !info.Recommended {
		a.warn(fmt.Sprintf("selected %s (%s) is not an MP4 video; conversion may fail", file.Name, file.MediaType))
	}
	return info, nil
}

// SubmitVideo starts a run with prompt and returns once it is accepted.
// Progress and the outcome arrive as workflow events.
func (a *App) SubmitVideo(prompt string) (workflow.Snapshot, error) {
	a.flowMu.Lock()
	ctrl := a.controller()
	snap, done, err := ctrl.Start(context.Background(), prompt)
	a.flowMu.Unlock()
	if err != nil {
		return ctrl.Snapshot(), err
	}

	go func() {
		if err := <-done; err != nil {
			var runErr *workflow.RunError
			if !errors.As(err, &runErr) {
				a.logError(fmt.Sprintf("run %s: %v", snap.RunID, err))
			}
		}
	}()
	return snap, nil
}

// CurrentStatus returns the controller state.
func (a *App) CurrentStatus() workflow.Snapshot {
	return a.controller().Snapshot()
}

// WorkflowEvents returns all events with sequence greater than sinceSeq.
func (a *App) WorkflowEvents(sinceSeq int64) []workflow.Event {
	return a.events.Since(sinceSeq)
}

// Reset clears the selection and outcome, applying the saved settings.
func (a *App) Reset() (workflow.Snapshot, error) {
	a.flowMu.Lock()
	defer a.flowMu.Unlock()

	ctrl := a.controller()
	if err := ctrl.Reset(); err != nil {
		return ctrl.Snapshot(), err
	}
	a.Surface.Clear()

	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()
	a.rebuildWorkflow(settings, false)
	return a.controller().Snapshot(), nil
}

// rebuildWorkflow swaps in a controller for settings, optionally carrying
// over the current selection. The swap is skipped when the current
// controller is no longer idle. Callers hold flowMu.
func (a *App) rebuildWorkflow(settings domain.Settings, keepSelection bool) bool {
	next := a.workflowFor(settings)
	if keepSelection {
		if _, file, ok := a.Surface.Current(); ok {
			_ = next.Select(file)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Workflow != nil && a.Workflow.Phase() != domain.PhaseIdle {
		return false
	}
	a.Workflow = next
	return true
}

// controller returns the current workflow controller.
func (a *App) controller() *workflow.Controller {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Workflow
}

func (a *App) workflowFor(settings domain.Settings) *workflow.Controller {
	if a.newWorkflow != nil {
		return a.newWorkflow(settings)
	}
	return a.buildWorkflow(settings)
}

// buildWorkflow wires the production adapter and client. The engine
// provider is shared until the ffmpeg path changes.
func (a *App) buildWorkflow(settings domain.Settings) *workflow.Controller {
	if a.engines == nil || a.enginePath != settings.FFmpegPath {
		a.engines = transcode.NewProvider(settings.FFmpegPath, a.Logger)
		a.enginePath = settings.FFmpegPath
	}
	return workflow.New(workflow.Options{
		Converter:    transcode.NewAdapter(a.engines, settings.WorkDir, a.Logger),
		Artifacts:    artifact.NewClient(settings.APIBaseURL, nil),
		OnCompletion: a.onUploaded,
		OnTransition: a.onTransition,
		OnProgress:   a.onProgress,
		Logger:       a.Logger,
	})
}

// onTransition publishes every phase change, failure and reset.
func (a *App) onTransition(snap workflow.Snapshot) {
	a.publishEvent(workflow.StatusEvent(snap))
}

// onProgress publishes best-effort conversion progress.
func (a *App) onProgress(runID string, progress float64) {
	a.publishEvent(workflow.Event{
		RunID:    runID,
		Type:     workflow.EventTypeProgress,
		Phase:    domain.PhaseConverting,
		Progress: progress,
	})
}

// onUploaded notifies the host that the transcription was requested.
func (a *App) onUploaded(artifactID string) {
	if ctx := a.currentRuntime(); ctx != nil {
		a.emitter()(ctx, EventUploaded, artifactID)
	}
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event workflow.Event) {
	published := a.events.Publish(event)
	if ctx := a.currentRuntime(); ctx != nil {
		a.emitter()(ctx, EventWorkflow, published)
	}
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	var report domain.DiagnosticReport
	if a.checker != nil {
		report = a.checker.Run(context.Background(), settings)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = report
	}
	return a.Diagnostics
}

func (a *App) emitter() func(ctx context.Context, name string, data ...interface{}) {
	if a.emit != nil {
		return a.emit
	}
	return wailsruntime.EventsEmit
}

func (a *App) currentRuntime() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runtimeCtx
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	if ctx := a.currentRuntime(); ctx != nil {
		return ctx, nil
	}
	return nil, fmt.Errorf("runtime context is not initialized")
}

func (a *App) warn(message string) {
	if a.Logger != nil {
		a.Logger.Warning(message)
	}
}

func (a *App) logError(message string) {
	if a.Logger != nil {
		a.Logger.Error(message)
	}
}
