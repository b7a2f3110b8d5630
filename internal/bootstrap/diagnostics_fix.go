package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"video-transcriber/internal/config"
	"video-transcriber/internal/diagnostics"
	"video-transcriber/internal/domain"
)

const installCommandTimeout = 45 * time.Minute

// packageInstall is one package manager and the commands it needs.
type packageInstall struct {
	manager  string
	elevated bool
	commands [][]string
}

// ffmpegInstalls lists package managers per GOOS in preference order.
var ffmpegInstalls = map[string][]packageInstall{
	"windows": {
		{manager: "winget", commands: [][]string{{"winget", "install", "--id", "Gyan.FFmpeg", "--exact", "--accept-source-agreements", "--accept-package-agreements"}}},
		{manager: "choco", commands: [][]string{{"choco", "install", "ffmpeg", "-y"}}},
		{manager: "scoop", commands: [][]string{{"scoop", "install", "ffmpeg"}}},
	},
	"darwin": {
		{manager: "brew", commands: [][]string{{"brew", "install", "ffmpeg"}}},
	},
	"linux": {
		{manager: "apt-get", elevated: true, commands: [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", "ffmpeg"}}},
		{manager: "dnf", elevated: true, commands: [][]string{{"dnf", "install", "-y", "ffmpeg"}}},
		{manager: "pacman", elevated: true, commands: [][]string{{"pacman", "-Sy", "--noconfirm", "ffmpeg"}}},
		{manager: "zypper", elevated: true, commands: [][]string{{"zypper", "install", "-y", "ffmpeg"}}},
		{manager: "brew", commands: [][]string{{"brew", "install", "ffmpeg"}}},
	},
}

// installer runs package manager commands. Fields are swappable in tests.
type installer struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(name string, args ...string) error
}

func newInstaller() *installer {
	return &installer{goos: goruntime.GOOS, lookPath: exec.LookPath, run: runCommand}
}

// InstallOrFixDiagnostic applies a remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(settings)

	var fixErr error
	switch id {
	case diagnostics.ItemFFmpeg:
		fixErr = newInstaller().installFFmpeg(settings.FFmpegPath)
	case diagnostics.ItemWorkDir:
		fixErr = fixWorkDir(settings.WorkDir)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		a.logError(fmt.Sprintf("fix %s: %v", id, fixErr))
		return report, fixErr
	}
	return report, nil
}

// installFFmpeg tries each available package manager until one succeeds.
func (i *installer) installFFmpeg(ffmpegPath string) error {
	plans, ok := ffmpegInstalls[i.goos]
	if !ok {
		plans = ffmpegInstalls["linux"]
	}

	var failures []string
	tried := false
	for _, plan := range plans {
		if _, err := i.lookPath(plan.manager); err != nil {
			continue
		}
		tried = true
		err := i.runAll(plan)
		if err == nil {
			break
		}
		failures = append(failures, fmt.Sprintf("%s: %v", plan.manager, err))
	}

	if !tried {
		return fmt.Errorf("install ffmpeg: no supported package manager found for %s", i.goos)
	}
	if _, err := i.lookPath(ffmpegPath); err != nil {
		if len(failures) > 0 {
			return fmt.Errorf("install ffmpeg: %s", strings.Join(failures, " | "))
		}
		return fmt.Errorf("verify ffmpeg on PATH: %w", err)
	}
	return nil
}

// runAll runs a plan's commands in order, retrying each through pkexec or
// non-interactive sudo when the manager needs root.
func (i *installer) runAll(plan packageInstall) error {
	for _, command := range plan.commands {
		if err := i.runElevated(command, plan.elevated); err != nil {
			return err
		}
	}
	return nil
}

func (i *installer) runElevated(command []string, elevated bool) error {
	if len(command) == 0 {
		return errors.New("empty command")
	}

	attempts := [][]string{command}
	if elevated && i.goos == "linux" {
		if _, err := i.lookPath("pkexec"); err == nil {
			attempts = append(attempts, append([]string{"pkexec"}, command...))
		}
		if _, err := i.lookPath("sudo"); err == nil {
			attempts = append(attempts, append([]string{"sudo", "-n"}, command...))
		}
	}

	var errs []string
	for _, attempt := range attempts {
		err := i.run(attempt[0], attempt[1:]...)
		if err == nil {
			return nil
		}
		errs = append(errs, err.Error())
	}
	return errors.New(strings.Join(errs, " | "))
}

// runCommand executes one install command with a generous timeout.
func runCommand(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), installCommandTimeout)
	defer cancel()

	line := strings.Join(append([]string{name}, args...), " ")
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", line, installCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", line, err)
	}
	return fmt.Errorf("%s failed: %w (%s)", line, err, trimmed)
}

// fixWorkDir creates the work directory.
func fixWorkDir(workDir string) error {
	if strings.TrimSpace(workDir) == "" {
		return errors.New("work directory is empty")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work directory %s: %w", workDir, err)
	}
	return nil
}
