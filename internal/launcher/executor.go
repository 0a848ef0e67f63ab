// Package launcher hands control to a Bazel binary, directly or through a
// workspace wrapper script, and reports the child's exit status.
package launcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
)

const (
	// EnvBazelReal tells a wrapper script which binary to run.
	EnvBazelReal = "BAZEL_REAL"
	// signalExitBase is added to the signal number when the child dies from a signal.
	signalExitBase = 128
)

// WrapperPath is the wrapper script location relative to the workspace root.
var WrapperPath = filepath.Join("tools", "bazel")

// Mode is how the child process is started.
type Mode int

const (
	// Direct runs the resolved binary itself.
	Direct Mode = iota
	// WrapperDelegated runs the workspace wrapper with BAZEL_REAL set.
	WrapperDelegated
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case Direct:
		return "direct"
	case WrapperDelegated:
		return "wrapper"
	default:
		return "unknown"
	}
}

// Config holds configuration for an Executor
type Config struct {
	// WorkspaceRoot is searched for a wrapper. Empty means no workspace.
	WorkspaceRoot string
	// SkipWrapper disables wrapper delegation.
	SkipWrapper bool
	// Self is the launcher's own executable. Defaults to os.Executable().
	Self string
	// LauncherVersion is printed ahead of the version command's output.
	LauncherVersion string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Env is the child's base environment. Defaults to os.Environ().
	Env    []string
	Logger *slog.Logger
}

// Executor runs the launched tool and waits for it.
type Executor struct {
	cfg    Config
	logger *slog.Logger
	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
}

// NewExecutor creates an executor, filling in process defaults.
func NewExecutor(cfg Config) *Executor {
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Env == nil {
		cfg.Env = os.Environ()
	}
	if cfg.Self == "" {
		if self, err := os.Executable(); err == nil {
			cfg.Self = self
		}
	}

	e := &Executor{
		cfg:    cfg,
		logger: cfg.Logger,
		notify: signal.Notify,
		stop:   signal.Stop,
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// Plan picks the mode and the program to start for binary.
func (e *Executor) Plan(binary string) (Mode, string) {
	if e.cfg.SkipWrapper || e.cfg.WorkspaceRoot == "" {
		return Direct, binary
	}

	wrapper := filepath.Join(e.cfg.WorkspaceRoot, WrapperPath)
	info, err := os.Stat(wrapper)
	if err != nil || !info.Mode().IsRegular() {
		return Direct, binary
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		e.logger.Debug("wrapper is not executable", "path", wrapper)
		return Direct, binary
	}

	// The launcher may itself be installed as tools/bazel.
	if e.cfg.Self != "" {
		if self, err := os.Stat(e.cfg.Self); err == nil && os.SameFile(info, self) {
			return Direct, binary
		}
	}

	return WrapperDelegated, wrapper
}

// Run starts binary (or the workspace wrapper) with args and waits for it to
// exit. Interrupt, terminate, and quit signals received meanwhile are left to
// the child, which shares the terminal's process group; Run returns only once
// the child is gone. The returned code is the child's exit code, or
// 128+signal if it was killed by a signal.
func (e *Executor) Run(binary string, args []string) (int, error) {
	mode, program := e.Plan(binary)

	if IsVersionCommand(args) {
		PrintVersionBanner(e.cfg.Stdout, args, e.cfg.LauncherVersion)
	}

	//nolint:gosec // G204: program is the authenticated binary or the workspace's own wrapper
	cmd := exec.Command(program, args...)
	cmd.Stdin = e.cfg.Stdin
	cmd.Stdout = e.cfg.Stdout
	cmd.Stderr = e.cfg.Stderr
	cmd.Env = e.cfg.Env
	if mode == WrapperDelegated {
		cmd.Env = append(append([]string(nil), e.cfg.Env...), EnvBazelReal+"="+binary)
	}

	sigs := make(chan os.Signal, 1)
	e.notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer e.stop(sigs)

	e.logger.Debug("starting", "mode", mode.String(), "program", program, "args", args)
	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("start %s: %w", program, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-sigs:
			e.logger.Debug("signal received, waiting for child", "signal", sig.String())
		case err := <-done:
			return exitCode(err)
		}
	}
}

// exitCode maps a Wait error to a process exit code.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1, fmt.Errorf("wait for child: %w", err)
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return signalExitBase + int(status.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}
