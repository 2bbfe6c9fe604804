// Package shell runs external commands for the adapters. Everything that
// touches the real system goes through the Runner interface so tests can
// substitute a fake.
package shell

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/E-Coombs/arch-setup/pkg/logging"
	"github.com/rs/zerolog"
)

// ExecRunner implements types.Runner on top of os/exec
type ExecRunner struct {
	logger zerolog.Logger
}

// NewRunner creates a new ExecRunner
func NewRunner() *ExecRunner {
	return &ExecRunner{logger: logging.GetLogger("shell")}
}

// Run executes a command with stdio attached to the current process. Package
// managers and makepkg are interactive-ish and stream a lot of output, so
// their output goes straight to the terminal.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	logging.LogCommand(name, args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		r.logger.Debug().Err(err).Str("command", name).Msg("Command failed")
		return err
	}
	return nil
}

// Output executes a command and returns its trimmed stdout
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	logging.LogCommand(name, args)

	out, err := exec.CommandContext(ctx, name, args...).Output()
	return strings.TrimSpace(string(out)), err
}
