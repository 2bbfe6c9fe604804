// Package services enables systemd units at the end of a module's setup.
package services

import (
	"context"
	"os"

	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/logging"
	"github.com/E-Coombs/arch-setup/pkg/types"
	"github.com/rs/zerolog"
)

// Systemd implements types.ServiceManager with systemctl
type Systemd struct {
	runner types.Runner
	dryRun bool
	logger zerolog.Logger
	euid   func() int
}

// NewSystemd creates the systemd service adapter
func NewSystemd(runner types.Runner, dryRun bool) *Systemd {
	return &Systemd{
		runner: runner,
		dryRun: dryRun,
		logger: logging.GetLogger("services"),
		euid:   os.Geteuid,
	}
}

// Enable enables and starts a system service. Already-enabled services are
// skipped.
func (s *Systemd) Enable(ctx context.Context, name string) error {
	return s.enable(ctx, name, false)
}

// EnableUser enables and starts a user service for the invoking user
func (s *Systemd) EnableUser(ctx context.Context, name string) error {
	return s.enable(ctx, name, true)
}

func (s *Systemd) enable(ctx context.Context, name string, user bool) error {
	logger := s.logger.With().Str("service", name).Bool("user", user).Logger()

	if s.dryRun {
		logger.Info().Msg("Dry run - would enable service")
		return nil
	}

	if s.isEnabled(ctx, name, user) {
		logger.Debug().Msg("Service already enabled")
		return nil
	}

	logger.Info().Msg("Enabling service")
	if err := s.systemctl(ctx, user, "enable", "--now", name); err != nil {
		return errors.Wrapf(err, errors.ErrServiceEnable,
			"cannot enable service %q", name)
	}
	return nil
}

func (s *Systemd) isEnabled(ctx context.Context, name string, user bool) bool {
	args := []string{"is-enabled", name}
	if user {
		args = append([]string{"--user"}, args...)
	}
	state, err := s.runner.Output(ctx, "systemctl", args...)
	return err == nil && state == "enabled"
}

// systemctl runs systemctl; system-level calls go through sudo when the
// process is unprivileged, user-level calls never do.
func (s *Systemd) systemctl(ctx context.Context, user bool, args ...string) error {
	if user {
		return s.runner.Run(ctx, "systemctl", append([]string{"--user"}, args...)...)
	}
	if s.euid() == 0 {
		return s.runner.Run(ctx, "systemctl", args...)
	}
	return s.runner.Run(ctx, "sudo", append([]string{"systemctl"}, args...)...)
}
