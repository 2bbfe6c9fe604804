// Package installer wraps the Arch package managers. Official packages go
// through pacman; secondary packages go through an AUR helper that is
// bootstrapped on demand.
package installer

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/logging"
	"github.com/E-Coombs/arch-setup/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// installTimeout bounds a single package-manager invocation. Package
	// installs are network-bound and would otherwise hang forever on a
	// dead mirror.
	installTimeout = 15 * time.Minute

	// bootstrapTimeout bounds the AUR helper bootstrap clone
	bootstrapTimeout = 5 * time.Minute
)

// Arch implements types.Installer for an Arch Linux system
type Arch struct {
	runner types.Runner
	dryRun bool
	logger zerolog.Logger

	// Seams for tests
	lookPath func(string) (string, error)
	sleep    func(time.Duration)
	euid     func() int
}

// NewArch creates the Arch installer adapter
func NewArch(runner types.Runner, dryRun bool) *Arch {
	return &Arch{
		runner:   runner,
		dryRun:   dryRun,
		logger:   logging.GetLogger("installer"),
		lookPath: exec.LookPath,
		sleep:    time.Sleep,
		euid:     os.Geteuid,
	}
}

// InstallOfficial installs packages from the official repositories via
// pacman. --needed makes the call idempotent: already-installed packages
// are skipped.
func (a *Arch) InstallOfficial(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	if a.dryRun {
		a.logger.Info().Strs("packages", packages).Msg("Dry run - would install official packages")
		return nil
	}

	a.logger.Info().Strs("packages", packages).Msg("Installing official packages")

	ctx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	args := append([]string{"-S", "--needed", "--noconfirm"}, packages...)
	if err := a.pacman(ctx, args...); err != nil {
		return errors.Wrap(err, errors.ErrPackageInstall,
			"official package install failed").WithDetail("packages", packages)
	}
	return nil
}

// pacman runs pacman, under sudo when not running as root
func (a *Arch) pacman(ctx context.Context, args ...string) error {
	if a.euid() == 0 {
		return a.runner.Run(ctx, "pacman", args...)
	}
	return a.runner.Run(ctx, "sudo", append([]string{"pacman"}, args...)...)
}
