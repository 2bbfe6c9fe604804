package installer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/E-Coombs/arch-setup/pkg/errors"
)

// maxInstallAttempts bounds the retry loop for AUR installs. AUR builds pull
// sources over the network and fail transiently far more often than pacman.
const maxInstallAttempts = 3

const retryDelay = 2 * time.Second

// aurHelpers lists supported AUR helpers in preference order. The first one
// is bootstrapped when none is installed.
var aurHelpers = []string{"paru", "yay"}

// InstallSecondary installs packages from the AUR. The helper is located or
// bootstrapped first; the install itself is retried a bounded number of
// times before giving up.
func (a *Arch) InstallSecondary(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	if a.dryRun {
		a.logger.Info().Strs("packages", packages).Msg("Dry run - would install secondary packages")
		return nil
	}

	helper, err := a.ensureHelper(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrPackageInstall,
			"no AUR helper available").WithDetail("packages", packages)
	}

	a.logger.Info().Str("helper", helper).Strs("packages", packages).Msg("Installing secondary packages")

	args := append([]string{"-S", "--needed", "--noconfirm"}, packages...)
	var lastErr error
	for attempt := 1; attempt <= maxInstallAttempts; attempt++ {
		installCtx, cancel := context.WithTimeout(ctx, installTimeout)
		lastErr = a.runner.Run(installCtx, helper, args...)
		cancel()

		if lastErr == nil {
			return nil
		}
		a.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("maxAttempts", maxInstallAttempts).
			Msg("Secondary package install attempt failed")
		if attempt < maxInstallAttempts {
			a.sleep(retryDelay)
		}
	}

	return errors.Wrapf(lastErr, errors.ErrPackageInstall,
		"secondary package install failed after %d attempts", maxInstallAttempts).
		WithDetail("packages", packages)
}

// ensureHelper returns the first AUR helper found on PATH, bootstrapping
// one when none is installed.
func (a *Arch) ensureHelper(ctx context.Context) (string, error) {
	for _, helper := range aurHelpers {
		if _, err := a.lookPath(helper); err == nil {
			return helper, nil
		}
	}
	return a.bootstrapHelper(ctx)
}

// bootstrapHelper clones and builds the preferred AUR helper with makepkg
func (a *Arch) bootstrapHelper(ctx context.Context) (string, error) {
	helper := aurHelpers[0]
	a.logger.Info().Str("helper", helper).Msg("Bootstrapping AUR helper")

	buildDir, err := os.MkdirTemp("", "arch-setup-aur-")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.RemoveAll(buildDir) }()

	cloneCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()
	repo := fmt.Sprintf("https://aur.archlinux.org/%s.git", helper)
	if err := a.runner.Run(cloneCtx, "git", "clone", repo, buildDir); err != nil {
		return "", fmt.Errorf("cloning %s: %w", repo, err)
	}

	buildCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()
	build := fmt.Sprintf("cd %s && makepkg -si --noconfirm", buildDir)
	if err := a.runner.Run(buildCtx, "sh", "-c", build); err != nil {
		return "", fmt.Errorf("building %s: %w", helper, err)
	}

	return helper, nil
}
