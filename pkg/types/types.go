package types

import "context"

// RunContext carries the read-only flags for a single run. It is built once
// from the CLI surface and threaded through every component.
type RunContext struct {
	DryRun       bool
	Force        bool
	NoConfirm    bool
	SkipDotfiles bool
	Verbosity    int
}

// Hook is an optional module lifecycle callback. A nil Hook means the module
// does not define that lifecycle step.
type Hook func() error

// Installer installs packages on the target system. Implementations must be
// idempotent (already-installed packages are skipped).
type Installer interface {
	// InstallOfficial installs packages from the official repositories.
	InstallOfficial(ctx context.Context, packages []string) error

	// InstallSecondary installs packages from the secondary source (AUR),
	// bootstrapping the helper if needed and retrying a bounded number of
	// times on failure.
	InstallSecondary(ctx context.Context, packages []string) error
}

// ServiceManager enables system and user services. Implementations must be
// idempotent (already-enabled services are skipped).
type ServiceManager interface {
	Enable(ctx context.Context, name string) error
	EnableUser(ctx context.Context, name string) error
}

// Placer performs default-asset file placement for modules.
type Placer interface {
	// ApplyDefaults copies sourceDir into targetDir without overwriting
	// files that already exist.
	ApplyDefaults(sourceDir, targetDir string) error

	// Exists reports whether a path exists on the target filesystem.
	Exists(path string) bool
}

// Confirmer asks the user for a yes/no confirmation. Implementations
// auto-approve under non-interactive operation.
type Confirmer interface {
	Confirm(prompt string, defaultYes bool) bool
}

// Runner executes external commands. It exists so adapters can be tested
// without touching the real system.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) (string, error)
}
