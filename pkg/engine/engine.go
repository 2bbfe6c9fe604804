// Package engine implements the module dependency resolver and executor.
// It resolves transitive requirements depth-first in declared order and
// runs each module's lifecycle exactly once per run.
package engine

import (
	"context"

	"github.com/E-Coombs/arch-setup/pkg/config"
	"github.com/E-Coombs/arch-setup/pkg/dotfiles"
	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/logging"
	"github.com/E-Coombs/arch-setup/pkg/module"
	"github.com/E-Coombs/arch-setup/pkg/types"
	"github.com/rs/zerolog"
)

// Loader resolves module names to descriptors. Satisfied by module.Catalog.
type Loader interface {
	Load(name string) (*module.Descriptor, error)
}

// Options wires the engine's collaborators
type Options struct {
	Catalog    Loader
	Store      *config.Store
	Installer  types.Installer
	Services   types.ServiceManager
	Placer     types.Placer
	Confirmer  types.Confirmer
	RunContext types.RunContext
}

// Engine executes modules. It holds the only cross-module state of a run:
// the processed set and the in-progress marker set used for cycle
// detection. Engines are single-use; create a fresh one per run.
type Engine struct {
	catalog   Loader
	store     *config.Store
	installer types.Installer
	services  types.ServiceManager
	placer    types.Placer
	confirmer types.Confirmer
	rc        types.RunContext
	logger    zerolog.Logger

	processed  map[string]bool
	inProgress map[string]bool
	order      []string
	warnings   int
}

// New creates an engine with an empty processed set
func New(opts Options) *Engine {
	return &Engine{
		catalog:    opts.Catalog,
		store:      opts.Store,
		installer:  opts.Installer,
		services:   opts.Services,
		placer:     opts.Placer,
		confirmer:  opts.Confirmer,
		rc:         opts.RunContext,
		logger:     logging.GetLogger("engine"),
		processed:  make(map[string]bool),
		inProgress: make(map[string]bool),
	}
}

// Process sets up the named module and, first, all of its transitive
// requirements. A module already processed this run is a no-op. Fatal
// errors (unknown module, dependency cycle, official package failure)
// abort the whole call chain; everything else is logged and the module
// keeps going.
func (e *Engine) Process(name string) error {
	if e.processed[name] {
		e.logger.Debug().Str("module", name).Msg("Module already processed, skipping")
		return nil
	}

	if e.inProgress[name] {
		return errors.Newf(errors.ErrCyclicDependency,
			"cyclic dependency involving module %q", name)
	}

	d, err := e.catalog.Load(name)
	if err != nil {
		return err
	}

	e.inProgress[name] = true
	defer delete(e.inProgress, name)

	// Dependencies finish (or fail the run) strictly before this module's
	// own steps start, in declared order.
	for _, dep := range d.Requires {
		if e.processed[dep] {
			continue
		}
		if err := e.Process(dep); err != nil {
			return err
		}
	}

	logger := e.logger.With().Str("module", name).Logger()
	logger.Info().Str("description", d.Description).Msg("Setting up module")

	ctx := context.Background()

	if len(d.OfficialPackages) > 0 {
		if err := e.installer.InstallOfficial(ctx, d.OfficialPackages); err != nil {
			return errors.Wrapf(err, errors.ErrPackageInstall,
				"official package install failed for module %q", name)
		}
	}

	if len(d.SecondaryPackages) > 0 {
		if err := e.installer.InstallSecondary(ctx, d.SecondaryPackages); err != nil {
			e.warn(logger, err, "Secondary package install failed, continuing")
		}
	}

	e.runHook(logger, "install", d.InstallHook)

	if err := e.placeDefaults(logger, d); err != nil {
		e.warn(logger, err, "Default asset placement failed, continuing")
	}

	e.runHook(logger, "configure", d.ConfigureHook)

	e.enableServices(ctx, logger, d)

	e.runHook(logger, "post_install", d.PostInstallHook)

	e.processed[name] = true
	e.order = append(e.order, name)

	// The descriptor goes out of scope here; the processed-set entry is
	// the only thing that survives into the next module.
	logger.Info().Msg("Module set up")
	return nil
}

// runHook invokes an optional lifecycle callback. Absent hooks are nil;
// failures are non-fatal.
func (e *Engine) runHook(logger zerolog.Logger, hookName string, hook types.Hook) {
	if hook == nil {
		return
	}
	if e.rc.DryRun {
		logger.Info().Str("hook", hookName).Msg("Dry run - skipping hook")
		return
	}
	if err := hook(); err != nil {
		e.warn(logger, err, "Hook failed, continuing")
	}
}

// placeDefaults handles the module's default assets. When the dotfiles
// target directory exists the external placement pipeline owns the files
// and nothing happens here; otherwise the defaults are copied into the
// user's home without overwriting anything.
func (e *Engine) placeDefaults(logger zerolog.Logger, d *module.Descriptor) error {
	if !d.HasAssets() {
		return nil
	}

	target, err := e.dotfilesTarget()
	if err != nil {
		return err
	}

	if target != "" && e.placer.Exists(target) && !e.rc.SkipDotfiles && !e.rc.Force {
		logger.Debug().Str("targetDir", target).
			Msg("Dotfiles target present, placement deferred to dotfiles pipeline")
		return nil
	}

	home, err := dotfiles.GetHomeDirectory()
	if err != nil {
		return err
	}

	logger.Info().Str("assets", d.AssetsDir).Msg("Applying module defaults")
	return e.placer.ApplyDefaults(d.AssetsDir, home)
}

func (e *Engine) dotfilesTarget() (string, error) {
	target := e.store.Get("dotfiles.target_dir", "")
	if target == "" {
		return "", nil
	}
	return dotfiles.ExpandHome(target)
}

// enableServices enables the module's services best-effort: individual
// failures are logged and counted but never abort the module.
func (e *Engine) enableServices(ctx context.Context, logger zerolog.Logger, d *module.Descriptor) {
	if len(d.Services) == 0 && len(d.UserServices) == 0 {
		return
	}

	if !e.store.GetBool("services.auto_enable", true) {
		logger.Debug().Msg("Service auto-enable disabled by config")
		return
	}

	var failed []string
	for _, svc := range d.Services {
		if err := e.services.Enable(ctx, svc); err != nil {
			e.warn(logger, err, "Cannot enable service, continuing")
			failed = append(failed, svc)
		}
	}
	for _, svc := range d.UserServices {
		if err := e.services.EnableUser(ctx, svc); err != nil {
			e.warn(logger, err, "Cannot enable user service, continuing")
			failed = append(failed, svc)
		}
	}

	if len(failed) > 0 {
		logger.Warn().Strs("services", failed).Msg("Some services could not be enabled")
	}
}

func (e *Engine) warn(logger zerolog.Logger, err error, msg string) {
	logger.Warn().Err(err).Msg(msg)
	e.warnings++
}

// Processed reports whether the named module was executed this run
func (e *Engine) Processed(name string) bool {
	return e.processed[name]
}
