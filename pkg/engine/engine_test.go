package engine_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/E-Coombs/arch-setup/pkg/config"
	"github.com/E-Coombs/arch-setup/pkg/engine"
	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/module"
	"github.com/E-Coombs/arch-setup/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// world fakes every adapter and records each side effect into a single
// trace so tests can assert ordering across adapters.
type world struct {
	trace []string

	failOfficial  map[string]bool
	failSecondary bool
	failServices  map[string]bool
	targetExists  bool
}

func newWorld() *world {
	return &world{
		failOfficial: make(map[string]bool),
		failServices: make(map[string]bool),
	}
}

func (w *world) add(format string, args ...interface{}) {
	w.trace = append(w.trace, fmt.Sprintf(format, args...))
}

func (w *world) InstallOfficial(_ context.Context, pkgs []string) error {
	w.add("official:%s", strings.Join(pkgs, ","))
	if w.failOfficial[pkgs[0]] {
		return assert.AnError
	}
	return nil
}

func (w *world) InstallSecondary(_ context.Context, pkgs []string) error {
	w.add("secondary:%s", strings.Join(pkgs, ","))
	if w.failSecondary {
		return assert.AnError
	}
	return nil
}

func (w *world) Enable(_ context.Context, name string) error {
	w.add("enable:%s", name)
	if w.failServices[name] {
		return assert.AnError
	}
	return nil
}

func (w *world) EnableUser(_ context.Context, name string) error {
	w.add("enable-user:%s", name)
	if w.failServices[name] {
		return assert.AnError
	}
	return nil
}

func (w *world) ApplyDefaults(sourceDir, targetDir string) error {
	w.add("apply:%s->%s", sourceDir, targetDir)
	return nil
}

func (w *world) Exists(string) bool {
	return w.targetExists
}

func (w *world) count(prefix string) int {
	n := 0
	for _, entry := range w.trace {
		if strings.HasPrefix(entry, prefix) {
			n++
		}
	}
	return n
}

// catalog is a map-backed Loader returning a fresh descriptor per Load
type catalog struct {
	modules map[string]func() *module.Descriptor
}

func (c *catalog) Load(name string) (*module.Descriptor, error) {
	build, ok := c.modules[name]
	if !ok {
		return nil, errors.Newf(errors.ErrModuleNotFound, "no descriptor for module %q", name)
	}
	return build(), nil
}

type approver bool

func (a approver) Confirm(string, bool) bool { return bool(a) }

type testEnv struct {
	world   *world
	catalog *catalog
	store   *config.Store
	rc      types.RunContext
	confirm types.Confirmer
}

func newEnv() *testEnv {
	return &testEnv{
		world:   newWorld(),
		catalog: &catalog{modules: make(map[string]func() *module.Descriptor)},
		store:   config.NewStore(),
		confirm: approver(true),
	}
}

// mod registers a module whose single official package is <name>-pkg and
// whose install hook records itself in the trace.
func (env *testEnv) mod(name string, requires ...string) {
	w := env.world
	env.catalog.modules[name] = func() *module.Descriptor {
		return &module.Descriptor{
			Name:             name,
			Requires:         requires,
			OfficialPackages: []string{name + "-pkg"},
			InstallHook: func() error {
				w.add("hook:install:%s", name)
				return nil
			},
		}
	}
}

func (env *testEnv) engine() *engine.Engine {
	return engine.New(engine.Options{
		Catalog:    env.catalog,
		Store:      env.store,
		Installer:  env.world,
		Services:   env.world,
		Placer:     env.world,
		Confirmer:  env.confirm,
		RunContext: env.rc,
	})
}

func TestProcessTwiceExecutesOnce(t *testing.T) {
	env := newEnv()
	env.mod("base")
	e := env.engine()

	require.NoError(t, e.Process("base"))
	require.NoError(t, e.Process("base"))

	assert.Equal(t, 1, env.world.count("official:base-pkg"))
	assert.Equal(t, 1, env.world.count("hook:install:base"))
	assert.True(t, e.Processed("base"))
}

func TestDependenciesProcessedFirstInDeclaredOrder(t *testing.T) {
	env := newEnv()
	env.mod("d")
	env.mod("b", "d")
	env.mod("c")
	env.mod("a", "b", "c")
	e := env.engine()

	require.NoError(t, e.Process("a"))

	assert.Equal(t, []string{
		"official:d-pkg", "hook:install:d",
		"official:b-pkg", "hook:install:b",
		"official:c-pkg", "hook:install:c",
		"official:a-pkg", "hook:install:a",
	}, env.world.trace)
}

func TestDependenciesInProcessedSetBeforeInstall(t *testing.T) {
	env := newEnv()
	env.mod("d1")
	env.mod("d2")
	w := env.world
	e := env.engine()
	var e2 *engine.Engine
	env.catalog.modules["m"] = func() *module.Descriptor {
		return &module.Descriptor{
			Name:     "m",
			Requires: []string{"d1", "d2"},
			InstallHook: func() error {
				assert.True(t, e2.Processed("d1"))
				assert.True(t, e2.Processed("d2"))
				w.add("hook:install:m")
				return nil
			},
		}
	}
	e2 = e

	require.NoError(t, e.Process("m"))
	assert.Equal(t, 1, env.world.count("hook:install:m"))
}

func TestCyclicDependencyFails(t *testing.T) {
	env := newEnv()
	env.mod("a", "b")
	env.mod("b", "a")

	err := env.engine().Process("a")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCyclicDependency))
}

func TestSelfDependencyFails(t *testing.T) {
	env := newEnv()
	env.mod("a", "a")

	err := env.engine().Process("a")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCyclicDependency))
}

func TestModuleNotFoundIsFatal(t *testing.T) {
	env := newEnv()
	env.mod("a", "ghost")

	err := env.engine().Process("a")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrModuleNotFound))
	// a's own steps never ran
	assert.Equal(t, 0, env.world.count("official:a-pkg"))
}

func TestOfficialInstallFailureAbortsModuleAndRun(t *testing.T) {
	env := newEnv()
	env.mod("ok")
	env.mod("broken")
	env.world.failOfficial["broken-pkg"] = true

	result, err := env.engine().Run([]string{"ok", "broken"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackageInstall))
	assert.Contains(t, err.Error(), "broken")

	// broken's remaining steps did not run; ok stayed processed
	assert.Equal(t, 0, env.world.count("hook:install:broken"))
	assert.Equal(t, []string{"ok"}, result.Processed)
}

func TestSecondaryInstallFailureIsNonFatal(t *testing.T) {
	env := newEnv()
	w := env.world
	w.failSecondary = true
	env.catalog.modules["m"] = func() *module.Descriptor {
		return &module.Descriptor{
			Name:              "m",
			SecondaryPackages: []string{"aur-thing"},
			ConfigureHook: func() error {
				w.add("hook:configure:m")
				return nil
			},
		}
	}

	result, err := env.engine().Run([]string{"m"})
	require.NoError(t, err)

	// The module's remaining steps still executed
	assert.Equal(t, 1, env.world.count("hook:configure:m"))
	assert.Equal(t, []string{"m"}, result.Processed)
	assert.Equal(t, 1, result.Warnings)
}

func TestHookFailureIsNonFatal(t *testing.T) {
	env := newEnv()
	w := env.world
	env.catalog.modules["m"] = func() *module.Descriptor {
		return &module.Descriptor{
			Name:        "m",
			InstallHook: func() error { return assert.AnError },
			PostInstallHook: func() error {
				w.add("hook:post_install:m")
				return nil
			},
		}
	}

	result, err := env.engine().Run([]string{"m"})
	require.NoError(t, err)
	assert.Equal(t, 1, env.world.count("hook:post_install:m"))
	assert.Equal(t, 1, result.Warnings)
}

func TestServiceFailuresAreAggregated(t *testing.T) {
	env := newEnv()
	env.world.failServices["s1"] = true
	env.world.failServices["s2"] = true
	env.catalog.modules["m"] = func() *module.Descriptor {
		return &module.Descriptor{
			Name:         "m",
			Services:     []string{"s1", "s2"},
			UserServices: []string{"u1"},
		}
	}

	result, err := env.engine().Run([]string{"m"})
	require.NoError(t, err)

	// Both failures were attempted, the user service still ran
	assert.Equal(t, 1, env.world.count("enable:s1"))
	assert.Equal(t, 1, env.world.count("enable:s2"))
	assert.Equal(t, 1, env.world.count("enable-user:u1"))
	assert.Equal(t, []string{"m"}, result.Processed)
	assert.Equal(t, 2, result.Warnings)
}

func TestServicesSkippedWhenAutoEnableDisabled(t *testing.T) {
	env := newEnv()
	env.store.Set("services.auto_enable", config.Scalar("false"))
	env.catalog.modules["m"] = func() *module.Descriptor {
		return &module.Descriptor{Name: "m", Services: []string{"s1"}}
	}

	_, err := env.engine().Run([]string{"m"})
	require.NoError(t, err)
	assert.Equal(t, 0, env.world.count("enable:"))
}

func TestRunUsesEnabledModulesFromConfig(t *testing.T) {
	env := newEnv()
	env.mod("base")
	env.mod("shell")
	env.store.Set("modules.enabled", config.Scalar("base shell"))

	result, err := env.engine().Run(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "shell"}, result.Processed)
}

func TestRunWithNothingRequestedIsNoop(t *testing.T) {
	env := newEnv()

	result, err := env.engine().Run(nil)
	require.NoError(t, err)
	assert.Empty(t, result.Processed)
	assert.Empty(t, env.world.trace)
}

func TestRunDeclinedConfirmation(t *testing.T) {
	env := newEnv()
	env.mod("base")
	env.confirm = approver(false)

	result, err := env.engine().Run([]string{"base"})
	require.NoError(t, err)
	assert.True(t, result.Declined)
	assert.Empty(t, result.Processed)
	assert.Empty(t, env.world.trace)
}

func TestRunSkipsAlreadyProcessedRequests(t *testing.T) {
	env := newEnv()
	env.mod("base")
	env.mod("shell", "base")

	result, err := env.engine().Run([]string{"shell", "base"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "shell"}, result.Processed)
	assert.Equal(t, 1, env.world.count("official:base-pkg"))
}

func TestDryRunSkipsHooksButFillsProcessedSet(t *testing.T) {
	env := newEnv()
	env.mod("base")
	env.mod("shell", "base")
	env.rc.DryRun = true

	result, err := env.engine().Run([]string{"shell"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "shell"}, result.Processed)
	assert.Equal(t, 0, env.world.count("hook:"))
}

func assetModule(name string) func() *module.Descriptor {
	return func() *module.Descriptor {
		return &module.Descriptor{Name: name, AssetsDir: "/catalog/" + name + "/defaults"}
	}
}

func TestDefaultsCopiedIntoHomeWhenNoDotfilesTarget(t *testing.T) {
	env := newEnv()
	env.catalog.modules["vim"] = assetModule("vim")

	_, err := env.engine().Run([]string{"vim"})
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, 1, env.world.count("apply:/catalog/vim/defaults->"+home))
}

func TestDefaultsDeferredToDotfilesPipeline(t *testing.T) {
	env := newEnv()
	env.catalog.modules["vim"] = assetModule("vim")
	env.store.Set("dotfiles.target_dir", config.Scalar("~/dotfiles"))
	env.world.targetExists = true

	_, err := env.engine().Run([]string{"vim"})
	require.NoError(t, err)
	assert.Equal(t, 0, env.world.count("apply:"))
}

func TestDefaultsCopiedWhenDotfilesSkipped(t *testing.T) {
	env := newEnv()
	env.catalog.modules["vim"] = assetModule("vim")
	env.store.Set("dotfiles.target_dir", config.Scalar("~/dotfiles"))
	env.world.targetExists = true
	env.rc.SkipDotfiles = true

	_, err := env.engine().Run([]string{"vim"})
	require.NoError(t, err)
	assert.Equal(t, 1, env.world.count("apply:"))
}

func TestDefaultsCopiedUnderForce(t *testing.T) {
	env := newEnv()
	env.catalog.modules["vim"] = assetModule("vim")
	env.store.Set("dotfiles.target_dir", config.Scalar("~/dotfiles"))
	env.world.targetExists = true
	env.rc.Force = true

	_, err := env.engine().Run([]string{"vim"})
	require.NoError(t, err)
	assert.Equal(t, 1, env.world.count("apply:"))
}
