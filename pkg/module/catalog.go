package module

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/logging"
	"github.com/E-Coombs/arch-setup/pkg/types"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Catalog resolves module names to Descriptors. Descriptors load lazily, one
// directory per module under the catalog root, and every Load returns a
// fresh value.
type Catalog struct {
	root   string
	runner types.Runner
	logger zerolog.Logger
}

// NewCatalog creates a catalog rooted at the given directory. The runner is
// used to execute lifecycle hook commands.
func NewCatalog(root string, runner types.Runner) *Catalog {
	return &Catalog{
		root:   root,
		runner: runner,
		logger: logging.GetLogger("catalog"),
	}
}

// Root returns the catalog root directory
func (c *Catalog) Root() string {
	return c.root
}

// Load reads the descriptor for the named module. A missing descriptor is a
// MODULE_NOT_FOUND error, an unparseable one MODULE_INVALID; both are fatal
// to the run.
func (c *Catalog) Load(name string) (*Descriptor, error) {
	dir := filepath.Join(c.root, name)
	path := filepath.Join(dir, DescriptorFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrModuleNotFound,
			"no descriptor for module %q", name).WithDetail("path", path)
	}

	var d Descriptor
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrapf(err, errors.ErrModuleInvalid,
			"cannot parse descriptor for module %q", name).WithDetail("path", path)
	}

	if d.Name == "" {
		d.Name = name
	} else if d.Name != name {
		return nil, errors.Newf(errors.ErrModuleInvalid,
			"descriptor name %q does not match module directory %q", d.Name, name)
	}

	d.Dir = dir
	if info, err := os.Stat(filepath.Join(dir, DefaultsDir)); err == nil && info.IsDir() {
		d.AssetsDir = filepath.Join(dir, DefaultsDir)
	}

	d.InstallHook = c.newHook(name, "install", d.Hooks.Install)
	d.ConfigureHook = c.newHook(name, "configure", d.Hooks.Configure)
	d.PostInstallHook = c.newHook(name, "post_install", d.Hooks.PostInstall)

	c.logger.Debug().
		Str("module", name).
		Strs("requires", d.Requires).
		Bool("assets", d.HasAssets()).
		Msg("Descriptor loaded")

	return &d, nil
}

// Names lists the modules present in the catalog, sorted
func (c *Catalog) Names() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess,
			"cannot read catalog root %s", c.root)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(c.root, entry.Name(), DescriptorFile)); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadAll eagerly loads every descriptor in the catalog
func (c *Catalog) LoadAll() ([]*Descriptor, error) {
	names, err := c.Names()
	if err != nil {
		return nil, err
	}

	descriptors := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		d, err := c.Load(name)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// newHook wraps a raw hook command into a callback handle. An empty command
// yields nil, which the engine reads as "step undefined".
func (c *Catalog) newHook(moduleName, hookName, command string) types.Hook {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}

	logger := c.logger.With().Str("module", moduleName).Str("hook", hookName).Logger()
	runner := c.runner

	return func() error {
		logger.Info().Str("command", command).Msg("Running hook")
		if err := runner.Run(context.Background(), "sh", "-c", command); err != nil {
			return errors.Wrapf(err, errors.ErrHookFailure,
				"%s hook failed for module %q", hookName, moduleName)
		}
		return nil
	}
}
