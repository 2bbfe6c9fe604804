package module

import "github.com/E-Coombs/arch-setup/pkg/types"

// DescriptorFile is the name of the declarative definition inside each
// module directory.
const DescriptorFile = "module.toml"

// DefaultsDir is the optional per-module directory holding default assets
// copied into the user's home on first setup.
const DefaultsDir = "defaults"

// HookCommands holds the raw shell commands for the optional lifecycle
// steps. An empty string means the step is undefined.
type HookCommands struct {
	Install     string `toml:"install" yaml:"-"`
	Configure   string `toml:"configure" yaml:"-"`
	PostInstall string `toml:"post_install" yaml:"-"`
}

// Descriptor is the declarative definition of a single module, loaded from
// its module.toml. Each Load yields a fresh value; nothing is shared between
// loads of the same module.
type Descriptor struct {
	Name              string       `toml:"name" yaml:"name"`
	Description       string       `toml:"description" yaml:"description,omitempty"`
	Requires          []string     `toml:"requires" yaml:"requires,omitempty"`
	OfficialPackages  []string     `toml:"official_packages" yaml:"official_packages,omitempty"`
	SecondaryPackages []string     `toml:"secondary_packages" yaml:"secondary_packages,omitempty"`
	Services          []string     `toml:"services" yaml:"services,omitempty"`
	UserServices      []string     `toml:"user_services" yaml:"user_services,omitempty"`
	Hooks             HookCommands `toml:"hooks" yaml:"-"`

	// Dir is the module's directory inside the catalog, set by the catalog
	// on load.
	Dir string `toml:"-" yaml:"-"`

	// AssetsDir is the module's defaults directory, or empty when the
	// module ships no default assets.
	AssetsDir string `toml:"-" yaml:"-"`

	// Callback handles built from Hooks by the catalog. A nil handle means
	// the step is undefined; the engine checks presence structurally and
	// never looks at the raw command strings.
	InstallHook     types.Hook `toml:"-" yaml:"-"`
	ConfigureHook   types.Hook `toml:"-" yaml:"-"`
	PostInstallHook types.Hook `toml:"-" yaml:"-"`
}

// HasAssets reports whether the module ships default assets
func (d *Descriptor) HasAssets() bool {
	return d.AssetsDir != ""
}
