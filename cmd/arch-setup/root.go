package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/E-Coombs/arch-setup/internal/version"
	"github.com/E-Coombs/arch-setup/pkg/config"
	"github.com/E-Coombs/arch-setup/pkg/dotfiles"
	"github.com/E-Coombs/arch-setup/pkg/engine"
	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/installer"
	"github.com/E-Coombs/arch-setup/pkg/logging"
	"github.com/E-Coombs/arch-setup/pkg/module"
	"github.com/E-Coombs/arch-setup/pkg/services"
	"github.com/E-Coombs/arch-setup/pkg/shell"
	"github.com/E-Coombs/arch-setup/pkg/types"
	"github.com/E-Coombs/arch-setup/pkg/ui"
	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	verbosity    int
	dryRun       bool
	force        bool
	noConfirm    bool
	skipDotfiles bool
	moduleNames  []string
	configPath   string
	modulesDir   string

	rootCmd = &cobra.Command{
		Use:   "arch-setup",
		Short: "Declarative Arch Linux system setup",
		Long: `arch-setup applies a catalog of declarative modules to an Arch Linux
system. Each module declares its packages, services, default dotfiles and
optional lifecycle hooks; dependencies between modules are resolved
automatically and every module runs at most once per invocation.`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSetup,
	}
)

// Execute runs the root command. Fatal errors print once with a severity
// marker; the non-zero exit code is main's job.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.ErrorMarker(), err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the setup document (default $XDG_CONFIG_HOME/arch-setup/setup.conf)")
	rootCmd.PersistentFlags().StringVar(&modulesDir, "modules-dir", "", "Path to the module catalog (default ~/.arch-setup/modules)")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the run without changing the system")
	rootCmd.Flags().BoolVar(&force, "force", false, "Apply module defaults even when the dotfiles pipeline owns placement")
	rootCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "Skip the confirmation gate")
	rootCmd.Flags().BoolVar(&skipDotfiles, "skip-dotfiles", false, "Do not defer to the external dotfiles pipeline")
	rootCmd.Flags().StringSliceVar(&moduleNames, "modules", nil, "Comma-separated modules to set up (default modules.enabled from the config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
}

// envOverrides are the environment knobs, resolved below flag values
type envOverrides struct {
	ConfigPath string `env:"ARCH_SETUP_CONFIG"`
	ModulesDir string `env:"ARCH_SETUP_MODULES_DIR"`
}

func loadEnvOverrides() (envOverrides, error) {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return overrides, errors.Wrap(err, errors.ErrInternal, "cannot parse environment")
	}
	return overrides, nil
}

// resolveConfigPath picks the setup document path: flag, then environment,
// then the XDG default.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	overrides, err := loadEnvOverrides()
	if err != nil {
		return "", err
	}
	if overrides.ConfigPath != "" {
		return overrides.ConfigPath, nil
	}
	return filepath.Join(xdg.ConfigHome, "arch-setup", "setup.conf"), nil
}

// resolveModulesDir picks the catalog root: flag, then environment, then
// the modules.dir config key, then ~/.arch-setup/modules.
func resolveModulesDir(store *config.Store) (string, error) {
	if modulesDir != "" {
		return modulesDir, nil
	}
	overrides, err := loadEnvOverrides()
	if err != nil {
		return "", err
	}
	if overrides.ModulesDir != "" {
		return overrides.ModulesDir, nil
	}
	return dotfiles.ExpandHome(store.Get("modules.dir", "~/.arch-setup/modules"))
}

func runSetup(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger("cmd")

	rc := types.RunContext{
		DryRun:       dryRun,
		Force:        force,
		NoConfirm:    noConfirm,
		SkipDotfiles: skipDotfiles,
		Verbosity:    verbosity,
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	store, err := config.Load(path)
	if err != nil {
		return err
	}

	catalogRoot, err := resolveModulesDir(store)
	if err != nil {
		return err
	}

	logger.Info().
		Str("config", path).
		Str("catalog", catalogRoot).
		Bool("dryRun", rc.DryRun).
		Strs("modules", moduleNames).
		Msg("Starting setup")

	runner := shell.NewRunner()
	eng := engine.New(engine.Options{
		Catalog:    module.NewCatalog(catalogRoot, runner),
		Store:      store,
		Installer:  installer.NewArch(runner, rc.DryRun),
		Services:   services.NewSystemd(runner, rc.DryRun),
		Placer:     dotfiles.New(afero.NewOsFs(), rc.DryRun),
		Confirmer:  ui.NewConfirmer(rc.NoConfirm),
		RunContext: rc,
	})

	result, err := eng.Run(moduleNames)
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

func printSummary(result *engine.Result) {
	switch {
	case result.Declined:
		pterm.Info.Println("Setup declined, nothing was changed")
	case len(result.Processed) == 0:
		pterm.Info.Println("Nothing to do")
	default:
		pterm.Success.Printfln("%d module(s) set up: %s",
			len(result.Processed), strings.Join(result.Processed, ", "))
	}
	if result.Warnings > 0 {
		pterm.Warning.Printfln("%d warning(s) logged, see the log file for details", result.Warnings)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "arch-setup version %s\n", version.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.Date)
	},
}
