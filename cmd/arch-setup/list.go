package main

import (
	"fmt"
	"strings"

	"github.com/E-Coombs/arch-setup/pkg/config"
	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/module"
	"github.com/E-Coombs/arch-setup/pkg/shell"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listFormat string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the modules in the catalog",
	Long: `List every module in the catalog with its description, dependencies
and package counts. The setup document is optional here; without one the
default catalog location is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.NewStore()
		if path, err := resolveConfigPath(); err == nil {
			if loaded, err := config.Load(path); err == nil {
				store = loaded
			}
		}

		catalogRoot, err := resolveModulesDir(store)
		if err != nil {
			return err
		}

		catalog := module.NewCatalog(catalogRoot, shell.NewRunner())
		descriptors, err := catalog.LoadAll()
		if err != nil {
			return err
		}

		switch listFormat {
		case "yaml":
			out, err := yaml.Marshal(descriptors)
			if err != nil {
				return errors.Wrap(err, errors.ErrInternal, "cannot render catalog as YAML")
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
		case "text":
			printCatalog(cmd, descriptors)
		default:
			return errors.Newf(errors.ErrInvalidInput, "unknown format %q", listFormat)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "text", "Output format: text or yaml")
}

func printCatalog(cmd *cobra.Command, descriptors []*module.Descriptor) {
	out := cmd.OutOrStdout()
	for _, d := range descriptors {
		fmt.Fprintf(out, "%s", d.Name)
		if d.Description != "" {
			fmt.Fprintf(out, " - %s", d.Description)
		}
		fmt.Fprintln(out)
		if len(d.Requires) > 0 {
			fmt.Fprintf(out, "    requires: %s\n", strings.Join(d.Requires, ", "))
		}
		if n := len(d.OfficialPackages); n > 0 {
			fmt.Fprintf(out, "    official packages: %d\n", n)
		}
		if n := len(d.SecondaryPackages); n > 0 {
			fmt.Fprintf(out, "    secondary packages: %d\n", n)
		}
		if n := len(d.Services) + len(d.UserServices); n > 0 {
			fmt.Fprintf(out, "    services: %d\n", n)
		}
	}
}
