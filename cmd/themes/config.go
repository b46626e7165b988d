package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/themes/internal/config"
)

func configCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(configInitCmd(), configShowCmd(configPath))
	return cmd
}

func configInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default configuration to a file. The format follows the
extension: .toml, .json, or YAML otherwise.

Examples:
  themes config init
  themes config init --path=themes.toml
  themes config init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteDefault(path, force)
			if err != nil {
				return err
			}
			success("Wrote %s", written)
			warn("Replace session.secrets before deploying")
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Destination (default themes.yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func configShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader(*configPath)
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			out := *configPath
			if out == "" {
				out = loader.File()
			}
			data, err := config.Marshal(cfg, out)
			if err != nil {
				return err
			}
			if f := loader.File(); f != "" {
				fmt.Fprintf(os.Stderr, "# from %s\n", f)
			} else {
				fmt.Fprintln(os.Stderr, "# built-in defaults")
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
