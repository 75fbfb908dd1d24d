package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkboard/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
	}
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			f := config.Format(format)
			switch f {
			case config.FormatTOML, config.FormatYAML, config.FormatJSON:
			default:
				return fmt.Errorf("unknown format %q (toml, yaml, json)", format)
			}
			return config.Encode(cmd.OutOrStdout(), cfg, f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(config.FormatTOML), "output syntax: toml, yaml, json")
	return cmd
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Source != "" {
				printKeyValue("Loaded", cfg.Source)
			}
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
