package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/magtag-badge/badge/pkg/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect and check the badge config file",
		GroupID:     gBadge,
		Annotations: offline(),
	}

	cmd.AddCommand(
		newConfigShowCommand(),
		newConfigValidateCommand(),
		newConfigInitCommand(),
	)

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	format := "yaml"

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config, with defaults filled in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}

			raw, err := config.NewRawFileConfigFromConfig(c)
			if err != nil {
				return err
			}

			switch format {
			case "yaml", "yml":
				return printYAML(cmd.OutOrStdout(), raw)
			case "json":
				return printJSON(cmd.OutOrStdout(), raw)
			}
			return fmt.Errorf("unknown format %q, must be yaml or json", format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", format, "output format (yaml, json)")

	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file for problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}

			if err := config.Validate(c); err != nil {
				cmd.Printf("%s %s\n", bool2Text(false), configPath)
				return err
			}

			cmd.Printf("%s %s (%s profile)\n", bool2Text(true), configPath, config.ProfileName)
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with every default spelled out",
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite it", configPath)
			}

			c := config.NewFileFromConfig(config.Defaults(), configPath)
			if err := c.Save(); err != nil {
				return err
			}

			logrus.Infof("wrote default config to %s", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}
