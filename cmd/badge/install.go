package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/utils/service"
)

var gInstallation = "Installation:"

func init() {
	commandGroups = append(commandGroups, gInstallation)
}

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:         "install",
		Short:       "Install the badge daemon as a systemd service",
		GroupID:     gInstallation,
		Annotations: offline(),
		Long: `Install the badge daemon as a systemd service.

This makes the daemon run in the background and start on boot. You must run this command as root.

The config file is validated first, and written with defaults if it does not exist yet. By default, only root can talk to the daemon. Use --allow-non-root-access to let every user run badge status and friends without sudo.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}
			if err := config.Validate(conf); err != nil {
				return err
			}
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := config.NewFileFromConfig(config.Defaults(), configPath).Save(); err != nil {
					return fmt.Errorf("failed to write default config: %w", err)
				}
				logrus.Infof("wrote default config to %s", configPath)
			}

			err = service.Install(service.Options{
				ConfigPath:         configPath,
				UnixSocketPath:     unixSocketPath,
				AllowNonRootAccess: allowNonRootAccess,
			})
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()
			cmd.Printf("systemd will start the current binary (%s), so do not move it. If you do, run `badge install' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access the badge daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "uninstall",
		Short:       "Remove the badge systemd service",
		GroupID:     gInstallation,
		Annotations: offline(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := service.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			cmd.Printf("Uninstalled. Your config is kept in %s.\n", configPath)
			return nil
		},
	}
}
