package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/magtag-badge/badge/pkg/client"
	"github.com/magtag-badge/badge/pkg/version"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/badge.sock"
	configPath     = "/etc/badge.yaml"
)

var (
	gBadge        = "Badge:"
	gLookup       = "Lookup:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBadge,
		gLookup,
		gAdvanced,
	}
)

// offlineAnnotation marks commands that work without the daemon.
const offlineAnnotation = "offline"

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: badge daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'badge daemon', or point --daemon-socket at a running one.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or restart the daemon with '--allow-non-root-access'")
	}
}

func isOffline(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[offlineAnnotation]; ok {
			return true
		}
	}
	return false
}

func offline() map[string]string {
	return map[string]string{offlineAnnotation: ""}
}

func checkDaemonVersion() {
	v, err := newClient().GetVersion()
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			logrus.Error("badge daemon is too old to report its version. Restart it with the same release as this client.")
		}
		return
	}
	if v.Version != version.Version {
		logrus.WithFields(logrus.Fields{
			"clientVersion": version.Version,
			"daemonVersion": v.Version,
		}).Warn("Version mismatch between client and daemon. Responses may not match what this client expects.")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badge",
		Short: "badge configures and simulates a MagTag conference badge",
		Long: `badge configures and simulates a MagTag conference badge.

It validates the badge configuration, answers battery and CO2 lookups, and
runs a daemon that samples (simulated) sensors and publishes the badge
status to an MQTT broker.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			if !isOffline(cmd) {
				checkDaemonVersion()
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path (.yaml, .yml or .json)")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "badge daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewReadingCommand(),
		NewHistoryCommand(),
		NewWatchCommand(),
		NewPublishCommand(),
		NewReloadCommand(),
		NewConfigCommand(),
		NewBatteryCommand(),
		NewCO2Command(),
		NewWakeMaskCommand(),
		NewQRCommand(),
		NewSimulateCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}
