package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/daemon"
	"github.com/magtag-badge/badge/pkg/version"
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	opts := daemon.Options{}

	cmd := &cobra.Command{
		Use:         "daemon",
		Short:       "Run the badge daemon in the foreground",
		GroupID:     gAdvanced,
		Annotations: offline(),
		Long: `Run the badge daemon in the foreground.

The daemon samples the sensors (or the simulator, when simulateHardware is
set) every sampleInterval, keeps the last sampleSize samples, serves them on
a unix socket, and publishes the badge status to MQTT when publish.broker is
set. Send SIGHUP to reload the config file.

Unless --log-level is given, the log level follows the debug setting of the
config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
				"profile": config.ProfileName,
			}).Info("badge daemon starting")

			opts.ConfigPath = configPath
			opts.UnixSocketPath = unixSocketPath
			opts.FollowConfigLogLevel = !cmd.Flags().Changed("log-level")
			return daemon.Run(opts)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&opts.AllowNonRoot, "allow-non-root-access", false,
		"Allow non-root users to access the daemon.")
	f.BoolVar(&opts.HostBattery, "host-battery", false,
		"Report the voltage of this machine's battery instead of a simulated one.")
	f.Int64Var(&opts.Seed, "seed", 0,
		"Seed for the hardware simulator. 0 picks one from the current time.")

	return cmd
}
