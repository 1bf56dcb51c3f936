package main

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/magtag-badge/badge/pkg/api"
	"github.com/magtag-badge/badge/pkg/client"
	"github.com/magtag-badge/badge/pkg/co2"
	"github.com/magtag-badge/badge/pkg/events"
	"github.com/magtag-badge/badge/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version",
		Annotations: offline(),
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewReadingCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reading",
		Short:   "Print the latest sensor reading",
		GroupID: gBadge,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := newClient().GetReading()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
}

func NewHistoryCommand() *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Print the recorded samples, oldest first",
		GroupID: gBadge,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newClient().GetHistory(since)
			if err != nil {
				return err
			}
			for _, r := range h {
				cmd.Printf("%s  %4d ppm  %.1f°C  %.0f%%RH  %.2fV\n",
					r.Time.Local().Format(time.TimeOnly), r.CO2, r.TemperatureC, r.Humidity, r.BatteryVoltage)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "only samples newer than this, e.g. 10m")

	return cmd
}

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Follow samples and config reloads as they happen",
		GroupID: gBadge,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient()
			bands := daemonBands(c)
			for ev := range c.SubscribeEvents(cmd.Context()) {
				switch ev.Name {
				case events.SampleTaken:
					e, err := events.DecodeAs[events.SampleTakenEvent](ev)
					if err != nil {
						logrus.Warnf("bad %s event: %v", ev.Name, err)
						continue
					}
					cmd.Printf("%s  %s %s  battery %s\n",
						time.Unix(e.Ts, 0).Format(time.TimeOnly),
						bold("%4d ppm", e.CO2), co2Color(bands, e.Label), bold("%d%%", e.BatteryPercent))
				case events.SampleFailed:
					e, err := events.DecodeAs[events.SampleFailedEvent](ev)
					if err != nil {
						logrus.Warnf("bad %s event: %v", ev.Name, err)
						continue
					}
					cmd.Printf("%s  sample failed: %s (retry in %s)\n", time.Unix(e.Ts, 0).Format(time.TimeOnly), e.Error, e.RetryAfter)
				case events.ConfigReloaded:
					e, err := events.DecodeAs[events.ConfigReloadedEvent](ev)
					if err != nil {
						logrus.Warnf("bad %s event: %v", ev.Name, err)
						continue
					}
					cmd.Printf("%s  config reloaded: %s %s\n", time.Unix(e.Ts, 0).Format(time.TimeOnly), bool2Text(e.Valid), e.Message)
					if e.Valid {
						bands = daemonBands(c)
					}
				default:
					logrus.Debugf("ignoring event %s", ev.Name)
				}
			}
			return nil
		},
	}
}

// daemonBands fetches the CO2 table the daemon labels samples with.
func daemonBands(c *client.Client) co2.Table {
	b, err := c.GetCO2Bands("")
	if err != nil {
		logrus.Warnf("failed to get co2 bands: %v", err)
		return nil
	}
	return b.Bands
}

func NewPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publish",
		Short:   "Publish the latest status to MQTT now",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := newClient().PublishNow()
			if err != nil {
				return err
			}
			logrus.Infof("daemon responded: %s", ret)
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "next",
			Short: "Show when the next scheduled publish runs",
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := newClient().GetPublishSchedule()
				if err != nil {
					return err
				}
				printPublishSchedule(cmd, s)
				return nil
			},
		},
		&cobra.Command{
			Use:   "skip",
			Short: "Skip the next scheduled publish",
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := newClient().SkipPublish()
				if err != nil {
					return err
				}
				printPublishSchedule(cmd, s)
				return nil
			},
		},
	)

	return cmd
}

func printPublishSchedule(cmd *cobra.Command, s *api.PublishSchedule) {
	if !s.Enabled {
		cmd.Printf("Publishing: %s (set publish.broker to enable)\n", bool2Text(false))
		return
	}
	cmd.Printf("Publishing: %s\n", bool2Text(true))
	cmd.Printf("  Broker: %s\n", bold("%s", s.Broker))
	cmd.Printf("  Topic: %s\n", bold("%s", s.Topic))
	cmd.Printf("  Schedule: %s\n", bold("%s", s.Schedule))
	if s.NextRun != nil {
		cmd.Printf("  Next run: %s (in %s)\n", bold("%s", s.NextRun.Format(time.DateTime)), time.Until(*s.NextRun).Round(time.Second))
	} else {
		cmd.Printf("  Next run: %s\n", bold("none"))
	}
}

func NewReloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reload",
		Short:   "Make the daemon re-read its config file",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newClient().ReloadConfig()
			if err != nil {
				return err
			}
			if !v.Valid {
				cmd.Printf("%s config rejected, the daemon keeps its current settings\n", bool2Text(false))
				return pkgerrors.New(v.Problem)
			}
			cmd.Printf("%s config reloaded\n", bool2Text(true))
			return nil
		},
	}
}
