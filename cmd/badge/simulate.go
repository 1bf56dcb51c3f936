package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/magtag-badge/badge/pkg/battery"
	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/sensor"
	"github.com/magtag-badge/badge/pkg/status"
)

func NewSimulateCommand() *cobra.Command {
	var (
		count  = 1
		seed   int64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Take simulated samples and show what the badge would display",
		Long: `Take simulated samples and show what the badge would display.

Each sample takes readsPerSample reads from the hardware simulator and keeps
the last one, as the daemon does. The simulateHardware setting is ignored.`,
		GroupID:     gBadge,
		Annotations: offline(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.Validate(c); err != nil {
				return err
			}

			src, err := sensor.NewSource(sensor.Options{
				Simulate:          true,
				TemperatureOffset: float32(c.TemperatureOffsetCelsius()),
				Seed:              seed,
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			for i := 0; i < count; i++ {
				r, err := sensor.Sample(ctx, src, c.ReadsPerSample())
				if err != nil {
					return err
				}

				s, err := status.Build(c, &battery.DefaultTable, &r)
				if err != nil {
					return err
				}

				if asJSON {
					if err := printJSON(cmd.OutOrStdout(), s); err != nil {
						return err
					}
					continue
				}

				cmd.Printf("%s  CO2 %s  %s  %.1f°C  %.0f%%RH  battery %s (%.2fV)\n",
					r.Time.Format(time.TimeOnly),
					bold("%4d ppm", s.CO2.PPM),
					co2RevisionColor(s.CO2.Revision, s.CO2.Label),
					r.TemperatureC,
					r.Humidity,
					bold("%d%%", s.Battery.Percent),
					r.BatteryVoltage,
				)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&count, "count", "n", count, "number of samples")
	f.Int64Var(&seed, "seed", 0, "simulator seed; 0 seeds from the clock")
	f.BoolVar(&asJSON, "json", false, "print each sample as a JSON status snapshot")

	return cmd
}
