package main

import (
	"github.com/spf13/cobra"

	"github.com/magtag-badge/badge/pkg/status"
)

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBadge,
		Short:   "Show what the badge is displaying",
		Long:    `Show the identity, latest reading, battery and CO2 label as the daemon sees them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newClient().GetStatus()
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}

			printStatus(cmd, s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw status snapshot")

	return cmd
}

func printStatus(cmd *cobra.Command, s *status.Snapshot) {
	cmd.Println(bold("Badge:"))
	if name := s.DisplayName(); name != "" {
		cmd.Printf("  Name: %s\n", bold("%s", name))
	}
	if s.Identity.Email != "" {
		cmd.Printf("  Email: %s\n", s.Identity.Email)
	}
	if s.QRURL != "" {
		cmd.Printf("  QR: %s\n", s.QRURL)
	}
	cmd.Printf("  Profile: %s\n", s.Profile)
	cmd.Printf("  Simulated hardware: %s\n", bool2Text(s.Simulated))
	cmd.Printf("  Wake buttons: %v (%s)\n", s.WakeButtons, s.WakeMask)

	cmd.Println()

	if s.Reading == nil {
		cmd.Println("No sample taken yet.")
		return
	}

	cmd.Println(bold("Air:"))
	cmd.Printf("  CO2: %s %s\n", bold("%d ppm", s.CO2.PPM), co2RevisionColor(s.CO2.Revision, s.CO2.Label))
	cmd.Printf("  Temperature: %s\n", bold("%.1f°C", s.Environment.TemperatureC))
	cmd.Printf("  Humidity: %s\n", bold("%.0f%%", s.Environment.Humidity))
	cmd.Printf("  Altitude: %d m\n", s.Environment.AltitudeM)
	cmd.Printf("  Sampled at: %s\n", s.Reading.Time.Local().Format("15:04:05"))

	cmd.Println()

	cmd.Println(bold("Battery:"))
	cmd.Printf("  Charge: %s\n", bold("%d%%", s.Battery.Percent))
	cmd.Printf("  Voltage: %s\n", bold("%.2f V", s.Battery.Voltage))
	cmd.Printf("  Capacity: %d mAh (APA %s)\n", s.Battery.CapacityMah, s.Battery.APA)
}
