package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magtag-badge/badge/pkg/battery"
	"github.com/magtag-badge/badge/pkg/board"
	"github.com/magtag-badge/badge/pkg/co2"
	"github.com/magtag-badge/badge/pkg/config"
)

func NewBatteryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "battery",
		Short:       "Battery voltage and fuel gauge lookups",
		GroupID:     gLookup,
		Annotations: offline(),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "percent [voltage]",
			Short: "Estimate the state of charge for a cell voltage",
			Long: `Estimate the state of charge for a cell voltage.

The estimate interpolates the 101-entry discharge table. Voltages at or
below the empty voltage give 0%, at or above the full voltage 100%.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := parseFloatArg(args, "voltage")
				if err != nil {
					return err
				}
				cmd.Printf("%.3fV: %s (%.2f%%)\n", v, bold("%d%%", battery.DefaultTable.PercentInt(v)), battery.DefaultTable.Percent(v))
				return nil
			},
		},
		&cobra.Command{
			Use:   "table",
			Short: "Print the voltage table",
			RunE: func(cmd *cobra.Command, _ []string) error {
				for i, v := range battery.DefaultTable {
					cmd.Printf("%3d%%  %.3fV\n", i, v)
				}
				return nil
			},
		},
		newBatteryGaugeCommand(),
	)

	return cmd
}

func newBatteryGaugeCommand() *cobra.Command {
	capacity := 0

	cmd := &cobra.Command{
		Use:   "gauge",
		Short: "Print the LC709203F APA code for a battery capacity",
		Long: `Print the LC709203F APA code for a battery capacity.

Without --capacity, the capacity from the config file is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if capacity == 0 {
				c, err := loadConfig()
				if err != nil {
					return err
				}
				capacity = c.BatteryCapacityMah()
			}

			apa, err := battery.APAFor(capacity)
			if err != nil {
				return err
			}
			cmd.Printf("%d mAh: APA %s\n", capacity, bold("%s", apa))
			return nil
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 0, "battery capacity in mAh")

	return cmd
}

func co2TableFor(revision string) (string, co2.Table, error) {
	if revision == "" {
		c, err := loadConfig()
		if err != nil {
			return "", nil, err
		}
		revision = c.CO2Revision()
	}
	t, err := co2.Revision(revision)
	return revision, t, err
}

func NewCO2Command() *cobra.Command {
	revision := ""

	cmd := &cobra.Command{
		Use:         "co2",
		Short:       "CO2 label lookups",
		GroupID:     gLookup,
		Annotations: offline(),
	}
	cmd.PersistentFlags().StringVar(&revision, "revision", "",
		fmt.Sprintf("threshold table (%s or %s); defaults to the config file", co2.RevisionThreeLevel, co2.RevisionFiveLevel))

	cmd.AddCommand(
		&cobra.Command{
			Use:   "classify [ppm]",
			Short: "Label a CO2 concentration",
			Long: `Label a CO2 concentration.

The label is the one with the highest threshold that does not exceed the
reading.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ppm, err := strconv.ParseUint(args[0], 10, 16)
				if err != nil {
					return fmt.Errorf("invalid ppm %q: must be an integer between 0 and 65535", args[0])
				}

				name, t, err := co2TableFor(revision)
				if err != nil {
					return err
				}

				b := t.Classify(uint16(ppm))
				cmd.Printf("%d ppm: %s", ppm, co2Color(t, b.Label))
				if b.Color != co2.ColorNone {
					cmd.Printf(" (%s)", b.Color)
				}
				cmd.Printf(" [%s]\n", name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "bands",
			Short: "Print a threshold table",
			RunE: func(cmd *cobra.Command, _ []string) error {
				name, t, err := co2TableFor(revision)
				if err != nil {
					return err
				}

				cmd.Println(bold("%s:", name))
				for i, b := range t {
					upper := "and above"
					if i+1 < len(t) {
						upper = fmt.Sprintf("to %d", t[i+1].Threshold-1)
					}
					cmd.Printf("  %-6s %5d %s", b.Label, b.Threshold, upper)
					if b.Color != co2.ColorNone {
						cmd.Printf(" (%s)", b.Color)
					}
					cmd.Println()
				}
				return nil
			},
		},
	)

	return cmd
}

func NewWakeMaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wake-mask [button...]",
		Short: "Compute the ext1 wake-up bitmask",
		Long: `Compute the ext1 wake-up bitmask for buttons A to D.

Without arguments, the wake buttons from the config file are used.`,
		GroupID:     gLookup,
		Annotations: offline(),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				c, err := loadConfig()
				if err != nil {
					return err
				}
				names = c.WakeButtons()
			}

			buttons, err := board.ParseButtons(names)
			if err != nil {
				return err
			}

			mask := board.WakeMask(buttons...)
			pins := make([]string, 0, len(buttons))
			for _, b := range buttons {
				pins = append(pins, fmt.Sprintf("%s=GPIO%d", b, b.GPIO()))
			}
			cmd.Printf("%s (%s)\n", bold("0x%X", mask), strings.Join(pins, ", "))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "decode [mask]",
		Short: "List the buttons in a wake-up bitmask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mask, err := strconv.ParseUint(args[0], 0, 64)
			if err != nil {
				return fmt.Errorf("invalid mask %q: %v", args[0], err)
			}

			buttons, err := board.ButtonsFromMask(mask)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(buttons))
			for _, b := range buttons {
				names = append(names, b.String())
			}
			cmd.Println(strings.Join(names, " "))
			return nil
		},
	})

	return cmd
}

func NewQRCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "qr",
		Short:       "Check that the configured QR code fits the display",
		GroupID:     gLookup,
		Annotations: offline(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}

			p, err := config.QRParams(c)
			if err != nil {
				return err
			}
			if p.URL == "" {
				cmd.Println("No QR url configured, the badge shows no code.")
				return nil
			}

			cmd.Printf("URL: %s (%d bytes)\n", bold("%s", p.URL), len(p.URL))
			cmd.Printf("Version %d, level %s, scale %d\n", p.Version, p.ECC, p.Scale)

			if err := p.Validate(board.DisplayHeight); err != nil {
				cmd.Printf("Fits: %s\n", bool2Text(false))
				return err
			}
			cmd.Printf("Size: %dx%d modules, %dpx of %dpx\n", p.Modules(), p.Modules(), p.PixelSize(), board.DisplayHeight)
			cmd.Printf("Fits: %s\n", bool2Text(true))

			art, err := p.Render()
			if err != nil {
				return err
			}
			cmd.Println()
			cmd.Print(art)
			return nil
		},
	}
}
