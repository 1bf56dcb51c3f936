package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/magtag-badge/badge/pkg/client"
	"github.com/magtag-badge/badge/pkg/co2"
	"github.com/magtag-badge/badge/pkg/config"
)

func newClient() *client.Client {
	return client.NewClient(unixSocketPath)
}

// loadConfig reads the config file for commands that run without the daemon.
func loadConfig() (*config.File, error) {
	c, err := config.NewFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	return c, nil
}

func parseFloatArg(args []string, valueName string) (float32, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid %s: %q is not a finite number", valueName, args[0])
	}

	return float32(value), nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

// co2Attr picks the color for a label by its band's position in t: the
// lowest band is green, the highest red, anything between yellow.
func co2Attr(t co2.Table, label string) (color.Attribute, bool) {
	for i, b := range t {
		if b.Label != label {
			continue
		}
		switch i {
		case 0:
			return color.FgGreen, true
		case len(t) - 1:
			return color.FgRed, true
		}
		return color.FgYellow, true
	}
	return 0, false
}

func co2Color(t co2.Table, label string) string {
	attr, ok := co2Attr(t, label)
	if !ok {
		return bold("%s", label)
	}
	return color.New(color.Bold, attr).Sprint(label)
}

// co2RevisionColor colors label within the named revision.
func co2RevisionColor(revision, label string) string {
	t, err := co2.Revision(revision)
	if err != nil {
		return bold("%s", label)
	}
	return co2Color(t, label)
}
