// Package service installs the badge daemon as a systemd service.
package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const unitName = "badge.service"

var (
	unitDir   = "/etc/systemd/system"
	systemctl = "systemctl"
)

const unitTemplate = `[Unit]
Description=MagTag badge daemon
After=network-online.target
Wants=network-online.target

[Service]
ExecStart={{exe}} daemon --config {{config}} --daemon-socket {{socket}}{{extra}}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`

// Options are baked into the unit's command line.
type Options struct {
	ConfigPath         string
	UnixSocketPath     string
	AllowNonRootAccess bool
}

// UnitPath is where Install writes the unit file.
func UnitPath() string {
	return filepath.Join(unitDir, unitName)
}

// Unit renders the unit file for the executable at exePath.
func Unit(exePath string, opts Options) string {
	extra := ""
	if opts.AllowNonRootAccess {
		extra = " --allow-non-root-access"
	}
	return strings.NewReplacer(
		"{{exe}}", exePath,
		"{{config}}", opts.ConfigPath,
		"{{socket}}", opts.UnixSocketPath,
		"{{extra}}", extra,
	).Replace(unitTemplate)
}

func Install(opts Options) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	err = os.MkdirAll(unitDir, 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", unitDir, err)
	}

	unitPath := UnitPath()
	if _, err := os.Stat(unitPath); err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	logrus.Infof("writing %s", unitPath)
	err = os.WriteFile(unitPath, []byte(Unit(exePath, opts)), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	logrus.Infof("starting badge daemon")

	if err := run("daemon-reload"); err != nil {
		return err
	}
	return run("enable", "--now", unitName)
}

func run(args ...string) error {
	out, err := exec.Command(systemctl, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s failed: %w: %s", systemctl, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
