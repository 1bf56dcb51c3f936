package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit(t *testing.T) {
	u := Unit("/usr/local/bin/badge", Options{
		ConfigPath:     "/etc/badge.yaml",
		UnixSocketPath: "/var/run/badge.sock",
	})

	assert.Contains(t, u, "ExecStart=/usr/local/bin/badge daemon --config /etc/badge.yaml --daemon-socket /var/run/badge.sock\n")
	assert.Contains(t, u, "ExecReload=/bin/kill -HUP $MAINPID")
	assert.NotContains(t, u, "{{")

	u = Unit("/usr/local/bin/badge", Options{
		ConfigPath:         "/etc/badge.yaml",
		UnixSocketPath:     "/var/run/badge.sock",
		AllowNonRootAccess: true,
	})
	assert.Contains(t, u, "--daemon-socket /var/run/badge.sock --allow-non-root-access\n")
}

func TestInstallUninstall(t *testing.T) {
	dir := t.TempDir()
	oldDir, oldCtl := unitDir, systemctl
	t.Cleanup(func() { unitDir, systemctl = oldDir, oldCtl })

	unitDir = dir
	// "true" accepts any arguments and succeeds.
	systemctl = "true"

	require.NoError(t, Install(Options{ConfigPath: "/etc/badge.yaml", UnixSocketPath: "/run/badge.sock"}))

	b, err := os.ReadFile(filepath.Join(dir, unitName))
	require.NoError(t, err)
	assert.Contains(t, string(b), "--config /etc/badge.yaml")

	require.NoError(t, Uninstall())
	_, err = os.Stat(filepath.Join(dir, unitName))
	assert.True(t, os.IsNotExist(err))

	systemctl = "false"
	assert.Error(t, Uninstall())
}
