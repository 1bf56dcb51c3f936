package service

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func Uninstall() error {
	logrus.Infof("stopping badge daemon")

	if err := run("disable", "--now", unitName); err != nil {
		return fmt.Errorf("failed to stop %s: %w. Are you root?", unitName, err)
	}

	logrus.Infof("removing %s", UnitPath())

	// if the file doesn't exist, we don't need to remove it
	_, err := os.Stat(UnitPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", UnitPath(), err)
	}

	err = os.Remove(UnitPath())
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w. Are you root?", UnitPath(), err)
	}

	return run("daemon-reload")
}
