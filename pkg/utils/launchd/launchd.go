// Package launchd registers batterytool as a launchd daemon.
package launchd

import (
	"os"
	"os/exec"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"howett.net/plist"
)

const (
	Label   = "io.batterytool.daemon"
	LogPath = "/Library/Logs/batterytool.log"
)

var (
	launchDaemonsDir = "/Library/LaunchDaemons"
	plistPath        = filepath.Join(launchDaemonsDir, Label+".plist")

	launchctl = func(args ...string) error {
		out, err := exec.Command("/bin/launchctl", args...).CombinedOutput()
		if err != nil {
			return pkgerrors.Wrapf(err, "launchctl %v: %s", args, out)
		}
		return nil
	}
)

// Job is the subset of launchd.plist(5) batterytool uses.
type Job struct {
	Label             string     `plist:"Label"`
	ProgramArguments  []string   `plist:"ProgramArguments"`
	RunAtLoad         bool       `plist:"RunAtLoad"`
	KeepAlive         *KeepAlive `plist:"KeepAlive,omitempty"`
	StandardOutPath   string     `plist:"StandardOutPath,omitempty"`
	StandardErrorPath string     `plist:"StandardErrorPath,omitempty"`
}

type KeepAlive struct {
	SuccessfulExit bool `plist:"SuccessfulExit"`
}

// NewJob runs exePath with args at load. A clean exit (target reached or
// stopped) is final; a failed run is restarted.
func NewJob(exePath string, args []string) Job {
	return Job{
		Label:             Label,
		ProgramArguments:  append([]string{exePath}, args...),
		RunAtLoad:         true,
		KeepAlive:         &KeepAlive{SuccessfulExit: false},
		StandardOutPath:   LogPath,
		StandardErrorPath: LogPath,
	}
}

func (j Job) Marshal() ([]byte, error) {
	b, err := plist.MarshalIndent(j, plist.XMLFormat, "\t")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode launchd plist")
	}
	return b, nil
}

// PlistPath is where Install writes the job.
func PlistPath() string {
	return plistPath
}

// Install writes the job for the current executable and loads it.
func Install(args []string) error {
	exePath, err := os.Executable()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to get the path to the current executable")
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to get the absolute path to the current executable")
	}

	logrus.Infof("current executable path: %s", exePath)

	b, err := NewJob(exePath, args).Marshal()
	if err != nil {
		return err
	}

	err = os.MkdirAll(launchDaemonsDir, 0755)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", launchDaemonsDir)
	}

	if _, err := os.Stat(plistPath); err == nil {
		logrus.Warnf("%s already exists, overwriting", plistPath)
	}

	logrus.Infof("writing launch daemon to %s", plistPath)
	err = os.WriteFile(plistPath, b, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to write %s", plistPath)
	}

	// launchd refuses daemons not owned by root:wheel.
	if os.Geteuid() == 0 {
		err = os.Chown(plistPath, 0, 0)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to chown %s", plistPath)
		}
	}

	logrus.Infof("loading %s", Label)
	err = launchctl("load", plistPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to load %s", plistPath)
	}

	return nil
}

// Uninstall unloads and removes the job. A missing plist is not an error.
func Uninstall() error {
	if _, err := os.Stat(plistPath); err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("%s does not exist, nothing to uninstall", plistPath)
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to stat %s", plistPath)
	}

	logrus.Infof("unloading %s", Label)
	err := launchctl("unload", plistPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unload %s. Are you root?", plistPath)
	}

	err = os.Remove(plistPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to remove %s. Are you root?", plistPath)
	}

	return nil
}
