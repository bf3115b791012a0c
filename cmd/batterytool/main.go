package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/batterytool/batterytool/pkg/client"
	"github.com/batterytool/batterytool/pkg/config"
	"github.com/batterytool/batterytool/pkg/daemon"
	"github.com/batterytool/batterytool/pkg/utils/osver"
)

var (
	logLevel   = "info"
	logFormat  = "text"
	logFile    = ""
	configPath = config.DefaultPath
	socketPath = "/var/run/batterytool.sock"

	logFileHandle *os.File
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	gInstallation = "Installation:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
		gInstallation,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{})
		if term.IsTerminal(int(os.Stderr.Fd())) {
			logrus.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: time.Kitchen,
			})
		}
	default:
		return fmt.Errorf("unknown log format %q, expected text or json", logFormat)
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %v", err)
		}
		logFileHandle = f
		logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	return nil
}

func handleCmdError(err error) {
	switch {
	case errors.Is(err, client.ErrDaemonNotRunning):
		fmt.Fprintln(os.Stderr, "\nError: batterytool daemon is not running")
		fmt.Fprintln(os.Stderr, "Is it running with --status-socket? Have you installed it?")
	case errors.Is(err, client.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
	case errors.Is(err, daemon.ErrChargerNotConnected):
		fmt.Fprintln(os.Stderr, "\nError: the power adapter is not connected")
		fmt.Fprintln(os.Stderr, "  - Plug in your Mac, or pass --force to start anyway")
	}
}

func main() {
	if v, err := osver.Get(); err == nil && !v.AtLeast(osver.Version{Major: 11}) {
		fmt.Fprintln(os.Stderr, "batterytool requires macOS 11.0 or later")
		os.Exit(1)
	}

	// One polling goroutine does not need more.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}

	cmd := NewCommand()
	err := cmd.Execute()
	if logFileHandle != nil {
		_ = logFileHandle.Close()
	}
	if err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batterytool",
		Short: "batterytool cycles MacBook battery charging until a target health is reached",
		Long: `batterytool cycles MacBook battery charging until a target health is reached.

It disables charging and forces discharge above the max charge, re-enables
charging below the min charge, and stops once battery health has dropped to
the target. Charging is always re-enabled when it exits.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", logLevel, "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&logFormat, "log-format", logFormat, "log format (text, json)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&socketPath, "daemon-socket", socketPath, "status API unix socket path used by client commands")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewRunCommand(),
		NewStatusCommand(),
		NewWatchCommand(),
		NewDashboardCommand(),
		NewProbeCommand(),
		NewResetCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
		NewVersionCommand(),
	)

	return cmd
}
