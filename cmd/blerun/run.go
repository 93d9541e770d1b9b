package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blerun/internal/device"
	goble "github.com/srg/blerun/internal/device/go-ble"
	"github.com/srg/blerun/internal/session"
	"github.com/srg/blerun/pkg/config"
	"golang.org/x/term"
)

// Overridden in tests.
var (
	newManager = func(logger *logrus.Logger) (device.Manager, error) {
		mgr, err := goble.NewManager(logger)
		if err != nil {
			return nil, err
		}
		return mgr, nil
	}
	newConfig = config.DefaultConfig
)

func runSession(cmd *cobra.Command, _ []string) error {
	cfg := newConfig()
	logger, err := configureLogger(cmd, "verbose", cfg)
	if err != nil {
		return err
	}

	mgr, err := newManager(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Bluetooth: %w", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release Bluetooth adapters")
		}
	}()

	out := cmd.OutOrStdout()
	console := session.NewConsole(out, cmd.ErrOrStderr(), isTerminal(out))

	runner, err := session.NewRunner(mgr, cfg,
		session.WithConsole(console),
		session.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	report, err := runner.Run(cmd.Context())
	if report != nil {
		fields := logrus.Fields{
			"outcome":    report.Outcome.String(),
			"adapter":    report.Adapter,
			"discovered": report.Discovered,
			"address":    report.Peripheral,
		}
		if report.Read.Attempts > 0 {
			fields["read"] = report.Read.Outcome.String()
			fields["attempts"] = report.Read.Attempts
		}
		logger.WithFields(fields).Info("Session finished")
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
