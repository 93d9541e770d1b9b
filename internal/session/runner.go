package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blerun/internal/device"
	"github.com/srg/blerun/pkg/config"
)

// Outcome is how a session ended. A report returned with an error is OutcomeFailed.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCompleted
	OutcomeNoAdapters
	OutcomeTargetNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeCompleted:
		return "completed"
	case OutcomeNoAdapters:
		return "no adapters"
	case OutcomeTargetNotFound:
		return "target not found"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Report records what a session did. On a fatal error it holds everything
// reached before the failure.
type Report struct {
	Outcome        Outcome
	Adapter        string
	Discovered     int
	Peripheral     string
	Services       int
	Characteristic string
	Read           ReadResult
	// WriteErr is the payload write failure, if any. It never fails the session.
	WriteErr error
}

// Runner executes the session sequence against a device.Manager.
type Runner struct {
	manager device.Manager
	cfg     *config.Config
	policy  Policy
	console *Console
	logger  *logrus.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPolicy overrides adapter, peripheral and characteristic selection.
func WithPolicy(p Policy) Option {
	return func(r *Runner) { r.policy = p }
}

// WithConsole sets where the session transcript is printed.
func WithConsole(c *Console) Option {
	return func(r *Runner) { r.console = c }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *logrus.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner validates cfg and returns a runner. Without options, output goes to
// stdout/stderr uncoloured and logging is silent.
func NewRunner(mgr device.Manager, cfg *config.Config, opts ...Option) (*Runner, error) {
	if mgr == nil {
		return nil, fmt.Errorf("device manager is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{manager: mgr, cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}

	r.policy = r.policy.withDefaults(cfg.TargetName)
	if r.console == nil {
		r.console = NewConsole(os.Stdout, os.Stderr, false)
	}
	if r.logger == nil {
		r.logger = logrus.New()
		r.logger.SetOutput(io.Discard)
	}
	return r, nil
}

// Run executes one session. A nil error with OutcomeNoAdapters or
// OutcomeTargetNotFound means there was nothing to do. On error the report
// is OutcomeFailed and holds what was reached before the failure.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	adapters, err := r.manager.Adapters(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list adapters: %w", err)
	}
	if len(adapters) == 0 {
		r.console.Warn("No Bluetooth adapters found.")
		report.Outcome = OutcomeNoAdapters
		return report, nil
	}

	adapter, ok := r.policy.SelectAdapter(adapters)
	if !ok {
		return report, &device.NotFoundError{Resource: "adapter"}
	}
	report.Adapter = adapter.ID()
	log := r.logger.WithField("adapter", adapter.ID())

	peripherals, err := r.scan(ctx, adapter, log)
	if err != nil {
		return report, err
	}
	report.Discovered = len(peripherals)

	for _, p := range peripherals {
		r.console.Info("Device found: %s", displayName(p))
	}

	target := findPeripheral(peripherals, r.policy.MatchPeripheral)
	if target == nil {
		r.console.Warn("Target device not found.")
		report.Outcome = OutcomeTargetNotFound
		return report, nil
	}
	report.Peripheral = target.ID()
	log = log.WithField("address", target.ID())

	if err := target.Connect(ctx); err != nil {
		return report, fmt.Errorf("failed to connect to %s: %w", target.ID(), err)
	}
	r.console.Success("DEVICE CONNECTED")

	if err := target.DiscoverServices(ctx); err != nil {
		return report, fmt.Errorf("failed to discover services on %s: %w", target.ID(), err)
	}

	services := target.Services()
	report.Services = len(services)
	for _, svc := range services {
		r.console.Info("Service UUID: %s", svc.UUID())
		for _, c := range svc.Characteristics() {
			r.console.Info("  Characteristic UUID: %s", c.UUID())
		}
	}

	char, ok := r.policy.SelectCharacteristic(services)
	if !ok {
		// The peripheral stays connected; see DESIGN.md "known limitations".
		return report, device.ErrNoCharacteristic
	}
	report.Characteristic = char.UUID()
	log = log.WithFields(logrus.Fields{
		"char_uuid":  char.UUID(),
		"properties": char.Properties().String(),
	})

	r.console.Info("READING")
	report.Read = PollRead(ctx, func(ctx context.Context) ([]byte, error) {
		data, err := target.Read(ctx, char)
		if err != nil {
			log.WithError(err).Debug("Read attempt failed, retrying")
		}
		return data, err
	}, r.cfg.ReadTimeout, r.cfg.PollInterval)

	readLog := log.WithFields(logrus.Fields{
		"outcome":  report.Read.Outcome.String(),
		"attempts": report.Read.Attempts,
		"elapsed":  report.Read.Elapsed,
	})
	if report.Read.LastErr != nil {
		readLog = readLog.WithError(report.Read.LastErr).WithField("recent_errors", len(report.Read.RecentErrors))
	}
	readLog.Info("Read polling finished")

	switch report.Read.Outcome {
	case ReadSucceeded:
		r.console.Success("Data read: %v", report.Read.Data)
	case ReadTimedOut:
		r.console.Notice("Timeout reached, no message received.")
	case ReadCanceled:
		r.console.Notice("Read canceled, no message received.")
	}

	// The write and disconnect run even when ctx was canceled during the read
	// poll, bounded by the write timeout instead.
	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.WriteTimeout)
	defer cancelWrite()

	r.console.Info("WRITING")
	if err := target.Write(writeCtx, char, r.cfg.Payload, device.WithoutResponse); err != nil {
		report.WriteErr = err
		r.console.Error("Error writing data: %v", err)
	} else {
		r.console.Success("Data written: %v", r.cfg.Payload)
	}

	r.console.Info("DISCONNECTING...")
	if err := target.Disconnect(); err != nil {
		return report, fmt.Errorf("failed to disconnect from %s: %w", target.ID(), err)
	}

	report.Outcome = OutcomeCompleted
	return report, nil
}

// scan starts an unfiltered scan, holds for the scan window and snapshots the
// peripherals seen. The scan is stopped once the snapshot is taken or the
// window is abandoned.
func (r *Runner) scan(ctx context.Context, adapter device.Adapter, log *logrus.Entry) ([]device.Peripheral, error) {
	if err := adapter.StartScan(ctx); err != nil {
		return nil, fmt.Errorf("failed to start scan on %s: %w", adapter.ID(), err)
	}
	defer func() {
		if err := adapter.StopScan(); err != nil {
			log.WithError(err).Warn("Failed to stop scan")
		}
	}()

	timer := time.NewTimer(r.cfg.ScanWindow)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	peripherals, err := adapter.Peripherals()
	if err != nil {
		return nil, fmt.Errorf("failed to list peripherals on %s: %w", adapter.ID(), err)
	}

	log.WithField("peripherals", len(peripherals)).Info("Scan window elapsed")
	return peripherals, nil
}

func displayName(p device.Peripheral) string {
	if name := p.Name(); name != "" {
		return name
	}
	return "<unnamed " + p.ID() + ">"
}
