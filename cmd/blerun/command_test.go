package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blerun/internal/device"
	"github.com/srg/blerun/internal/testutils"
	"github.com/srg/blerun/pkg/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// CommandTestSuite runs the root command against a fake wireless stack.
type CommandTestSuite struct {
	suite.Suite

	mgr *testutils.FakeManager

	origManager func(*logrus.Logger) (device.Manager, error)
	origConfig  func() *config.Config
}

func (s *CommandTestSuite) SetupTest() {
	s.origManager = newManager
	s.origConfig = newConfig

	s.mgr = nil
	newManager = func(*logrus.Logger) (device.Manager, error) {
		s.Require().NotNil(s.mgr, "test MUST install a fake stack before executing")
		return s.mgr, nil
	}
	newConfig = func() *config.Config {
		cfg := config.DefaultConfig()
		cfg.ScanWindow = time.Millisecond
		cfg.ReadTimeout = 50 * time.Millisecond
		cfg.PollInterval = 5 * time.Millisecond
		return cfg
	}

	// Flag values live on the global command; reset them between runs.
	s.Require().NoError(rootCmd.PersistentFlags().Set("log-level", ""))
	s.Require().NoError(rootCmd.Flags().Set("verbose", "false"))
}

func (s *CommandTestSuite) TearDownTest() {
	newManager = s.origManager
	newConfig = s.origConfig
}

// ExecuteCommand runs the root command with args, returns stdout, stderr and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, string, error) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (s *CommandTestSuite) TestCompletedSession() {
	s.mgr = testutils.NewFakeStack().
		WithAdapter("hci0").
		WithPeripheral("AA:01", "Jakub’s iPhone").
		WithService("180f").
		WithCharacteristic("2a19", "read").
		ReadSucceedsOn(2, []byte{5}).
		Build()

	stdout, stderr, err := s.ExecuteCommand()
	s.Require().NoError(err)

	testutils.NewTranscriptAsserter(s.T()).Equal(`
Device found: Jakub’s iPhone
DEVICE CONNECTED
Service UUID: 180f
  Characteristic UUID: 2a19
READING
Data read: [5]
WRITING
Data written: [1 2 3]
DISCONNECTING...
`, stdout)
	s.Empty(stderr, "default log level MUST be silent")
	s.mgr.AssertNumberOfCalls(s.T(), "Close", 1)
}

func (s *CommandTestSuite) TestNothingToDoExitsCleanly() {
	s.mgr = testutils.NewFakeStack().Build()

	stdout, stderr, err := s.ExecuteCommand()
	s.Require().NoError(err)
	s.Empty(stdout)
	s.Equal("No Bluetooth adapters found.\n", stderr)
	s.mgr.AssertNumberOfCalls(s.T(), "Close", 1)
}

func (s *CommandTestSuite) TestDebugLoggingGoesToStderr() {
	s.mgr = testutils.NewFakeStack().
		WithAdapter("hci0").
		WithPeripheral("AA:01", "Lamp").
		Build()

	stdout, stderr, err := s.ExecuteCommand("--verbose")
	s.Require().NoError(err)
	s.Equal("Device found: Lamp\n", stdout)
	s.Contains(stderr, "Target device not found.")
	s.Contains(stderr, "Scan window elapsed")
	s.Contains(stderr, "adapter=hci0")
}

func (s *CommandTestSuite) TestFatalErrorIsReturned() {
	s.mgr = testutils.NewFakeStack().
		WithAdapter("hci0").
		WithPeripheral("AA:01", "Jakub’s iPhone").
		WithPeripheralConfig(func(p *testutils.PeripheralConfig) { p.ConnectError = "connection refused" }).
		Build()

	_, _, err := s.ExecuteCommand()
	s.Require().Error(err)
	s.EqualError(err, "failed to connect to AA:01: connection refused")
	s.mgr.AssertNumberOfCalls(s.T(), "Close", 1)
}

func (s *CommandTestSuite) TestManagerInitFailure() {
	newManager = func(*logrus.Logger) (device.Manager, error) {
		return nil, device.ErrUnsupported
	}

	_, _, err := s.ExecuteCommand()
	s.Require().Error(err)
	s.ErrorIs(err, device.ErrUnsupported)
	s.Equal("Bluetooth is not supported on this platform", FormatUserError(err))
}

func (s *CommandTestSuite) TestInvalidLogLevel() {
	_, _, err := s.ExecuteCommand("--log-level", "trace")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid log level: trace")
}

func (s *CommandTestSuite) TestRejectsPositionalArgs() {
	s.mgr = testutils.NewFakeStack().Build()
	_, _, err := s.ExecuteCommand("Lamp")
	s.Require().Error(err)
	s.mgr.AssertNotCalled(s.T(), "Adapters", mock.Anything)
}

func TestCommandTestSuite(t *testing.T) {
	suite.Run(t, new(CommandTestSuite))
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"bluetooth off", errors.Join(errors.New("scan"), device.ErrBluetoothOff), "Bluetooth is turned off, enable it and try again"},
		{"no characteristic", device.ErrNoCharacteristic, "target device exposes no characteristics to read or write"},
		{"adapter rejected", &device.NotFoundError{Resource: "adapter"}, "no usable Bluetooth adapter was selected"},
		{"peripheral not found passes through", &device.NotFoundError{Resource: "peripheral", Names: []string{"Lamp"}}, `peripheral "Lamp" not found`},
		{"timeout", device.ErrTimeout, "operation timed out: timeout"},
		{"link lost", fmt.Errorf("failed to disconnect from AA:01: %w", device.ErrNotConnected), "the device disconnected unexpectedly: failed to disconnect from AA:01: not_connected"},
		{"needs pairing", fmt.Errorf("failed to read characteristic 2a19: %w", device.ErrInsufficientSecurity), "the device requires pairing or encryption for this characteristic: failed to read characteristic 2a19: insufficient security"},
		{"not permitted", device.ErrNotPermitted, "the device does not permit this operation: operation not permitted by peripheral"},
		{"unknown", errors.New("hci: command disallowed"), "hci: command disallowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatUserError(tt.err); got != tt.want {
				t.Errorf("FormatUserError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatVersion(t *testing.T) {
	tests := map[string]string{
		"1.2.3":  "v1.2.3",
		"v1.2.3": "v1.2.3",
		"dev":    "dev",
		"":       "",
	}
	for in, want := range tests {
		if got := formatVersion(in); got != want {
			t.Errorf("formatVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
