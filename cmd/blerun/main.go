package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd runs one device session: scan, connect to the target, read, write, disconnect.
var rootCmd = &cobra.Command{
	Use:   "blerun",
	Short: "Run a single read/write session against a BLE device",
	Long: `Run a single Bluetooth Low Energy session against a fixed target device:

- Scan on the first local adapter and list every advertised device
- Connect to the device whose advertised name matches the target
- List its GATT services and characteristics
- Poll the first characteristic for a value, then write a fixed payload to it
- Disconnect

Progress is printed to stdout; "nothing found" notices and write failures go to stderr.`,
	Version:      formatVersion(version),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSession,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", commit, date))

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("verbose", false, "Enable debug logging (same as --log-level debug)")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
