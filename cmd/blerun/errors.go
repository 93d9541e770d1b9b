package main

import (
	"context"
	"errors"
	"os"

	"github.com/srg/blerun/internal/device"
)

// FormatUserError turns known error classes into an actionable one-line message.
// Anything unrecognised is printed as is.
func FormatUserError(err error) string {
	var notFound *device.NotFoundError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off, enable it and try again"
	case errors.Is(err, device.ErrUnsupported):
		return "Bluetooth is not supported on this platform"
	case errors.Is(err, os.ErrPermission):
		return "permission denied opening the Bluetooth adapter (run as root or grant CAP_NET_ADMIN): " + err.Error()
	case device.IsConnectionState(err, device.NotConnected):
		return "the device disconnected unexpectedly: " + err.Error()
	case errors.Is(err, device.ErrNoCharacteristic):
		return "target device exposes no characteristics to read or write"
	case errors.Is(err, device.ErrInsufficientSecurity):
		return "the device requires pairing or encryption for this characteristic: " + err.Error()
	case errors.Is(err, device.ErrNotPermitted):
		return "the device does not permit this operation: " + err.Error()
	case errors.As(err, &notFound) && notFound.Resource == "adapter":
		return "no usable Bluetooth adapter was selected"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, device.ErrTimeout):
		return "operation timed out: " + err.Error()
	default:
		return err.Error()
	}
}
