package goble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ble/ble"
	"github.com/srg/blerun/internal/device"
)

// NormalizeError maps ATT error codes and known go-ble error strings to
// structured device errors. The result wraps the sentinel and keeps the
// original message.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	var attErr ble.ATTError
	if errors.As(err, &attErr) {
		if sentinel := attSentinel(attErr); sentinel != nil {
			return fmt.Errorf("%w: %v", sentinel, err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case msg == "central manager has invalid state: have=4 want=5: is Bluetooth turned on?":
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "bluetooth is turned off"):
		return fmt.Errorf("%w: %v", device.ErrBluetoothOff, err)
	case containsIgnoreCase(msg, "device not connected"):
		return fmt.Errorf("%w: %v", device.ErrNotConnected, err)
	case containsIgnoreCase(msg, "disconnected"):
		return fmt.Errorf("%w: %v", device.ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", device.ErrAlreadyConnected, err)
	case containsIgnoreCase(msg, "timed out"):
		return fmt.Errorf("%w: %v", device.ErrTimeout, err)
	default:
		return err
	}
}

func attSentinel(code ble.ATTError) error {
	switch code {
	case ble.ErrReadNotPerm, ble.ErrWriteNotPerm:
		return device.ErrNotPermitted
	case ble.ErrAuthentication, ble.ErrAuthorization, ble.ErrInsuffEnc, ble.ErrInsuffEncrKeySize:
		return device.ErrInsufficientSecurity
	case ble.ErrReqNotSupp:
		return device.ErrUnsupported
	default:
		return nil
	}
}

// containsIgnoreCase checks the substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
