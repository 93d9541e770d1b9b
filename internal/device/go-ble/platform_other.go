//go:build !linux && !darwin

package goble

import (
	"fmt"
	"runtime"

	"github.com/go-ble/ble"
	"github.com/srg/blerun/internal/device"
)

func newPlatformDevice(...ble.Option) (ble.Device, error) {
	return nil, fmt.Errorf("%w: no BLE backend for %s", device.ErrUnsupported, runtime.GOOS)
}

func platformInit() error {
	return fmt.Errorf("%w: no BLE backend for %s", device.ErrUnsupported, runtime.GOOS)
}

func enumerateAdapters() ([]adapterSpec, error) {
	return nil, platformInit()
}
