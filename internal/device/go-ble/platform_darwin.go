//go:build darwin

package goble

import (
	"fmt"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
)

func newPlatformDevice(opts ...ble.Option) (ble.Device, error) {
	dev, err := darwin.NewDevice(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating darwin device: %w", err)
	}
	return dev, nil
}

func platformInit() error {
	return nil
}

// enumerateAdapters exposes the single CoreBluetooth central manager.
func enumerateAdapters() ([]adapterSpec, error) {
	return []adapterSpec{{id: "default"}}, nil
}
