package goble

import (
	"github.com/go-ble/ble"
)

// DeviceFactory creates ble.Device instances (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking as goble.DeviceFactory
var DeviceFactory = func(opts ...ble.Option) (ble.Device, error) {
	return newPlatformDevice(opts...)
}

// adapterSpec describes a local radio before it is opened.
type adapterSpec struct {
	id   string
	opts []ble.Option
}
