//go:build linux

package goble

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

// sysfsBluetoothDir lists HCI controllers registered with the kernel.
var sysfsBluetoothDir = "/sys/class/bluetooth"

func newPlatformDevice(opts ...ble.Option) (ble.Device, error) {
	dev, err := linux.NewDevice(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating linux device: %w", err)
	}
	return dev, nil
}

func platformInit() error {
	return nil
}

// enumerateAdapters returns every hciN controller, ordered by index.
// A missing sysfs directory means no controllers, not an error.
func enumerateAdapters() ([]adapterSpec, error) {
	entries, err := os.ReadDir(sysfsBluetoothDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list bluetooth controllers in %s: %w", sysfsBluetoothDir, err)
	}

	type indexed struct {
		idx  int
		name string
	}
	var found []indexed
	for _, e := range entries {
		name := filepath.Base(e.Name())
		if !strings.HasPrefix(name, "hci") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(name, "hci"))
		if err != nil {
			// e.g. "hci0:12" connection entries
			continue
		}
		found = append(found, indexed{idx: idx, name: name})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].idx < found[j].idx })

	specs := make([]adapterSpec, 0, len(found))
	for _, f := range found {
		specs = append(specs, adapterSpec{
			id:   f.name,
			opts: []ble.Option{ble.OptDeviceID(f.idx)},
		})
	}
	return specs, nil
}
