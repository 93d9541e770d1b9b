package session

import (
	"github.com/srg/blerun/internal/device"
)

// AdapterSelector picks the adapter to scan with from a non-empty list.
type AdapterSelector func(adapters []device.Adapter) (device.Adapter, bool)

// PeripheralMatcher reports whether a scanned peripheral is the session target.
type PeripheralMatcher func(p device.Peripheral) bool

// CharacteristicSelector picks the characteristic used for both read and write.
type CharacteristicSelector func(services []device.Service) (device.Characteristic, bool)

// Policy groups the selection decisions of a session.
// Nil fields fall back to FirstAdapter, NameEquals(target) and FirstCharacteristic.
type Policy struct {
	SelectAdapter        AdapterSelector
	MatchPeripheral      PeripheralMatcher
	SelectCharacteristic CharacteristicSelector
}

// DefaultPolicy returns the policy used by the CLI.
func DefaultPolicy(targetName string) Policy {
	return Policy{
		SelectAdapter:        FirstAdapter,
		MatchPeripheral:      NameEquals(targetName),
		SelectCharacteristic: FirstCharacteristic,
	}
}

func (p Policy) withDefaults(targetName string) Policy {
	d := DefaultPolicy(targetName)
	if p.SelectAdapter == nil {
		p.SelectAdapter = d.SelectAdapter
	}
	if p.MatchPeripheral == nil {
		p.MatchPeripheral = d.MatchPeripheral
	}
	if p.SelectCharacteristic == nil {
		p.SelectCharacteristic = d.SelectCharacteristic
	}
	return p
}

// FirstAdapter selects the first adapter in platform enumeration order.
func FirstAdapter(adapters []device.Adapter) (device.Adapter, bool) {
	if len(adapters) == 0 {
		return nil, false
	}
	return adapters[0], true
}

// NameEquals matches peripherals whose advertised name is exactly name.
// Peripherals without a name never match.
func NameEquals(name string) PeripheralMatcher {
	return func(p device.Peripheral) bool {
		n := p.Name()
		return n != "" && n == name
	}
}

// FirstCharacteristic selects the first characteristic across all services in
// iteration order. Capability flags are deliberately not consulted.
func FirstCharacteristic(services []device.Service) (device.Characteristic, bool) {
	for _, svc := range services {
		if chars := svc.Characteristics(); len(chars) > 0 {
			return chars[0], true
		}
	}
	return nil, false
}

// findPeripheral returns the first peripheral accepted by match.
func findPeripheral(peripherals []device.Peripheral, match PeripheralMatcher) device.Peripheral {
	for _, p := range peripherals {
		if match(p) {
			return p
		}
	}
	return nil
}
