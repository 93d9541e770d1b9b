package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/blerun/internal/device"
)

// BLEService is a discovered GATT service with its characteristics in discovery order.
type BLEService struct {
	uuid            string
	characteristics []device.Characteristic
}

func (s *BLEService) UUID() string {
	return s.uuid
}

func (s *BLEService) Characteristics() []device.Characteristic {
	return s.characteristics
}

// BLECharacteristic wraps the live go-ble characteristic handle.
type BLECharacteristic struct {
	uuid       string
	properties device.Properties
	BLEChar    *ble.Characteristic
}

func (c *BLECharacteristic) UUID() string {
	return c.uuid
}

func (c *BLECharacteristic) Properties() device.Properties {
	return c.properties
}

// newService converts a go-ble profile service, keeping characteristic order.
func newService(svc *ble.Service) *BLEService {
	s := &BLEService{
		uuid:            svc.UUID.String(),
		characteristics: make([]device.Characteristic, 0, len(svc.Characteristics)),
	}
	for _, c := range svc.Characteristics {
		s.characteristics = append(s.characteristics, &BLECharacteristic{
			uuid:       c.UUID.String(),
			properties: NewProperties(c.Property),
			BLEChar:    c,
		})
	}
	return s
}
