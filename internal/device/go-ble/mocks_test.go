package goble

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// mockDevice implements ble.Device. Only the methods used by the backend are
// overridden; calling any other method panics on the nil embedded interface.
type mockDevice struct {
	ble.Device
	mock.Mock

	advertisements []ble.Advertisement
	scanErr        error
}

// Scan delivers the configured advertisements, then blocks until ctx is done
// unless scanErr is set.
func (m *mockDevice) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	for _, adv := range m.advertisements {
		h(adv)
	}
	if m.scanErr != nil {
		return m.scanErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockDevice) Dial(ctx context.Context, a ble.Addr) (ble.Client, error) {
	args := m.Called(ctx, a.String())
	client, _ := args.Get(0).(ble.Client)
	return client, args.Error(1)
}

func (m *mockDevice) Stop() error {
	return m.Called().Error(0)
}

// mockClient implements ble.Client for the calls a session makes.
type mockClient struct {
	ble.Client
	mock.Mock
}

func (m *mockClient) DiscoverProfile(force bool) (*ble.Profile, error) {
	args := m.Called(force)
	profile, _ := args.Get(0).(*ble.Profile)
	return profile, args.Error(1)
}

func (m *mockClient) ReadCharacteristic(c *ble.Characteristic) ([]byte, error) {
	args := m.Called(c)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockClient) WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error {
	return m.Called(c, value, noRsp).Error(0)
}

func (m *mockClient) CancelConnection() error {
	return m.Called().Error(0)
}

// mockAdvertisement implements ble.Advertisement with the fields the adapter reads.
type mockAdvertisement struct {
	ble.Advertisement
	name string
	addr string
	rssi int
}

func (a *mockAdvertisement) LocalName() string { return a.name }
func (a *mockAdvertisement) Addr() ble.Addr    { return ble.NewAddr(a.addr) }
func (a *mockAdvertisement) RSSI() int         { return a.rssi }
