package testutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/blerun/internal/device"
	"github.com/stretchr/testify/mock"
	"gopkg.in/yaml.v3"
)

// ErrNotReady is returned by fake reads before the configured successful attempt.
var ErrNotReady = errors.New("fake: value not ready")

// CharacteristicConfig represents a BLE characteristic configuration for faking
type CharacteristicConfig struct {
	UUID       string `yaml:"uuid"`
	Properties string `yaml:"properties,omitempty"` // e.g., "read,write,notify"
}

// ServiceConfig represents a BLE service configuration for faking
type ServiceConfig struct {
	UUID            string                 `yaml:"uuid"`
	Characteristics []CharacteristicConfig `yaml:"characteristics,omitempty"`
}

// PeripheralConfig describes one fake peripheral and how its operations behave.
type PeripheralConfig struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name,omitempty"`
	RSSI     int             `yaml:"rssi,omitempty"`
	Services []ServiceConfig `yaml:"services,omitempty"`

	// ReadSucceedsOn is the 1-based read attempt that returns ReadValue; 0 means never.
	ReadSucceedsOn int    `yaml:"read_succeeds_on,omitempty"`
	ReadValue      []byte `yaml:"read_value,omitempty"`

	ConnectError    string `yaml:"connect_error,omitempty"`
	DiscoverError   string `yaml:"discover_error,omitempty"`
	WriteError      string `yaml:"write_error,omitempty"`
	DisconnectError string `yaml:"disconnect_error,omitempty"`
}

// AdapterConfig describes one fake adapter and the peripherals its scan yields.
type AdapterConfig struct {
	ID               string             `yaml:"id"`
	Peripherals      []PeripheralConfig `yaml:"peripherals,omitempty"`
	ScanError        string             `yaml:"scan_error,omitempty"`
	PeripheralsError string             `yaml:"peripherals_error,omitempty"`
}

// StackConfig represents the complete fake wireless stack.
type StackConfig struct {
	AdaptersError string          `yaml:"adapters_error,omitempty"`
	Adapters      []AdapterConfig `yaml:"adapters,omitempty"`
}

// FakeStackBuilder builds a testify-mock backed device.Manager.
//
//	mgr := testutils.NewFakeStack().
//	    WithAdapter("hci0").
//	    WithPeripheral("AA:01", "Thermo").
//	    WithService("180F").
//	    WithCharacteristic("2A19", "read,notify").
//	    ReadSucceedsOn(3, []byte{50}).
//	    Build()
type FakeStackBuilder struct {
	config StackConfig
}

// NewFakeStack creates an empty stack builder (no adapters).
func NewFakeStack() *FakeStackBuilder {
	return &FakeStackBuilder{}
}

// FromYAML replaces the stack configuration with a YAML document.
func (b *FakeStackBuilder) FromYAML(yamlFmt string, args ...interface{}) *FakeStackBuilder {
	var cfg StackConfig
	if err := yaml.Unmarshal([]byte(fmt.Sprintf(yamlFmt, args...)), &cfg); err != nil {
		panic(fmt.Sprintf("FakeStackBuilder.FromYAML: failed to unmarshal: %v", err))
	}
	b.config = cfg
	return b
}

// FromConfig replaces the stack configuration.
func (b *FakeStackBuilder) FromConfig(cfg StackConfig) *FakeStackBuilder {
	b.config = cfg
	return b
}

// FailAdapters makes adapter enumeration fail.
func (b *FakeStackBuilder) FailAdapters(msg string) *FakeStackBuilder {
	b.config.AdaptersError = msg
	return b
}

func (b *FakeStackBuilder) WithAdapter(id string) *FakeStackBuilder {
	b.config.Adapters = append(b.config.Adapters, AdapterConfig{ID: id})
	return b
}

// WithPeripheral adds a peripheral to the last added adapter.
func (b *FakeStackBuilder) WithPeripheral(id, name string) *FakeStackBuilder {
	a := b.lastAdapter("WithPeripheral")
	a.Peripherals = append(a.Peripherals, PeripheralConfig{ID: id, Name: name})
	return b
}

// WithService adds a service to the last added peripheral.
func (b *FakeStackBuilder) WithService(uuid string) *FakeStackBuilder {
	p := b.lastPeripheral("WithService")
	p.Services = append(p.Services, ServiceConfig{UUID: uuid})
	return b
}

// WithCharacteristic adds a characteristic to the last added service.
func (b *FakeStackBuilder) WithCharacteristic(uuid, properties string) *FakeStackBuilder {
	p := b.lastPeripheral("WithCharacteristic")
	if len(p.Services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}
	svc := &p.Services[len(p.Services)-1]
	svc.Characteristics = append(svc.Characteristics, CharacteristicConfig{UUID: uuid, Properties: properties})
	return b
}

// ReadSucceedsOn configures the last peripheral's reads; attempt 0 means never.
func (b *FakeStackBuilder) ReadSucceedsOn(attempt int, value []byte) *FakeStackBuilder {
	p := b.lastPeripheral("ReadSucceedsOn")
	p.ReadSucceedsOn = attempt
	p.ReadValue = value
	return b
}

// WithPeripheralConfig lets a test tweak the last peripheral's configuration directly.
func (b *FakeStackBuilder) WithPeripheralConfig(fn func(*PeripheralConfig)) *FakeStackBuilder {
	fn(b.lastPeripheral("WithPeripheralConfig"))
	return b
}

// WithAdapterConfig lets a test tweak the last adapter's configuration directly.
func (b *FakeStackBuilder) WithAdapterConfig(fn func(*AdapterConfig)) *FakeStackBuilder {
	fn(b.lastAdapter("WithAdapterConfig"))
	return b
}

func (b *FakeStackBuilder) lastAdapter(caller string) *AdapterConfig {
	if len(b.config.Adapters) == 0 {
		panic(caller + ": no adapter added yet, call WithAdapter first")
	}
	return &b.config.Adapters[len(b.config.Adapters)-1]
}

func (b *FakeStackBuilder) lastPeripheral(caller string) *PeripheralConfig {
	a := b.lastAdapter(caller)
	if len(a.Peripherals) == 0 {
		panic(caller + ": no peripheral added yet, call WithPeripheral first")
	}
	return &a.Peripherals[len(a.Peripherals)-1]
}

// Build creates the fake manager with all mock expectations registered.
func (b *FakeStackBuilder) Build() *FakeManager {
	m := &FakeManager{}

	adapters := make([]device.Adapter, 0, len(b.config.Adapters))
	for _, ac := range b.config.Adapters {
		a := newFakeAdapter(ac)
		m.adapters = append(m.adapters, a)
		adapters = append(adapters, a)
	}

	if b.config.AdaptersError != "" {
		m.On("Adapters", mock.Anything).Return(nil, errors.New(b.config.AdaptersError))
	} else {
		m.On("Adapters", mock.Anything).Return(adapters, nil)
	}
	m.On("Close").Return(nil)
	return m
}

func errOrNil(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

// ----------------------------
// Fake Manager
// ----------------------------

// FakeManager implements device.Manager.
type FakeManager struct {
	mock.Mock
	adapters []*FakeAdapter
}

func (m *FakeManager) Adapters(ctx context.Context) ([]device.Adapter, error) {
	args := m.Called(ctx)
	adapters, _ := args.Get(0).([]device.Adapter)
	return adapters, args.Error(1)
}

func (m *FakeManager) Close() error {
	return m.Called().Error(0)
}

// Adapter returns the fake adapter with the given ID, or nil.
func (m *FakeManager) Adapter(id string) *FakeAdapter {
	for _, a := range m.adapters {
		if a.id == id {
			return a
		}
	}
	return nil
}

// ----------------------------
// Fake Adapter
// ----------------------------

// FakeAdapter implements device.Adapter.
type FakeAdapter struct {
	mock.Mock
	id          string
	peripherals []*FakePeripheral
}

func newFakeAdapter(cfg AdapterConfig) *FakeAdapter {
	a := &FakeAdapter{id: cfg.ID}

	list := make([]device.Peripheral, 0, len(cfg.Peripherals))
	for _, pc := range cfg.Peripherals {
		p := newFakePeripheral(pc)
		a.peripherals = append(a.peripherals, p)
		list = append(list, p)
	}

	a.On("StartScan", mock.Anything).Return(errOrNil(cfg.ScanError))
	a.On("StopScan").Return(nil)
	if cfg.PeripheralsError != "" {
		a.On("Peripherals").Return(nil, errors.New(cfg.PeripheralsError))
	} else {
		a.On("Peripherals").Return(list, nil)
	}
	a.On("Close").Return(nil)
	return a
}

func (a *FakeAdapter) ID() string {
	return a.id
}

func (a *FakeAdapter) StartScan(ctx context.Context) error {
	return a.Called(ctx).Error(0)
}

func (a *FakeAdapter) StopScan() error {
	return a.Called().Error(0)
}

func (a *FakeAdapter) Peripherals() ([]device.Peripheral, error) {
	args := a.Called()
	list, _ := args.Get(0).([]device.Peripheral)
	return list, args.Error(1)
}

func (a *FakeAdapter) Close() error {
	return a.Called().Error(0)
}

// Peripheral returns the fake peripheral with the given ID, or nil.
func (a *FakeAdapter) Peripheral(id string) *FakePeripheral {
	for _, p := range a.peripherals {
		if p.id == id {
			return p
		}
	}
	return nil
}

// ----------------------------
// Fake Peripheral
// ----------------------------

// FakePeripheral implements device.Peripheral.
type FakePeripheral struct {
	mock.Mock
	id   string
	name string
	rssi int

	services   []device.Service
	connected  bool
	discovered bool

	reads   int
	onRead  func(ctx context.Context, attempt int)
	onWrite func(ctx context.Context)
}

func newFakePeripheral(cfg PeripheralConfig) *FakePeripheral {
	p := &FakePeripheral{id: cfg.ID, name: cfg.Name, rssi: cfg.RSSI}

	for _, sc := range cfg.Services {
		svc := &FakeService{uuid: sc.UUID}
		for _, cc := range sc.Characteristics {
			props, err := device.ParseProperties(cc.Properties)
			if err != nil {
				panic(fmt.Sprintf("fake characteristic %s: %v", cc.UUID, err))
			}
			svc.characteristics = append(svc.characteristics, &FakeCharacteristic{uuid: cc.UUID, properties: props})
		}
		p.services = append(p.services, svc)
	}

	p.On("Connect", mock.Anything).Return(errOrNil(cfg.ConnectError))
	p.On("DiscoverServices", mock.Anything).Return(errOrNil(cfg.DiscoverError))
	p.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errOrNil(cfg.WriteError))
	p.On("Disconnect").Return(errOrNil(cfg.DisconnectError))

	switch {
	case cfg.ReadSucceedsOn <= 0:
		p.On("Read", mock.Anything, mock.Anything).Return(nil, ErrNotReady)
	case cfg.ReadSucceedsOn == 1:
		p.On("Read", mock.Anything, mock.Anything).Return(cfg.ReadValue, nil)
	default:
		p.On("Read", mock.Anything, mock.Anything).Return(nil, ErrNotReady).Times(cfg.ReadSucceedsOn - 1)
		p.On("Read", mock.Anything, mock.Anything).Return(cfg.ReadValue, nil)
	}
	return p
}

func (p *FakePeripheral) ID() string   { return p.id }
func (p *FakePeripheral) Name() string { return p.name }
func (p *FakePeripheral) RSSI() int    { return p.rssi }

func (p *FakePeripheral) Connect(ctx context.Context) error {
	err := p.Called(ctx).Error(0)
	if err == nil {
		p.connected = true
	}
	return err
}

func (p *FakePeripheral) Disconnect() error {
	err := p.Called().Error(0)
	if err == nil {
		p.connected = false
	}
	return err
}

func (p *FakePeripheral) IsConnected() bool {
	return p.connected
}

func (p *FakePeripheral) DiscoverServices(ctx context.Context) error {
	err := p.Called(ctx).Error(0)
	if err == nil {
		p.discovered = true
	}
	return err
}

// Services returns the configured services once discovery has succeeded.
func (p *FakePeripheral) Services() []device.Service {
	if !p.discovered {
		return nil
	}
	return p.services
}

// OnRead registers fn to run at the start of every Read with its 1-based attempt number.
func (p *FakePeripheral) OnRead(fn func(ctx context.Context, attempt int)) *FakePeripheral {
	p.onRead = fn
	return p
}

// OnWrite registers fn to run at the start of every Write, e.g. to block until ctx expires.
func (p *FakePeripheral) OnWrite(fn func(ctx context.Context)) *FakePeripheral {
	p.onWrite = fn
	return p
}

// Read returns the configured result, or ctx's error once ctx is done.
func (p *FakePeripheral) Read(ctx context.Context, c device.Characteristic) ([]byte, error) {
	p.reads++
	if p.onRead != nil {
		p.onRead(ctx, p.reads)
	}
	args := p.Called(ctx, c)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// Write returns the configured error, or ctx's error once ctx is done.
func (p *FakePeripheral) Write(ctx context.Context, c device.Characteristic, data []byte, mode device.WriteMode) error {
	if p.onWrite != nil {
		p.onWrite(ctx)
	}
	err := p.Called(ctx, c, data, mode).Error(0)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Characteristic returns the configured characteristic with the given UUID, or nil.
func (p *FakePeripheral) Characteristic(uuid string) *FakeCharacteristic {
	for _, svc := range p.services {
		for _, c := range svc.Characteristics() {
			if c.UUID() == uuid {
				return c.(*FakeCharacteristic)
			}
		}
	}
	return nil
}

// ----------------------------
// Fake Service / Characteristic
// ----------------------------

// FakeService implements device.Service.
type FakeService struct {
	uuid            string
	characteristics []device.Characteristic
}

func (s *FakeService) UUID() string                             { return s.uuid }
func (s *FakeService) Characteristics() []device.Characteristic { return s.characteristics }

// FakeCharacteristic implements device.Characteristic.
type FakeCharacteristic struct {
	uuid       string
	properties device.Properties
}

func (c *FakeCharacteristic) UUID() string                  { return c.uuid }
func (c *FakeCharacteristic) Properties() device.Properties { return c.properties }
