package goble

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blerun/internal/device"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Peripheral implements device.Peripheral for a device seen by an Adapter.
type Peripheral struct {
	adapter *Adapter
	addr    ble.Addr
	seq     uint64
	logger  *logrus.Logger

	mu     sync.RWMutex
	name   string
	rssi   int
	client ble.Client

	// Discovered services keyed by normalized UUID, in discovery order.
	services *orderedmap.OrderedMap[string, *BLEService]
}

func newPeripheral(a *Adapter, adv ble.Advertisement, seq uint64, logger *logrus.Logger) *Peripheral {
	return &Peripheral{
		adapter:  a,
		addr:     adv.Addr(),
		seq:      seq,
		logger:   logger,
		name:     adv.LocalName(),
		rssi:     adv.RSSI(),
		services: orderedmap.New[string, *BLEService](),
	}
}

// update refreshes advertisement data. A later advertisement without a local name
// does not clear a name learned earlier (e.g. from a scan response).
func (p *Peripheral) update(adv ble.Advertisement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name := adv.LocalName(); name != "" {
		p.name = name
	}
	p.rssi = adv.RSSI()
}

func (p *Peripheral) ID() string {
	return p.addr.String()
}

func (p *Peripheral) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

func (p *Peripheral) RSSI() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rssi
}

func (p *Peripheral) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}

// Connect dials the peripheral through its adapter.
func (p *Peripheral) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		p.logger.WithField("address", p.addr.String()).Warn("Connection attempt while already connected")
		return device.ErrAlreadyConnected
	}

	dev, err := p.adapter.device()
	if err != nil {
		return err
	}

	p.logger.WithField("address", p.addr.String()).Debug("Dialing BLE device...")
	client, err := dev.Dial(ctx, p.addr)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"address": p.addr.String(),
			"error":   err,
		}).Error("Failed to dial BLE device")
		return fmt.Errorf("failed to connect to device with address %q: %w", p.addr.String(), NormalizeError(err))
	}

	p.client = client
	p.logger.WithField("address", p.addr.String()).Info("BLE device connected")
	return nil
}

// DiscoverServices performs a full profile discovery and replaces any previously
// discovered services.
func (p *Peripheral) DiscoverServices(ctx context.Context) error {
	client, err := p.connectedClient()
	if err != nil {
		return err
	}

	type discoverResult struct {
		profile *ble.Profile
		err     error
	}
	resultCh := make(chan discoverResult, 1)
	go func() {
		profile, err := client.DiscoverProfile(true)
		resultCh <- discoverResult{profile: profile, err: err}
	}()

	var profile *ble.Profile
	select {
	case r := <-resultCh:
		if r.err != nil {
			p.logger.WithFields(logrus.Fields{
				"address": p.addr.String(),
				"error":   r.err,
			}).Error("Failed to discover profile")
			return fmt.Errorf("failed to discover profile: %w", NormalizeError(r.err))
		}
		profile = r.profile
	case <-ctx.Done():
		return fmt.Errorf("service discovery interrupted: %w", ctx.Err())
	}

	services := orderedmap.New[string, *BLEService]()
	totalChars := 0
	if profile != nil {
		for _, bleSvc := range profile.Services {
			svc := newService(bleSvc)
			key := device.NormalizeUUID(svc.uuid)
			// Some peripherals expose several instances of one service.
			for n := 2; ; n++ {
				if _, dup := services.Get(key); !dup {
					break
				}
				key = fmt.Sprintf("%s#%d", device.NormalizeUUID(svc.uuid), n)
			}
			services.Set(key, svc)
			totalChars += len(svc.characteristics)

			p.logger.WithFields(logrus.Fields{
				"service_uuid":    svc.uuid,
				"characteristics": len(svc.characteristics),
			}).Debug("Found service")
		}
	}

	p.mu.Lock()
	p.services = services
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"address":         p.addr.String(),
		"services":        services.Len(),
		"characteristics": totalChars,
	}).Info("Profile discovered")
	return nil
}

// Services returns discovered services in discovery order.
func (p *Peripheral) Services() []device.Service {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]device.Service, 0, p.services.Len())
	for pair := p.services.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// Read reads a characteristic value. ctx bounds the wait, not the ATT transaction itself.
func (p *Peripheral) Read(ctx context.Context, c device.Characteristic) ([]byte, error) {
	client, err := p.connectedClient()
	if err != nil {
		return nil, err
	}
	bc, err := p.liveCharacteristic(c)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read of characteristic %s not started: %w", bc.uuid, err)
	}

	type readResult struct {
		data []byte
		err  error
	}
	resultCh := make(chan readResult, 1)
	go func() {
		data, err := client.ReadCharacteristic(bc.BLEChar)
		resultCh <- readResult{data: data, err: err}
	}()

	select {
	case r := <-resultCh:
		if r.err != nil {
			return nil, fmt.Errorf("failed to read characteristic %s: %w", bc.uuid, NormalizeError(r.err))
		}
		return r.data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("read of characteristic %s interrupted: %w", bc.uuid, ctx.Err())
	}
}

// Write writes data to a characteristic. WithoutResponse maps to an ATT write command.
func (p *Peripheral) Write(ctx context.Context, c device.Characteristic, data []byte, mode device.WriteMode) error {
	client, err := p.connectedClient()
	if err != nil {
		return err
	}
	bc, err := p.liveCharacteristic(c)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write of characteristic %s not started: %w", bc.uuid, err)
	}

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- client.WriteCharacteristic(bc.BLEChar, data, mode == device.WithoutResponse)
	}()

	select {
	case err := <-resultCh:
		if err != nil {
			return fmt.Errorf("failed to write characteristic %s (%s): %w", bc.uuid, mode, NormalizeError(err))
		}
		p.logger.WithFields(logrus.Fields{
			"char_uuid": bc.uuid,
			"bytes":     len(data),
			"mode":      mode.String(),
		}).Debug("Characteristic written")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("write of characteristic %s interrupted: %w", bc.uuid, ctx.Err())
	}
}

// Disconnect cancels the connection. Calling it while disconnected is a no-op.
func (p *Peripheral) Disconnect() error {
	p.mu.Lock()
	client := p.client
	p.client = nil
	p.mu.Unlock()

	if client == nil {
		p.logger.Debug("Disconnect called but already disconnected")
		return nil
	}

	if err := client.CancelConnection(); err != nil {
		return fmt.Errorf("failed to disconnect from %s: %w", p.addr.String(), NormalizeError(err))
	}
	p.logger.WithField("address", p.addr.String()).Info("BLE device disconnected")
	return nil
}

func (p *Peripheral) connectedClient() (ble.Client, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return nil, device.ErrNotConnected
	}
	return p.client, nil
}

func (p *Peripheral) liveCharacteristic(c device.Characteristic) (*BLECharacteristic, error) {
	bc, ok := c.(*BLECharacteristic)
	if !ok || bc.BLEChar == nil {
		return nil, fmt.Errorf("%w: characteristic %s was not discovered on this connection", device.ErrNotDiscovered, c.UUID())
	}
	return bc, nil
}
