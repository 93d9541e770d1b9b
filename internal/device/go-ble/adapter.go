package goble

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blerun/internal/device"
	"github.com/srg/blerun/internal/groutine"
)

// Adapter implements device.Adapter over a single go-ble device.
type Adapter struct {
	id     string
	opts   []ble.Option
	logger *logrus.Logger

	mu  sync.Mutex
	dev ble.Device

	// Peripherals seen during scanning, keyed by address.
	seen    *hashmap.Map[string, *Peripheral]
	seenSeq atomic.Uint64

	scanCancel context.CancelFunc
	scanDone   <-chan error
	scanErr    error
}

func newAdapter(spec adapterSpec, logger *logrus.Logger) *Adapter {
	return &Adapter{
		id:     spec.id,
		opts:   spec.opts,
		logger: logger,
		seen:   hashmap.New[string, *Peripheral](),
	}
}

func (a *Adapter) ID() string {
	return a.id
}

// device returns the opened go-ble device, opening it on first use.
func (a *Adapter) device() (ble.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deviceLocked()
}

func (a *Adapter) deviceLocked() (ble.Device, error) {
	if a.dev != nil {
		return a.dev, nil
	}
	dev, err := DeviceFactory(a.opts...)
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"adapter": a.id,
			"error":   err,
		}).Error("Failed to open BLE adapter")
		return nil, fmt.Errorf("failed to open adapter %s: %w", a.id, NormalizeError(err))
	}
	a.dev = dev
	return dev, nil
}

// StartScan starts an unfiltered scan with duplicate reporting enabled, so late scan
// responses can fill in names. It returns once the scan goroutine is running.
func (a *Adapter) StartScan(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.scanCancel != nil {
		return fmt.Errorf("adapter %s is already scanning", a.id)
	}

	dev, err := a.deviceLocked()
	if err != nil {
		return err
	}

	scanCtx, cancel := context.WithCancel(ctx)
	a.scanCancel = cancel
	a.scanErr = nil
	a.scanDone = groutine.Go(scanCtx, "ble-scan-"+a.id, func(ctx context.Context) error {
		a.logger.WithField("goroutine", groutine.GetName(ctx)).Debug("Scan loop running")
		return dev.Scan(ctx, true, a.handleAdvertisement)
	})

	a.logger.WithField("adapter", a.id).Info("Starting BLE scan...")
	return nil
}

// StopScan cancels a running scan and waits for it to exit.
// Cancellation itself is not reported as an error.
func (a *Adapter) StopScan() error {
	a.mu.Lock()
	cancel, done := a.scanCancel, a.scanDone
	a.scanCancel, a.scanDone = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	err := scanResult(<-done)
	a.logger.WithFields(logrus.Fields{
		"adapter":     a.id,
		"peripherals": a.seen.Len(),
	}).Info("BLE scan stopped")
	return err
}

// scanResult filters the expected termination causes of a scan.
func scanResult(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return fmt.Errorf("scan failed: %w", NormalizeError(err))
}

// Peripherals returns the peripherals seen so far in first-seen order.
// It fails if the background scan has already terminated with an error.
func (a *Adapter) Peripherals() ([]device.Peripheral, error) {
	if err := a.pollScanError(); err != nil {
		return nil, err
	}

	all := make([]*Peripheral, 0, a.seen.Len())
	a.seen.Range(func(_ string, p *Peripheral) bool {
		all = append(all, p)
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	result := make([]device.Peripheral, len(all))
	for i, p := range all {
		result[i] = p
	}
	return result, nil
}

// pollScanError checks, without blocking, whether the scan goroutine exited early.
func (a *Adapter) pollScanError() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.scanErr != nil {
		return a.scanErr
	}
	if a.scanDone == nil {
		return nil
	}
	select {
	case err, ok := <-a.scanDone:
		if !ok {
			return nil
		}
		a.scanErr = scanResult(err)
		if a.scanErr == nil {
			return nil
		}
		// The goroutine is gone, release the cancel func too.
		a.scanCancel()
		a.scanCancel, a.scanDone = nil, nil
		return a.scanErr
	default:
		return nil
	}
}

// handleAdvertisement updates an existing peripheral or records a new one.
func (a *Adapter) handleAdvertisement(adv ble.Advertisement) {
	addr := adv.Addr().String()
	if p, ok := a.seen.Get(addr); ok {
		p.update(adv)
		return
	}

	p := newPeripheral(a, adv, a.seenSeq.Add(1), a.logger)
	if existing, loaded := a.seen.GetOrInsert(addr, p); loaded {
		existing.update(adv)
		return
	}

	a.logger.WithFields(logrus.Fields{
		"address": addr,
		"name":    p.Name(),
		"rssi":    adv.RSSI(),
	}).Debug("Discovered peripheral")
}

// Close stops scanning and releases the underlying go-ble device.
func (a *Adapter) Close() error {
	scanErr := a.StopScan()

	a.mu.Lock()
	dev := a.dev
	a.dev = nil
	a.mu.Unlock()

	if dev == nil {
		return scanErr
	}
	return errors.Join(scanErr, NormalizeError(dev.Stop()))
}
