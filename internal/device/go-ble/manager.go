package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/blerun/internal/device"
)

// listAdapters enumerates local controllers (can be overridden in tests)
var listAdapters = enumerateAdapters

// Manager implements device.Manager on top of go-ble.
type Manager struct {
	logger *logrus.Logger

	mu       sync.Mutex
	adapters []*Adapter
}

// NewManager initializes the platform BLE stack handle.
// It fails when the current platform has no go-ble backend.
func NewManager(logger *logrus.Logger) (*Manager, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := platformInit(); err != nil {
		return nil, NormalizeError(err)
	}
	return &Manager{logger: logger}, nil
}

// Adapters lists local controllers in platform order. Adapters are opened lazily,
// on first scan.
func (m *Manager) Adapters(ctx context.Context) ([]device.Adapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	specs, err := listAdapters()
	if err != nil {
		return nil, NormalizeError(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]device.Adapter, 0, len(specs))
	for _, spec := range specs {
		a := m.lookup(spec.id)
		if a == nil {
			a = newAdapter(spec, m.logger)
			m.adapters = append(m.adapters, a)
		}
		result = append(result, a)
	}

	m.logger.WithField("adapters", len(result)).Debug("Enumerated BLE adapters")
	return result, nil
}

func (m *Manager) lookup(id string) *Adapter {
	for _, a := range m.adapters {
		if a.id == id {
			return a
		}
	}
	return nil
}

// Close closes every adapter handed out by Adapters.
func (m *Manager) Close() error {
	m.mu.Lock()
	adapters := m.adapters
	m.adapters = nil
	m.mu.Unlock()

	var errs []error
	for _, a := range adapters {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("adapter %s: %w", a.id, err))
		}
	}
	return errors.Join(errs...)
}
