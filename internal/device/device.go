package device

import (
	"context"
	"errors"
	"fmt"
)

// NotFoundError represents an error when a BLE resource is not found
type NotFoundError struct {
	Resource string   // "adapter", "peripheral", "characteristic"
	Names    []string // Identifiers used in the lookup, outermost first
}

func (e *NotFoundError) Error() string {
	if len(e.Names) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.Names) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.Names[0])
	}
	return fmt.Sprintf("%s %q not found in %q", e.Resource, e.Names[len(e.Names)-1], e.Names[0])
}

// ConnectionState represents the specific kind of connection state failure
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	NotDiscovered    ConnectionState = "not_discovered"
)

// ConnectionError represents any connection-related problem
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for connection states
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrNotDiscovered    = &ConnectionError{State: NotDiscovered}
)

// Operation errors
var (
	ErrTimeout          = errors.New("timeout")
	ErrUnsupported      = errors.New("unsupported")
	ErrBluetoothOff     = errors.New("bluetooth is turned off")
	ErrNoCharacteristic = errors.New("no characteristic found")

	// ErrNotPermitted means the peripheral refused the attribute operation itself.
	ErrNotPermitted = errors.New("operation not permitted by peripheral")
	// ErrInsufficientSecurity means the attribute needs pairing, encryption or authorization first.
	ErrInsufficientSecurity = errors.New("insufficient security")
)

// IsConnectionState reports whether err is a ConnectionError with the given state
func IsConnectionState(err error, state ConnectionState) bool {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr.State == state
	}
	return false
}

// Manager is the entry point into the platform wireless stack.
type Manager interface {
	// Adapters lists the local radios. An empty result is not an error.
	Adapters(ctx context.Context) ([]Adapter, error)
	// Close releases every adapter opened through this manager.
	Close() error
}

// Adapter is a handle to a single local radio.
type Adapter interface {
	ID() string

	// StartScan begins an unfiltered scan in the background. Advertisements are
	// collected until StopScan is called or ctx is done.
	StartScan(ctx context.Context) error
	StopScan() error

	// Peripherals returns a point-in-time snapshot of everything seen so far.
	Peripherals() ([]Peripheral, error)

	Close() error
}

// Peripheral is an external device discovered during a scan.
type Peripheral interface {
	ID() string
	Name() string
	RSSI() int

	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	// DiscoverServices populates Services. It blocks until discovery completes.
	DiscoverServices(ctx context.Context) error
	Services() []Service

	Read(ctx context.Context, c Characteristic) ([]byte, error)
	Write(ctx context.Context, c Characteristic, data []byte, mode WriteMode) error
}

// Service represents a GATT service interface
type Service interface {
	UUID() string
	Characteristics() []Characteristic
}

// Characteristic is an addressable endpoint inside a service.
type Characteristic interface {
	UUID() string
	Properties() Properties
}

// WriteMode selects whether a write waits for the peripheral's acknowledgment.
type WriteMode int

const (
	WithResponse WriteMode = iota
	WithoutResponse
)

func (m WriteMode) String() string {
	switch m {
	case WithResponse:
		return "with-response"
	case WithoutResponse:
		return "without-response"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}
