// Package device defines the contract between the session runner and a platform
// Bluetooth Low Energy stack.
//
// The contract covers:
//   - Adapter enumeration and unfiltered scanning
//   - Peripheral connection lifecycle
//   - Service and characteristic discovery in platform order
//   - Characteristic read and write (with or without response)
//
// The go-ble backend lives in the go-ble subpackage; test doubles live in
// internal/testutils.
package device
