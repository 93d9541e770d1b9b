package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "16-bit short form", input: "180D", expected: "180d"},
		{name: "0x prefix", input: "0x2A19", expected: "2a19"},
		{name: "0X prefix", input: "0X2a19", expected: "2a19"},
		{name: "SIG base with dashes", input: "0000180f-0000-1000-8000-00805f9b34fb", expected: "180f"},
		{name: "SIG base without dashes", input: "00002a1900001000800000805F9B34FB", expected: "2a19"},
		{name: "SIG base with odd dashes", input: "0000-2902-0000-1000-8000-00805f9b34fb", expected: "2902"},
		{name: "vendor 128-bit", input: "6E400001-B5A3-F393-E0A9-E50E24DCCA9E", expected: "6e400001b5a3f393e0a9e50e24dcca9e"},
		{name: "wrong prefix kept long", input: "AA002902-0000-1000-8000-00805f9b34fb", expected: "aa00290200001000800000805f9b34fb"},
		{name: "too long kept", input: "0000290200001000800000805f9b34fb00", expected: "0000290200001000800000805f9b34fb00"},
		{name: "32-bit form", input: "00002902", expected: "00002902"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUUID(tt.input))
		})
	}
}
