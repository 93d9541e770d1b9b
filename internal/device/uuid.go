package device

import "strings"

// sigBaseSuffix is the Bluetooth SIG base UUID after the 16-bit slot, without dashes.
const sigBaseSuffix = "00001000800000805f9b34fb"

// NormalizeUUID converts a UUID string to the internal lookup form: lowercase, no dashes,
// no 0x prefix. Full 128-bit UUIDs built on the Bluetooth SIG base
// (0000xxxx-0000-1000-8000-00805f9b34fb) collapse to their 16-bit short form.
func NormalizeUUID(uuid string) string {
	s := strings.ToLower(strings.TrimSpace(uuid))
	s = strings.TrimPrefix(s, "0x")
	s = strings.ReplaceAll(s, "-", "")

	if len(s) == 32 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, sigBaseSuffix) {
		return s[4:8]
	}
	return s
}
