package device

import (
	"fmt"
	"strings"
)

// Properties is the GATT characteristic properties bit field.
// Bit values follow the Bluetooth Core specification (Vol 3, Part G, 3.3.1.1).
type Properties uint8

const (
	PropBroadcast                 Properties = 0x01
	PropRead                      Properties = 0x02
	PropWriteWithoutResponse      Properties = 0x04
	PropWrite                     Properties = 0x08
	PropNotify                    Properties = 0x10
	PropIndicate                  Properties = 0x20
	PropAuthenticatedSignedWrites Properties = 0x40
	PropExtendedProperties        Properties = 0x80
)

var propertyNames = []struct {
	prop Properties
	name string
}{
	{PropBroadcast, "broadcast"},
	{PropRead, "read"},
	{PropWriteWithoutResponse, "write-without-response"},
	{PropWrite, "write"},
	{PropNotify, "notify"},
	{PropIndicate, "indicate"},
	{PropAuthenticatedSignedWrites, "authenticated-signed-writes"},
	{PropExtendedProperties, "extended-properties"},
}

// Has reports whether every flag in p2 is set.
func (p Properties) Has(p2 Properties) bool { return p&p2 == p2 }

func (p Properties) CanRead() bool                 { return p.Has(PropRead) }
func (p Properties) CanWrite() bool                { return p.Has(PropWrite) }
func (p Properties) CanWriteWithoutResponse() bool { return p.Has(PropWriteWithoutResponse) }
func (p Properties) CanNotify() bool               { return p.Has(PropNotify) }

// Names returns the set flag names in bit order.
func (p Properties) Names() []string {
	names := make([]string, 0, len(propertyNames))
	for _, pn := range propertyNames {
		if p.Has(pn.prop) {
			names = append(names, pn.name)
		}
	}
	return names
}

func (p Properties) String() string {
	if p == 0 {
		return "none"
	}
	return strings.Join(p.Names(), ",")
}

// ParseProperties parses a comma-separated list such as "read,write,notify".
// Short aliases "write-nr" and "nr" are accepted for write-without-response.
func ParseProperties(s string) (Properties, error) {
	var props Properties
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if name == "write-nr" || name == "nr" {
			props |= PropWriteWithoutResponse
			continue
		}
		found := false
		for _, pn := range propertyNames {
			if pn.name == name {
				props |= pn.prop
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown characteristic property %q", part)
		}
	}
	return props, nil
}
