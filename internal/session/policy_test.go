package session

import (
	"context"
	"testing"

	"github.com/srg/blerun/internal/device"
	"github.com/srg/blerun/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discovered(t *testing.T, b *testutils.FakeStackBuilder) device.Peripheral {
	t.Helper()
	ctx := context.Background()
	adapters, err := b.Build().Adapters(ctx)
	require.NoError(t, err)
	peripherals, err := adapters[0].Peripherals()
	require.NoError(t, err)
	require.NoError(t, peripherals[0].DiscoverServices(ctx))
	return peripherals[0]
}

func TestFirstAdapter(t *testing.T) {
	adapters, err := testutils.NewFakeStack().WithAdapter("hci0").WithAdapter("hci1").Build().Adapters(context.Background())
	require.NoError(t, err)

	a, ok := FirstAdapter(adapters)
	require.True(t, ok)
	assert.Equal(t, "hci0", a.ID())

	_, ok = FirstAdapter(nil)
	assert.False(t, ok)
}

func TestNameEquals(t *testing.T) {
	adapters, err := testutils.NewFakeStack().
		WithAdapter("hci0").
		WithPeripheral("AA:01", "Lamp").
		WithPeripheral("AA:02", "lamp").
		WithPeripheral("AA:03", "").
		WithPeripheral("AA:04", "Lamp ").
		Build().Adapters(context.Background())
	require.NoError(t, err)
	peripherals, err := adapters[0].Peripherals()
	require.NoError(t, err)

	match := NameEquals("Lamp")
	var matched []string
	for _, p := range peripherals {
		if match(p) {
			matched = append(matched, p.ID())
		}
	}
	assert.Equal(t, []string{"AA:01"}, matched)

	assert.False(t, NameEquals("")(peripherals[2]), "unnamed peripherals MUST NOT match an empty target")
}

func TestFirstCharacteristic(t *testing.T) {
	p := discovered(t, testutils.NewFakeStack().
		WithAdapter("hci0").
		WithPeripheral("AA:01", "x").
		WithService("1800").
		WithService("180f").
		WithCharacteristic("2a19", "notify").
		WithCharacteristic("2a1a", "read").
		WithService("180a").
		WithCharacteristic("2a29", "read"))

	c, ok := FirstCharacteristic(p.Services())
	require.True(t, ok)
	assert.Equal(t, "2a19", c.UUID())

	empty := discovered(t, testutils.NewFakeStack().
		WithAdapter("hci0").
		WithPeripheral("AA:01", "x").
		WithService("1800"))
	_, ok = FirstCharacteristic(empty.Services())
	assert.False(t, ok)

	_, ok = FirstCharacteristic(nil)
	assert.False(t, ok)
}

func TestPolicy_WithDefaults(t *testing.T) {
	custom := func([]device.Adapter) (device.Adapter, bool) { return nil, false }
	p := Policy{SelectAdapter: custom}.withDefaults("Lamp")

	_, ok := p.SelectAdapter(nil)
	assert.False(t, ok)
	assert.NotNil(t, p.MatchPeripheral)
	assert.NotNil(t, p.SelectCharacteristic)
}
