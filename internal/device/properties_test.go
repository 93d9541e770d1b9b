package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProperties(t *testing.T) {
	tests := []struct {
		input    string
		expected Properties
	}{
		{input: "", expected: 0},
		{input: "read", expected: PropRead},
		{input: "read,write", expected: PropRead | PropWrite},
		{input: " Read , Notify ", expected: PropRead | PropNotify},
		{input: "write-nr", expected: PropWriteWithoutResponse},
		{input: "write-without-response,indicate", expected: PropWriteWithoutResponse | PropIndicate},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProperties(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseProperties_Unknown(t *testing.T) {
	_, err := ParseProperties("read,teleport")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}

func TestProperties_String(t *testing.T) {
	assert.Equal(t, "none", Properties(0).String())
	assert.Equal(t, "read,write-without-response,notify", (PropRead | PropWriteWithoutResponse | PropNotify).String())

	p := PropRead | PropWrite
	assert.True(t, p.CanRead())
	assert.True(t, p.CanWrite())
	assert.False(t, p.CanWriteWithoutResponse())
	assert.False(t, p.CanNotify())
}

func TestConnectionError_Is(t *testing.T) {
	err := &ConnectionError{State: NotConnected, Msg: "link dropped"}
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NotErrorIs(t, err, ErrAlreadyConnected)
	assert.True(t, IsConnectionState(err, NotConnected))
	assert.Equal(t, "not_connected: link dropped", err.Error())
}

func TestNotFoundError(t *testing.T) {
	assert.Equal(t, "adapter not found", (&NotFoundError{Resource: "adapter"}).Error())
	assert.Equal(t, `peripheral "Thermo" not found`, (&NotFoundError{Resource: "peripheral", Names: []string{"Thermo"}}).Error())
	assert.Equal(t, `characteristic "2a19" not found in "180f"`,
		(&NotFoundError{Resource: "characteristic", Names: []string{"180f", "2a19"}}).Error())
}
