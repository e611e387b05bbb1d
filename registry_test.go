package nacc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolRegistry(t *testing.T) {
	ivp := &ProtocolSpec{Name: "uds3-ivp"}
	fvp := &ProtocolSpec{Name: "uds3-fvp"}

	t.Run("NewWithProtocols", func(t *testing.T) {
		reg, err := NewProtocolRegistry(ProtocolRegistryOpts{Protocols: []*ProtocolSpec{ivp, fvp}})
		require.NoError(t, err)

		got, err := reg.Get("uds3-fvp")
		require.NoError(t, err)
		assert.Same(t, fvp, got)
		assert.Equal(t, []string{"uds3-fvp", "uds3-ivp"}, reg.Names())
		assert.Equal(t, []*ProtocolSpec{ivp, fvp}, reg.All())
	})

	t.Run("DuplicateRegistration", func(t *testing.T) {
		_, err := NewProtocolRegistry(ProtocolRegistryOpts{Protocols: []*ProtocolSpec{ivp, ivp}})
		assert.ErrorIs(t, err, ErrProtocolRegistered)
	})

	t.Run("UnknownProtocol", func(t *testing.T) {
		reg, err := NewProtocolRegistry(ProtocolRegistryOpts{})
		require.NoError(t, err)

		_, err = reg.Get("uds3-xyz")
		assert.ErrorIs(t, err, ErrProtocolNotFound)
	})
}
