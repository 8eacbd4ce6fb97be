package vanity

import (
	"testing"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ton-org/vanity/address"
)

func TestWalletV3Address(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	a, err := WalletV3Address(pub)
	require.NoError(t, err)

	// deterministic and round-trippable through the codec
	b, err := WalletV3Address(pub)
	require.NoError(t, err)
	require.Equal(t, a.String(), b.String())

	parsed, err := address.ParseAddr(a.String())
	require.NoError(t, err)
	assert.EqualValues(t, 0, parsed.Workchain())
	assert.Len(t, parsed.Data(), 32)

	// a different key yields a different address
	other := ed25519.NewKeyFromSeed(append([]byte{1}, seed[1:]...))
	c, err := WalletV3Address(other.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	require.NotEqual(t, a.String(), c.String())

	_, err = WalletV3Address(pub[:31])
	require.ErrorIs(t, err, ErrBadPublicKey)
}

func TestGenerateOwner(t *testing.T) {
	w, err := GenerateOwner(false)
	require.NoError(t, err)
	require.NotNil(t, w.Address)
	require.Len(t, w.PrivateKey, ed25519.PrivateKeySize)

	assert.False(t, w.Address.IsBounceable())
	assert.False(t, w.Address.IsTestnetOnly())

	tw, err := GenerateOwner(true)
	require.NoError(t, err)
	assert.True(t, tw.Address.IsTestnetOnly())
}
