package vanity

import (
	"crypto/rand"
	"errors"

	"github.com/minio/sha256-simd"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/ton-org/vanity/address"
	"github.com/ton-org/vanity/tvm/cell"
)

// Standard wallet v3r2 code cell hash. The mined contract needs an existing
// owner address; this derives one from a fresh key without touching the
// chain.
var walletV3R2CodeHash = []byte{
	132, 218, 250, 68, 159, 152, 166, 152, 119, 137, 186, 35, 35, 88, 7, 43,
	192, 247, 109, 196, 82, 64, 2, 165, 208, 145, 139, 154, 117, 210, 213, 153,
}

const walletV3SubwalletID = 698983191

var ErrBadPublicKey = errors.New("public key must be 32 bytes")

type OwnerWallet struct {
	Address    *address.Address
	PrivateKey ed25519.PrivateKey
}

// GenerateOwner creates a fresh ed25519 keypair and derives the wallet v3r2
// address that would hold it.
func GenerateOwner(testnet bool) (*OwnerWallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	addr, err := WalletV3Address(pub)
	if err != nil {
		return nil, err
	}
	addr.SetBounce(false)
	addr.SetTestnetOnly(testnet)

	return &OwnerWallet{Address: addr, PrivateKey: priv}, nil
}

// WalletV3Address computes the basechain wallet v3r2 address for a public
// key with the default subwallet.
func WalletV3Address(pub ed25519.PublicKey) (*address.Address, error) {
	if len(pub) != 32 {
		return nil, ErrBadPublicKey
	}

	data := cell.BeginCell().
		MustStoreUInt(0, 32). // seqno
		MustStoreUInt(walletV3SubwalletID, 32).
		MustStoreSlice(pub, 256).
		EndCell()

	// StateInit with code and data refs: descriptors, body bits, two zero
	// ref depths, then the code and data hashes
	repr := make([]byte, 0, 71)
	repr = append(repr, 2, 1, 0b0011_0100)
	repr = append(repr, 0, 0, 0, 0)
	repr = append(repr, walletV3R2CodeHash...)
	repr = append(repr, data.Hash()...)

	hash := sha256.Sum256(repr)
	return address.NewAddress(0x11, 0, hash[:]), nil
}
