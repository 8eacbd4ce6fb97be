package vanity

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ton-org/vanity/address"
	"github.com/ton-org/vanity/tvm/cell"
)

// The vanity contract's code cell is fully determined by the owner and the
// salt: a 50-bit code prefix constant, the owner as MsgAddressInt, a 179-bit
// code suffix constant and the 128-bit salt, 624 bits total. Its 80-byte
// representation is what the code hash is computed over.

const codeConst1 uint64 = 1065632427291681 // 50 bits

var codeConst2 = mustBig("457587318777827214152676959512820176586892797206855680") // 179 bits

const (
	codeReprLen  = 80
	codeBits     = 624
	saltLen      = 16
	codePrefixSz = 64 // salt-independent part of the representation
)

var ErrBadPrefixLength = errors.New("fixed prefix length must be 0..31")

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad constant: " + s)
	}
	return v
}

// BuildCodeCell serializes the vanity contract code cell for an owner and a
// salt.
func BuildCodeCell(owner *address.Address, salt [saltLen]byte) (*cell.Cell, error) {
	if len(owner.Data()) != 32 {
		return nil, fmt.Errorf("owner hash must be 32 bytes, got %d", len(owner.Data()))
	}

	b := cell.BeginCell().
		MustStoreUInt(codeConst1, 50).
		// owner as MsgAddressInt: addr_std tag, no anycast, workchain int8, hash
		MustStoreUInt(0b10, 2).
		MustStoreBoolBit(false).
		MustStoreUInt(uint64(uint8(owner.Workchain())), 8).
		MustStoreSlice(owner.Data(), 256).
		MustStoreBigUInt(codeConst2, 179).
		MustStoreSlice(salt[:], 128)

	if b.BitsUsed() != codeBits {
		return nil, fmt.Errorf("unexpected code cell size: %d bits", b.BitsUsed())
	}

	return b.EndCell(), nil
}

// codePrefix returns the first 64 representation bytes of the code cell,
// which do not depend on the salt.
func codePrefix(owner *address.Address) ([codePrefixSz]byte, error) {
	var prefix [codePrefixSz]byte

	c, err := BuildCodeCell(owner, [saltLen]byte{})
	if err != nil {
		return prefix, err
	}

	repr := c.Repr()
	if len(repr) != codeReprLen {
		return prefix, fmt.Errorf("unexpected code representation size: %d", len(repr))
	}

	copy(prefix[:], repr[:codePrefixSz])
	return prefix, nil
}

// codeMidstate absorbs the 64-byte salt-independent prefix into a fresh
// SHA-256 state, so the per-salt code hash costs a single compression.
func codeMidstate(prefix [codePrefixSz]byte) [8]uint32 {
	state := sha256IV
	block := blockFromBytes(prefix[:])
	sha256Compress(&state, &block)
	return state
}

// Variant is one admissible combination of the StateInit fixed_prefix_length
// and special flags. Prefix holds the representation bytes preceding the code
// cell hash: descriptors, padded body bits and the ref depth.
type Variant struct {
	FixedPrefixLength int // -1 when absent
	HasSpecial        bool
	Tick, Tock        bool

	Prefix []byte
}

func (v Variant) String() string {
	if !v.HasSpecial {
		return fmt.Sprintf("fpl=%d", v.FixedPrefixLength)
	}
	return fmt.Sprintf("fpl=%d tick=%t tock=%t", v.FixedPrefixLength, v.Tick, v.Tock)
}

// stateInitPrefix builds the representation prefix of a StateInit cell
// holding only a code ref: maybe depth, maybe special, code present, no
// data, empty libraries.
func stateInitPrefix(fixedPrefixLength int, hasSpecial, tick, tock bool) ([]byte, error) {
	if fixedPrefixLength > 31 {
		return nil, ErrBadPrefixLength
	}

	b := cell.BeginCell()
	if fixedPrefixLength >= 0 {
		b.MustStoreBoolBit(true).MustStoreUInt(uint64(fixedPrefixLength), 5)
	} else {
		b.MustStoreBoolBit(false)
	}

	if hasSpecial {
		b.MustStoreBoolBit(true).MustStoreBoolBit(tick).MustStoreBoolBit(tock)
	} else {
		b.MustStoreBoolBit(false)
	}

	b.MustStoreBoolBit(true)  // code: present
	b.MustStoreBoolBit(false) // data: none
	b.MustStoreBoolBit(false) // libraries: empty

	// the placeholder ref stands in for the code cell; only its depth (zero)
	// lands in the prefix, the hash is inserted by the kernel
	b.MustStoreRef(cell.BeginCell().EndCell())

	return b.EndCell().ReprPrefix(), nil
}

// stateInitVariants enumerates the variant set. With a start pattern the
// free-bit rewrite requires fixed_prefix_length 8; otherwise every length up
// to 8 and its absence are searched.
func stateInitVariants(hasStart bool) ([]Variant, error) {
	var fpls []int
	if hasStart {
		fpls = []int{8}
	} else {
		fpls = []int{-1, 0, 1, 2, 3, 4, 5, 6, 7, 8}
	}

	specials := []struct {
		has, tick, tock bool
	}{
		{false, false, false},
		{true, false, false},
		{true, false, true},
		{true, true, false},
		{true, true, true},
	}

	var variants []Variant
	for _, fpl := range fpls {
		for _, sp := range specials {
			prefix, err := stateInitPrefix(fpl, sp.has, sp.tick, sp.tock)
			if err != nil {
				return nil, err
			}
			if len(prefix)+32 >= 56 {
				return nil, fmt.Errorf("stateinit prefix too long for one block: %d", len(prefix))
			}
			variants = append(variants, Variant{
				FixedPrefixLength: fpl,
				HasSpecial:        sp.has,
				Tick:              sp.tick,
				Tock:              sp.tock,
				Prefix:            prefix,
			})
		}
	}
	return variants, nil
}

// packPrefixWords spreads prefix bytes over big-endian message words. The
// bytes overlapped by the code hash insertion stay zero.
func packPrefixWords(prefix []byte) [16]uint32 {
	var w [16]uint32
	for i, b := range prefix {
		w[i>>2] |= uint32(b) << (24 - 8*uint(i&3))
	}
	return w
}
