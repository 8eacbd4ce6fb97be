package vanity

import (
	stdsha "crypto/sha256"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ton-org/vanity/address"
)

const zeroOwner = "EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9c"

func TestBuildCodeCell_Layout(t *testing.T) {
	owner := address.MustParseAddr(zeroOwner)

	var salt [16]byte
	for i := range salt {
		salt[i] = byte(i + 1)
	}

	c, err := BuildCodeCell(owner, salt)
	require.NoError(t, err)
	require.EqualValues(t, 624, c.BitsSize())

	repr := c.Repr()
	require.Len(t, repr, 80)
	require.EqualValues(t, 0, repr[0], "no refs")
	require.EqualValues(t, 156, repr[1], "d2 of 624 bits")
	require.Equal(t, salt[:], repr[64:80], "salt fills the last 16 bytes")
}

func TestCodePrefix_SaltIndependent(t *testing.T) {
	owner := address.MustParseAddr(zeroOwner)

	prefix, err := codePrefix(owner)
	require.NoError(t, err)

	var salt [16]byte
	salt[0], salt[15] = 0xAA, 0x55
	c, err := BuildCodeCell(owner, salt)
	require.NoError(t, err)

	require.Equal(t, prefix[:], c.Repr()[:64])
}

func TestCodeMidstate_MatchesFullHash(t *testing.T) {
	owner := address.MustParseAddr(zeroOwner)

	prefix, err := codePrefix(owner)
	require.NoError(t, err)
	state := codeMidstate(prefix)

	var salt [16]byte
	rand.New(rand.NewSource(3)).Read(salt[:])

	var block [16]uint32
	for i := 0; i < 4; i++ {
		block[i] = uint32(salt[i*4])<<24 | uint32(salt[i*4+1])<<16 |
			uint32(salt[i*4+2])<<8 | uint32(salt[i*4+3])
	}
	block[4] = 0x80000000
	block[15] = 640
	sha256Compress(&state, &block)

	c, err := BuildCodeCell(owner, salt)
	require.NoError(t, err)
	want := stdsha.Sum256(c.Repr())

	for j := 0; j < 32; j++ {
		require.Equal(t, want[j], hashByte(&state, j), "byte %d", j)
	}
}

func TestStateInitPrefix_Vector(t *testing.T) {
	// fixed_prefix_length 8, no special flags:
	// bits 1 01000 0 1 0 0 pad to two bytes, one ref of depth zero
	p, err := stateInitPrefix(8, false, false, false)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 3, 0xA1, 0x20, 0, 0}, p)

	// everything absent is the shortest prefix
	p, err = stateInitPrefix(-1, false, false, false)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 1, 0b0010_0100, 0, 0}, p)
}

func TestStateInitVariants(t *testing.T) {
	withStart, err := stateInitVariants(true)
	require.NoError(t, err)
	require.Len(t, withStart, 5)
	for _, v := range withStart {
		require.Equal(t, 8, v.FixedPrefixLength)
		require.Less(t, len(v.Prefix)+32, 56, "must fit one compression")
	}

	noStart, err := stateInitVariants(false)
	require.NoError(t, err)
	require.Len(t, noStart, 50)

	_, err = stateInitPrefix(32, false, false, false)
	require.ErrorIs(t, err, ErrBadPrefixLength)
}

func TestInsertCodeHash_AllAlignments(t *testing.T) {
	var hash [8]uint32
	rnd := rand.New(rand.NewSource(4))
	for j := range hash {
		hash[j] = rnd.Uint32()
	}

	hashBytes := make([]byte, 32)
	for j := 0; j < 32; j++ {
		hashBytes[j] = hashByte(&hash, j)
	}

	for offset := 0; offset <= 6; offset++ {
		var w [16]uint32
		insertCodeHash(&w, &hash, offset)

		// reference: plain byte copy into the block
		var want [16]uint32
		for j, b := range hashBytes {
			i := offset + j
			want[i>>2] |= uint32(b) << (24 - 8*uint(i&3))
		}
		require.Equal(t, want, w, "offset %d", offset)

		// inserting twice over the zero-overlap block changes nothing
		insertCodeHash(&w, &hash, offset)
		require.Equal(t, want, w, "offset %d idempotence", offset)
	}
}

func TestPackPrefixWords(t *testing.T) {
	w := packPrefixWords([]byte{1, 3, 0xA1, 0x20, 0, 0})
	require.Equal(t, uint32(0x0103A120), w[0])
	require.Equal(t, uint32(0), w[1])
}
