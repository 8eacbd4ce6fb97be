package vanity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ton-org/vanity/crc16"
)

func TestCompile_Validation(t *testing.T) {
	_, err := Compile(Config{Owner: zeroOwner})
	require.ErrorIs(t, err, ErrNoPattern)

	_, err = Compile(Config{Owner: zeroOwner, Start: "ab+c"})
	require.ErrorIs(t, err, ErrNotBase64)

	_, err = Compile(Config{Owner: zeroOwner, End: "a=b"})
	require.ErrorIs(t, err, ErrNotBase64)

	_, err = Compile(Config{Owner: "not-an-address", End: "abc"})
	require.Error(t, err)

	// flipped checksum
	_, err = Compile(Config{Owner: "EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9d", End: "abc"})
	require.Error(t, err)
}

func TestCompile_Flags(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, End: "A", CaseSensitive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 0x11, tab.FlagsHi)
	assert.EqualValues(t, 0x00, tab.FlagsLo)

	tab, err = Compile(Config{
		Owner: zeroOwner, End: "A", CaseSensitive: true,
		Masterchain: true, NonBounceable: true, Testnet: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0xD1, tab.FlagsHi)
	assert.EqualValues(t, 0xFF, tab.FlagsLo)
}

func TestCompile_CaseInsensitiveEnd(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, End: "ABCDEF"})
	require.NoError(t, err)

	// checksum bytes are constrained, so the sweep stage must run the CRC
	assert.True(t, tab.NeedCRC)
	assert.False(t, tab.SweepHash0, "no start pattern, no free window")
	assert.Empty(t, tab.Hash0Values)

	// six ambiguous letters: windows inside bytes 31..33 are constant,
	// windows reaching bytes 34..35 must be re-evaluated per checksum
	assert.Len(t, tab.CaseConst, 3)
	assert.Len(t, tab.CaseVar, 3)

	// 'A'/'a' agree on bits 0, 3 and 5 of the digit only
	cc := tab.CaseConst[0]
	assert.Equal(t, 252, cc.BitPos)
	assert.EqualValues(t, 26, cc.Alt0)
	assert.EqualValues(t, 0, cc.Alt1)
}

func TestCompile_StartCaseSensitive(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, Start: "WERTY", CaseSensitive: true})
	require.NoError(t, err)

	// 'W' cannot sit on any digit overlapping the flag bits, so the pattern
	// starts right after them, on the free first hash byte
	assert.Equal(t, 3, tab.StartDigitBase)

	assert.EqualValues(t, 0xFF, tab.FreeWindow)
	assert.EqualValues(t, 0x3F, tab.FreeHashMask)
	assert.EqualValues(t, 0x16, tab.FreeHashVal)
	assert.Equal(t, []byte{0x16}, tab.Hash0Values)
	assert.True(t, tab.SweepHash0)
	assert.False(t, tab.NeedCRC)

	// E R T Y pin hash bytes 3..5
	assert.Equal(t, []int{3, 4, 5}, tab.PrefixPosNoCRC)
	assert.EqualValues(t, 0xFF, tab.PrefixMask[3])
	assert.EqualValues(t, 0x11, tab.PrefixVal[3])
	assert.EqualValues(t, 0xFF, tab.PrefixMask[4])
	assert.EqualValues(t, 0x14, tab.PrefixVal[4])
	assert.EqualValues(t, 0xFF, tab.PrefixMask[5])
	assert.EqualValues(t, 0xD8, tab.PrefixVal[5])

	assert.Len(t, tab.Variants, 5)
	for _, v := range tab.Variants {
		assert.Equal(t, 8, v.FixedPrefixLength)
	}
}

func TestCompile_StartCaseInsensitive(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, Start: "WeRtY"})
	require.NoError(t, err)

	assert.Equal(t, 3, tab.StartDigitBase)

	// the first character straddles nothing but byte 2: both cases of 'W'
	// stay admissible as free-bit patterns, lower case first
	assert.Equal(t, []byte{0x30, 0x16}, tab.Hash0Values)
	assert.True(t, tab.SweepHash0)

	// one case window inside byte 2, four in the constant hash region
	assert.Len(t, tab.CaseVar, 1)
	assert.Equal(t, 18, tab.CaseVar[0].BitPos)
	assert.Len(t, tab.CaseConst, 4)
}

func TestCompile_CombinedPatterns(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, Start: "ABCD", End: "zy", CaseSensitive: true})
	require.NoError(t, err)

	// 'A' fits over the zero workchain bits at digit 2
	assert.Equal(t, 2, tab.StartDigitBase)

	assert.EqualValues(t, 0xFF, tab.FreeHashMask)
	assert.EqualValues(t, 0x01, tab.FreeHashVal)
	assert.Equal(t, []byte{0x01}, tab.Hash0Values)

	assert.EqualValues(t, 0xFF, tab.PrefixMask[3])
	assert.EqualValues(t, 0x08, tab.PrefixVal[3])
	assert.EqualValues(t, 0xF0, tab.PrefixMask[4])
	assert.EqualValues(t, 0x30, tab.PrefixVal[4])

	// suffix pins the checksum
	assert.True(t, tab.NeedCRC)
	assert.EqualValues(t, 0x0F, tab.PrefixMask[34])
	assert.EqualValues(t, 0x0C, tab.PrefixVal[34])
	assert.EqualValues(t, 0xFF, tab.PrefixMask[35])
	assert.EqualValues(t, 0xF2, tab.PrefixVal[35])

	assert.Empty(t, tab.CaseConst)
	assert.Empty(t, tab.CaseVar)
}

func TestCompile_DeltaTableMatchesChecksum(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, End: "zz", CaseSensitive: true})
	require.NoError(t, err)

	assert.Zero(t, tab.CRCDeltaPos2[0])
	// spot value against the direct construction: byte 2 of a 34-byte
	// message changed from 0 to 1
	assert.NotZero(t, tab.CRCDeltaPos2[1])
	msg := make([]byte, 34)
	zero := crc16.ChecksumXMODEM(msg)
	msg[2] = 1
	assert.Equal(t, zero^crc16.ChecksumXMODEM(msg), tab.CRCDeltaPos2[1])
}
