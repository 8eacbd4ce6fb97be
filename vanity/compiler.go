package vanity

import (
	"errors"
	"fmt"

	"github.com/ton-org/vanity/address"
	"github.com/ton-org/vanity/crc16"
)

// Address representation layout: flags byte, workchain byte, 32 hash bytes,
// 2 checksum bytes. Bits count from the most significant bit of byte 0.
const (
	reprLen      = 36
	reprBits     = reprLen * 8
	hashBitStart = 16
	hashBitEnd   = hashBitStart + 256
)

// Config is the user-facing search specification.
type Config struct {
	Owner         string `json:"owner"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Masterchain   bool   `json:"masterchain"`
	NonBounceable bool   `json:"non_bounceable"`
	Testnet       bool   `json:"testnet"`
	CaseSensitive bool   `json:"case_sensitive"`
	OnlyOne       bool   `json:"only_one"`
}

var (
	ErrNoPattern    = errors.New("at least one of start or end patterns is required")
	ErrNotBase64    = errors.New("pattern contains characters outside the base64url alphabet")
	ErrStartTooLong = errors.New("start pattern does not fit the address")
)

// CaseCheck is one case-insensitive character constraint: the 6-bit digit at
// BitPos must decode to Alt0 (lower case) or Alt1 (upper case).
type CaseCheck struct {
	BitPos int
	Alt0   byte
	Alt1   byte
}

// Tables is the compiled, kernel-visible search configuration. All fields
// are read-only once compiled; one instance is shared by every worker.
type Tables struct {
	FlagsHi byte
	FlagsLo byte

	// canonical free-bit rewrite: bits of the first hash byte forced by
	// unambiguous start characters
	FreeHashMask byte
	FreeHashVal  byte

	// free window granted by fixed_prefix_length; 0xFF when a start pattern
	// forces length 8, 0 when the whole byte comes from the hash
	FreeWindow byte

	PrefixMask [reprLen]byte
	PrefixVal  [reprLen]byte

	// masked positions among the hash bytes 3..33, testable before any CRC
	// or first-byte choice
	PrefixPosNoCRC []int

	// constraints that read the checksum bytes exist
	NeedCRC bool

	// admissible free-bit patterns for the first hash byte; swept by the
	// kernel when SweepHash0 is set
	Hash0Values []byte
	SweepHash0  bool

	// case constraints whose windows stay inside hash bytes 3..33
	CaseConst []CaseCheck
	// case constraints touching bytes 2, 34 or 35
	CaseVar []CaseCheck

	CRCDeltaPos2 [256]uint16

	Variants   []Variant
	PrefixW    [][16]uint32
	PrefixLens []int

	CodePrefix    [codePrefixSz]byte
	CodeStateBase [8]uint32

	// rendered character position where the start pattern begins
	StartDigitBase int

	owner *address.Address
	cfg   Config
}

func (t *Tables) Owner() *address.Address { return t.owner }
func (t *Tables) Config() Config          { return t.cfg }

// charAlts returns the admissible 6-bit values for one pattern character.
// Case-insensitive letters yield the lower-case value first.
func charAlts(ch byte, caseSensitive bool) []byte {
	v, _ := address.DigitValue(ch)
	if caseSensitive {
		return []byte{v}
	}
	switch {
	case ch >= 'A' && ch <= 'Z':
		return []byte{v + 26, v}
	case ch >= 'a' && ch <= 'z':
		return []byte{v, v - 26}
	}
	return []byte{v}
}

func altBit(v byte, j int) byte {
	return (v >> (5 - j)) & 1
}

func byteBits(b byte) [8]byte {
	var bits [8]byte
	for i := 0; i < 8; i++ {
		bits[i] = (b >> (7 - i)) & 1
	}
	return bits
}

// chooseStartAlignment picks the earliest digit offset where the start
// pattern does not contradict the fixed flag and workchain bits, filtering
// each character's alternatives to those compatible with the overlap.
func chooseStartAlignment(start string, caseSensitive bool, prefixBits []byte) (int, [][]byte, error) {
	charOpts := make([][]byte, len(start))
	for i := 0; i < len(start); i++ {
		charOpts[i] = charAlts(start[i], caseSensitive)
	}

	lenBits := len(start) * 6
	maxDigitOffset := (reprBits - lenBits) / 6
	if maxDigitOffset < 0 {
		return 0, nil, ErrStartTooLong
	}

	for digitOffset := 0; digitOffset <= maxDigitOffset; digitOffset++ {
		bitOffset := 6 * digitOffset
		ok := true
		filtered := make([][]byte, 0, len(charOpts))

		for ci, alts := range charOpts {
			base := bitOffset + ci*6
			if base >= len(prefixBits) {
				filtered = append(filtered, alts)
				continue
			}

			var valid []byte
			for _, v := range alts {
				match := true
				for b := 0; b < 6 && base+b < len(prefixBits); b++ {
					if altBit(v, b) != prefixBits[base+b] {
						match = false
						break
					}
				}
				if match {
					valid = append(valid, v)
				}
			}
			if len(valid) == 0 {
				ok = false
				break
			}
			filtered = append(filtered, valid)
		}

		if ok {
			return digitOffset, filtered, nil
		}
	}

	// nothing was compatible with the flag bits; place right after them
	return (len(prefixBits) + 5) / 6, charOpts, nil
}

func setMaskBit(mask, val *[reprLen]byte, bitIndex int, bit byte) {
	b := bitIndex / 8
	off := uint(7 - bitIndex%8)
	mask[b] |= 1 << off
	if bit != 0 {
		val[b] |= 1 << off
	}
}

// Compile validates the specification and builds every kernel table.
func Compile(cfg Config) (*Tables, error) {
	if cfg.Start == "" && cfg.End == "" {
		return nil, ErrNoPattern
	}
	if cfg.Start != "" && !address.IsBase64URL(cfg.Start) {
		return nil, fmt.Errorf("start pattern: %w", ErrNotBase64)
	}
	if cfg.End != "" && !address.IsBase64URL(cfg.End) {
		return nil, fmt.Errorf("end pattern: %w", ErrNotBase64)
	}

	owner, err := address.ParseAddr(cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner address: %w", err)
	}

	var flagsByte byte = 0b0001_0001
	if cfg.NonBounceable {
		flagsByte |= 0b0100_0000
	}
	if cfg.Testnet {
		flagsByte |= 0b1000_0000
	}
	var wcByte byte = 0x00
	if cfg.Masterchain {
		wcByte = 0xFF
	}

	t := &Tables{
		FlagsHi: flagsByte,
		FlagsLo: wcByte,
		owner:   owner,
		cfg:     cfg,
	}

	flagBits := byteBits(flagsByte)
	wcBits := byteBits(wcByte)
	prefixBits := append(flagBits[:], wcBits[:]...)

	var caseChecks []CaseCheck

	if cfg.Start != "" {
		digitBase, alts, err := chooseStartAlignment(cfg.Start, cfg.CaseSensitive, prefixBits)
		if err != nil {
			return nil, err
		}
		t.StartDigitBase = digitBase
		// a start pattern forces fixed_prefix_length 8, the whole first
		// hash byte becomes the miner's choice
		t.FreeWindow = 0xFF

		bitOffset := digitBase * 6
		for i := 0; i < len(cfg.Start)*6; i++ {
			charIdx := i / 6
			bitInChar := i % 6
			vars := alts[charIdx]
			bitIndex := bitOffset + i

			if bitInChar == 0 && len(vars) == 2 {
				caseChecks = append(caseChecks, CaseCheck{BitPos: bitIndex, Alt0: vars[0], Alt1: vars[1]})
			}

			if bitIndex < hashBitStart {
				// already satisfied by flags/workchain via alignment
				continue
			}

			agreed := true
			bit := altBit(vars[0], bitInChar)
			for _, v := range vars[1:] {
				if altBit(v, bitInChar) != bit {
					agreed = false
					break
				}
			}
			if !agreed {
				continue
			}

			if bitIndex < hashBitStart+8 {
				off := uint(7 - bitIndex%8)
				t.FreeHashMask |= 1 << off
				if bit != 0 {
					t.FreeHashVal |= 1 << off
				}
			} else if bitIndex < hashBitEnd {
				setMaskBit(&t.PrefixMask, &t.PrefixVal, bitIndex, bit)
			}
		}
	}

	if cfg.End != "" {
		bitBase := reprBits - len(cfg.End)*6
		for i := 0; i < len(cfg.End)*6; i++ {
			charIdx := i / 6
			bitInChar := i % 6
			vars := charAlts(cfg.End[charIdx], cfg.CaseSensitive)
			bitIndex := bitBase + i

			if bitInChar == 0 && len(vars) == 2 {
				caseChecks = append(caseChecks, CaseCheck{BitPos: bitIndex, Alt0: vars[0], Alt1: vars[1]})
			}

			if bitIndex < hashBitStart {
				// never constrain flags/workchain in the kernel
				continue
			}

			agreed := true
			bit := altBit(vars[0], bitInChar)
			for _, v := range vars[1:] {
				if altBit(v, bitInChar) != bit {
					agreed = false
					break
				}
			}
			if !agreed {
				continue
			}

			setMaskBit(&t.PrefixMask, &t.PrefixVal, bitIndex, bit)
		}
	}

	for i := 3; i <= 33; i++ {
		if t.PrefixMask[i] != 0 {
			t.PrefixPosNoCRC = append(t.PrefixPosNoCRC, i)
		}
	}
	t.NeedCRC = t.PrefixMask[34] != 0 || t.PrefixMask[35] != 0

	for _, cc := range caseChecks {
		touchesByte2 := cc.BitPos < 24 && cc.BitPos+6 > hashBitStart
		touchesCRC := cc.BitPos+6 > 34*8
		if touchesCRC {
			t.NeedCRC = true
		}
		if touchesByte2 || touchesCRC {
			t.CaseVar = append(t.CaseVar, cc)
		} else {
			t.CaseConst = append(t.CaseConst, cc)
		}
	}

	if t.FreeWindow != 0 {
		t.Hash0Values = enumerateHash0(t, caseChecks)
		t.SweepHash0 = true
	}

	t.CRCDeltaPos2 = crc16.DeltaTable(31)

	variants, err := stateInitVariants(cfg.Start != "")
	if err != nil {
		return nil, err
	}
	t.Variants = variants
	for _, v := range variants {
		t.PrefixW = append(t.PrefixW, packPrefixWords(v.Prefix))
		t.PrefixLens = append(t.PrefixLens, len(v.Prefix))
	}

	t.CodePrefix, err = codePrefix(owner)
	if err != nil {
		return nil, err
	}
	t.CodeStateBase = codeMidstate(t.CodePrefix)

	return t, nil
}

// enumerateHash0 lists the admissible free-bit patterns for the first hash
// byte: the canonical forced bits, forked over both alternatives of every
// case-ambiguous character whose window overlaps byte 2.
func enumerateHash0(t *Tables, caseChecks []CaseCheck) []byte {
	cands := []byte{t.FreeHashVal & t.FreeWindow}

	for _, cc := range caseChecks {
		if cc.BitPos >= 24 || cc.BitPos+6 <= hashBitStart {
			continue
		}

		m0, v0 := byte2Pattern(cc.BitPos, cc.Alt0)
		_, v1 := byte2Pattern(cc.BitPos, cc.Alt1)
		m0 &= t.FreeWindow
		if m0 == 0 {
			continue
		}

		var next []byte
		for _, c := range cands {
			next = append(next, (c&^m0)|(v0&m0), (c&^m0)|(v1&m0))
		}

		seen := map[byte]bool{}
		cands = cands[:0]
		for _, c := range next {
			if !seen[c] {
				seen[c] = true
				cands = append(cands, c)
			}
		}
	}

	return cands
}

// byte2Pattern projects a 6-bit alternative onto the bits of repr byte 2 its
// window covers.
func byte2Pattern(bitPos int, alt byte) (mask, val byte) {
	for j := 0; j < 6; j++ {
		p := bitPos + j
		if p < hashBitStart || p >= 24 {
			continue
		}
		off := uint(7 - (p - hashBitStart))
		mask |= 1 << off
		if altBit(alt, j) != 0 {
			val |= 1 << off
		}
	}
	return mask, val
}
