package vanity

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/sha256-simd"
	hex "github.com/tmthrgd/go-hex"

	"github.com/ton-org/vanity/address"
	"github.com/ton-org/vanity/crc16"
)

var (
	ErrVariantRange   = errors.New("variant index out of range")
	ErrRewriteFixed   = errors.New("reported first byte disagrees with hash outside the free window")
	ErrMaskMismatch   = errors.New("byte mask mismatch")
	ErrCaseMismatch   = errors.New("case constraint mismatch")
	ErrPatternMissing = errors.New("rendered address does not contain the pattern")
	ErrCodecMismatch  = errors.New("address codec disagrees with raw representation")
)

// VerifyHit rebuilds the candidate named by a raw kernel record through the
// library hash path, re-derives the full representation, and checks it
// against every compiled constraint plus the string-level pattern. Any
// disagreement means a compiler or kernel bug and is fatal for the session.
func (t *Tables) VerifyHit(baseSalt [saltLen]byte, h Hit) (*Match, error) {
	if int(h.Variant) >= len(t.Variants) {
		return nil, ErrVariantRange
	}
	variant := t.Variants[h.Variant]

	var salt [saltLen]byte
	copy(salt[:], baseSalt[:])
	binary.LittleEndian.PutUint32(salt[0:], binary.LittleEndian.Uint32(salt[0:])^h.Iter)
	binary.LittleEndian.PutUint32(salt[4:], binary.LittleEndian.Uint32(salt[4:])^h.Index)

	code, err := BuildCodeCell(t.owner, salt)
	if err != nil {
		return nil, err
	}
	codeHash := sha256.Sum256(code.Repr())

	mainData := append(append([]byte{}, variant.Prefix...), codeHash[:]...)
	mainHash := sha256.Sum256(mainData)

	// bits outside the free window are the hash's own
	if h.Hash0&^t.FreeWindow != mainHash[0]&^t.FreeWindow {
		return nil, ErrRewriteFixed
	}

	var repr [reprLen]byte
	repr[0] = t.FlagsHi
	repr[1] = t.FlagsLo
	repr[2] = h.Hash0
	copy(repr[3:34], mainHash[1:32])

	crc := crc16.ChecksumXMODEM(repr[:34])
	repr[34] = byte(crc >> 8)
	repr[35] = byte(crc)

	for i := 0; i < reprLen; i++ {
		if t.PrefixMask[i] != 0 && repr[i]&t.PrefixMask[i] != t.PrefixVal[i] {
			return nil, fmt.Errorf("%w at byte %d", ErrMaskMismatch, i)
		}
	}
	for _, cc := range t.CaseConst {
		if !checkCase(&repr, cc) {
			return nil, fmt.Errorf("%w at bit %d", ErrCaseMismatch, cc.BitPos)
		}
	}
	for _, cc := range t.CaseVar {
		if !checkCase(&repr, cc) {
			return nil, fmt.Errorf("%w at bit %d", ErrCaseMismatch, cc.BitPos)
		}
	}

	addrStr := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(repr[:])

	// the rendering codec must agree with the raw representation
	if address.NewAddress(repr[0], repr[1], repr[2:34]).String() != addrStr {
		return nil, ErrCodecMismatch
	}

	if t.cfg.Start != "" {
		part := addrStr[t.StartDigitBase : t.StartDigitBase+len(t.cfg.Start)]
		if t.cfg.CaseSensitive {
			if part != t.cfg.Start {
				return nil, fmt.Errorf("start %w", ErrPatternMissing)
			}
		} else if !strings.EqualFold(part, t.cfg.Start) {
			return nil, fmt.Errorf("start %w", ErrPatternMissing)
		}
	}
	if t.cfg.End != "" {
		part := addrStr[len(addrStr)-len(t.cfg.End):]
		if t.cfg.CaseSensitive {
			if part != t.cfg.End {
				return nil, fmt.Errorf("end %w", ErrPatternMissing)
			}
		} else if !strings.EqualFold(part, t.cfg.End) {
			return nil, fmt.Errorf("end %w", ErrPatternMissing)
		}
	}

	fpl := variant.FixedPrefixLength
	if fpl < 0 {
		fpl = 0
	}
	var special *SpecialFlags
	if variant.HasSpecial {
		special = &SpecialFlags{Tick: variant.Tick, Tock: variant.Tock}
	}

	return &Match{
		Address: addrStr,
		Hash0:   h.Hash0,
		Init: MatchInit{
			Code:              base64.URLEncoding.EncodeToString(code.ToBOCWithFlags(false)),
			FixedPrefixLength: fpl,
			Special:           special,
		},
		Config:    t.cfg,
		Salt:      hex.EncodeToString(salt[:]),
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
	}, nil
}
