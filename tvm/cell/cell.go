package cell

import (
	"encoding/binary"
	"errors"

	"github.com/minio/sha256-simd"
)

var ErrTooBigValue = errors.New("too big value")
var ErrSmallSlice = errors.New("too small slice for this size")
var ErrTooBigSize = errors.New("too big size")
var ErrTooMuchRefs = errors.New("too much refs")
var ErrNotFit1023 = errors.New("cell data size should fit into 1023 bits")

type Cell struct {
	special bool
	level   byte
	bitsSz  uint
	index   int
	data    []byte

	refs []*Cell
}

func (c *Cell) BitsSize() uint {
	return c.bitsSz
}

func (c *Cell) RefsNum() int {
	return len(c.refs)
}

func (c *Cell) Data() []byte {
	return append([]byte{}, c.data...)
}

func (c *Cell) Hash() []byte {
	hash := sha256.Sum256(c.repr(true))
	return hash[:]
}

// Repr returns the full representation bytes the hash is computed over:
// descriptors, padded payload, then depths and hashes of the references.
func (c *Cell) Repr() []byte {
	return c.repr(true)
}

// ReprPrefix returns the representation bytes up to but not including the
// reference hashes. Hashing ReprPrefix() followed by the hashes of the
// references reproduces Hash().
func (c *Cell) ReprPrefix() []byte {
	r := c.repr(true)
	return r[:len(r)-32*len(c.refs)]
}

func (c *Cell) repr(forHash bool) []byte {
	payload := append([]byte{}, c.data...)

	unusedBits := 8 - (c.bitsSz % 8)
	if unusedBits != 8 {
		// set the completion bit when the last byte is partially used
		payload[len(payload)-1] |= 1 << (unusedBits - 1)
	}

	data := append(c.descriptors(), payload...)

	if !forHash {
		for _, ref := range c.refs {
			data = append(data, byte(ref.index))
		}
		return data
	}

	for _, ref := range c.refs {
		data = append(data, 0, 0)
		binary.BigEndian.PutUint16(data[len(data)-2:], uint16(ref.maxDepth(0)))
	}
	for _, ref := range c.refs {
		data = append(data, ref.Hash()...)
	}
	return data
}

// calc how deep is the cell (how long children tree)
func (c *Cell) maxDepth(start int) int {
	d := start
	for _, cc := range c.refs {
		if x := cc.maxDepth(start + 1); x > d {
			d = x
		}
	}
	return d
}

func (c *Cell) descriptors() []byte {
	ceilBytes := c.bitsSz / 8
	if c.bitsSz%8 != 0 {
		ceilBytes++
	}

	ln := ceilBytes + c.bitsSz/8

	specBit := byte(0)
	if c.special {
		specBit = 8
	}

	return []byte{byte(len(c.refs)) + specBit + c.level*32, byte(ln)}
}
