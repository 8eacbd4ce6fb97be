package cell

import (
	"encoding/binary"
	"math/big"
)

type Builder struct {
	bitsSz uint
	data   []byte

	refs []*Cell
}

func BeginCell() *Builder {
	return &Builder{}
}

func (b *Builder) MustStoreUInt(value uint64, sz uint) *Builder {
	err := b.StoreUInt(value, sz)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreUInt(value uint64, sz uint) error {
	if sz > 64 {
		return b.StoreBigUInt(new(big.Int).SetUint64(value), sz)
	}

	value <<= 64 - sz
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)

	return b.StoreSlice(buf, sz)
}

func (b *Builder) MustStoreBoolBit(value bool) *Builder {
	err := b.StoreBoolBit(value)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreBoolBit(value bool) error {
	var i uint64
	if value {
		i = 1
	}
	return b.StoreUInt(i, 1)
}

func (b *Builder) MustStoreBigUInt(value *big.Int, sz uint) *Builder {
	err := b.StoreBigUInt(value, sz)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreBigUInt(value *big.Int, sz uint) error {
	if value.Sign() < 0 || uint(value.BitLen()) > sz {
		return ErrTooBigValue
	}
	if sz > 256 {
		return ErrTooBigSize
	}

	bytesLn := (sz + 7) / 8
	// align the value so its high bit lands on the byte grid msb-first
	shifted := new(big.Int).Lsh(value, bytesLn*8-sz)
	buf := make([]byte, bytesLn)
	shifted.FillBytes(buf)

	return b.StoreSlice(buf, sz)
}

func (b *Builder) MustStoreSlice(bytes []byte, sz uint) *Builder {
	err := b.StoreSlice(bytes, sz)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreSlice(bytes []byte, sz uint) error {
	if sz == 0 {
		return nil
	}
	if uint(len(bytes))*8 < sz {
		return ErrSmallSlice
	}
	if b.bitsSz+sz >= 1024 {
		return ErrNotFit1023
	}

	offset := b.bitsSz % 8
	if offset == 0 {
		ln := (sz + 7) / 8
		b.data = append(b.data, bytes[:ln]...)
		if sz%8 != 0 {
			b.data[len(b.data)-1] &= 0xFF << (8 - sz%8)
		}
	} else {
		for i := uint(0); i < sz; i++ {
			if (b.bitsSz+i)%8 == 0 {
				b.data = append(b.data, 0)
			}
			bit := (bytes[i/8] >> (7 - i%8)) & 1
			if bit != 0 {
				b.data[len(b.data)-1] |= 1 << (7 - (b.bitsSz+i)%8)
			}
		}
	}

	b.bitsSz += sz
	return nil
}

func (b *Builder) MustStoreRef(ref *Cell) *Builder {
	err := b.StoreRef(ref)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) StoreRef(ref *Cell) error {
	if len(b.refs) >= 4 {
		return ErrTooMuchRefs
	}
	b.refs = append(b.refs, ref)
	return nil
}

func (b *Builder) BitsUsed() uint {
	return b.bitsSz
}

func (b *Builder) EndCell() *Cell {
	// copy data
	data := append([]byte{}, b.data...)

	return &Cell{
		bitsSz: b.bitsSz,
		data:   data,
		refs:   b.refs,
	}
}
