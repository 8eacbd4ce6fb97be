package cell

import (
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"math"
)

var bocMagic = []byte{0xB5, 0xEE, 0x9C, 0x72}

func (c *Cell) ToBOC() []byte {
	return c.ToBOCWithFlags(true)
}

func (c *Cell) ToBOCWithFlags(withCRC bool) []byte {
	// recursively go through cells, build hash index and store unique in slice
	orderCells := flattenIndex([]*Cell{c})

	var payload []byte
	for i := 0; i < len(orderCells); i++ {
		payload = append(payload, orderCells[i].repr(false)...)
	}

	// bytes needed to store len of payload
	sizeBits := math.Log2(float64(len(payload)) + 1)
	sizeBytes := byte(math.Ceil(sizeBits / 8))
	if sizeBytes == 0 {
		sizeBytes = 1
	}

	// bytes needed to store num of cells
	cellSizeBits := math.Log2(float64(len(orderCells)) + 1)
	cellSizeBytes := byte(math.Ceil(cellSizeBits / 8))

	// has_idx 1bit, hash_crc32 1bit, has_cache_bits 1bit, flags 2bit, size_bytes 3 bit
	flags := byte(0b0_0_0_00_000)
	if withCRC {
		flags |= 0b0_1_0_00_000
	}
	flags |= cellSizeBytes

	var data []byte

	data = append(data, bocMagic...)
	data = append(data, flags)

	// bytes needed to store size
	data = append(data, sizeBytes)

	// cells num
	data = append(data, dynamicIntBytes(uint64(len(orderCells)), int(cellSizeBytes))...)

	// roots num (only 1 supported)
	data = append(data, dynamicIntBytes(1, int(cellSizeBytes))...)

	// complete BOCs = 0
	data = append(data, dynamicIntBytes(0, int(cellSizeBytes))...)

	// len of data
	data = append(data, dynamicIntBytes(uint64(len(payload)), int(sizeBytes))...)

	// root should have index 0
	data = append(data, dynamicIntBytes(0, int(cellSizeBytes))...)
	data = append(data, payload...)

	if withCRC {
		checksum := make([]byte, 4)
		binary.LittleEndian.PutUint32(checksum, crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli)))

		data = append(data, checksum...)
	}

	return data
}

func flattenIndex(roots []*Cell) []*Cell {
	var indexed []*Cell
	var offset int
	hashIndex := map[string]int{}

	var doIndex func([]*Cell)
	doIndex = func(cells []*Cell) {
		var next [][]*Cell
		for _, c := range cells {
			h := hex.EncodeToString(c.Hash())

			id, ok := hashIndex[h]
			if !ok {
				id = offset
				offset++

				hashIndex[h] = id

				indexed = append(indexed, c)
				if len(c.refs) > 0 {
					next = append(next, c.refs)
				}
			}
			c.index = id
		}

		for _, n := range next {
			doIndex(n)
		}
	}
	doIndex(roots)

	return indexed
}

func dynamicIntBytes(val uint64, sz int) []byte {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, val)

	return data[8-sz:]
}
