package vanity

import (
	"math/bits"
	"sync/atomic"

	"github.com/ton-org/vanity/crc16"
)

// Result buffer: 1024 slots of 4 words each. The counter keeps climbing past
// the capacity; overflowing hits are counted but not stored.
const (
	ResSlots     = 1024
	resSlotWords = 4
)

// LaunchParams is the per-launch kernel input.
type LaunchParams struct {
	Iterations uint32
	GlobalSize uint32
	Salt       [4]uint32 // base salt, little-endian word order
}

// Hit is one raw kernel emission, enough to reconstruct the candidate.
type Hit struct {
	Iter    uint32
	Index   uint32
	Variant uint32
	Hash0   byte
}

// Kernel owns the result buffer of one launch. The tables are shared and
// read-only; Run may be called concurrently for disjoint index ranges.
type Kernel struct {
	tab *Tables

	found   uint32
	results [ResSlots * resSlotWords]uint32
}

func NewKernel(tab *Tables) *Kernel {
	return &Kernel{tab: tab}
}

// Reset prepares the buffer for the next launch.
func (k *Kernel) Reset() {
	atomic.StoreUint32(&k.found, 0)
}

// Found returns the number of matches seen during the launch, which may
// exceed ResSlots.
func (k *Kernel) Found() uint32 {
	return atomic.LoadUint32(&k.found)
}

// Hits decodes the stored result slots.
func (k *Kernel) Hits() []Hit {
	n := k.Found()
	if n > ResSlots {
		n = ResSlots
	}

	hits := make([]Hit, n)
	for i := uint32(0); i < n; i++ {
		off := i * resSlotWords
		hits[i] = Hit{
			Iter:    k.results[off],
			Index:   k.results[off+1],
			Variant: k.results[off+2],
			Hash0:   byte(k.results[off+3]),
		}
	}
	return hits
}

func (k *Kernel) emit(t, g, v uint32, hash0 byte) {
	slot := atomic.AddUint32(&k.found, 1) - 1
	if slot >= ResSlots {
		return
	}
	off := slot * resSlotWords
	k.results[off] = t
	k.results[off+1] = g
	k.results[off+2] = v
	k.results[off+3] = uint32(hash0)
}

// Run executes the work items [from, to) of one launch. Each item walks the
// iteration space, derives the effective salt, and tests every StateInit
// variant through the staged constraint pipeline.
func (k *Kernel) Run(p LaunchParams, from, to uint32) {
	for g := from; g < to; g++ {
		for t := uint32(0); t < p.Iterations; t++ {
			salt := [4]uint32{
				p.Salt[0] ^ t,
				p.Salt[1] ^ g,
				p.Salt[2],
				p.Salt[3],
			}
			k.testSalt(t, g, salt)
		}
	}
}

func (k *Kernel) testSalt(t, g uint32, salt [4]uint32) {
	tab := k.tab

	// second block of the code cell: salt bytes, padding bit, 640-bit length
	var w [16]uint32
	w[0] = bits.ReverseBytes32(salt[0])
	w[1] = bits.ReverseBytes32(salt[1])
	w[2] = bits.ReverseBytes32(salt[2])
	w[3] = bits.ReverseBytes32(salt[3])
	w[4] = 0x80000000
	w[15] = codeReprLen * 8

	codeState := tab.CodeStateBase
	sha256Compress(&codeState, &w)

	for v := range tab.Variants {
		ln := tab.PrefixLens[v]

		w = tab.PrefixW[v]
		insertCodeHash(&w, &codeState, ln)
		padBit := ln + 32
		w[padBit>>2] |= 0x80000000 >> (8 * uint(padBit&3))
		w[15] = uint32(8 * (ln + 32))

		main := sha256IV
		sha256Compress(&main, &w)

		k.testHash(t, g, uint32(v), &main)
	}
}

func (k *Kernel) testHash(t, g, v uint32, main *[8]uint32) {
	tab := k.tab

	var repr [reprLen]byte
	repr[0] = tab.FlagsHi
	repr[1] = tab.FlagsLo
	for j := 1; j < 32; j++ {
		repr[2+j] = hashByte(main, j)
	}

	// stage 1: byte filters independent of the first byte and the checksum
	for _, i := range tab.PrefixPosNoCRC {
		if repr[i]&tab.PrefixMask[i] != tab.PrefixVal[i] {
			return
		}
	}

	// stage 2: case constraints confined to hash bytes 3..33
	for _, cc := range tab.CaseConst {
		if !checkCase(&repr, cc) {
			return
		}
	}

	h0 := hashByte(main, 0)

	if !tab.SweepHash0 && !tab.NeedCRC {
		// legacy fast path: canonical rewrite, no checksum reads
		hash0 := (h0 &^ tab.FreeHashMask) | (tab.FreeHashVal & tab.FreeHashMask)
		if tab.PrefixMask[2] != 0 && hash0&tab.PrefixMask[2] != tab.PrefixVal[2] {
			return
		}
		repr[2] = hash0
		for _, cc := range tab.CaseVar {
			if !checkCase(&repr, cc) {
				return
			}
		}
		k.emit(t, g, v, hash0)
		return
	}

	var crcBase uint16
	if tab.NeedCRC {
		crcBase = crc16.Update(0, repr[0])
		crcBase = crc16.Update(crcBase, repr[1])
		crcBase = crc16.Update(crcBase, 0)
		for j := 3; j < 34; j++ {
			crcBase = crc16.Update(crcBase, repr[j])
		}
	}

	if tab.SweepHash0 {
		for _, cand := range tab.Hash0Values {
			b := (h0 &^ tab.FreeWindow) | (cand & tab.FreeWindow)
			k.testFirstByte(t, g, v, &repr, b, crcBase)
		}
		return
	}

	// checksum constraints without a free window: single canonical value
	b := (h0 &^ tab.FreeHashMask) | (tab.FreeHashVal & tab.FreeHashMask)
	k.testFirstByte(t, g, v, &repr, b, crcBase)
}

func (k *Kernel) testFirstByte(t, g, v uint32, repr *[reprLen]byte, b byte, crcBase uint16) {
	tab := k.tab

	if tab.PrefixMask[2] != 0 && b&tab.PrefixMask[2] != tab.PrefixVal[2] {
		return
	}

	repr[2] = b
	if tab.NeedCRC {
		crc := crcBase ^ tab.CRCDeltaPos2[b]
		repr[34] = byte(crc >> 8)
		repr[35] = byte(crc)

		if repr[34]&tab.PrefixMask[34] != tab.PrefixVal[34] {
			return
		}
		if repr[35]&tab.PrefixMask[35] != tab.PrefixVal[35] {
			return
		}
	}

	for _, cc := range tab.CaseVar {
		if !checkCase(repr, cc) {
			return
		}
	}

	k.emit(t, g, v, b)
}

// insertCodeHash funnel-shifts the eight code hash words into the message
// block at the given byte offset. The overlapped prefix bytes must be zero.
func insertCodeHash(w *[16]uint32, hash *[8]uint32, offset int) {
	wi := offset >> 2
	a := uint(offset&3) * 8

	if a == 0 {
		for j := 0; j < 8; j++ {
			w[wi+j] |= hash[j]
		}
		return
	}

	w[wi] |= hash[0] >> a
	for j := 1; j < 8; j++ {
		w[wi+j] |= hash[j]>>a | hash[j-1]<<(32-a)
	}
	w[wi+8] |= hash[7] << (32 - a)
}

// checkCase extracts the 6-bit digit spanning the window at cc.BitPos and
// tests it against the two admissible alternatives.
func checkCase(repr *[reprLen]byte, cc CaseCheck) bool {
	b := cc.BitPos / 8
	x := uint16(repr[b]) << 8
	if b+1 < reprLen {
		x |= uint16(repr[b+1])
	}
	v := byte(x>>(10-uint(cc.BitPos%8))) & 0x3F
	return v == cc.Alt0 || v == cc.Alt1
}
