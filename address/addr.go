package address

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sigurn/crc16"
)

// StrLen is the length of the friendly form: 36 bytes, base64url, no padding.
const StrLen = 48

// ByteLen is the raw representation length: flags, workchain, hash, checksum.
const ByteLen = 36

var (
	ErrBadChecksum = errors.New("invalid address checksum")
	ErrBadLength   = errors.New("invalid address length")
	ErrBadChar     = errors.New("invalid base64url character")
)

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

type flags struct {
	bounceable bool
	testnet    bool
}

type Address struct {
	flags     flags
	workchain int32
	data      []byte
}

func MustParseAddr(addr string) *Address {
	a, err := ParseAddr(addr)
	if err != nil {
		panic(err)
	}
	return a
}

func ParseAddr(addr string) (*Address, error) {
	if len(addr) != StrLen {
		return nil, ErrBadLength
	}

	data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(addr)
	if err != nil {
		return nil, err
	}

	checksum := data[len(data)-2:]
	if crc16.Checksum(data[:len(data)-2], crcTable) != binary.BigEndian.Uint16(checksum) {
		return nil, ErrBadChecksum
	}

	return NewAddress(data[0], data[1], data[2:len(data)-2]), nil
}

// NewAddress builds an address from a flags byte, a workchain byte and a
// 32-byte account hash.
func NewAddress(flagsByte byte, workchain byte, data []byte) *Address {
	return &Address{
		flags:     parseFlags(flagsByte),
		workchain: int32(int8(workchain)),
		data:      data,
	}
}

func parseFlags(b byte) flags {
	return flags{
		bounceable: b&0b0100_0000 == 0,
		testnet:    b&0b1000_0000 != 0,
	}
}

func (a *Address) FlagsToByte() byte {
	// bounceable tag is 0x11, non-bounceable 0x51
	var f byte = 0b0001_0001
	if !a.flags.bounceable {
		f |= 0b0100_0000
	}
	if a.flags.testnet {
		f |= 0b1000_0000
	}
	return f
}

func (a *Address) prepareChecksumData() []byte {
	data := make([]byte, 0, ByteLen-2)
	data = append(data, a.FlagsToByte(), byte(a.workchain))
	data = append(data, a.data...)
	return data
}

func (a *Address) Checksum() uint16 {
	return crc16.Checksum(a.prepareChecksumData(), crcTable)
}

func (a *Address) String() string {
	data := make([]byte, 0, ByteLen)
	data = append(data, a.prepareChecksumData()...)

	checksum := make([]byte, 2)
	binary.BigEndian.PutUint16(checksum, crc16.Checksum(data, crcTable))
	data = append(data, checksum...)

	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(data)
}

func (a *Address) Dump() string {
	return fmt.Sprintf("human-readable address: %s isBounceable: %t, isTestnetOnly: %t, data.len: %d",
		a, a.flags.bounceable, a.flags.testnet, len(a.data))
}

func (a *Address) IsBounceable() bool {
	return a.flags.bounceable
}

func (a *Address) SetBounce(bounceable bool) {
	a.flags.bounceable = bounceable
}

func (a *Address) IsTestnetOnly() bool {
	return a.flags.testnet
}

func (a *Address) SetTestnetOnly(testnetOnly bool) {
	a.flags.testnet = testnetOnly
}

func (a *Address) Workchain() int32 {
	return a.workchain
}

func (a *Address) Data() []byte {
	return a.data
}

func (a *Address) Copy() *Address {
	data := append([]byte{}, a.data...)
	return &Address{
		flags:     a.flags,
		workchain: a.workchain,
		data:      data,
	}
}

func (a *Address) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Address) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid address json: %s", data)
	}

	parsed, err := ParseAddr(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}

	*a = *parsed
	return nil
}
