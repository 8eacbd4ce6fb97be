package address

// Every rendered character position p covers bits 6p..6p+5 of the 288-bit
// raw representation. CharBit returns the byte index and the offset inside
// that byte of the character's high bit, so pattern compilers can address
// the same bits the renderer produces.
func CharBit(p int) (byteIdx int, bitInByte uint) {
	bit := p * 6
	return bit / 8, uint(bit % 8)
}

// DigitValue maps a base64url character to its 6-bit value.
func DigitValue(c byte) (byte, error) {
	switch {
	case c >= 'A' && c <= 'Z':
		return c - 'A', nil
	case c >= 'a' && c <= 'z':
		return c - 'a' + 26, nil
	case c >= '0' && c <= '9':
		return c - '0' + 52, nil
	case c == '-':
		return 62, nil
	case c == '_':
		return 63, nil
	}
	return 0, ErrBadChar
}

// IsBase64URL reports whether s contains only base64url alphabet characters.
func IsBase64URL(s string) bool {
	for i := 0; i < len(s); i++ {
		if _, err := DigitValue(s[i]); err != nil {
			return false
		}
	}
	return true
}
