package address

import "testing"

func TestCharBit(t *testing.T) {
	tests := []struct {
		pos       int
		byteIdx   int
		bitInByte uint
	}{
		{0, 0, 0},
		{1, 0, 6},
		{2, 1, 4},
		{3, 2, 2},
		{4, 3, 0},
		{47, 35, 2},
	}
	for _, tt := range tests {
		b, o := CharBit(tt.pos)
		if b != tt.byteIdx || o != tt.bitInByte {
			t.Errorf("CharBit(%d) = (%d, %d), want (%d, %d)", tt.pos, b, o, tt.byteIdx, tt.bitInByte)
		}
	}
}

func TestDigitValue(t *testing.T) {
	tests := []struct {
		c    byte
		want byte
	}{
		{'A', 0}, {'Z', 25}, {'a', 26}, {'z', 51}, {'0', 52}, {'9', 61}, {'-', 62}, {'_', 63},
	}
	for _, tt := range tests {
		v, err := DigitValue(tt.c)
		if err != nil {
			t.Fatalf("DigitValue(%c): %v", tt.c, err)
		}
		if v != tt.want {
			t.Errorf("DigitValue(%c) = %d, want %d", tt.c, v, tt.want)
		}
	}

	if _, err := DigitValue('+'); err == nil {
		t.Fatal("'+' should not be accepted")
	}
	if IsBase64URL("abc=") {
		t.Fatal("'=' should not be accepted")
	}
	if !IsBase64URL("AZaz09-_") {
		t.Fatal("full alphabet should be accepted")
	}
}
