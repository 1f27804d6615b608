package mcb

import "testing"

func TestIntRoundTrip(t *testing.T) {
	var data [4]uint16

	putU8(data[:], 0xAB)
	if got := getU8(data[:]); got != 0xAB {
		t.Errorf("getU8() = %#x, want 0xab", got)
	}

	putI16(data[:], -1234)
	if got := getI16(data[:]); got != -1234 {
		t.Errorf("getI16() = %v, want -1234", got)
	}

	putU32(data[:], 0xCAFEBABE)
	if got := getU32(data[:]); got != 0xCAFEBABE {
		t.Errorf("getU32() = %#x, want 0xcafebabe", got)
	}

	putI64(data[:], -9007199254740993)
	if got := getI64(data[:]); got != -9007199254740993 {
		t.Errorf("getI64() = %v, want -9007199254740993", got)
	}
}

func TestFloatRoundTripIsBitExact(t *testing.T) {
	var data [4]uint16

	// 1.5 has no exact integer representation; a numeric int-cast
	// transport would truncate it to 1, so this specifically checks that
	// the fractional part survives.
	putF32(data[:], 1.5)
	if got := getF32(data[:]); got != 1.5 {
		t.Errorf("getF32() = %v, want 1.5", got)
	}

	putF64(data[:], -0.125)
	if got := getF64(data[:]); got != -0.125 {
		t.Errorf("getF64() = %v, want -0.125", got)
	}
}

func TestPackStringTermination(t *testing.T) {
	dst := make([]uint16, 4)
	packString(dst, []byte("hi"))
	if got := unpackString(dst); got != "hi" {
		t.Errorf("unpackString() = %q, want %q", got, "hi")
	}

	// Exactly filling the window leaves no room for a terminator; the
	// full window is still a valid, if unterminated, string.
	dst2 := make([]uint16, 4)
	packString(dst2, []byte("exactly8"))
	if got := unpackString(dst2); got != "exactly8" {
		t.Errorf("unpackString() = %q, want %q", got, "exactly8")
	}
}

func TestWordsToBytesOrder(t *testing.T) {
	got := wordsToBytes([]uint16{0x0102, 0x0304})
	want := []byte{0x02, 0x01, 0x04, 0x03}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wordsToBytes() = %#v, want %#v", got, want)
		}
	}
}
