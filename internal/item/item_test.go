package item

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const maxKeySize = 16
	cases := []Item{
		{Key: []byte("alpha"), Opt: Put, Offset: 42, VLen: 7},
		{Key: []byte(""), Opt: Del, Offset: 0, VLen: 0},
		{Key: bytes.Repeat([]byte{0xff}, maxKeySize), Opt: Put, Offset: 1<<63 - 1, VLen: 1 << 31},
	}
	for _, it := range cases {
		it.KeyLen = uint16(len(it.Key))
		buf := make([]byte, Size(maxKeySize))
		if err := Encode(buf, it, maxKeySize); err != nil {
			t.Fatalf("Encode(%+v) error: %v", it, err)
		}
		got, err := Decode(buf, maxKeySize)
		if err != nil {
			t.Fatalf("Decode error: %v", err)
		}
		if got.KeyLen != it.KeyLen || !bytes.Equal(got.Key, it.Key) || got.Opt != it.Opt || got.Offset != it.Offset || got.VLen != it.VLen {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, it)
		}
	}
}

func TestEncodeRejectsOversizedKey(t *testing.T) {
	it := Item{Key: []byte("toolong"), KeyLen: 7}
	if err := Encode(make([]byte, Size(3)), it, 3); err == nil {
		t.Error("Encode with oversized key: want error, got nil")
	}
}

func TestEncodeRejectsWrongDstLength(t *testing.T) {
	it := Item{Key: []byte("ok"), KeyLen: 2}
	if err := Encode(make([]byte, Size(8)+1), it, 8); err == nil {
		t.Error("Encode with mis-sized dst: want error, got nil")
	}
}

func TestDecodeRejectsWrongSrcLength(t *testing.T) {
	if _, err := Decode(make([]byte, Size(8)-1), 8); err == nil {
		t.Error("Decode with mis-sized src: want error, got nil")
	}
}

func TestPaddingIsZeroed(t *testing.T) {
	const maxKeySize = 8
	it := Item{Key: []byte("ab"), KeyLen: 2}
	buf := make([]byte, Size(maxKeySize))
	for i := range buf {
		buf[i] = 0xAA
	}
	if err := Encode(buf, it, maxKeySize); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	keyField := buf[2 : 2+maxKeySize]
	for i := 2; i < maxKeySize; i++ {
		if keyField[i] != 0 {
			t.Errorf("key field byte %d = %#x, want 0 (zero padding)", i, keyField[i])
		}
	}
}

func TestBytewiseComparator(t *testing.T) {
	cmp := DefaultComparator()
	if cmp.Compare([]byte("a"), []byte("b")) >= 0 {
		t.Error("Compare(a, b): want <0")
	}
	if cmp.Compare([]byte("b"), []byte("a")) <= 0 {
		t.Error("Compare(b, a): want >0")
	}
	if cmp.Compare([]byte("a"), []byte("a")) != 0 {
		t.Error("Compare(a, a): want 0")
	}
}

func TestOptString(t *testing.T) {
	if Put.String() != "PUT" {
		t.Errorf("Put.String() = %q, want PUT", Put.String())
	}
	if Del.String() != "DEL" {
		t.Errorf("Del.String() = %q, want DEL", Del.String())
	}
}
