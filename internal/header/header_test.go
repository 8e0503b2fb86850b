package header

import (
	"testing"

	"github.com/coladb/colakv/internal/checksum"
	"github.com/coladb/colakv/internal/layout"
	"github.com/coladb/colakv/internal/vfs"
)

func testConfig() layout.Config {
	return layout.Config{ItemSize: 16, L0Size: 256, MaxLevel: 4, MaxKeySize: 8}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cfg := testConfig()
	h := New(cfg, checksum.TypeXXH3, 32)
	h.Count[0] = 3
	h.Count[2] = 9
	h.MaxKeyLen = 5
	copy(h.MaxKey, "zulu\x00\x00\x00\x00")
	h.Bitset[0] = 0xAB

	buf, err := Encode(h, cfg)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if len(buf) != Size(cfg, 32) {
		t.Fatalf("Encode length = %d, want %d", len(buf), Size(cfg, 32))
	}

	got, err := Decode(buf, cfg, 32)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.Count[0] != 3 || got.Count[2] != 9 {
		t.Errorf("Count round trip mismatch: %v", got.Count)
	}
	if got.MaxKeyLen != 5 {
		t.Errorf("MaxKeyLen = %d, want 5", got.MaxKeyLen)
	}
	if got.Bitset[0] != 0xAB {
		t.Errorf("Bitset[0] = %#x, want 0xab", got.Bitset[0])
	}
}

func TestDecodeDetectsBadMagic(t *testing.T) {
	cfg := testConfig()
	h := New(cfg, checksum.TypeXXH3, 8)
	buf, err := Encode(h, cfg)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	buf[0] ^= 0xFF
	if _, err := Decode(buf, cfg, 8); err == nil {
		t.Error("Decode with corrupted magic: want error, got nil")
	}
}

func TestDecodeDetectsChecksumMismatch(t *testing.T) {
	cfg := testConfig()
	h := New(cfg, checksum.TypeXXH3, 8)
	buf, err := Encode(h, cfg)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	buf[len(buf)-10] ^= 0xFF // corrupt a byte inside the bitset region
	if _, err := Decode(buf, cfg, 8); err == nil {
		t.Error("Decode with corrupted body: want checksum error, got nil")
	}
}

func TestNoChecksumSkipsVerification(t *testing.T) {
	cfg := testConfig()
	h := New(cfg, checksum.TypeNoChecksum, 8)
	buf, err := Encode(h, cfg)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	buf[len(buf)-10] ^= 0xFF
	if _, err := Decode(buf, cfg, 8); err != nil {
		t.Errorf("Decode with TypeNoChecksum: want no error, got %v", err)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	cfg := testConfig()
	fs := vfs.NewMemFS()
	f, _, err := fs.OpenOrCreate("test.cola")
	if err != nil {
		t.Fatalf("OpenOrCreate error: %v", err)
	}
	defer f.Close()

	h := New(cfg, checksum.TypeXXH3, 16)
	h.Count[1] = 42
	if err := Persist(f, h, cfg); err != nil {
		t.Fatalf("Persist error: %v", err)
	}

	got, err := Load(f, cfg, 16)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Count[1] != 42 {
		t.Errorf("Count[1] = %d, want 42", got.Count[1])
	}
}
