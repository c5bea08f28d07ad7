package bits

import (
	"bytes"
	"testing"
)

func TestReadBits(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0x8f, 0xe3}))
	tests := []struct {
		n    int
		want uint64
	}{
		{4, 0x8},
		{2, 0x3},
		{4, 0xf},
		{6, 0x23},
	}
	for i, test := range tests {
		got, err := br.ReadBits(test.n)
		if err != nil {
			t.Fatalf("test %d: unexpected error: %v", i, err)
		}
		if got != test.want {
			t.Errorf("test %d: got 0x%x, want 0x%x", i, got, test.want)
		}
	}
}

func TestPeekBitsDoesNotAdvance(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0x8f, 0xe3}))
	peeked, err := br.PeekBits(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peeked != 0x8f {
		t.Fatalf("got 0x%x, want 0x8f", peeked)
	}
	read, err := br.ReadBits(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if read != peeked {
		t.Fatalf("read 0x%x after peek 0x%x, want match", read, peeked)
	}
}

func TestAlignByte(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0xff, 0x00}))
	if _, err := br.ReadBits(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if br.ByteAligned() {
		t.Fatalf("expected reader to not be byte aligned after reading 3 bits")
	}
	if err := br.AlignByte(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !br.ByteAligned() {
		t.Fatalf("expected reader to be byte aligned after AlignByte")
	}
	if br.Off() != 0 {
		t.Fatalf("got offset %d, want 0", br.Off())
	}
}
