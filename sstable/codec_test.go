package sstable

import (
	"bytes"
	"math"
	"testing"
)

func TestReadWriteInt(t *testing.T) {
	cases := []struct {
		name string
		want uint32
	}{
		{"zero", 0},
		{"small", 1},
		{"max", math.MaxUint32},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeInt(&buf, c.want); err != nil {
				t.Fatalf("writeInt: %v", err)
			}
			if buf.Len() != 4 {
				t.Fatalf("wrote %d bytes, want 4", buf.Len())
			}
			got := readInt[uint32](buf.Bytes())
			if got != c.want {
				t.Fatalf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestReadWriteIntWidths(t *testing.T) {
	var buf16 bytes.Buffer
	writeInt[uint16](&buf16, 0xBEEF)
	if got := readInt[uint16](buf16.Bytes()); got != 0xBEEF {
		t.Fatalf("uint16 round trip: got %x", got)
	}

	var buf64 bytes.Buffer
	writeInt[uint64](&buf64, 0x0102030405060708)
	if buf64.Len() != 8 {
		t.Fatalf("wrote %d bytes, want 8", buf64.Len())
	}
	if got := readInt[uint64](buf64.Bytes()); got != 0x0102030405060708 {
		t.Fatalf("uint64 round trip: got %x", got)
	}
	// big-endian: first byte is the most significant.
	if buf64.Bytes()[0] != 0x01 {
		t.Fatalf("not big-endian: first byte = %x", buf64.Bytes()[0])
	}
}

func TestReadWriteDouble(t *testing.T) {
	want := 3.14159265358979
	var buf bytes.Buffer
	if err := writeDouble(&buf, want); err != nil {
		t.Fatalf("writeDouble: %v", err)
	}
	got := readDouble(buf.Bytes())
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestReadWriteBool(t *testing.T) {
	for _, want := range []bool{true, false} {
		var buf bytes.Buffer
		if err := writeBool(&buf, want); err != nil {
			t.Fatalf("writeBool: %v", err)
		}
		if got := readBool(buf.Bytes()); got != want {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

type byteEnum byte
type wordEnum uint32

func TestReadWriteEnumWidths(t *testing.T) {
	var buf8 bytes.Buffer
	if err := writeEnum[byteEnum](&buf8, byteEnum(7)); err != nil {
		t.Fatalf("writeEnum byte: %v", err)
	}
	if buf8.Len() != 1 {
		t.Fatalf("named byte enum wrote %d bytes, want 1", buf8.Len())
	}
	if got := readEnum[byteEnum](buf8.Bytes()); got != 7 {
		t.Fatalf("got %v, want 7", got)
	}

	var buf32 bytes.Buffer
	if err := writeEnum[wordEnum](&buf32, wordEnum(1<<20)); err != nil {
		t.Fatalf("writeEnum uint32: %v", err)
	}
	if buf32.Len() != 4 {
		t.Fatalf("named uint32 enum wrote %d bytes, want 4", buf32.Len())
	}
	if got := readEnum[wordEnum](buf32.Bytes()); got != 1<<20 {
		t.Fatalf("got %v, want %v", got, 1<<20)
	}
}

func TestNarrowLen(t *testing.T) {
	if _, err := narrowLen(-1, 16); err != ErrOverflow {
		t.Fatalf("negative length: got %v, want ErrOverflow", err)
	}
	if _, err := narrowLen(1<<16, 16); err != ErrOverflow {
		t.Fatalf("over-width length: got %v, want ErrOverflow", err)
	}
	n, err := narrowLen((1<<16)-1, 16)
	if err != nil || n != (1<<16)-1 {
		t.Fatalf("max-width length: got (%d, %v)", n, err)
	}
}

func TestCheckBufSize(t *testing.T) {
	if err := checkBufSize("p", make([]byte, 3), 4); err == nil {
		t.Fatal("expected BufferUndersized error")
	}
	if err := checkBufSize("p", make([]byte, 4), 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
