package sstable

import (
	"bytes"
	"testing"
)

func TestSummaryRoundTrip(t *testing.T) {
	orig := &Summary{
		MinIndexInterval:   128,
		SamplingLevel:      64,
		SizeAtFullSampling: 128,
		Entries: []SummaryEntry{
			{Key: []byte("aaa"), Position: 0},
			{Key: []byte("mmm"), Position: 4096},
			{Key: []byte("zzz"), Position: 9000},
		},
		FirstKey: []byte("aaa"),
		LastKey:  []byte("zzz"),
	}

	var buf bytes.Buffer
	if err := WriteSummary(&encoder{w: &buf}, orig); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	d := &decoder{r: newMemReader(buf.Bytes()), path: "test"}
	got, err := ReadSummary(d)
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}

	if got.MinIndexInterval != orig.MinIndexInterval {
		t.Fatalf("MinIndexInterval: got %d, want %d", got.MinIndexInterval, orig.MinIndexInterval)
	}
	if got.Size != uint32(len(orig.Entries)) {
		t.Fatalf("Size: got %d, want %d", got.Size, len(orig.Entries))
	}
	if !bytes.Equal(got.FirstKey, orig.FirstKey) || !bytes.Equal(got.LastKey, orig.LastKey) {
		t.Fatalf("first/last key: got (%q, %q), want (%q, %q)", got.FirstKey, got.LastKey, orig.FirstKey, orig.LastKey)
	}
	if len(got.Entries) != len(orig.Entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(orig.Entries))
	}
	for i, e := range orig.Entries {
		if !bytes.Equal(got.Entries[i].Key, e.Key) || got.Entries[i].Position != e.Position {
			t.Fatalf("entry %d: got %+v, want %+v", i, got.Entries[i], e)
		}
	}
}

func TestSummaryHeaderSizeIsTwentyFourBytes(t *testing.T) {
	// Four 32-bit fields plus one 64-bit field: 4+4+8+4+4.
	if summaryHeaderSize != 24 {
		t.Fatalf("summaryHeaderSize = %d, want 24", summaryHeaderSize)
	}
}

func TestSummaryEmpty(t *testing.T) {
	orig := &Summary{FirstKey: []byte{}, LastKey: []byte{}}
	var buf bytes.Buffer
	if err := WriteSummary(&encoder{w: &buf}, orig); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	d := &decoder{r: newMemReader(buf.Bytes()), path: "test"}
	got, err := ReadSummary(d)
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if len(got.Entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(got.Entries))
	}
}
