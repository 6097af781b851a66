package sstable

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestFilterRoundTrip(t *testing.T) {
	orig := &Filter{Hashes: 3, Buckets: []uint64{0xFFFF0000FFFF0000, 0, 1}}

	var buf bytes.Buffer
	if err := WriteFilter(&encoder{w: &buf}, orig); err != nil {
		t.Fatalf("WriteFilter: %v", err)
	}

	d := &decoder{r: newMemReader(buf.Bytes()), path: "test"}
	got, err := ReadFilter(d)
	if err != nil {
		t.Fatalf("ReadFilter: %v", err)
	}
	if got.Hashes != orig.Hashes || len(got.Buckets) != len(orig.Buckets) {
		t.Fatalf("got %+v, want %+v", got, orig)
	}
	for i := range orig.Buckets {
		if got.Buckets[i] != orig.Buckets[i] {
			t.Fatalf("bucket %d: got %x, want %x", i, got.Buckets[i], orig.Buckets[i])
		}
	}
}

func TestBloomAdapterMembership(t *testing.T) {
	present := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}
	bits := make([]uint64, 64)
	hashes := uint32(4)
	for _, key := range present {
		h1, h2 := fnvHashPair(key)
		bits0 := uint64(len(bits)) * 64
		for i := uint32(0); i < hashes; i++ {
			idx := (uint64(h1) + uint64(i)*uint64(h2)) % bits0
			bits[idx/64] |= 1 << (idx % 64)
		}
	}
	table := &Table{filterRec: &Filter{Hashes: hashes, Buckets: bits}}
	adapter := table.Filter()
	for _, key := range present {
		if !adapter.Contains(key) {
			t.Fatalf("expected %q to be a member", key)
		}
	}
}

func TestBloomAdapterEmptyFilterNeverMatches(t *testing.T) {
	table := &Table{}
	if table.Filter().Contains([]byte("anything")) {
		t.Fatal("empty filter must report no membership")
	}
}

func TestCompressionInfoRoundTrip(t *testing.T) {
	orig := &CompressionInfo{
		Parameters:  map[string]string{"algorithm": "lz4", "chunk_length_in_kb": "64"},
		ChunkLength: 65536,
		DataLength:  1 << 20,
		Offsets:     []uint64{0, 4096, 9000},
	}
	var buf bytes.Buffer
	if err := WriteCompressionInfo(&encoder{w: &buf}, orig); err != nil {
		t.Fatalf("WriteCompressionInfo: %v", err)
	}
	d := &decoder{r: newMemReader(buf.Bytes()), path: "test"}
	got, err := ReadCompressionInfo(d)
	if err != nil {
		t.Fatalf("ReadCompressionInfo: %v", err)
	}
	if got.ChunkLength != orig.ChunkLength || got.DataLength != orig.DataLength {
		t.Fatalf("got %+v, want %+v", got, orig)
	}
	if len(got.Offsets) != len(orig.Offsets) {
		t.Fatalf("offsets length mismatch: got %v, want %v", got.Offsets, orig.Offsets)
	}
	for k, v := range orig.Parameters {
		if got.Parameters[k] != v {
			t.Fatalf("parameter %q: got %q, want %q", k, got.Parameters[k], v)
		}
	}
}

func TestCompressionInfoUpdate(t *testing.T) {
	info := &CompressionInfo{}
	info.Update(12345)
	if info.compressedFileSize != 12345 {
		t.Fatalf("got %d, want 12345", info.compressedFileSize)
	}
}

func TestStatsMetadataRoundTrip(t *testing.T) {
	orig := &StatsMetadata{
		EstimatedRowSize:           EstimatedHistogram{Elements: []EstimatedHistogramElem{{Offset: 0, Bucket: 5}}},
		EstimatedColumnCount:       EstimatedHistogram{Elements: []EstimatedHistogramElem{{Offset: 1, Bucket: 9}}},
		Position:                   ReplayPosition{Segment: 42, Offset: 100},
		MinTimestamp:               1000,
		MaxTimestamp:               2000,
		MaxLocalDeletionTime:       3000,
		CompressionRatio:           0.42,
		EstimatedTombstoneDropTime: StreamingHistogram{MaxBinSize: 128, Hash: map[float64]uint64{1.5: 3}},
		SSTableLevel:               1,
		RepairedAt:                 9999,
		MinColumnNames:             []string{"a", "b"},
		MaxColumnNames:             []string{"y", "z"},
		HasLegacyCounterShards:     true,
	}
	var buf bytes.Buffer
	if err := WriteStatsMetadata(&encoder{w: &buf}, orig); err != nil {
		t.Fatalf("WriteStatsMetadata: %v", err)
	}
	d := &decoder{r: newMemReader(buf.Bytes()), path: "test"}
	got, err := ReadStatsMetadata(d)
	if err != nil {
		t.Fatalf("ReadStatsMetadata: %v", err)
	}
	if got.MinTimestamp != orig.MinTimestamp || got.MaxTimestamp != orig.MaxTimestamp {
		t.Fatalf("timestamps: got %+v, want %+v", got, orig)
	}
	if got.SSTableLevel != orig.SSTableLevel || got.HasLegacyCounterShards != orig.HasLegacyCounterShards {
		t.Fatalf("got %+v, want %+v", got, orig)
	}
	if len(got.MinColumnNames) != 2 || got.MinColumnNames[1] != "b" {
		t.Fatalf("min column names: %v", got.MinColumnNames)
	}
}

func TestReadStatisticsSkipsUnknownTag(t *testing.T) {
	var body bytes.Buffer
	e := &encoder{w: &body}
	validation := &ValidationMetadata{Partitioner: "Murmur3Partitioner", FilterChance: 0.01}
	if err := writeFields(e, validation); err != nil {
		t.Fatal(err)
	}
	validationBytes := body.Bytes()

	const unknownTag = MetadataType(99)
	const numEntries = 2
	directorySize := uint32(4 + numEntries*8) // u32 count + numEntries * (u32 tag, u32 offset)
	directory := map[MetadataType]uint32{
		MetadataValidation: directorySize,
		unknownTag:         directorySize + uint32(len(validationBytes)),
	}
	keys := []MetadataType{MetadataValidation, unknownTag}

	var full bytes.Buffer
	de := &encoder{w: &full}
	if err := WriteHash(de, 32, directory, keys,
		func(e *encoder, t MetadataType) error { return e.uint32(uint32(t)) },
		func(e *encoder, v uint32) error { return e.uint32(v) },
	); err != nil {
		t.Fatal(err)
	}
	full.Write(validationBytes)
	full.Write(validationBytes) // payload for the unknown tag; never parsed

	d := &decoder{r: newMemReader(full.Bytes()), path: "test"}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	stats, err := ReadStatistics(d, logger)
	if err != nil {
		t.Fatalf("ReadStatistics: %v", err)
	}
	if stats.Validation == nil || stats.Validation.Partitioner != validation.Partitioner {
		t.Fatalf("validation metadata not parsed: %+v", stats.Validation)
	}
	if stats.Compaction != nil || stats.Stats != nil {
		t.Fatalf("unexpected payloads parsed: %+v", stats)
	}
	if !bytes.Contains(buf.Bytes(), []byte("unrecognized statistics tag")) {
		t.Fatalf("expected a WARN log for the unknown tag, got: %s", buf.String())
	}
}
