package sstable

import "sort"

// Filter is the wire-exact bloom filter payload stored in Filter.db: a hash
// count and the packed bit buckets, per the scenario-3 layout. It is a
// plain byte layout, not a usage API — ReadFilter and WriteFilter are the
// only entry points, and core.Compressor/filter.Filter remain the
// collaborator types everything else in this module talks to.
type Filter struct {
	Hashes  uint32
	Buckets []uint64
}

func ReadFilter(d *decoder) (*Filter, error) {
	hashes, err := d.uint32()
	if err != nil {
		return nil, err
	}
	buckets, err := ParseIntArray[uint64](d, 32)
	if err != nil {
		return nil, err
	}
	return &Filter{Hashes: hashes, Buckets: buckets}, nil
}

func WriteFilter(e *encoder, f *Filter) error {
	if err := e.uint32(f.Hashes); err != nil {
		return err
	}
	return WriteIntArray(e, 32, f.Buckets)
}

// CompressionInfo is the CompressionInfo.db payload: the algorithm's own
// parameters, the chunk length every chunk but the last was compressed at,
// the uncompressed data length, and the byte offset of each chunk in the
// compressed stream.
type CompressionInfo struct {
	Parameters  map[string]string
	ChunkLength uint32
	DataLength  uint64
	Offsets     []uint64

	// compressedFileSize is filled in by Update once the Data component's
	// on-disk size is known, so the final chunk's length can be derived
	// from Offsets[len-1] without a trailing sentinel offset.
	compressedFileSize int64
}

// Update augments info with the data file's actual size on disk, mirroring
// the original loader's "open_data" step that records the compressed
// stream's size once the Data component has been opened.
func (info *CompressionInfo) Update(dataFileSize int64) {
	info.compressedFileSize = dataFileSize
}

func ReadCompressionInfo(d *decoder) (*CompressionInfo, error) {
	params, err := ParseHash(d, 32,
		func(d *decoder) (string, error) { return d.diskString(16) },
		func(d *decoder) (string, error) { return d.diskString(16) },
	)
	if err != nil {
		return nil, err
	}
	chunkLength, err := d.uint32()
	if err != nil {
		return nil, err
	}
	dataLength, err := d.uint64()
	if err != nil {
		return nil, err
	}
	offsets, err := ParseIntArray[uint64](d, 32)
	if err != nil {
		return nil, err
	}
	return &CompressionInfo{
		Parameters:  params,
		ChunkLength: chunkLength,
		DataLength:  dataLength,
		Offsets:     offsets,
	}, nil
}

func WriteCompressionInfo(e *encoder, info *CompressionInfo) error {
	keys := make([]string, 0, len(info.Parameters))
	for k := range info.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	diskStr16 := func(e *encoder, s string) error { return e.diskString(16, s) }
	if err := WriteHash(e, 32, info.Parameters, keys, diskStr16, diskStr16); err != nil {
		return err
	}
	if err := e.uint32(info.ChunkLength); err != nil {
		return err
	}
	if err := e.uint64(info.DataLength); err != nil {
		return err
	}
	return WriteIntArray(e, 32, info.Offsets)
}

// IndexEntry is one entry of the sparse Index.db component: the row key,
// the Data-component byte offset where that row's block begins, and an
// opaque promoted-index payload this package does not interpret.
type IndexEntry struct {
	Key           string
	Position      uint64
	PromotedIndex string
}

func (e *IndexEntry) describeType() []field {
	return []field{
		fString16(&e.Key),
		fUint64(&e.Position),
		fString32(&e.PromotedIndex),
	}
}

func ReadIndexEntry(d *decoder) (*IndexEntry, error) {
	e := &IndexEntry{}
	if err := parseFields(d, e); err != nil {
		return nil, err
	}
	return e, nil
}

func WriteIndexEntry(e *encoder, entry *IndexEntry) error {
	return writeFields(e, entry)
}

// ReplayPosition locates a point in the commit log as of which an SSTable's
// contents are known to be durable.
type ReplayPosition struct {
	Segment uint64
	Offset  uint32
}

func (p *ReplayPosition) describeType() []field {
	return []field{fUint64(&p.Segment), fUint32(&p.Offset)}
}

// EstimatedHistogramElem is one (offset, bucket count) pair of an
// EstimatedHistogram.
type EstimatedHistogramElem struct {
	Offset uint64
	Bucket uint64
}

func (e *EstimatedHistogramElem) describeType() []field {
	return []field{fUint64(&e.Offset), fUint64(&e.Bucket)}
}

// EstimatedHistogram is a log-scale histogram stored as a counted array of
// (offset, bucket) pairs.
type EstimatedHistogram struct {
	Elements []EstimatedHistogramElem
}

func ReadEstimatedHistogram(d *decoder) (EstimatedHistogram, error) {
	elems, err := ParseArray(d, 32, func(d *decoder) (EstimatedHistogramElem, error) {
		e := EstimatedHistogramElem{}
		err := parseFields(d, &e)
		return e, err
	})
	if err != nil {
		return EstimatedHistogram{}, err
	}
	return EstimatedHistogram{Elements: elems}, nil
}

func WriteEstimatedHistogram(e *encoder, h EstimatedHistogram) error {
	return WriteArray(e, 32, h.Elements, func(e *encoder, elem EstimatedHistogramElem) error {
		return writeFields(e, &elem)
	})
}

// StreamingHistogram approximates a distribution with at most MaxBinSize
// (value, count) bins, stored as a disk_hash keyed by bin value.
type StreamingHistogram struct {
	MaxBinSize uint32
	Hash       map[float64]uint64
}

func ReadStreamingHistogram(d *decoder) (StreamingHistogram, error) {
	maxBinSize, err := d.uint32()
	if err != nil {
		return StreamingHistogram{}, err
	}
	hash, err := ParseHash(d, 32,
		func(d *decoder) (float64, error) { return d.float64() },
		func(d *decoder) (uint64, error) { return d.uint64() },
	)
	if err != nil {
		return StreamingHistogram{}, err
	}
	return StreamingHistogram{MaxBinSize: maxBinSize, Hash: hash}, nil
}

func WriteStreamingHistogram(e *encoder, h StreamingHistogram) error {
	if err := e.uint32(h.MaxBinSize); err != nil {
		return err
	}
	keys := make([]float64, 0, len(h.Hash))
	for k := range h.Hash {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return WriteHash(e, 32, h.Hash, keys,
		func(e *encoder, k float64) error { return e.float64(k) },
		func(e *encoder, v uint64) error { return e.uint64(v) },
	)
}

// ValidationMetadata records the partitioner this table was written with
// and the false-positive rate its bloom filter was sized for.
type ValidationMetadata struct {
	Partitioner  string
	FilterChance float64
}

func (m *ValidationMetadata) describeType() []field {
	return []field{fString16(&m.Partitioner), fDouble(&m.FilterChance)}
}

// CompactionMetadata names the generations this table was compacted from
// and an opaque cardinality estimator payload this package passes through
// uninterpreted.
type CompactionMetadata struct {
	Ancestors   []uint32
	Cardinality []byte
}

func ReadCompactionMetadata(d *decoder) (*CompactionMetadata, error) {
	ancestors, err := ParseIntArray[uint32](d, 32)
	if err != nil {
		return nil, err
	}
	cardinality, err := ParseByteArray(d, 32)
	if err != nil {
		return nil, err
	}
	return &CompactionMetadata{Ancestors: ancestors, Cardinality: cardinality}, nil
}

func WriteCompactionMetadata(e *encoder, m *CompactionMetadata) error {
	if err := WriteIntArray(e, 32, m.Ancestors); err != nil {
		return err
	}
	return WriteByteArray(e, 32, m.Cardinality)
}

// StatsMetadata is the bulk of Statistics.db: per-table row and column
// count estimates, the commit log position as of which this table is
// durable, its timestamp range, its compression ratio, and the other
// summary statistics a compaction strategy or repair tool consults without
// reading the Data component itself.
type StatsMetadata struct {
	EstimatedRowSize           EstimatedHistogram
	EstimatedColumnCount       EstimatedHistogram
	Position                   ReplayPosition
	MinTimestamp               uint64
	MaxTimestamp               uint64
	MaxLocalDeletionTime       uint32
	CompressionRatio           float64
	EstimatedTombstoneDropTime StreamingHistogram
	SSTableLevel               uint32
	RepairedAt                 uint64
	MinColumnNames             []string
	MaxColumnNames             []string
	HasLegacyCounterShards     bool
}

func ReadStatsMetadata(d *decoder) (*StatsMetadata, error) {
	m := &StatsMetadata{}
	var err error
	if m.EstimatedRowSize, err = ReadEstimatedHistogram(d); err != nil {
		return nil, err
	}
	if m.EstimatedColumnCount, err = ReadEstimatedHistogram(d); err != nil {
		return nil, err
	}
	if err = parseFields(d, &m.Position); err != nil {
		return nil, err
	}
	if m.MinTimestamp, err = d.uint64(); err != nil {
		return nil, err
	}
	if m.MaxTimestamp, err = d.uint64(); err != nil {
		return nil, err
	}
	if m.MaxLocalDeletionTime, err = d.uint32(); err != nil {
		return nil, err
	}
	if m.CompressionRatio, err = d.float64(); err != nil {
		return nil, err
	}
	if m.EstimatedTombstoneDropTime, err = ReadStreamingHistogram(d); err != nil {
		return nil, err
	}
	if m.SSTableLevel, err = d.uint32(); err != nil {
		return nil, err
	}
	if m.RepairedAt, err = d.uint64(); err != nil {
		return nil, err
	}
	readName := func(d *decoder) (string, error) { return d.diskString(16) }
	if m.MinColumnNames, err = ParseArray(d, 32, readName); err != nil {
		return nil, err
	}
	if m.MaxColumnNames, err = ParseArray(d, 32, readName); err != nil {
		return nil, err
	}
	if m.HasLegacyCounterShards, err = d.bool(); err != nil {
		return nil, err
	}
	return m, nil
}

func WriteStatsMetadata(e *encoder, m *StatsMetadata) error {
	if err := WriteEstimatedHistogram(e, m.EstimatedRowSize); err != nil {
		return err
	}
	if err := WriteEstimatedHistogram(e, m.EstimatedColumnCount); err != nil {
		return err
	}
	if err := writeFields(e, &m.Position); err != nil {
		return err
	}
	if err := e.uint64(m.MinTimestamp); err != nil {
		return err
	}
	if err := e.uint64(m.MaxTimestamp); err != nil {
		return err
	}
	if err := e.uint32(m.MaxLocalDeletionTime); err != nil {
		return err
	}
	if err := e.float64(m.CompressionRatio); err != nil {
		return err
	}
	if err := WriteStreamingHistogram(e, m.EstimatedTombstoneDropTime); err != nil {
		return err
	}
	if err := e.uint32(m.SSTableLevel); err != nil {
		return err
	}
	if err := e.uint64(m.RepairedAt); err != nil {
		return err
	}
	writeName := func(e *encoder, s string) error { return e.diskString(16, s) }
	if err := WriteArray(e, 32, m.MinColumnNames, writeName); err != nil {
		return err
	}
	if err := WriteArray(e, 32, m.MaxColumnNames, writeName); err != nil {
		return err
	}
	return e.bool(m.HasLegacyCounterShards)
}

// MetadataType tags one of the three payloads Statistics.db multiplexes.
type MetadataType uint32

const (
	MetadataValidation MetadataType = 0
	MetadataCompaction MetadataType = 1
	MetadataStats      MetadataType = 2
)

// Statistics is the decoded Statistics.db component: a directory of
// (metadata type -> byte offset) pairs, plus whichever of the three
// payloads that directory named were recognized. A tag this package does
// not know about is skipped, not rejected — see ReadStatistics.
type Statistics struct {
	Validation *ValidationMetadata
	Compaction *CompactionMetadata
	Stats      *StatsMetadata
}
