package sstable

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nexusbase/sstable/compressors"
	"github.com/nexusbase/sstable/core"
)

// Table is the component orchestrator: it owns one SSTable descriptor's
// parsed records and the open readers over its Index and Data components.
// Every load or store runs single-threaded and cooperatively, per
// component orchestrator design — the mutex below exists only to make
// Close idempotent under concurrent callers, not to allow concurrent
// Load/Store on the same Table.
type Table struct {
	mu   sync.RWMutex
	desc Descriptor

	statistics  *Statistics
	compression *CompressionInfo
	filterRec   *Filter
	summary     *Summary

	indexReader RandomAccessReader
	dataReader  RandomAccessReader
	dataSize    int64

	opts   *Options
	tracer trace.Tracer
	logger *slog.Logger

	closed atomic.Bool
}

// Options carries the collaborators a Table needs beyond its descriptor:
// a logger, a tracer, and the compressor registry to consult when
// CompressionInfo names an algorithm.
type Options struct {
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Compressor func(core.CompressionType) (core.Compressor, error)
}

func (o *Options) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) tracer() trace.Tracer {
	if o != nil && o.Tracer != nil {
		return o.Tracer
	}
	return nil
}

func (o *Options) compressorFor(t core.CompressionType) (core.Compressor, error) {
	if o != nil && o.Compressor != nil {
		return o.Compressor(t)
	}
	return compressors.Get(t)
}

// startSpan begins a tracing span when a tracer is configured, returning a
// no-op end function otherwise. This mirrors the nil-tracer pattern used
// throughout the collaborator's own reader.
func startSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (trace.Span, func(error)) {
	if tracer == nil {
		return nil, func(error) {}
	}
	_, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return span, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Open constructs a Table for the given descriptor without loading any
// component; callers invoke Load to populate it. generation and directory
// are supplied via desc.
func Open(desc Descriptor, opts *Options) *Table {
	return &Table{
		desc:   desc,
		opts:   opts,
		logger: opts.logger().With("generation", desc.Generation),
		tracer: opts.tracer(),
	}
}

// readSimple opens the file named by kind, parses exactly one record of
// type T through parse, and closes the reader before returning — the
// generic form of read_simple<Component>.
func readSimple[T any](t *Table, kind ComponentKind, bufCap int, parse func(*decoder) (T, error)) (T, error) {
	var zero T
	path := t.desc.Filename(kind)
	r, err := OpenFileReader(path, bufCap)
	if err != nil {
		return zero, err
	}
	defer r.Close()
	d := &decoder{r: r, path: path}
	return parse(d)
}

// writeSimple opens the file named by kind for create+truncate, writes
// exactly one record through write, syncs the file after a successful
// write, and closes it on every exit path. Unlike the collaborator it is grounded on, every I/O error here is
// surfaced rather than swallowed — see the error-handling design decision
// this package documents for write_simple.
func writeSimple(t *Table, kind ComponentKind, write func(*encoder) error) (err error) {
	path := t.desc.Filename(kind)
	f, openErr := createTruncate(path)
	if openErr != nil {
		return fmt.Errorf("sstable: open %s: %w", path, openErr)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	e := &encoder{w: f}
	if err = write(e); err != nil {
		return err
	}
	return f.Sync()
}

// Load runs the fixed sequence: TOC, Statistics, CompressionInfo, Filter,
// Summary, then opens Index and Data and records the data file's size. If
// a CompressionInfo component is present, it is augmented with that size
// once Data has been opened, mirroring the order the component
// orchestrator requires: statistics first because its own corruption is
// informational and should surface before any expensive work, compression
// before data so the reader factory can choose a stream kind.
func (t *Table) Load(ctx context.Context) (err error) {
	_, end := startSpan(ctx, t.tracer, "sstable.Load", attribute.Int64("generation", int64(t.desc.Generation)))
	defer func() { end(err) }()

	if err = ReadTOC(&t.desc); err != nil {
		return err
	}

	if t.desc.HasComponent(ComponentStatistics) {
		t.statistics, err = readSimple(t, ComponentStatistics, DefaultMetadataBufferSize, func(d *decoder) (*Statistics, error) {
			return ReadStatistics(d, t.logger)
		})
		if err != nil {
			return err
		}
	}

	if t.desc.HasComponent(ComponentCompressionInfo) {
		t.compression, err = readSimple(t, ComponentCompressionInfo, DefaultMetadataBufferSize, ReadCompressionInfo)
		if err != nil {
			return err
		}
	}

	if t.desc.HasComponent(ComponentFilter) {
		t.filterRec, err = readSimple(t, ComponentFilter, DefaultMetadataBufferSize, ReadFilter)
		if err != nil {
			return err
		}
	}

	if t.desc.HasComponent(ComponentSummary) {
		t.summary, err = readSimple(t, ComponentSummary, DefaultMetadataBufferSize, ReadSummary)
		if err != nil {
			return err
		}
	}

	if err = t.openData(); err != nil {
		return err
	}

	if t.compression != nil {
		t.compression.Update(t.dataSize)
	}
	return nil
}

// openData opens the Index and Data components and records the Data
// component's on-disk size, per the "open_data" step.
func (t *Table) openData() (err error) {
	t.indexReader, err = OpenFileReader(t.desc.Filename(ComponentIndex), DefaultBufferSize)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			t.indexReader.Close()
			t.indexReader = nil
		}
	}()

	size, sizeErr := fileSize(t.desc.Filename(ComponentData))
	if sizeErr != nil {
		return sizeErr
	}
	t.dataSize = size

	if t.compression != nil {
		ctype, ok := inferCompressionType(t.compression)
		if !ok {
			return ErrUnknownCompressor
		}
		cmp, cErr := t.opts.compressorFor(ctype)
		if cErr != nil {
			return cErr
		}
		t.dataReader, err = OpenCompressedReader(t.desc.Filename(ComponentData), t.compression, cmp)
	} else {
		t.dataReader, err = OpenFileReader(t.desc.Filename(ComponentData), DefaultBufferSize)
	}
	return err
}

// inferCompressionType reads the algorithm name from CompressionInfo's own
// parameters record, the same way the compression collaborator's
// describe_type hook exposes it, and maps it to this module's closed
// CompressionType enumeration. The "none" name is accepted explicitly
// rather than falling out of the default case, so an unrecognized name is
// distinguishable from an absent one.
func inferCompressionType(info *CompressionInfo) (core.CompressionType, bool) {
	switch info.Parameters["algorithm"] {
	case "none", "":
		return core.CompressionNone, true
	case "snappy":
		return core.CompressionSnappy, true
	case "lz4":
		return core.CompressionLZ4, true
	case "zstd":
		return core.CompressionZSTD, true
	default:
		return 0, false
	}
}

// Store writes CompressionInfo (if present) and then the Filter, matching
// the component orchestrator's store order; unlike load, store does not
// touch Statistics, Summary, Index, or Data.
func (t *Table) Store(ctx context.Context) (err error) {
	_, end := startSpan(ctx, t.tracer, "sstable.Store")
	defer func() { end(err) }()

	if t.compression != nil {
		if err = writeSimple(t, ComponentCompressionInfo, func(e *encoder) error {
			return WriteCompressionInfo(e, t.compression)
		}); err != nil {
			return err
		}
	}
	if t.filterRec != nil {
		if err = writeSimple(t, ComponentFilter, func(e *encoder) error {
			return WriteFilter(e, t.filterRec)
		}); err != nil {
			return err
		}
	}
	return nil
}

// HasComponent reports whether the descriptor's TOC named kind.
func (t *Table) HasComponent(kind ComponentKind) bool {
	return t.desc.HasComponent(kind)
}

// Filename returns the on-disk path of one component sibling file.
func (t *Table) Filename(kind ComponentKind) string {
	return t.desc.Filename(kind)
}

// ReadSummaryEntry returns the i'th sampled entry of the loaded Summary
// component.
func (t *Table) ReadSummaryEntry(i int) (SummaryEntry, error) {
	if t.summary == nil || i < 0 || i >= len(t.summary.Entries) {
		return SummaryEntry{}, ErrOutOfRange
	}
	return t.summary.Entries[i], nil
}

// ReadIndexes seeks the Index reader to position and parses up to quantity
// entries. Recovery rule: a BufferUndersized failure that coincides with
// end of stream terminates the scan cleanly instead of failing it, since a
// partially-written trailing entry at the tail of an in-progress Index
// component is expected, not corruption.
func (t *Table) ReadIndexes(position int64, quantity int) ([]*IndexEntry, error) {
	if t.indexReader == nil {
		return nil, fmt.Errorf("sstable: index component not open")
	}
	if err := t.indexReader.Seek(position); err != nil {
		return nil, err
	}
	d := &decoder{r: t.indexReader, path: t.desc.Filename(ComponentIndex)}

	entries := make([]*IndexEntry, 0, quantity)
	for i := 0; i < quantity; i++ {
		entry, err := ReadIndexEntry(d)
		if err != nil {
			if me, ok := err.(*MalformedError); ok && me.Kind == BufferUndersized && t.indexReader.EOF() {
				if t.logger != nil {
					t.logger.Debug("sstable: skipping truncated index tail entry", "path", d.path, "entries", len(entries))
				}
				break
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DataStreamAt returns a RandomAccessReader positioned at the given
// logical offset into the Data component, transparently decompressing if
// CompressionInfo is present.
func (t *Table) DataStreamAt(offset int64) (RandomAccessReader, error) {
	if t.dataReader == nil {
		return nil, fmt.Errorf("sstable: data component not open")
	}
	if err := t.dataReader.Seek(offset); err != nil {
		return nil, err
	}
	return t.dataReader, nil
}

// DataReadAt reads exactly length bytes of logical Data content starting
// at offset.
func (t *Table) DataReadAt(offset int64, length int) ([]byte, error) {
	r, err := t.DataStreamAt(offset)
	if err != nil {
		return nil, err
	}
	buf, err := r.ReadExactly(length)
	if err != nil {
		return nil, err
	}
	if err := checkBufSize(t.desc.Filename(ComponentData), buf, length); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close releases every reader Load opened. It is idempotent: a second
// call observes t.closed already set and returns nil.
func (t *Table) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	if t.indexReader != nil {
		if err := t.indexReader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if t.dataReader != nil {
		if err := t.dataReader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
