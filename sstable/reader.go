package sstable

import (
	"fmt"
	"io"
	"os"

	"github.com/nexusbase/sstable/core"
)

// createTruncate opens path for writing, creating it if absent and
// truncating it if present, matching write_simple's open mode.
func createTruncate(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

// fileSize stats path and returns its size in bytes.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, newMalformed(FileNotFound, path, err.Error())
		}
		return 0, fmt.Errorf("sstable: stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// DefaultBufferSize is the bufCap the orchestrator passes to OpenFileReader
// for the Index and Data components. DefaultMetadataBufferSize is the
// smaller bufCap it passes for the Statistics, CompressionInfo, Filter, and
// Summary components. fileReader records the value but does not buffer its
// reads with it (see OpenFileReader).
const (
	DefaultBufferSize         = 8 * 1024
	DefaultMetadataBufferSize = 4 * 1024
)

// RandomAccessReader is the abstraction every component decoder reads
// through. It reports its own end-of-stream condition via EOF rather than
// forcing callers to interpret io.EOF from a short read, since a short read
// at an approximate boundary (see ReadIndexes) is expected, not exceptional.
type RandomAccessReader interface {
	io.Closer

	// ReadExactly reads n bytes starting at the current position and
	// advances the position by n. It returns fewer than n bytes only when
	// the underlying stream ends first; the caller is responsible for
	// treating a short read as EOF or as Malformed.BufferUndersized,
	// depending on context.
	ReadExactly(n int) ([]byte, error)

	// Seek repositions to an absolute logical offset.
	Seek(pos int64) error

	// Position reports the current logical offset.
	Position() int64

	// EOF reports whether the last ReadExactly hit the end of the stream.
	EOF() bool
}

// fileReader is a RandomAccessReader backed directly by an *os.File, used
// for the uncompressed sibling components (Statistics, CompressionInfo,
// Filter, Summary, Index, and Data when no CompressionInfo is present).
type fileReader struct {
	path   string
	file   *os.File
	pos    int64
	eof    bool
	bufCap int
}

// OpenFileReader opens path for reading. bufCap (0 selects
// DefaultBufferSize) is stored on the reader but is not used as a read
// buffer: every ReadExactly reads directly from the file.
func OpenFileReader(path string, bufCap int) (*fileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newMalformed(FileNotFound, path, err.Error())
		}
		return nil, fmt.Errorf("sstable: open %s: %w", path, err)
	}
	if bufCap <= 0 {
		bufCap = DefaultBufferSize
	}
	return &fileReader{path: path, file: f, bufCap: bufCap}, nil
}

func (r *fileReader) ReadExactly(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(r.file, buf)
	r.pos += int64(got)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			r.eof = true
			return buf[:got], nil
		}
		return nil, fmt.Errorf("sstable: read %s: %w", r.path, err)
	}
	return buf, nil
}

func (r *fileReader) Seek(pos int64) error {
	_, err := r.file.Seek(pos, io.SeekStart)
	if err != nil {
		return fmt.Errorf("sstable: seek %s: %w", r.path, err)
	}
	r.pos = pos
	r.eof = false
	return nil
}

func (r *fileReader) Position() int64 { return r.pos }
func (r *fileReader) EOF() bool       { return r.eof }

func (r *fileReader) Close() error {
	return r.file.Close()
}

// compressedReader is a RandomAccessReader over a component whose bytes are
// chunk-compressed on disk, per CompressionInfo. A logical position maps to
// the chunk that contains it; each chunk is decompressed, through compr, in
// full before satisfying the read.
type compressedReader struct {
	path    string
	file    *os.File
	info    *CompressionInfo
	compr   core.Compressor
	pos     int64
	eof     bool
	chunk   []byte // decompressed bytes of the chunk currently loaded
	chunkAt int64  // logical offset of chunk[0]
}

// OpenCompressedReader opens path for reading logical (uncompressed) bytes
// through the chunking described by info, using compr to decompress each
// chunk.
func OpenCompressedReader(path string, info *CompressionInfo, compr core.Compressor) (*compressedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newMalformed(FileNotFound, path, err.Error())
		}
		return nil, fmt.Errorf("sstable: open %s: %w", path, err)
	}
	return &compressedReader{path: path, file: f, info: info, compr: compr, chunkAt: -1}, nil
}

func (r *compressedReader) loadChunk(logicalOffset int64) error {
	chunkLen := int64(r.info.ChunkLength)
	idx := logicalOffset / chunkLen
	if idx < 0 || idx >= int64(len(r.info.Offsets)) {
		r.eof = true
		r.chunk = nil
		return nil
	}
	start := r.info.Offsets[idx]
	var end uint64
	if idx+1 < int64(len(r.info.Offsets)) {
		end = r.info.Offsets[idx+1]
	} else {
		end = uint64(r.info.compressedFileSize)
	}
	if end <= start {
		return fmt.Errorf("sstable: %s: corrupt compression offsets at chunk %d", r.path, idx)
	}

	rawBuf := core.BufferPool.Get()
	defer core.BufferPool.Put(rawBuf)
	rawBuf.Grow(int(end - start))
	raw := rawBuf.Bytes()[:end-start]
	if _, err := r.file.ReadAt(raw, int64(start)); err != nil {
		return fmt.Errorf("sstable: read chunk %d of %s: %w", idx, r.path, err)
	}
	rc, err := r.compr.Decompress(raw)
	if err != nil {
		return fmt.Errorf("sstable: decompress chunk %d of %s: %w", idx, r.path, err)
	}
	defer rc.Close()
	decoded, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("sstable: decompress chunk %d of %s: %w", idx, r.path, err)
	}
	r.chunk = decoded
	r.chunkAt = idx * chunkLen
	return nil
}

func (r *compressedReader) ReadExactly(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if r.chunk == nil || r.pos < r.chunkAt || r.pos >= r.chunkAt+int64(len(r.chunk)) {
			if err := r.loadChunk(r.pos); err != nil {
				return nil, err
			}
			if r.chunk == nil {
				r.eof = true
				return out, nil
			}
		}
		offInChunk := r.pos - r.chunkAt
		avail := r.chunk[offInChunk:]
		take := n - len(out)
		if take > len(avail) {
			take = len(avail)
		}
		out = append(out, avail[:take]...)
		r.pos += int64(take)
		if take == 0 {
			r.eof = true
			break
		}
	}
	return out, nil
}

func (r *compressedReader) Seek(pos int64) error {
	r.pos = pos
	r.eof = false
	return nil
}

func (r *compressedReader) Position() int64 { return r.pos }
func (r *compressedReader) EOF() bool       { return r.eof }

func (r *compressedReader) Close() error {
	return r.file.Close()
}
