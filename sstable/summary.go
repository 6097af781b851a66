package sstable

import "encoding/binary"

// SummaryEntry is one sampled key in a Summary component: a key and the
// byte offset, within the Index component, where that key's index entry
// begins.
type SummaryEntry struct {
	Key      []byte
	Position uint64
}

// Summary is the decoded Summary.db component: a sparse sample of the
// Index component's keys, used to narrow an index scan to a small byte
// range before reading Index.db itself.
type Summary struct {
	MinIndexInterval   uint32
	Size               uint32
	MemorySize         uint64
	SamplingLevel      uint32
	SizeAtFullSampling uint32
	Entries            []SummaryEntry
	FirstKey           []byte
	LastKey            []byte
}

const summaryHeaderSize = 4 + 4 + 8 + 4 + 4

// ReadSummary decodes a Summary component. Unlike every other component,
// the positions array that locates each entry is stored in the writer's
// native byte order rather than big-endian — this module always treats
// that as little-endian, matching the only platform family the original
// format is known to run on. See summary reader step 2.
func ReadSummary(d *decoder) (*Summary, error) {
	s := &Summary{}
	var err error
	if s.MinIndexInterval, err = d.uint32(); err != nil {
		return nil, err
	}
	if s.Size, err = d.uint32(); err != nil {
		return nil, err
	}
	if s.MemorySize, err = d.uint64(); err != nil {
		return nil, err
	}
	if s.SamplingLevel, err = d.uint32(); err != nil {
		return nil, err
	}
	if s.SizeAtFullSampling, err = d.uint32(); err != nil {
		return nil, err
	}

	posBuf, err := d.readN(int(s.Size) * 4)
	if err != nil {
		return nil, err
	}
	positions := make([]uint32, s.Size+1)
	for i := uint32(0); i < s.Size; i++ {
		positions[i] = binary.LittleEndian.Uint32(posBuf[i*4:])
	}
	positions[s.Size] = uint32(s.MemorySize)

	if err := d.r.Seek(int64(summaryHeaderSize) + int64(s.MemorySize)); err != nil {
		return nil, err
	}
	if s.FirstKey, err = d.bytesString(32); err != nil {
		return nil, err
	}
	if s.LastKey, err = d.bytesString(32); err != nil {
		return nil, err
	}

	if err := d.r.Seek(int64(summaryHeaderSize) + int64(positions[0])); err != nil {
		return nil, err
	}
	entries := make([]SummaryEntry, 0, s.Size)
	for i := uint32(0); i < s.Size; i++ {
		entrySize := positions[i+1] - positions[i]
		raw, err := d.readN(int(entrySize))
		if err != nil {
			return nil, err
		}
		key := append([]byte(nil), raw[:entrySize-8]...)
		position := readInt[uint64](raw[entrySize-8:])
		entries = append(entries, SummaryEntry{Key: key, Position: position})
	}
	s.Entries = entries
	return s, nil
}

// bytesString reads a W-bit length-prefixed string as raw bytes rather
// than as a Go string, since summary keys are not necessarily valid text.
func (d *decoder) bytesString(width int) ([]byte, error) {
	n, err := d.length(width)
	if err != nil {
		return nil, err
	}
	buf, err := d.readN(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), buf...), nil
}

// WriteSummary encodes a Summary component in the same layout ReadSummary
// expects, including the little-endian positions array. Each position and
// the memory size are measured from the end of the header, so they count
// the positions array itself as well as the entry bytes.
func WriteSummary(e *encoder, s *Summary) error {
	if err := e.uint32(s.MinIndexInterval); err != nil {
		return err
	}
	if err := e.uint32(uint32(len(s.Entries))); err != nil {
		return err
	}

	entryBytes := make([][]byte, len(s.Entries))
	memorySize := uint64(len(s.Entries) * 4)
	positions := make([]uint32, len(s.Entries))
	for i, ent := range s.Entries {
		buf := make([]byte, len(ent.Key)+8)
		copy(buf, ent.Key)
		_ = writeInt(sliceWriter{buf[len(ent.Key):]}, ent.Position)
		entryBytes[i] = buf
		positions[i] = uint32(memorySize)
		memorySize += uint64(len(buf))
	}

	if err := e.uint64(memorySize); err != nil {
		return err
	}
	if err := e.uint32(s.SamplingLevel); err != nil {
		return err
	}
	if err := e.uint32(s.SizeAtFullSampling); err != nil {
		return err
	}

	posBuf := make([]byte, len(positions)*4)
	for i, p := range positions {
		binary.LittleEndian.PutUint32(posBuf[i*4:], p)
	}
	if _, err := e.w.Write(posBuf); err != nil {
		return err
	}
	for _, buf := range entryBytes {
		if _, err := e.w.Write(buf); err != nil {
			return err
		}
	}
	if err := e.diskString(32, string(s.FirstKey)); err != nil {
		return err
	}
	return e.diskString(32, string(s.LastKey))
}

// sliceWriter adapts a fixed-size []byte into an io.Writer for writeInt,
// used only to serialize an entry's trailing 64-bit position in place.
type sliceWriter struct{ buf []byte }

func (w sliceWriter) Write(p []byte) (int, error) {
	copy(w.buf, p)
	return len(p), nil
}
