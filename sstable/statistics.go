package sstable

import (
	"bytes"
	"log/slog"
)

// statsDirEntry is one (metadata type, absolute offset) pair of the
// Statistics directory. Its tag is enum-shaped, framed through fEnum/
// readEnum/writeEnum rather than a hand-written uint32 cast.
type statsDirEntry struct {
	Tag    MetadataType
	Offset uint32
}

func (e *statsDirEntry) describeType() []field {
	return []field{fEnum(&e.Tag), fUint32(&e.Offset)}
}

// ReadStatistics decodes a Statistics.db component. The component is a
// directory of (metadata type, absolute offset) pairs followed by the
// payloads those offsets point to; a tag this package does not recognize
// is logged at WARN and skipped rather than rejected, since a statistics
// tag added by a newer writer is not itself evidence of corruption.
func ReadStatistics(d *decoder, logger *slog.Logger) (*Statistics, error) {
	count, err := d.length(32)
	if err != nil {
		return nil, err
	}
	directory := make(map[MetadataType]uint32, count)
	for i := uint64(0); i < count; i++ {
		var ent statsDirEntry
		if err := parseFields(d, &ent); err != nil {
			return nil, err
		}
		directory[ent.Tag] = ent.Offset
	}

	stats := &Statistics{}
	for tag, offset := range directory {
		if err := d.r.Seek(int64(offset)); err != nil {
			return nil, err
		}
		switch tag {
		case MetadataValidation:
			v := &ValidationMetadata{}
			if err := parseFields(d, v); err != nil {
				return nil, err
			}
			stats.Validation = v
		case MetadataCompaction:
			c, err := ReadCompactionMetadata(d)
			if err != nil {
				return nil, err
			}
			stats.Compaction = c
		case MetadataStats:
			s, err := ReadStatsMetadata(d)
			if err != nil {
				return nil, err
			}
			stats.Stats = s
		default:
			logger.Warn("sstable: skipping unrecognized statistics tag", "path", d.path, "tag", tag)
		}
	}
	return stats, nil
}

// WriteStatistics encodes a Statistics component. Only the payloads
// actually present on stats are written; their offsets are computed from
// the size of the directory itself plus each payload's encoded length.
func WriteStatistics(e *encoder, stats *Statistics) error {
	type entry struct {
		tag  MetadataType
		body []byte
	}
	var entries []entry
	if stats.Validation != nil {
		body, err := encodeBody(func(e *encoder) error { return writeFields(e, stats.Validation) })
		if err != nil {
			return err
		}
		entries = append(entries, entry{MetadataValidation, body})
	}
	if stats.Compaction != nil {
		body, err := encodeBody(func(e *encoder) error { return WriteCompactionMetadata(e, stats.Compaction) })
		if err != nil {
			return err
		}
		entries = append(entries, entry{MetadataCompaction, body})
	}
	if stats.Stats != nil {
		body, err := encodeBody(func(e *encoder) error { return WriteStatsMetadata(e, stats.Stats) })
		if err != nil {
			return err
		}
		entries = append(entries, entry{MetadataStats, body})
	}

	directorySize := 4 + len(entries)*8
	offset := uint32(directorySize)
	dirEntries := make([]statsDirEntry, len(entries))
	for i, ent := range entries {
		dirEntries[i] = statsDirEntry{Tag: ent.tag, Offset: offset}
		offset += uint32(len(ent.body))
	}

	n, err := narrowLen(len(dirEntries), 32)
	if err != nil {
		return err
	}
	if err := e.length(32, n); err != nil {
		return err
	}
	for i := range dirEntries {
		if err := writeFields(e, &dirEntries[i]); err != nil {
			return err
		}
	}
	for _, ent := range entries {
		if _, err := e.w.Write(ent.body); err != nil {
			return err
		}
	}
	return nil
}

func encodeBody(write func(*encoder) error) ([]byte, error) {
	var buf bytes.Buffer
	e := &encoder{w: &buf}
	if err := write(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
