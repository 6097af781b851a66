package sstable

import (
	"errors"
	"fmt"
)

// MalformedKind enumerates the ways a component file can be rejected as
// malformed. It is deliberately closed: every site that can fail maps to
// exactly one of these.
type MalformedKind int

const (
	FileNotFound MalformedKind = iota
	EmptyTOC
	UnrecognizedComponent
	TOCTooLarge
	BufferUndersized
)

func (k MalformedKind) String() string {
	switch k {
	case FileNotFound:
		return "file not found"
	case EmptyTOC:
		return "empty TOC"
	case UnrecognizedComponent:
		return "unrecognized component"
	case TOCTooLarge:
		return "TOC too large"
	case BufferUndersized:
		return "buffer undersized"
	default:
		return "unknown"
	}
}

// MalformedError reports that an on-disk component could not be decoded.
// It always identifies the file path and the offending detail, per the
// "every fatal error carries a human-readable message" requirement.
type MalformedError struct {
	Kind     MalformedKind
	Path     string
	Detail   string
	Expected int
	Got      int
}

func (e *MalformedError) Error() string {
	switch e.Kind {
	case BufferUndersized:
		return fmt.Sprintf("sstable: %s: buffer undersized: expected %d bytes, got %d", e.Path, e.Expected, e.Got)
	case UnrecognizedComponent:
		return fmt.Sprintf("sstable: %s: unrecognized component %q", e.Path, e.Detail)
	default:
		if e.Detail != "" {
			return fmt.Sprintf("sstable: %s: %s: %s", e.Path, e.Kind, e.Detail)
		}
		return fmt.Sprintf("sstable: %s: %s", e.Path, e.Kind)
	}
}

func newMalformed(kind MalformedKind, path, detail string) *MalformedError {
	return &MalformedError{Kind: kind, Path: path, Detail: detail}
}

func newBufferUndersized(path string, expected, got int) *MalformedError {
	return &MalformedError{Kind: BufferUndersized, Path: path, Expected: expected, Got: got}
}

// ErrOverflow is returned when a counted container's element count does not
// fit in its declared on-disk length width.
var ErrOverflow = errors.New("sstable: value does not fit in declared on-disk width")

// ErrOutOfRange is returned by ReadSummaryEntry for an out-of-bounds index.
// An unknown component suffix in a TOC is reported by ReadTOC as
// Malformed{UnrecognizedComponent}, not as ErrOutOfRange.
var ErrOutOfRange = errors.New("sstable: index out of range")

// ErrUnknownCompressor is returned when a CompressionInfo payload names a
// compression algorithm this module's compressor registry does not know.
var ErrUnknownCompressor = errors.New("sstable: unknown compression type")
