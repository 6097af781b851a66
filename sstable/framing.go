package sstable

import "io"

// decoder is the read half of the type-driven framing layer: a
// RandomAccessReader plus the file path it is reading, so every error it
// raises can name the file it came from.
type decoder struct {
	r    RandomAccessReader
	path string
}

// encoder is the write half; writers do not need a path since write
// failures are always attributable to the destination the caller opened.
type encoder struct {
	w io.Writer
}

func (d *decoder) readN(n int) ([]byte, error) {
	buf, err := d.r.ReadExactly(n)
	if err != nil {
		return nil, err
	}
	if err := checkBufSize(d.path, buf, n); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *decoder) uint16() (uint16, error) {
	buf, err := d.readN(2)
	if err != nil {
		return 0, err
	}
	return readInt[uint16](buf), nil
}

func (d *decoder) uint32() (uint32, error) {
	buf, err := d.readN(4)
	if err != nil {
		return 0, err
	}
	return readInt[uint32](buf), nil
}

func (d *decoder) uint64() (uint64, error) {
	buf, err := d.readN(8)
	if err != nil {
		return 0, err
	}
	return readInt[uint64](buf), nil
}

func (d *decoder) float64() (float64, error) {
	buf, err := d.readN(8)
	if err != nil {
		return 0, err
	}
	return readDouble(buf), nil
}

func (d *decoder) bool() (bool, error) {
	buf, err := d.readN(1)
	if err != nil {
		return false, err
	}
	return readBool(buf), nil
}

func (d *decoder) length(width int) (uint64, error) {
	switch width {
	case 16:
		v, err := d.uint16()
		return uint64(v), err
	case 32:
		v, err := d.uint32()
		return uint64(v), err
	default:
		panic("sstable: unsupported length width")
	}
}

func (d *decoder) diskString(width int) (string, error) {
	n, err := d.length(width)
	if err != nil {
		return "", err
	}
	buf, err := d.readN(int(n))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (e *encoder) uint16(v uint16) error { return writeInt(e.w, v) }
func (e *encoder) uint32(v uint32) error { return writeInt(e.w, v) }
func (e *encoder) uint64(v uint64) error { return writeInt(e.w, v) }
func (e *encoder) float64(v float64) error {
	return writeDouble(e.w, v)
}
func (e *encoder) bool(v bool) error { return writeBool(e.w, v) }

// enum reads a width-byte enum tag, generalized over the two on-disk widths
// enumInteger allows (1 byte, 4 bytes) by dispatching to the matching
// instantiation of readEnum.
func (d *decoder) enum(width int) (uint32, error) {
	buf, err := d.readN(width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint32(readEnum[byte](buf)), nil
	case 4:
		return readEnum[uint32](buf), nil
	default:
		panic("sstable: unsupported enum width")
	}
}

func (e *encoder) enum(width int, v uint32) error {
	switch width {
	case 1:
		return writeEnum(e.w, byte(v))
	case 4:
		return writeEnum(e.w, v)
	default:
		panic("sstable: unsupported enum width")
	}
}

func (e *encoder) length(width int, n uint64) error {
	switch width {
	case 16:
		return e.uint16(uint16(n))
	case 32:
		return e.uint32(uint32(n))
	default:
		panic("sstable: unsupported length width")
	}
}

func (e *encoder) diskString(width int, s string) error {
	n, err := narrowLen(len(s), width)
	if err != nil {
		return err
	}
	if err := e.length(width, n); err != nil {
		return err
	}
	_, err = e.w.Write([]byte(s))
	return err
}

// fieldKind names one of the eight fixed/string/enum shapes spec.md's §4.3
// table enumerates for plain (non-counted-container) fields.
type fieldKind int

const (
	kindUint16 fieldKind = iota
	kindUint32
	kindUint64
	kindDouble
	kindBool
	kindString16
	kindString32
	kindEnum
)

// field is one entry in a record's describeType() list: a wire shape plus a
// pointer to the Go value that shape fills. parseFields and writeFields below
// are the only two functions that interpret field.kind, so adding support for a new
// record type never requires new framing code — only a new describeType().
// An enum field carries its on-disk width plus get/set closures instead of
// a typed pointer, since Go does not allow a generic field inside a
// non-generic struct; fEnum is the only place that needs to know E.
type field struct {
	kind      fieldKind
	u16       *uint16
	u32       *uint32
	u64       *uint64
	f64       *float64
	b         *bool
	s         *string
	enumWidth int
	getEnum   func() uint32
	setEnum   func(uint32)
}

func fUint16(v *uint16) field   { return field{kind: kindUint16, u16: v} }
func fUint32(v *uint32) field   { return field{kind: kindUint32, u32: v} }
func fUint64(v *uint64) field   { return field{kind: kindUint64, u64: v} }
func fDouble(v *float64) field  { return field{kind: kindDouble, f64: v} }
func fBool(v *bool) field       { return field{kind: kindBool, b: v} }
func fString16(v *string) field { return field{kind: kindString16, s: v} }
func fString32(v *string) field { return field{kind: kindString32, s: v} }

// fEnum describes an enum-shaped field stored on disk as its sizeof(E)-byte
// big-endian image, read and written through readEnum/writeEnum.
func fEnum[E enumInteger](v *E) field {
	var zero E
	return field{
		kind:      kindEnum,
		enumWidth: sizeofEnum(zero),
		getEnum:   func() uint32 { return uint32(*v) },
		setEnum:   func(x uint32) { *v = E(x) },
	}
}

// describable is implemented by every composite record whose shape is
// nothing more than a sequence of the plain field shapes above.
type describable interface {
	describeType() []field
}

// parseFields is the parse half of the shared framing interpreter.
func parseFields(d *decoder, rec describable) error {
	for _, f := range rec.describeType() {
		switch f.kind {
		case kindUint16:
			v, err := d.uint16()
			if err != nil {
				return err
			}
			*f.u16 = v
		case kindUint32:
			v, err := d.uint32()
			if err != nil {
				return err
			}
			*f.u32 = v
		case kindUint64:
			v, err := d.uint64()
			if err != nil {
				return err
			}
			*f.u64 = v
		case kindDouble:
			v, err := d.float64()
			if err != nil {
				return err
			}
			*f.f64 = v
		case kindBool:
			v, err := d.bool()
			if err != nil {
				return err
			}
			*f.b = v
		case kindString16:
			v, err := d.diskString(16)
			if err != nil {
				return err
			}
			*f.s = v
		case kindString32:
			v, err := d.diskString(32)
			if err != nil {
				return err
			}
			*f.s = v
		case kindEnum:
			v, err := d.enum(f.enumWidth)
			if err != nil {
				return err
			}
			f.setEnum(v)
		}
	}
	return nil
}

// writeFields is the write half, strictly symmetric with parseFields.
func writeFields(e *encoder, rec describable) error {
	for _, f := range rec.describeType() {
		switch f.kind {
		case kindUint16:
			if err := e.uint16(*f.u16); err != nil {
				return err
			}
		case kindUint32:
			if err := e.uint32(*f.u32); err != nil {
				return err
			}
		case kindUint64:
			if err := e.uint64(*f.u64); err != nil {
				return err
			}
		case kindDouble:
			if err := e.float64(*f.f64); err != nil {
				return err
			}
		case kindBool:
			if err := e.bool(*f.b); err != nil {
				return err
			}
		case kindString16:
			if err := e.diskString(16, *f.s); err != nil {
				return err
			}
		case kindString32:
			if err := e.diskString(32, *f.s); err != nil {
				return err
			}
		case kindEnum:
			if err := e.enum(f.enumWidth, f.getEnum()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseIntArray reads a W-bit-counted array of packed big-endian integers —
// the disk_array<W,T> shape for integer T from spec.md's §4.3 table.
func ParseIntArray[T integer](d *decoder, width int) ([]T, error) {
	n, err := d.length(width)
	if err != nil {
		return nil, err
	}
	var zero T
	elemSize := sizeofInt(zero)
	buf, err := d.readN(int(n) * elemSize)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := range out {
		out[i] = readInt[T](buf[i*elemSize:])
	}
	return out, nil
}

// WriteIntArray is the symmetric writer for ParseIntArray.
func WriteIntArray[T integer](e *encoder, width int, items []T) error {
	n, err := narrowLen(len(items), width)
	if err != nil {
		return err
	}
	if err := e.length(width, n); err != nil {
		return err
	}
	for _, v := range items {
		if err := writeInt(e.w, v); err != nil {
			return err
		}
	}
	return nil
}

// ParseByteArray reads a W-bit-counted array of raw bytes (disk_array<W,
// uint8_t> in the original format, used for the cardinality estimator).
func ParseByteArray(d *decoder, width int) ([]byte, error) {
	n, err := d.length(width)
	if err != nil {
		return nil, err
	}
	return d.readN(int(n))
}

// WriteByteArray is the symmetric writer for ParseByteArray.
func WriteByteArray(e *encoder, width int, data []byte) error {
	n, err := narrowLen(len(data), width)
	if err != nil {
		return err
	}
	if err := e.length(width, n); err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}

// ParseArray reads a W-bit-counted array whose elements are not integers:
// each is parsed by its own description, per spec.md's §4.3 disk_array<W,T>
// rule for non-integer T.
func ParseArray[T any](d *decoder, width int, parseElem func(*decoder) (T, error)) ([]T, error) {
	n, err := d.length(width)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := parseElem(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteArray is the symmetric writer for ParseArray.
func WriteArray[T any](e *encoder, width int, items []T, writeElem func(*encoder, T) error) error {
	n, err := narrowLen(len(items), width)
	if err != nil {
		return err
	}
	if err := e.length(width, n); err != nil {
		return err
	}
	for _, v := range items {
		if err := writeElem(e, v); err != nil {
			return err
		}
	}
	return nil
}

// ParseHash reads a W-bit-counted hash map, one (key, value) pair at a
// time, per spec.md's disk_hash<W,K,V> shape.
func ParseHash[K comparable, V any](d *decoder, width int, parseKey func(*decoder) (K, error), parseVal func(*decoder) (V, error)) (map[K]V, error) {
	n, err := d.length(width)
	if err != nil {
		return nil, err
	}
	out := make(map[K]V, n)
	for i := uint64(0); i < n; i++ {
		k, err := parseKey(d)
		if err != nil {
			return nil, err
		}
		v, err := parseVal(d)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// WriteHash writes a W-bit-counted hash map in the order given by keys,
// since Go map iteration order is not stable and callers that require
// determinism must supply their own ordering (spec.md §3).
func WriteHash[K comparable, V any](e *encoder, width int, items map[K]V, keys []K, writeKey func(*encoder, K) error, writeVal func(*encoder, V) error) error {
	n, err := narrowLen(len(keys), width)
	if err != nil {
		return err
	}
	if err := e.length(width, n); err != nil {
		return err
	}
	for _, k := range keys {
		if err := writeKey(e, k); err != nil {
			return err
		}
		if err := writeVal(e, items[k]); err != nil {
			return err
		}
	}
	return nil
}
