package sstable

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// maxTOCSize is the page-sized ceiling read_toc enforces: a TOC that would
// require a second page to hold its component list is rejected outright,
// since a legitimate TOC never lists more than a handful of short suffixes.
const maxTOCSize = 4096

// ReadTOC opens the TOC component named by desc and fills desc.Components
// from its contents: one component suffix per non-empty line. The read
// itself is capped at maxTOCSize+1 bytes via io.LimitReader, so a corrupt
// or hostile TOC can't force this to buffer an unbounded file in memory
// before the size check below rejects it.
func ReadTOC(desc *Descriptor) error {
	path := desc.Filename(ComponentTOC)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newMalformed(FileNotFound, path, err.Error())
		}
		return fmt.Errorf("sstable: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxTOCSize+1))
	if err != nil {
		return fmt.Errorf("sstable: read %s: %w", path, err)
	}
	if len(data) >= maxTOCSize {
		return newMalformed(TOCTooLarge, path, fmt.Sprintf("read %d bytes, limit is %d", len(data), maxTOCSize))
	}

	components := make(map[ComponentKind]bool)
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		kind, ok := suffixToComponent[string(line)]
		if !ok {
			return newMalformed(UnrecognizedComponent, path, string(line))
		}
		components[kind] = true
	}
	if len(components) == 0 {
		return newMalformed(EmptyTOC, path, "")
	}
	desc.Components = components
	return nil
}

// WriteTOC writes a TOC component listing exactly the components recorded
// in desc.Components, one suffix per line.
func WriteTOC(desc *Descriptor) error {
	path := desc.Filename(ComponentTOC)
	var buf bytes.Buffer
	for kind, present := range desc.Components {
		if !present {
			continue
		}
		buf.WriteString(kind.suffix())
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
