package sstable

import "fmt"

// ComponentKind names one of the files that together make up an SSTable on
// disk. Data itself is a ComponentKind so the TOC and Descriptor machinery
// can name and locate it, even though this package does not decode its
// contents.
type ComponentKind int

const (
	ComponentIndex ComponentKind = iota
	ComponentCompressionInfo
	ComponentData
	ComponentTOC
	ComponentSummary
	ComponentDigest
	ComponentCRC
	ComponentFilter
	ComponentStatistics
)

var componentSuffixes = map[ComponentKind]string{
	ComponentIndex:           "Index.db",
	ComponentCompressionInfo: "CompressionInfo.db",
	ComponentData:            "Data.db",
	ComponentTOC:             "TOC.txt",
	ComponentSummary:         "Summary.db",
	ComponentDigest:          "Digest.sha1",
	ComponentCRC:             "CRC.db",
	ComponentFilter:          "Filter.db",
	ComponentStatistics:      "Statistics.db",
}

var suffixToComponent map[string]ComponentKind

func init() {
	suffixToComponent = make(map[string]ComponentKind, len(componentSuffixes))
	for k, v := range componentSuffixes {
		suffixToComponent[v] = k
	}
}

func (k ComponentKind) suffix() string {
	s, ok := componentSuffixes[k]
	if !ok {
		return ""
	}
	return s
}

// Version identifies the on-disk format generation. Only "la" is defined.
// ReadTOC does not check a Descriptor's Version; any other string is used
// unchanged in Filename.
type Version string

const VersionLA Version = "la"

// Format identifies the physical layout family. Only "big" is understood.
type Format string

const FormatBig Format = "big"

// Descriptor names one SSTable: the directory it lives in, its version,
// format, and generation number, plus the set of components its TOC claims
// to have. Filename derives every sibling path from the first four, the
// same way the original descriptor's filename() builds
// "<dir>/<version>-<generation>-<format>-<component>".
type Descriptor struct {
	Directory  string
	Version    Version
	Format     Format
	Generation uint64
	Components map[ComponentKind]bool
}

// Filename returns the path of one component sibling file for d, regardless
// of whether d.Components claims to have it.
func (d *Descriptor) Filename(kind ComponentKind) string {
	return fmt.Sprintf("%s/%s-%d-%s-%s", d.Directory, d.Version, d.Generation, d.Format, kind.suffix())
}

// HasComponent reports whether the descriptor's TOC named kind.
func (d *Descriptor) HasComponent(kind ComponentKind) bool {
	return d.Components[kind]
}
