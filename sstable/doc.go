// Package sstable decodes and encodes the sibling files that make up one
// immutable SSTable: the table-of-contents, statistics, compression info,
// bloom filter, summary, and sparse index components of the "la"/"big"
// on-disk format. It does not read or write the row-level Data component;
// that decoding is left to a higher-level collaborator.
//
// The codec is type-driven: every record type lists its fields once, in
// declaration order, and Parse/Write interpret that list identically in
// both directions. See framing.go for the mechanism and records.go for
// the record definitions it drives.
package sstable
