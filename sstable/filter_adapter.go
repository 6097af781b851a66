package sstable

import (
	"hash/fnv"

	"github.com/nexusbase/sstable/filter"
)

var _ filter.Filter = (*bloomAdapter)(nil)

// bloomAdapter presents a decoded Filter record through the filter.Filter
// interface the rest of the codebase already depends on. It reuses the
// same FNV-1a double-hashing scheme the compressor's sibling bloom filter
// implementation uses, adapted to the wire format's 64-bit bucket words
// instead of a byte bitset.
type bloomAdapter struct {
	rec *Filter
}

// Filter adapts the loaded Filter component to filter.Filter, or reports
// false for every key if no Filter component was loaded.
func (t *Table) Filter() *bloomAdapter {
	return &bloomAdapter{rec: t.filterRec}
}

func (b *bloomAdapter) numBits() uint64 {
	return uint64(len(b.rec.Buckets)) * 64
}

func (b *bloomAdapter) Contains(key []byte) bool {
	if b.rec == nil || len(b.rec.Buckets) == 0 {
		return false
	}
	h1, h2 := fnvHashPair(key)
	bits := b.numBits()
	for i := uint32(0); i < b.rec.Hashes; i++ {
		idx := (uint64(h1) + uint64(i)*uint64(h2)) % bits
		word := idx / 64
		bit := idx % 64
		if b.rec.Buckets[word]&(1<<bit) == 0 {
			return false
		}
	}
	return true
}

func (b *bloomAdapter) Bytes() []byte {
	if b.rec == nil {
		return nil
	}
	out := make([]byte, len(b.rec.Buckets)*8)
	for i, word := range b.rec.Buckets {
		for j := 0; j < 8; j++ {
			out[i*8+j] = byte(word >> (8 * j))
		}
	}
	return out
}

func fnvHashPair(data []byte) (uint32, uint32) {
	h := fnv.New64a()
	h.Write(data)
	hash64 := h.Sum64()
	return uint32(hash64), uint32(hash64 >> 32)
}
