package compressors

import (
	"fmt"

	"github.com/nexusbase/sstable/core"
)

// Get returns a Compressor instance for compressionType, used when opening
// a Data component whose CompressionInfo names an algorithm once that name
// has been mapped to a CompressionType.
func Get(compressionType core.CompressionType) (core.Compressor, error) {
	switch compressionType {
	case core.CompressionNone:
		return &NoCompressionCompressor{}, nil
	case core.CompressionSnappy:
		return NewSnappyCompressor(), nil
	case core.CompressionLZ4:
		return NewLz4Compressor(), nil
	case core.CompressionZSTD:
		return NewZstdCompressor(), nil
	default:
		return nil, fmt.Errorf("sstable: unknown compression type: %d", compressionType)
	}
}
