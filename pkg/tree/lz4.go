package tree

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

const uint32ByteSize = 4

// CompressUInt32Slice compresses a slice of uint32-s with LZ4.
func CompressUInt32Slice(data []uint32) ([]byte, error) {
	buf := new(bytes.Buffer)

	err := binary.Write(buf, binary.LittleEndian, data)
	if err != nil {
		return nil, fmt.Errorf("encode column: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("compress column: %w", err)
	}

	if written == 0 {
		return nil, fmt.Errorf("compress column: nothing written for %d bytes", buf.Len())
	}

	return compressed[:written], nil
}

// DecompressUInt32Slice decompresses data produced by CompressUInt32Slice into
// result, which must be preallocated to the original length.
func DecompressUInt32Slice(data []byte, result []uint32) error {
	decompressed := make([]byte, len(result)*uint32ByteSize)

	_, err := lz4.UncompressBlock(data, decompressed)
	if err != nil {
		return fmt.Errorf("decompress column: %w", err)
	}

	err = binary.Read(bytes.NewReader(decompressed), binary.LittleEndian, result)
	if err != nil {
		return fmt.Errorf("decode column: %w", err)
	}

	return nil
}
