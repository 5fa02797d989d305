package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/fragbox/errs"
)

// S2Compressor compresses with S2, the Snappy-compatible format from
// klauspost/compress.
type S2Compressor struct{}

var (
	_ Codec             = (*S2Compressor)(nil)
	_ SizedDecompressor = (*S2Compressor)(nil)
)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses data into a single S2 block.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decodes an S2 block. The block header carries the decoded size.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}

// DecompressSize decodes an S2 block into a buffer of rawLen bytes, after
// checking that the block header agrees with rawLen.
func (c S2Compressor) DecompressSize(data []byte, rawLen int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if n != rawLen {
		return nil, fmt.Errorf("%w: s2 block decodes to %d bytes, want %d", errs.ErrDecompressedSizeMismatch, n, rawLen)
	}

	return s2.Decode(make([]byte, rawLen), data)
}
