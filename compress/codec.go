package compress

import (
	"fmt"

	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
)

// Compressor compresses a serialized fragment.
//
// Memory management:
//   - The returned slice is owned by the caller, except for NoOpCompressor
//     which returns its input
//   - The input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores data produced by the matching Compressor.
//
// Example:
//
//	codec, _ := compress.GetCodec(format.CompressionZstd)
//	raw, err := codec.Decompress(payload)
//	if err != nil {
//	    return fmt.Errorf("decompress fragment: %w", err)
//	}
//
// Thread Safety: all built-in decompressors are safe for concurrent use.
type Decompressor interface {
	// Decompress returns an error if data is corrupted or was produced by a
	// different algorithm.
	Decompress(data []byte) ([]byte, error)
}

// SizedDecompressor is implemented by decompressors that can use a known
// decompressed size to allocate their output once.
type SizedDecompressor interface {
	Decompressor
	// DecompressSize decompresses data whose decompressed length is rawLen.
	DecompressSize(data []byte, rawLen int) ([]byte, error)
}

// Codec combines both directions of one algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec returns a new Codec for the given compression type.
//
// Returns:
//   - Codec: Codec instance for compressionType
//   - error: ErrUnsupportedCompression for unknown types
func CreateCodec(compressionType format.CompressionType) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the shared built-in Codec for the given compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// Decompress restores data with codec, using rawLen as an allocation hint
// when the codec supports it, and checks that the result is rawLen bytes.
func Decompress(codec Decompressor, data []byte, rawLen int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if sized, ok := codec.(SizedDecompressor); ok {
		out, err = sized.DecompressSize(data, rawLen)
	} else {
		out, err = codec.Decompress(data)
	}
	if err != nil {
		return nil, err
	}

	if len(out) != rawLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", errs.ErrDecompressedSizeMismatch, len(out), rawLen)
	}

	return out, nil
}
