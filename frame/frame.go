// Package frame wraps a finished fragment into a self-checking hand-off image.
//
// A frame is what a producer puts on a queue once a container is complete:
// the serialized fragment, optionally compressed, behind a fixed 32-byte
// header that records how to restore it and an xxHash64 of the original
// bytes. Decode verifies everything before returning a fragment, so the
// consumer never sees a corrupted container.
//
// Layout (little-endian):
//
//	bytes  0-1   magic 0xF8A6
//	byte   2     frame version (1)
//	byte   3     compression type
//	bytes  4-7   reserved, zero
//	bytes  8-15  raw length: size of the serialized fragment
//	bytes 16-23  encoded length: size of the payload after the header
//	bytes 24-31  xxHash64 of the serialized fragment
//
// Frames are an in-memory format; nothing here reads or writes files or
// sockets.
package frame

import (
	"fmt"

	"github.com/arloliu/fragbox/compress"
	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/arloliu/fragbox/fragment"
	"github.com/arloliu/fragbox/internal/hash"
	"github.com/arloliu/fragbox/internal/options"
	"github.com/arloliu/fragbox/section"
)

const (
	Magic      uint16 = 0xF8A6
	Version    uint8  = 1
	HeaderSize        = 32

	// DefaultMaxRawLen is the largest serialized fragment Decode restores
	// unless WithMaxRawLen says otherwise.
	DefaultMaxRawLen = 256 * 1024 * 1024 // 256MiB
)

// An LZ4 block expands at most 255 times, plus the literals of its last sequence.
const (
	lz4MaxRatio = 255
	lz4Slack    = 16
)

type decodeConfig struct {
	maxRawLen uint64
}

// DecodeOption configures Decode.
type DecodeOption = options.Option[*decodeConfig]

// WithMaxRawLen sets the largest raw length Decode accepts. Frames claiming
// more are rejected before anything is allocated.
func WithMaxRawLen(n uint64) DecodeOption {
	return options.New(func(c *decodeConfig) error {
		if n < section.FragmentHeaderSize {
			return fmt.Errorf("%w: max raw length %d is smaller than a fragment header", errs.ErrInvalidFrame, n)
		}
		c.maxRawLen = n

		return nil
	})
}

// Header is the decoded frame header.
type Header struct {
	Version     uint8
	Compression format.CompressionType
	RawLen      uint64
	EncodedLen  uint64
	Checksum    uint64
}

// Bytes serializes the header into a new 32-byte slice.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	engine := endian.Layout()
	engine.PutUint16(b[0:2], Magic)
	b[2] = h.Version
	b[3] = uint8(h.Compression)
	engine.PutUint64(b[8:16], h.RawLen)
	engine.PutUint64(b[16:24], h.EncodedLen)
	engine.PutUint64(b[24:32], h.Checksum)

	return b
}

// ParseHeader decodes and checks the header at the start of data. It does not
// look at the payload.
//
// Returns:
//   - Header: Decoded header
//   - error: ErrInvalidFrame for a short buffer, bad magic, unknown version,
//     reserved bits or impossible lengths
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, header needs %d", errs.ErrInvalidFrame, len(data), HeaderSize)
	}

	engine := endian.Layout()
	if magic := engine.Uint16(data[0:2]); magic != Magic {
		return Header{}, fmt.Errorf("%w: magic %#04x", errs.ErrInvalidFrame, magic)
	}

	h := Header{
		Version:     data[2],
		Compression: format.CompressionType(data[3]),
		RawLen:      engine.Uint64(data[8:16]),
		EncodedLen:  engine.Uint64(data[16:24]),
		Checksum:    engine.Uint64(data[24:32]),
	}

	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: version %d", errs.ErrInvalidFrame, h.Version)
	}

	if reserved := engine.Uint32(data[4:8]); reserved != 0 {
		return Header{}, fmt.Errorf("%w: reserved bytes %#08x", errs.ErrInvalidFrame, reserved)
	}

	if h.RawLen < section.FragmentHeaderSize || h.RawLen%section.WordSize != 0 ||
		h.RawLen > section.MaxFragmentWords*section.WordSize {
		return Header{}, fmt.Errorf("%w: raw length %d is not a fragment size", errs.ErrInvalidFrame, h.RawLen)
	}

	return h, nil
}

// Encode serializes frag into a frame compressed with compression.
//
// Parameters:
//   - frag: Fragment to encode; it is only read
//   - compression: Codec applied to the serialized fragment
//
// Returns:
//   - []byte: Frame header followed by the encoded payload
//   - error: ErrNilFragment, ErrUnsupportedCompression or a codec error
func Encode(frag *fragment.Fragment, compression format.CompressionType) ([]byte, error) {
	if frag == nil {
		return nil, errs.ErrNilFragment
	}

	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	raw := frag.Bytes()
	payload, err := codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress fragment with %s: %w", compression, err)
	}

	h := Header{
		Version:     Version,
		Compression: compression,
		RawLen:      uint64(len(raw)),
		EncodedLen:  uint64(len(payload)),
		Checksum:    hash.Checksum(raw),
	}

	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, h.Bytes()...)

	return append(out, payload...), nil
}

// Decode verifies a frame and returns the fragment it carries. The fragment
// owns its storage; data may be reused afterwards.
//
// The raw length is checked against WithMaxRawLen (DefaultMaxRawLen) and
// against what the encoded payload can expand to before any buffer is
// allocated.
//
// Returns:
//   - *fragment.Fragment: Restored fragment
//   - error: ErrInvalidFrame, ErrUnsupportedCompression, a codec error,
//     ErrDecompressedSizeMismatch or ErrChecksumMismatch
func Decode(data []byte, opts ...DecodeOption) (*fragment.Fragment, error) {
	cfg := &decodeConfig{maxRawLen: DefaultMaxRawLen}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if got := uint64(len(data) - HeaderSize); got != h.EncodedLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", errs.ErrInvalidFrame, got, h.EncodedLen)
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, err
	}

	if err := checkExpansion(h, cfg.maxRawLen); err != nil {
		return nil, err
	}

	raw, err := compress.Decompress(codec, data[HeaderSize:], int(h.RawLen)) //nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("decompress %s frame: %w", h.Compression, err)
	}

	if sum := hash.Checksum(raw); sum != h.Checksum {
		return nil, fmt.Errorf("%w: got %#016x, want %#016x", errs.ErrChecksumMismatch, sum, h.Checksum)
	}

	frag, err := fragment.FromBytes(raw)
	if err != nil {
		return nil, err
	}

	if uint64(frag.SizeBytes()) != h.RawLen {
		frag.Release()
		return nil, fmt.Errorf("%w: fragment is %d bytes, frame carries %d", errs.ErrInvalidFrame, frag.SizeBytes(), h.RawLen)
	}

	return frag, nil
}

// checkExpansion rejects raw lengths the encoded payload cannot account for.
func checkExpansion(h Header, maxRawLen uint64) error {
	if h.RawLen > maxRawLen {
		return fmt.Errorf("%w: raw length %d exceeds limit %d", errs.ErrInvalidFrame, h.RawLen, maxRawLen)
	}

	switch h.Compression {
	case format.CompressionNone:
		if h.RawLen != h.EncodedLen {
			return fmt.Errorf("%w: uncompressed frame has raw length %d and encoded length %d",
				errs.ErrInvalidFrame, h.RawLen, h.EncodedLen)
		}
	case format.CompressionLZ4:
		if h.RawLen > lz4MaxRatio*h.EncodedLen+lz4Slack {
			return fmt.Errorf("%w: %d lz4 bytes cannot expand to %d", errs.ErrInvalidFrame, h.EncodedLen, h.RawLen)
		}
	}

	return nil
}
