package compress

// ZstdCompressor compresses with Zstandard at the default level.
//
// The implementation is selected at build time: the pure Go encoder from
// klauspost/compress by default, or the cgo binding valyala/gozstd when the
// gozstd build tag is set. Both produce standard zstd frames, so a frame
// compressed by one build decompresses in the other.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstandard compressor.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
