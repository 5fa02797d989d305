// Package compress provides the codecs used to shrink fragments before they
// are handed off as frames.
//
// A fragment is already a dense binary record, so compression is optional and
// applied to the whole serialized fragment, header included. Four algorithms
// are available, selected by a format.CompressionType tag stored in every frame:
//
//   - None: no compression, Compress and Decompress return their input
//   - Zstd: best ratio; pure Go (klauspost/compress) by default, cgo
//     (valyala/gozstd) when built with -tags gozstd
//   - S2: fast with a good ratio (klauspost/compress/s2)
//   - LZ4: fastest decompression (pierrec/lz4)
//
// All codecs share the Codec interface:
//
//	codec, err := compress.GetCodec(format.CompressionS2)
//	if err != nil {
//	    return err
//	}
//	packed, _ := codec.Compress(frag.Bytes())
//	raw, err := compress.Decompress(codec, packed, frag.SizeBytes())
//
// GetCodec returns shared instances; CreateCodec returns new ones. Both are
// safe for concurrent use: encoders and decoders are pooled internally.
//
// Empty input compresses to an empty result for every codec except None,
// which returns its input unchanged.
package compress
