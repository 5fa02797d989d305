// Package endian provides the byte order used by every fragbox layout.
//
// Fragment headers, container metadata, magic markers and index tables are all
// sequences of 64-bit words. This package fixes the order of those words'
// bytes so that a container built on one host reads back identically on any
// other, and exposes it through the EndianEngine interface, which combines
// binary.ByteOrder with binary.AppendByteOrder.
//
//	engine := endian.Layout()
//	engine.PutUint64(buf[0:8], word)
//	buf = engine.AppendUint64(buf, word)
//
// All functions in this package are safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Layout returns the engine used for all fragment words. It is little-endian.
func Layout() EndianEngine {
	return binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// PutWords writes words into dst starting at byte offset off and returns the
// offset just past the last word. dst must have room for len(words)*8 bytes.
func PutWords(dst []byte, off int, words []uint64) int {
	engine := Layout()
	for _, w := range words {
		engine.PutUint64(dst[off:off+8], w)
		off += 8
	}

	return off
}

// Words decodes n consecutive 64-bit words from src starting at byte offset off.
func Words(src []byte, off int, n int) []uint64 {
	engine := Layout()
	words := make([]uint64, n)
	for i := range words {
		words[i] = engine.Uint64(src[off : off+8])
		off += 8
	}

	return words
}
