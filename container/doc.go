// Package container packs many fragments of one data source into a single
// container fragment with a trailing offset index.
//
// A container is an ordinary fragment whose type is format.ContainerFragmentType,
// whose metadata slot holds a section.ContainerMetadata record and whose
// payload is laid out as:
//
//	[magic word][fragment 1]...[fragment N][index: N+1 little-endian uint64 offsets]
//
// Offsets are relative to the start of the payload. Entry i of the index is
// the start of fragment i and the last entry is the offset of the index table
// itself, which is also the end of the packed data. An empty container stores
// no table.
//
// Container is the read-only view. Builder embeds a Container and adds the
// mutations; it keeps the index consistent after every call.
//
// Note: neither type is safe for concurrent use. Byte slices returned by the
// read methods alias the arena and must not be used after a mutation.
package container
