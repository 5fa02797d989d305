// Package section defines the bit-exact layouts of the fixed sections of a
// fragment: the fragment header and the container metadata record.
//
// Every fragment is a sequence of 8-byte little-endian words:
//
//	┌──────────────────────────────────────────────┐
//	│ FragmentHeader (4 words)                     │
//	├──────────────────────────────────────────────┤
//	│ Metadata slot (MetadataWordCount words)      │
//	├──────────────────────────────────────────────┤
//	│ Payload (WordCount - 4 - MetadataWordCount)  │
//	└──────────────────────────────────────────────┘
//
// A container fragment stores a ContainerMetadata record (3 words) in its
// metadata slot and lays its payload out as
//
//	[magic word][fragment 1]...[fragment N][index: N+1 offsets]
//
// Types in this package are plain values with explicit Parse/Bytes methods.
// Nothing here reinterprets memory as a struct; every field is packed and
// unpacked with shifts and masks.
package section
