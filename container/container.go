package container

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/arloliu/fragbox/fragment"
	"github.com/arloliu/fragbox/internal/hash"
	"github.com/arloliu/fragbox/section"
)

const (
	// CurrentVersion is the container format revision written by NewBuilder.
	CurrentVersion = 1

	// Magic is the first payload word of every container.
	Magic uint64 = 0x00BADDEED5B1BEE5

	// MagicSize is the size of the magic word in bytes.
	MagicSize = section.WordSize
)

// Container is a read-only view of a container fragment.
//
// The metadata record is decoded once and kept in memory; the Builder writes
// every change through to the arena.
type Container struct {
	frag *fragment.Fragment
	md   section.ContainerMetadata
}

// New wraps an existing container fragment for reading.
//
// Parameters:
//   - frag: A fragment of type format.ContainerFragmentType
//
// Returns:
//   - *Container: Read-only view over frag; frag is borrowed, not copied
//   - error: ErrNilFragment, ErrNotContainer, ErrInvalidMetadataSize,
//     ErrInvalidMetadata, ErrUnsupportedVersion or ErrBadMagic
func New(frag *fragment.Fragment) (*Container, error) {
	if frag == nil {
		return nil, errs.ErrNilFragment
	}

	if frag.Type() != format.ContainerFragmentType {
		return nil, fmt.Errorf("%w: type is %s", errs.ErrNotContainer, frag.Type())
	}

	if frag.MetadataWordCount() != section.ContainerMetadataWords {
		return nil, fmt.Errorf("%w: container metadata needs %d words, slot has %d",
			errs.ErrInvalidMetadataSize, section.ContainerMetadataWords, frag.MetadataWordCount())
	}

	md, err := section.ParseContainerMetadata(frag.Metadata())
	if err != nil {
		return nil, err
	}

	if err := md.Validate(); err != nil {
		return nil, err
	}

	if md.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, md.Version)
	}

	c := &Container{frag: frag, md: md}
	if err := c.checkMagic(); err != nil {
		return nil, err
	}

	return c, nil
}

// Fragment returns the underlying arena.
func (c *Container) Fragment() *fragment.Fragment {
	return c.frag
}

// Metadata returns a copy of the container metadata record.
func (c *Container) Metadata() section.ContainerMetadata {
	return c.md
}

// BlockCount returns the number of packed fragments.
func (c *Container) BlockCount() uint64 {
	return c.md.BlockCount
}

// FragmentType returns the type shared by the packed fragments, or
// format.EmptyFragmentType if none was bound yet.
func (c *Container) FragmentType() format.FragmentType {
	return c.md.FragmentType
}

// MissingData reports whether the producer marked the container incomplete.
func (c *Container) MissingData() bool {
	return c.md.MissingData
}

// HasIndex reports whether the stored index table is current.
func (c *Container) HasIndex() bool {
	return c.md.HasIndex
}

// Version returns the container format revision.
func (c *Container) Version() uint8 {
	return c.md.Version
}

// IndexOffset returns the payload offset of the stored index table, or 0 for
// an empty container.
func (c *Container) IndexOffset() uint64 {
	return c.md.IndexOffset
}

// Index returns the offset table: BlockCount()+1 entries, or none for an
// empty container. The stored table is returned when HasIndex is set,
// otherwise the table is rebuilt from the packed headers.
func (c *Container) Index() ([]uint64, error) {
	if c.md.BlockCount == 0 {
		return []uint64{}, nil
	}

	if c.md.HasIndex {
		return readIndex(c.frag.Payload(), c.md)
	}

	return BuildIndex(c.frag.Payload(), c.md.BlockCount)
}

// FragmentIndex returns the payload offset where fragment i starts.
// FragmentIndex(BlockCount()) is the end of the packed data.
//
// Returns:
//   - uint64: Offset relative to the start of the payload
//   - error: ErrIndexOutOfRange if i is not in [0, BlockCount()], or ErrCorruptIndex
func (c *Container) FragmentIndex(i int) (uint64, error) {
	if i < 0 || uint64(i) > c.md.BlockCount {
		return 0, fmt.Errorf("%w: %d of %d", errs.ErrIndexOutOfRange, i, c.md.BlockCount)
	}

	if c.md.BlockCount == 0 {
		return MagicSize, nil
	}

	payload := c.frag.Payload()
	if c.md.HasIndex {
		size := uint64(len(payload))
		if c.md.IndexOffset < MagicSize || c.md.IndexOffset > size {
			return 0, fmt.Errorf("%w: index offset %d outside payload of %d bytes", errs.ErrCorruptIndex, c.md.IndexOffset, size)
		}

		off := c.md.IndexOffset + uint64(i)*section.IndexEntrySize
		if off+section.IndexEntrySize > size {
			return 0, fmt.Errorf("%w: entry %d at offset %d exceeds payload", errs.ErrCorruptIndex, i, off)
		}

		return endian.Layout().Uint64(payload[off : off+section.IndexEntrySize]), nil
	}

	index, err := BuildIndex(payload, c.md.BlockCount)
	if err != nil {
		return 0, err
	}

	return index[i], nil
}

// LastFragmentIndex returns the end of the packed data: the magic word size
// for an empty container, otherwise the offset where the index table starts.
func (c *Container) LastFragmentIndex() (uint64, error) {
	return c.FragmentIndex(int(c.md.BlockCount)) //nolint: gosec
}

// FragSize returns the size in bytes of fragment i.
func (c *Container) FragSize(i int) (uint64, error) {
	start, end, err := c.bounds(i)
	if err != nil {
		return 0, err
	}

	return end - start, nil
}

// RecordBytes returns the serialized fragment i, header included.
//
// The slice aliases the arena and is invalid after any mutation. Use At for
// an independent copy.
func (c *Container) RecordBytes(i int) ([]byte, error) {
	start, end, err := c.bounds(i)
	if err != nil {
		return nil, err
	}

	return c.frag.Payload()[start:end], nil
}

// At returns an independent copy of fragment i.
func (c *Container) At(i int) (*fragment.Fragment, error) {
	raw, err := c.RecordBytes(i)
	if err != nil {
		return nil, err
	}

	return fragment.FromBytes(raw)
}

// All returns an iterator over the packed fragments as serialized bytes.
//
// The index is resolved once when iteration starts; iteration yields nothing
// if it cannot be resolved, so call Validate first on untrusted input. The
// yielded slices alias the arena.
//
// Example:
//
//	for i, raw := range c.All() {
//	    fmt.Printf("fragment %d: %d bytes\n", i, len(raw))
//	}
func (c *Container) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		index, err := c.Index()
		if err != nil {
			return
		}

		payload := c.frag.Payload()
		for i := 0; i+1 < len(index); i++ {
			if !yield(i, payload[index[i]:index[i+1]]) {
				return
			}
		}
	}
}

// Fragments returns independent copies of every packed fragment.
func (c *Container) Fragments() ([]*fragment.Fragment, error) {
	index, err := c.Index()
	if err != nil {
		return nil, err
	}

	payload := c.frag.Payload()
	frags := make([]*fragment.Fragment, 0, c.md.BlockCount)
	for i := 0; i+1 < len(index); i++ {
		f, err := fragment.FromBytes(payload[index[i]:index[i+1]])
		if err != nil {
			return nil, fmt.Errorf("fragment %d: %w", i, err)
		}
		frags = append(frags, f)
	}

	return frags, nil
}

// Validate checks the magic word and, when HasIndex is set, that the stored
// table matches the table rebuilt from the packed headers.
//
// Returns:
//   - error: ErrBadMagic or ErrCorruptIndex describing the first mismatch
func (c *Container) Validate() error {
	if err := c.checkMagic(); err != nil {
		return err
	}

	payload := c.frag.Payload()
	if c.md.BlockCount == 0 {
		if c.md.IndexOffset != 0 {
			return fmt.Errorf("%w: empty container has index offset %d", errs.ErrCorruptIndex, c.md.IndexOffset)
		}

		return nil
	}

	built, err := BuildIndex(payload, c.md.BlockCount)
	if err != nil {
		return err
	}

	if !c.md.HasIndex {
		return nil
	}

	stored, err := readIndex(payload, c.md)
	if err != nil {
		return err
	}

	for i := range built {
		if built[i] != stored[i] {
			return fmt.Errorf("%w: entry %d stored %d, computed %d", errs.ErrCorruptIndex, i, stored[i], built[i])
		}
	}

	if last := built[len(built)-1]; last != c.md.IndexOffset {
		return fmt.Errorf("%w: data ends at %d, index offset is %d", errs.ErrCorruptIndex, last, c.md.IndexOffset)
	}

	return nil
}

// Checksum returns the xxHash64 of the whole container fragment.
func (c *Container) Checksum() uint64 {
	return hash.Checksum(c.frag.Bytes())
}

// String returns a one-line summary for debugging.
func (c *Container) String() string {
	return fmt.Sprintf("Container{type=%s blocks=%d has_index=%t missing_data=%t bytes=%d}",
		c.md.FragmentType, c.md.BlockCount, c.md.HasIndex, c.md.MissingData, c.frag.SizeBytes())
}

// LogValue implements slog.LogValuer.
func (c *Container) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("fragment_type", c.md.FragmentType.String()),
		slog.Uint64("block_count", c.md.BlockCount),
		slog.Bool("has_index", c.md.HasIndex),
		slog.Uint64("index_offset", c.md.IndexOffset),
		slog.Int("size_bytes", c.frag.SizeBytes()),
	)
}

// bounds returns the [start, end) payload range of fragment i.
func (c *Container) bounds(i int) (uint64, uint64, error) {
	if i < 0 || uint64(i) >= c.md.BlockCount {
		return 0, 0, fmt.Errorf("%w: %d of %d", errs.ErrIndexOutOfRange, i, c.md.BlockCount)
	}

	start, err := c.FragmentIndex(i)
	if err != nil {
		return 0, 0, err
	}

	end, err := c.FragmentIndex(i + 1)
	if err != nil {
		return 0, 0, err
	}

	if start >= end || end > uint64(c.frag.DataSizeBytes()) {
		return 0, 0, fmt.Errorf("%w: fragment %d spans [%d, %d)", errs.ErrCorruptIndex, i, start, end)
	}

	return start, end, nil
}

func (c *Container) checkMagic() error {
	payload := c.frag.Payload()
	if len(payload) < MagicSize {
		return fmt.Errorf("%w: payload of %d bytes", errs.ErrBadMagic, len(payload))
	}

	if got := endian.Layout().Uint64(payload[:MagicSize]); got != Magic {
		return fmt.Errorf("%w: found %#016x", errs.ErrBadMagic, got)
	}

	return nil
}

// syncMetadata writes the in-memory metadata record through to the arena.
func (c *Container) syncMetadata() {
	c.md.WriteToSlice(c.frag.Metadata(), 0)
}
