package container

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/arloliu/fragbox/fragment"
	"github.com/arloliu/fragbox/section"
)

// DefaultGrowthFactor is the capacity multiplier applied when a Builder has
// to reallocate its arena.
const DefaultGrowthFactor = 1.3

// Builder fills a container fragment. It embeds the read-only Container for
// queries and adds the mutations.
//
// Every mutation leaves the container with HasIndex set and a stored index
// that matches the packed fragments. The arena is borrowed: the caller owns
// it and must not modify it through other references while building.
//
// Note: Builder is NOT thread-safe.
type Builder struct {
	*Container
	logger       *slog.Logger
	growthFactor float64
}

// NewEmptyFragment returns an arena sized for NewBuilder: a header plus an
// empty container metadata slot and no payload.
func NewEmptyFragment(opts ...fragment.Option) (*fragment.Fragment, error) {
	return fragment.New(0, append([]fragment.Option{fragment.WithMetadataWords(section.ContainerMetadataWords)}, opts...)...)
}

// NewBuilder turns frag into an empty container and returns a Builder over it.
//
// frag must be exactly a header plus a container metadata slot; see
// NewEmptyFragment. A fragment without a metadata slot but of the same total
// size is also accepted, the slot is then inserted in place of its payload.
//
// Parameters:
//   - frag: Pre-sized, empty arena
//   - opts: Expected fragment type, logger and growth factor
//
// Returns:
//   - *Builder: Builder over frag, which now holds an empty container
//   - error: *errs.Error of KindInvalidFragment if frag has the wrong size, in
//     which case frag is left untouched, or an option error
func NewBuilder(frag *fragment.Fragment, opts ...BuilderOption) (*Builder, error) {
	const op = "NewBuilder"

	cfg := newBuilderConfig()
	if err := cfg.apply(opts...); err != nil {
		return nil, err
	}

	if frag == nil {
		return nil, errs.New(errs.KindInvalidFragment, op, "nil fragment")
	}

	if frag.Size() != section.MinimumContainerWordCount {
		cfg.logger.Error("fragment size does not fit a new container",
			"size_words", frag.Size(), "want_words", section.MinimumContainerWordCount)

		return nil, errs.New(errs.KindInvalidFragment, op,
			"fragment is %d words, want header plus metadata (%d words)", frag.Size(), section.MinimumContainerWordCount)
	}

	if mwc := frag.MetadataWordCount(); mwc != 0 && mwc != section.ContainerMetadataWords {
		cfg.logger.Error("fragment metadata slot does not fit container metadata", "metadata_words", mwc)

		return nil, errs.New(errs.KindInvalidFragment, op,
			"metadata slot is %d words, want %d", mwc, section.ContainerMetadataWords)
	}

	if err := frag.SetSystemType(format.ContainerFragmentType); err != nil {
		return nil, err
	}

	md := section.ContainerMetadata{
		BlockCount:   0,
		FragmentType: cfg.expectedType,
		MissingData:  false,
		HasIndex:     true,
		Version:      CurrentVersion,
		IndexOffset:  0,
	}
	if err := frag.SetMetadata(md.Bytes()); err != nil {
		return nil, err
	}

	if err := frag.Resize(1); err != nil {
		return nil, err
	}
	endian.Layout().PutUint64(frag.Payload()[:MagicSize], Magic)

	return &Builder{
		Container:    &Container{frag: frag, md: md},
		logger:       cfg.logger,
		growthFactor: cfg.growthFactor,
	}, nil
}

// SetFragmentType rebinds the type shared by the packed fragments.
func (b *Builder) SetFragmentType(t format.FragmentType) {
	b.md.FragmentType = t
	b.syncMetadata()
}

// SetMissingData marks the container as knowingly incomplete. The Builder
// never sets it on its own.
func (b *Builder) SetMissingData(missing bool) {
	b.md.MissingData = missing
	b.syncMetadata()
}

// AddFragment appends a copy of frag's serialized bytes and rebuilds the index.
//
// If the container type is still format.EmptyFragmentType it adopts frag's
// type. Otherwise a different type is rejected unless allowDifferentTypes is
// set. A rejected call leaves the container unchanged.
//
// Parameters:
//   - frag: Fragment to copy in; it is not retained
//   - allowDifferentTypes: Accept a type other than the bound one
//
// Returns:
//   - error: *errs.Error of KindWrongFragmentType or KindInvalidFragment,
//     ErrBlockCountOverflow, or an arena growth error
func (b *Builder) AddFragment(frag *fragment.Fragment, allowDifferentTypes bool) error {
	const op = "AddFragment"

	if frag == nil {
		return errs.New(errs.KindInvalidFragment, op, "nil fragment")
	}

	typ, err := b.resolveType(op, b.md.FragmentType, frag.Type(), allowDifferentTypes)
	if err != nil {
		return err
	}

	if b.md.BlockCount+1 > section.MaxBlockCount {
		return fmt.Errorf("%w: %d", errs.ErrBlockCountOverflow, b.md.BlockCount+1)
	}

	end := b.endOfData()
	size := uint64(frag.SizeBytes())
	required := end + size + section.IndexEntrySize*(b.md.BlockCount+2)
	if err := b.ensureSpace(required); err != nil {
		return err
	}

	copy(b.frag.Payload()[end:], frag.Bytes())
	b.md.HasIndex = false
	b.md.BlockCount++
	b.md.FragmentType = typ
	b.syncMetadata()

	if err := b.reindex(); err != nil {
		return err
	}

	b.logger.Debug("fragment added", "fragment", frag, "container", b.Container)

	return nil
}

// AddFragments appends copies of every fragment in frags and rebuilds the
// index once.
//
// The type policy of AddFragment is applied to each fragment in order, and the
// whole batch is checked before anything is copied: on error the container is
// unchanged. The arena grows at most once per call. An empty batch is a no-op.
//
// Returns:
//   - error: *errs.Error of KindWrongFragmentType or KindInvalidFragment naming
//     the offending position, ErrBlockCountOverflow, or an arena growth error
func (b *Builder) AddFragments(frags []*fragment.Fragment, allowDifferentTypes bool) error {
	const op = "AddFragments"

	if len(frags) == 0 {
		return nil
	}

	typ := b.md.FragmentType
	batchBytes := uint64(0)
	for i, f := range frags {
		if f == nil {
			return errs.New(errs.KindInvalidFragment, op, "fragment %d is nil", i)
		}

		var err error
		typ, err = b.resolveType(op, typ, f.Type(), allowDifferentTypes)
		if err != nil {
			return fmt.Errorf("fragment %d of %d: %w", i, len(frags), err)
		}
		batchBytes += uint64(f.SizeBytes())
	}

	n := uint64(len(frags))
	if b.md.BlockCount+n > section.MaxBlockCount {
		return fmt.Errorf("%w: %d", errs.ErrBlockCountOverflow, b.md.BlockCount+n)
	}

	end := b.endOfData()
	required := end + batchBytes + section.IndexEntrySize*(b.md.BlockCount+1+n)
	if err := b.ensureSpace(required); err != nil {
		return err
	}

	payload := b.frag.Payload()
	cursor := end
	for _, f := range frags {
		cursor += uint64(copy(payload[cursor:], f.Bytes()))
	}

	b.md.HasIndex = false
	b.md.BlockCount += n
	b.md.FragmentType = typ
	b.syncMetadata()

	if err := b.reindex(); err != nil {
		return err
	}

	b.logger.Debug("fragments added", "count", len(frags), "bytes", batchBytes, "container", b.Container)

	return nil
}

// resolveType applies the type policy to one incoming fragment and returns
// the container type after accepting it.
func (b *Builder) resolveType(op string, bound, incoming format.FragmentType, allowDifferentTypes bool) (format.FragmentType, error) {
	if bound == format.EmptyFragmentType {
		return incoming, nil
	}

	if incoming != bound && !allowDifferentTypes {
		b.logger.Error("fragment type mismatch", "op", op, "container_type", bound, "fragment_type", incoming)

		return bound, errs.New(errs.KindWrongFragmentType, op,
			"fragment type %s does not match container type %s", incoming, bound)
	}

	return bound, nil
}

// endOfData returns the payload offset just past the last packed fragment.
// It relies on the builder invariant that the index is current between calls.
func (b *Builder) endOfData() uint64 {
	if b.md.BlockCount == 0 {
		return MagicSize
	}

	return b.md.IndexOffset
}

// ensureSpace grows the payload if it is smaller than required bytes.
func (b *Builder) ensureSpace(required uint64) error {
	have := uint64(b.frag.DataSizeBytes())
	if required <= have {
		return nil
	}

	return b.addSpace(required - have)
}

// addSpace grows the payload by n bytes, rounded up to whole words. When the
// arena reallocates it reserves growthFactor times the new total, so every
// slice taken from the arena before the call must be fetched again.
func (b *Builder) addSpace(n uint64) error {
	prevCap := b.frag.CapacityBytes()
	target := uint64(b.frag.DataSizeBytes()) + n
	if target > uint64(section.MaxFragmentWords)*section.WordSize {
		b.logger.Error("container growth exceeds fragment size limit", "target_bytes", target)
		return fmt.Errorf("%w: payload of %d bytes", errs.ErrFragmentTooLarge, target)
	}

	grew, err := b.frag.ResizeBytesWithCushion(int(target), b.growthFactor) //nolint: gosec
	if err != nil {
		b.logger.Error("container growth failed", "target_bytes", target, "error", err)
		return err
	}

	if grew {
		b.logger.Debug("container arena reallocated",
			"added_bytes", n,
			"prev_capacity_bytes", prevCap,
			"capacity_bytes", b.frag.CapacityBytes())
	}

	return nil
}

// reindex rebuilds the index from the packed headers, stores it at the end of
// the packed data and sets HasIndex.
func (b *Builder) reindex() error {
	payload := b.frag.Payload()
	index, err := BuildIndex(payload, b.md.BlockCount)
	if err != nil {
		b.logger.Error("index rebuild failed", "block_count", b.md.BlockCount, "error", err)
		return err
	}

	b.md.IndexOffset = writeIndex(payload, index)
	b.md.HasIndex = true
	b.syncMetadata()

	return nil
}
