// Package fragbox packs the fragments one data source produces for an event
// into a single self-describing container fragment with O(1) access to each
// packed fragment.
//
// # Core Features
//
//   - Word-granular fragments with a bit-exact 32-byte header
//   - Containers that pack any number of fragments behind a trailing offset index
//   - Type binding: a container holds one fragment type unless told otherwise
//   - Amortized growth: the arena grows with a cushion, batches grow once
//   - Hand-off frames with optional compression (Zstd, S2, LZ4) and xxHash64
//
// # Basic Usage
//
// Building a container:
//
//	b, _ := fragbox.NewEventBuilder(seqID, boardID, container.WithExpectedType(adcType))
//	for _, rec := range records {
//	    if err := b.AddFragment(rec, false); err != nil {
//	        return err
//	    }
//	}
//	data, _ := fragbox.Seal(b, format.CompressionS2)
//
// Reading it back:
//
//	c, _ := fragbox.Open(data)
//	for i, raw := range c.All() {
//	    fmt.Printf("fragment %d: %d bytes\n", i, len(raw))
//	}
//
// # Package Structure
//
// This package wraps the container, fragment and frame packages for the
// common path. Use those packages directly for finer control.
package fragbox

import (
	"github.com/arloliu/fragbox/container"
	"github.com/arloliu/fragbox/format"
	"github.com/arloliu/fragbox/fragment"
	"github.com/arloliu/fragbox/frame"
)

// NewFragment creates a fragment with room for payloadBytes of payload.
//
// Example:
//
//	rec, err := fragbox.NewFragment(len(samples),
//	    fragment.WithType(adcType),
//	    fragment.WithSequenceID(seqID),
//	    fragment.WithPayload(samples),
//	)
func NewFragment(payloadBytes int, opts ...fragment.Option) (*fragment.Fragment, error) {
	return fragment.New(payloadBytes, opts...)
}

// NewBuilder allocates an empty container arena and returns a Builder over it.
//
// Parameters:
//   - opts: Builder options (expected type, logger, growth factor)
//
// Returns:
//   - *container.Builder: Builder over a fresh arena, owned by the caller
//   - error: An option error
func NewBuilder(opts ...container.BuilderOption) (*container.Builder, error) {
	frag, err := container.NewEmptyFragment()
	if err != nil {
		return nil, err
	}

	return newBuilder(frag, opts...)
}

// NewEventBuilder is NewBuilder with the container header stamped with the
// event's sequence id and the data source's fragment id.
func NewEventBuilder(sequenceID uint64, fragmentID uint16, opts ...container.BuilderOption) (*container.Builder, error) {
	frag, err := container.NewEmptyFragment(
		fragment.WithSequenceID(sequenceID),
		fragment.WithFragmentID(fragmentID),
	)
	if err != nil {
		return nil, err
	}

	return newBuilder(frag, opts...)
}

// newBuilder releases frag if it cannot be turned into a container.
func newBuilder(frag *fragment.Fragment, opts ...container.BuilderOption) (*container.Builder, error) {
	b, err := container.NewBuilder(frag, opts...)
	if err != nil {
		frag.Release()
		return nil, err
	}

	return b, nil
}

// Pack builds a container holding frags in order, growing the arena once.
//
// Returns:
//   - *container.Builder: Builder over the filled container; more fragments may be added
//   - error: An option error or the first type conflict in frags
func Pack(frags []*fragment.Fragment, opts ...container.BuilderOption) (*container.Builder, error) {
	b, err := NewBuilder(opts...)
	if err != nil {
		return nil, err
	}

	if err := b.AddFragments(frags, false); err != nil {
		b.Fragment().Release()
		return nil, err
	}

	return b, nil
}

// Seal encodes the builder's container as a hand-off frame. The builder stays
// usable; later adds are not reflected in the returned frame.
func Seal(b *container.Builder, compression format.CompressionType) ([]byte, error) {
	return frame.Encode(b.Fragment(), compression)
}

// Open decodes a frame produced by Seal and returns a validated read-only
// container over the restored fragment.
//
// Parameters:
//   - data: Frame bytes; not retained
//   - opts: Decode limits such as frame.WithMaxRawLen
//
// Returns:
//   - *container.Container: Container whose index was checked against its fragments
//   - error: Frame, container or index errors
func Open(data []byte, opts ...frame.DecodeOption) (*container.Container, error) {
	frag, err := frame.Decode(data, opts...)
	if err != nil {
		return nil, err
	}

	c, err := OpenFragment(frag)
	if err != nil {
		frag.Release()
		return nil, err
	}

	return c, nil
}

// OpenFragment wraps a container fragment for reading and validates its index.
func OpenFragment(frag *fragment.Fragment) (*container.Container, error) {
	c, err := container.New(frag)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}
