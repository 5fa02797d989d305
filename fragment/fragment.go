package fragment

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/arloliu/fragbox/internal/hash"
	"github.com/arloliu/fragbox/internal/options"
	"github.com/arloliu/fragbox/internal/pool"
	"github.com/arloliu/fragbox/section"
)

// WordSize is the granularity of every fragment size, in bytes.
const WordSize = section.WordSize

// Fragment is a self-describing record: a fixed header, an optional metadata
// slot and a payload, stored contiguously in one word-granular byte buffer.
//
// The header is kept decoded in memory and written through to the buffer on
// every mutation, so Bytes always returns a well-formed fragment.
//
// Note: Fragment is NOT thread-safe. Slices returned by Bytes, Payload and
// Metadata alias the internal buffer and are invalid after any resize.
type Fragment struct {
	buf *pool.ByteBuffer
	hdr section.FragmentHeader
}

// New creates a fragment with room for payloadBytes of payload, rounded up to
// whole words and zero-filled.
//
// Parameters:
//   - payloadBytes: Payload size in bytes (>= 0)
//   - opts: Optional header fields, metadata and payload contents
//
// Returns:
//   - *Fragment: The new fragment
//   - error: Invalid option values or a size exceeding the 32-bit word count
func New(payloadBytes int, opts ...Option) (*Fragment, error) {
	if payloadBytes < 0 {
		return nil, fmt.Errorf("%w: negative payload size %d", errs.ErrInvalidWordCount, payloadBytes)
	}

	cfg := &config{typ: format.InvalidFragmentType}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	metadataWords := max(cfg.metadataWords, WordsForBytes(len(cfg.metadata)))
	if metadataWords > 0xFF {
		return nil, fmt.Errorf("%w: %d metadata words exceed 255", errs.ErrInvalidMetadataSize, metadataWords)
	}

	payloadWords := WordsForBytes(max(payloadBytes, len(cfg.payload)))
	total := section.FragmentHeaderWords + metadataWords + payloadWords
	if uint64(total) > section.MaxFragmentWords {
		return nil, fmt.Errorf("%w: %d words", errs.ErrFragmentTooLarge, total)
	}

	f := &Fragment{buf: pool.GetFragmentBuffer()}
	f.buf.SetLength(total * WordSize)

	f.hdr = section.NewFragmentHeader(uint32(total)) //nolint: gosec
	f.hdr.Type = cfg.typ
	f.hdr.MetadataWordCount = uint8(metadataWords) //nolint: gosec
	f.hdr.SequenceID = cfg.sequenceID
	f.hdr.FragmentID = cfg.fragmentID
	f.hdr.Timestamp = cfg.timestamp

	copy(f.buf.B[section.FragmentHeaderSize:], cfg.metadata)
	copy(f.buf.B[f.payloadStart():], cfg.payload)
	f.syncHeader()

	return f, nil
}

// FromBytes creates a fragment from a serialized fragment. The header is
// validated and the first WordCount words of raw are copied; trailing bytes
// are ignored.
func FromBytes(raw []byte) (*Fragment, error) {
	hdr, err := section.ParseFragmentHeader(raw)
	if err != nil {
		return nil, err
	}

	size := hdr.SizeBytes()
	if len(raw) < size {
		return nil, fmt.Errorf("%w: header claims %d bytes, have %d", errs.ErrInvalidWordCount, size, len(raw))
	}

	f := &Fragment{buf: pool.GetFragmentBuffer(), hdr: hdr}
	_, _ = f.buf.Write(raw[:size])

	return f, nil
}

// ValidGrowthFactor reports whether factor is a finite value of at least 1.0.
func ValidGrowthFactor(factor float64) bool {
	return factor >= 1.0 && !math.IsInf(factor, 1)
}

// WordsForBytes returns the number of words needed to hold n bytes.
func WordsForBytes(n int) int {
	return (n + WordSize - 1) / WordSize
}

// Header returns a copy of the decoded header.
func (f *Fragment) Header() section.FragmentHeader {
	return f.hdr
}

// Size returns the size of the fragment in words, header and metadata included.
func (f *Fragment) Size() int {
	return int(f.hdr.WordCount)
}

// SizeBytes returns the size of the fragment in bytes.
func (f *Fragment) SizeBytes() int {
	return f.hdr.SizeBytes()
}

// DataSize returns the payload size in words.
func (f *Fragment) DataSize() int {
	return int(f.hdr.WordCount) - f.hdr.HeaderAndMetadataWords()
}

// DataSizeBytes returns the payload size in bytes.
func (f *Fragment) DataSizeBytes() int {
	return f.DataSize() * WordSize
}

// CapacityBytes returns the number of whole-word bytes the fragment can hold
// without reallocating, header and metadata included.
func (f *Fragment) CapacityBytes() int {
	return f.buf.Cap() / WordSize * WordSize
}

// DataCapacityBytes returns the payload capacity in bytes.
func (f *Fragment) DataCapacityBytes() int {
	return f.CapacityBytes() - f.payloadStart()
}

// Type returns the fragment type tag.
func (f *Fragment) Type() format.FragmentType {
	return f.hdr.Type
}

// IsUserType reports whether the fragment carries a data-source type.
func (f *Fragment) IsUserType() bool {
	return f.hdr.Type.IsUser()
}

// IsSystemType reports whether the fragment carries a system type.
func (f *Fragment) IsSystemType() bool {
	return f.hdr.Type.IsSystem()
}

// SequenceID returns the 48-bit event sequence id.
func (f *Fragment) SequenceID() uint64 {
	return f.hdr.SequenceID
}

// FragmentID returns the id of the data source.
func (f *Fragment) FragmentID() uint16 {
	return f.hdr.FragmentID
}

// Timestamp returns the event timestamp.
func (f *Fragment) Timestamp() uint64 {
	return f.hdr.Timestamp
}

// Valid reports whether the valid flag is set.
func (f *Fragment) Valid() bool {
	return f.hdr.Valid
}

// Complete reports whether the producer marked the fragment complete.
func (f *Fragment) Complete() bool {
	return f.hdr.Complete
}

// AccessTime returns the time recorded by the last Touch.
func (f *Fragment) AccessTime() time.Time {
	return f.hdr.AccessTime()
}

// HasMetadata reports whether the fragment has a metadata slot.
func (f *Fragment) HasMetadata() bool {
	return f.hdr.MetadataWordCount != 0
}

// MetadataWordCount returns the size of the metadata slot in words.
func (f *Fragment) MetadataWordCount() int {
	return int(f.hdr.MetadataWordCount)
}

// Metadata returns the metadata slot, or nil if the fragment has none.
func (f *Fragment) Metadata() []byte {
	if !f.HasMetadata() {
		return nil
	}

	return f.buf.B[section.FragmentHeaderSize:f.payloadStart()]
}

// Payload returns the payload region.
func (f *Fragment) Payload() []byte {
	return f.buf.B[f.payloadStart():f.SizeBytes()]
}

// Bytes returns the whole fragment, starting at its header. The buffer length
// always equals SizeBytes.
func (f *Fragment) Bytes() []byte {
	return f.buf.Bytes()
}

// Checksum returns the xxHash64 of the serialized fragment.
func (f *Fragment) Checksum() uint64 {
	return hash.Checksum(f.Bytes())
}

// SetUserType sets a data-source type.
//
// Returns:
//   - error: ErrInvalidFragmentType if t is not in the user range
func (f *Fragment) SetUserType(t format.FragmentType) error {
	if !t.IsUser() {
		return fmt.Errorf("%w: %s is not a user type", errs.ErrInvalidFragmentType, t)
	}
	f.setType(t)

	return nil
}

// SetSystemType sets a system type.
//
// Returns:
//   - error: ErrInvalidFragmentType if t is not in the system range
func (f *Fragment) SetSystemType(t format.FragmentType) error {
	if !t.IsSystem() {
		return fmt.Errorf("%w: %s is not a system type", errs.ErrInvalidFragmentType, t)
	}
	f.setType(t)

	return nil
}

func (f *Fragment) setType(t format.FragmentType) {
	f.hdr.Type = t
	f.syncHeader()
}

// SetSequenceID sets the event sequence id.
//
// Returns:
//   - error: ErrSequenceIDOverflow if id does not fit in 48 bits
func (f *Fragment) SetSequenceID(id uint64) error {
	if id > section.MaxSequenceID {
		return fmt.Errorf("%w: %d", errs.ErrSequenceIDOverflow, id)
	}
	f.hdr.SequenceID = id
	f.syncHeader()

	return nil
}

// SetFragmentID sets the id of the data source.
func (f *Fragment) SetFragmentID(id uint16) {
	f.hdr.FragmentID = id
	f.syncHeader()
}

// SetTimestamp sets the event timestamp.
func (f *Fragment) SetTimestamp(ts uint64) {
	f.hdr.Timestamp = ts
	f.syncHeader()
}

// SetComplete sets the complete flag.
func (f *Fragment) SetComplete(complete bool) {
	f.hdr.Complete = complete
	f.syncHeader()
}

// Touch records the current time as the access time.
func (f *Fragment) Touch() {
	f.hdr.SetAccessTime(time.Now())
	f.syncHeader()
}

// SetMetadata stores md in the metadata slot, zero-padded to whole words.
//
// If the fragment has no metadata slot yet, one is inserted in front of the
// payload and the payload moves up. If a slot exists it must have exactly the
// word size of md.
//
// Returns:
//   - error: ErrInvalidMetadataSize if md is empty, too large, or does not
//     match an existing slot
func (f *Fragment) SetMetadata(md []byte) error {
	words := WordsForBytes(len(md))
	if words == 0 || words > 0xFF {
		return fmt.Errorf("%w: %d bytes", errs.ErrInvalidMetadataSize, len(md))
	}

	switch int(f.hdr.MetadataWordCount) {
	case words:
	case 0:
		total := int(f.hdr.WordCount) + words
		if uint64(total) > section.MaxFragmentWords {
			return fmt.Errorf("%w: %d words", errs.ErrFragmentTooLarge, total)
		}

		oldLen := f.SizeBytes()
		f.buf.SetLength(total * WordSize)
		copy(f.buf.B[section.FragmentHeaderSize+words*WordSize:], f.buf.B[section.FragmentHeaderSize:oldLen])
		f.hdr.MetadataWordCount = uint8(words) //nolint: gosec
		f.hdr.WordCount = uint32(total)        //nolint: gosec
	default:
		return fmt.Errorf("%w: slot holds %d words, metadata needs %d",
			errs.ErrInvalidMetadataSize, f.hdr.MetadataWordCount, words)
	}

	slot := f.buf.B[section.FragmentHeaderSize:f.payloadStart()]
	clear(slot)
	copy(slot, md)
	f.syncHeader()

	return nil
}

// Resize sets the payload size to payloadWords words. Storage is reallocated
// to the exact size when needed; new words are zeroed.
func (f *Fragment) Resize(payloadWords int) error {
	_, err := f.resizeWords(payloadWords, 1.0)
	return err
}

// ResizeBytes sets the payload size to n bytes, rounded up to whole words.
func (f *Fragment) ResizeBytes(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative payload size %d", errs.ErrInvalidWordCount, n)
	}

	return f.Resize(WordsForBytes(n))
}

// ResizeBytesWithCushion sets the payload size to n bytes, rounded up to
// whole words. When the fragment must reallocate, it reserves
// ceil(total_words * growthFactor) words so that later growth can happen in
// place.
//
// Parameters:
//   - n: New payload size in bytes
//   - growthFactor: Capacity multiplier applied on reallocation, finite and >= 1.0
//
// Returns:
//   - bool: true if the storage was reallocated; earlier views are then invalid
//   - error: ErrInvalidGrowthFactor, ErrInvalidWordCount or ErrFragmentTooLarge
func (f *Fragment) ResizeBytesWithCushion(n int, growthFactor float64) (bool, error) {
	if !ValidGrowthFactor(growthFactor) {
		return false, fmt.Errorf("%w: %v", errs.ErrInvalidGrowthFactor, growthFactor)
	}
	if n < 0 {
		return false, fmt.Errorf("%w: negative payload size %d", errs.ErrInvalidWordCount, n)
	}

	return f.resizeWords(WordsForBytes(n), growthFactor)
}

func (f *Fragment) resizeWords(payloadWords int, growthFactor float64) (bool, error) {
	if payloadWords < 0 {
		return false, fmt.Errorf("%w: negative payload size %d", errs.ErrInvalidWordCount, payloadWords)
	}

	total := f.hdr.HeaderAndMetadataWords() + payloadWords
	if uint64(total) > section.MaxFragmentWords {
		return false, fmt.Errorf("%w: %d words", errs.ErrFragmentTooLarge, total)
	}

	grew := false
	if need := total * WordSize; need > f.buf.Cap() {
		f.buf.Reserve(int(math.Ceil(float64(total)*growthFactor)) * WordSize)
		grew = true
	}
	f.buf.SetLength(total * WordSize)
	f.hdr.WordCount = uint32(total) //nolint: gosec
	f.syncHeader()

	return grew, nil
}

// Clone returns an independent copy of the fragment.
func (f *Fragment) Clone() *Fragment {
	c := &Fragment{buf: pool.GetFragmentBuffer(), hdr: f.hdr}
	_, _ = c.buf.Write(f.Bytes())

	return c
}

// WriteTo writes the serialized fragment to w.
func (f *Fragment) WriteTo(w io.Writer) (int64, error) {
	return f.buf.WriteTo(w)
}

// Release returns the fragment's storage to the pool. The fragment must not
// be used afterwards.
func (f *Fragment) Release() {
	pool.PutFragmentBuffer(f.buf)
	f.buf = nil
}

// String returns a one-line summary for debugging.
func (f *Fragment) String() string {
	return fmt.Sprintf("Fragment{type=%s seq=%d id=%d words=%d}",
		f.hdr.Type, f.hdr.SequenceID, f.hdr.FragmentID, f.hdr.WordCount)
}

// LogValue implements slog.LogValuer.
func (f *Fragment) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", f.hdr.Type.String()),
		slog.Uint64("sequence_id", f.hdr.SequenceID),
		slog.Int("fragment_id", int(f.hdr.FragmentID)),
		slog.Int("size_bytes", f.SizeBytes()),
	)
}

func (f *Fragment) payloadStart() int {
	return f.hdr.HeaderAndMetadataWords() * WordSize
}

func (f *Fragment) syncHeader() {
	f.hdr.WriteToSlice(f.buf.B, 0)
}
