package section

import (
	"fmt"
	"time"

	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
)

// FragmentHeader is the fixed 4-word header at the start of every fragment.
//
// Layout (little-endian 64-bit words):
//
//	word 0: bits 0-31 WordCount | 32-47 Version | 48-55 Type | 56-63 MetadataWordCount
//	word 1: bits 0-47 SequenceID | 48-63 FragmentID
//	word 2: Timestamp
//	word 3: bit 0 Valid | bit 1 Complete | bits 2-31 AccessTimeNs | bits 32-63 AccessTimeSec
type FragmentHeader struct {
	// WordCount is the size of the whole fragment in words, header included.
	WordCount uint32
	// Version is the header layout revision.
	Version uint16
	// Type is the fragment type tag.
	Type format.FragmentType
	// MetadataWordCount is the size of the metadata slot that follows the header.
	MetadataWordCount uint8

	// SequenceID identifies the event the fragment belongs to (48 bits).
	SequenceID uint64
	// FragmentID identifies the data source.
	FragmentID uint16

	Timestamp uint64

	Valid    bool
	Complete bool

	AccessTimeNs  uint32
	AccessTimeSec uint32
}

// NewFragmentHeader creates a valid, complete header for a fragment of
// wordCount words with an empty metadata slot.
func NewFragmentHeader(wordCount uint32) FragmentHeader {
	return FragmentHeader{
		WordCount: wordCount,
		Version:   FragmentHeaderVersion,
		Type:      format.InvalidFragmentType,
		Valid:     true,
		Complete:  true,
	}
}

// Words packs the header into its four words.
func (h *FragmentHeader) Words() [FragmentHeaderWords]uint64 {
	var w [FragmentHeaderWords]uint64
	w[0] = uint64(h.WordCount)&wordCountMask |
		uint64(h.Version)&headerVersionMask<<headerVersionShift |
		uint64(h.Type)&typeMask<<typeShift |
		uint64(h.MetadataWordCount)&metadataWordsMask<<metadataWordsShift
	w[1] = h.SequenceID&sequenceIDMask | uint64(h.FragmentID)&fragmentIDMask<<fragmentIDShift
	w[2] = h.Timestamp
	if h.Valid {
		w[3] |= validBit
	}
	if h.Complete {
		w[3] |= completeBit
	}
	w[3] |= uint64(h.AccessTimeNs)&accessTimeNsMask<<accessTimeNsShift |
		uint64(h.AccessTimeSec)&accessTimeSecMask<<accessTimeSecShift

	return w
}

// Bytes serializes the header into a new 32-byte slice.
func (h *FragmentHeader) Bytes() []byte {
	b := make([]byte, FragmentHeaderSize)
	h.WriteToSlice(b, 0)

	return b
}

// WriteToSlice writes the header into data at offset and returns the offset
// just past it. data must have room for FragmentHeaderSize bytes.
func (h *FragmentHeader) WriteToSlice(data []byte, offset int) int {
	w := h.Words()
	return endian.PutWords(data, offset, w[:])
}

// Parse decodes the header from exactly FragmentHeaderSize bytes.
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not 32 bytes, or a validation error
func (h *FragmentHeader) Parse(data []byte) error {
	if len(data) != FragmentHeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	engine := endian.Layout()
	w0 := engine.Uint64(data[0:8])
	w1 := engine.Uint64(data[8:16])
	w3 := engine.Uint64(data[24:32])

	h.WordCount = uint32(w0 & wordCountMask)
	h.Version = uint16(w0 >> headerVersionShift & headerVersionMask)
	h.Type = format.FragmentType(w0 >> typeShift & typeMask)
	h.MetadataWordCount = uint8(w0 >> metadataWordsShift & metadataWordsMask)
	h.SequenceID = w1 & sequenceIDMask
	h.FragmentID = uint16(w1 >> fragmentIDShift & fragmentIDMask)
	h.Timestamp = engine.Uint64(data[16:24])
	h.Valid = w3&validBit != 0
	h.Complete = w3&completeBit != 0
	h.AccessTimeNs = uint32(w3 >> accessTimeNsShift & accessTimeNsMask)
	h.AccessTimeSec = uint32(w3 >> accessTimeSecShift & accessTimeSecMask)

	return h.Validate()
}

// Validate checks the header version and that the word count covers the
// header and its metadata slot.
func (h *FragmentHeader) Validate() error {
	if h.Version != FragmentHeaderVersion {
		return fmt.Errorf("%w: got %d, want %d", errs.ErrInvalidHeaderVersion, h.Version, FragmentHeaderVersion)
	}

	if int(h.WordCount) < h.HeaderAndMetadataWords() {
		return fmt.Errorf("%w: word count %d smaller than header and metadata (%d words)",
			errs.ErrInvalidWordCount, h.WordCount, h.HeaderAndMetadataWords())
	}

	return nil
}

// HeaderAndMetadataWords returns the number of words before the payload.
func (h *FragmentHeader) HeaderAndMetadataWords() int {
	return FragmentHeaderWords + int(h.MetadataWordCount)
}

// SizeBytes returns the size of the whole fragment in bytes.
func (h *FragmentHeader) SizeBytes() int {
	return int(h.WordCount) * WordSize
}

// AccessTime returns the last access time recorded in the header.
func (h *FragmentHeader) AccessTime() time.Time {
	return time.Unix(int64(h.AccessTimeSec), int64(h.AccessTimeNs)).UTC()
}

// SetAccessTime records t as the access time. Seconds are truncated to 32 bits.
func (h *FragmentHeader) SetAccessTime(t time.Time) {
	h.AccessTimeSec = uint32(t.Unix())      //nolint: gosec
	h.AccessTimeNs = uint32(t.Nanosecond()) //nolint: gosec
}

// ParseFragmentHeader parses a FragmentHeader from the start of data.
//
// Parameters:
//   - data: Byte slice starting with a header (must be at least 32 bytes)
//
// Returns:
//   - FragmentHeader: Parsed header
//   - error: ErrInvalidHeaderSize or validation errors
func ParseFragmentHeader(data []byte) (FragmentHeader, error) {
	if len(data) < FragmentHeaderSize {
		return FragmentHeader{}, errs.ErrInvalidHeaderSize
	}

	h := FragmentHeader{}
	if err := h.Parse(data[:FragmentHeaderSize]); err != nil {
		return FragmentHeader{}, err
	}

	return h, nil
}

// PeekWordCount reads only the word_count field of the header starting at
// offset in data. It is the hot path of index rebuilding.
func PeekWordCount(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+WordSize > len(data) {
		return 0, errs.ErrInvalidHeaderSize
	}

	return uint32(endian.Layout().Uint64(data[offset:offset+WordSize]) & wordCountMask), nil
}

// PeekType reads only the type field of the header starting at offset in data.
func PeekType(data []byte, offset int) (format.FragmentType, error) {
	if offset < 0 || offset+WordSize > len(data) {
		return format.InvalidFragmentType, errs.ErrInvalidHeaderSize
	}

	w0 := endian.Layout().Uint64(data[offset : offset+WordSize])

	return format.FragmentType(w0 >> typeShift & typeMask), nil
}
