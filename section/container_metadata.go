package section

import (
	"fmt"

	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
)

// ContainerMetadata is the fixed 3-word metadata record stored in a container
// fragment's metadata slot.
//
// Layout (little-endian 64-bit words):
//
//	word 0: bits 0-54 BlockCount | 55-62 FragmentType | 63 MissingData
//	word 1: bit 0 HasIndex | bits 1-4 Version | bits 5-63 reserved, zero
//	word 2: IndexOffset
type ContainerMetadata struct {
	// BlockCount is the number of fragments packed in the container.
	BlockCount uint64
	// FragmentType is the type shared by the packed fragments, or
	// format.EmptyFragmentType before the first one is added.
	FragmentType format.FragmentType
	// MissingData marks a container its producer knows to be incomplete.
	MissingData bool
	// HasIndex is true when the trailing index reflects BlockCount entries.
	HasIndex bool
	// Version is the container format revision.
	Version uint8
	// IndexOffset is the byte offset of the index table from the start of the payload.
	IndexOffset uint64
}

// Words packs the metadata into its three words.
func (m *ContainerMetadata) Words() [ContainerMetadataWords]uint64 {
	var w [ContainerMetadataWords]uint64
	w[0] = m.BlockCount&blockCountMask | uint64(m.FragmentType)&fragmentTypeMask<<fragmentTypeShift
	if m.MissingData {
		w[0] |= missingDataBit
	}
	if m.HasIndex {
		w[1] |= hasIndexBit
	}
	w[1] |= uint64(m.Version) & containerVersionMask << containerVersionShift
	w[2] = m.IndexOffset

	return w
}

// Bytes serializes the metadata into a new 24-byte slice.
func (m *ContainerMetadata) Bytes() []byte {
	b := make([]byte, ContainerMetadataSize)
	m.WriteToSlice(b, 0)

	return b
}

// WriteToSlice writes the metadata into data at offset and returns the offset
// just past it.
func (m *ContainerMetadata) WriteToSlice(data []byte, offset int) int {
	w := m.Words()
	return endian.PutWords(data, offset, w[:])
}

// Parse decodes the metadata from exactly ContainerMetadataSize bytes.
func (m *ContainerMetadata) Parse(data []byte) error {
	if len(data) != ContainerMetadataSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrInvalidMetadataSize, len(data), ContainerMetadataSize)
	}

	w := endian.Words(data, 0, ContainerMetadataWords)
	if w[1]&containerReservedMask != 0 {
		return fmt.Errorf("%w: reserved bits set (%#x)", errs.ErrInvalidMetadata, w[1]&containerReservedMask)
	}

	m.BlockCount = w[0] & blockCountMask
	m.FragmentType = format.FragmentType(w[0] >> fragmentTypeShift & fragmentTypeMask)
	m.MissingData = w[0]&missingDataBit != 0
	m.HasIndex = w[1]&hasIndexBit != 0
	m.Version = uint8(w[1] >> containerVersionShift & containerVersionMask)
	m.IndexOffset = w[2]

	return nil
}

// Validate checks that every field fits its bit width and that a version
// was written.
func (m *ContainerMetadata) Validate() error {
	if m.BlockCount > MaxBlockCount {
		return errs.ErrBlockCountOverflow
	}

	if m.Version == 0 || m.Version > MaxContainerVersion {
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, m.Version)
	}

	return nil
}

// ParseContainerMetadata parses ContainerMetadata from the start of data.
func ParseContainerMetadata(data []byte) (ContainerMetadata, error) {
	if len(data) < ContainerMetadataSize {
		return ContainerMetadata{}, fmt.Errorf("%w: got %d bytes, want %d", errs.ErrInvalidMetadataSize, len(data), ContainerMetadataSize)
	}

	m := ContainerMetadata{}
	if err := m.Parse(data[:ContainerMetadataSize]); err != nil {
		return ContainerMetadata{}, err
	}

	return m, nil
}
