package container

import (
	"fmt"

	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/section"
)

// BuildIndex derives the offset table of blockCount fragments packed in a
// container payload, starting right after the magic word.
//
// Each fragment's size is read from the word_count field of its own header.
// The result always holds blockCount+1 entries: the start of every fragment
// followed by the end of the packed data, which is where the table goes.
//
// Parameters:
//   - payload: Container payload, magic word included
//   - blockCount: Number of packed fragments
//
// Returns:
//   - []uint64: Offsets relative to the start of payload
//   - error: ErrCorruptIndex if a header is truncated, too small or runs past the payload
func BuildIndex(payload []byte, blockCount uint64) ([]uint64, error) {
	size := uint64(len(payload))
	if size < MagicSize {
		return nil, fmt.Errorf("%w: payload of %d bytes has no magic word", errs.ErrCorruptIndex, size)
	}

	if blockCount > (size-MagicSize)/section.FragmentHeaderSize {
		return nil, fmt.Errorf("%w: %d fragments cannot fit in %d bytes", errs.ErrCorruptIndex, blockCount, size)
	}

	index := make([]uint64, 0, blockCount+1)
	cursor := uint64(MagicSize)
	for i := range blockCount {
		wc, err := section.PeekWordCount(payload, int(cursor)) //nolint: gosec
		if err != nil {
			return nil, fmt.Errorf("%w: fragment %d header truncated at offset %d", errs.ErrCorruptIndex, i, cursor)
		}

		n := uint64(wc) * section.WordSize
		if n < section.FragmentHeaderSize || cursor+n > size {
			return nil, fmt.Errorf("%w: fragment %d at offset %d reports %d bytes", errs.ErrCorruptIndex, i, cursor, n)
		}

		index = append(index, cursor)
		cursor += n
	}

	return append(index, cursor), nil
}

// readIndex reads the stored table of a container with blockCount > 0.
func readIndex(payload []byte, md section.ContainerMetadata) ([]uint64, error) {
	size := uint64(len(payload))
	entries := md.BlockCount + 1
	if md.BlockCount > size/section.FragmentHeaderSize ||
		md.IndexOffset < MagicSize || md.IndexOffset > size ||
		entries*section.IndexEntrySize > size-md.IndexOffset {
		return nil, fmt.Errorf("%w: table of %d entries at offset %d exceeds payload of %d bytes",
			errs.ErrCorruptIndex, entries, md.IndexOffset, size)
	}

	index := endian.Words(payload, int(md.IndexOffset), int(entries)) //nolint: gosec
	if index[0] < MagicSize {
		return nil, fmt.Errorf("%w: first fragment at offset %d overlaps the magic word", errs.ErrCorruptIndex, index[0])
	}
	for i := 1; i < len(index); i++ {
		if index[i] <= index[i-1] {
			return nil, fmt.Errorf("%w: entry %d (%d) does not follow entry %d (%d)",
				errs.ErrCorruptIndex, i, index[i], i-1, index[i-1])
		}
	}
	if last := index[len(index)-1]; last != md.IndexOffset {
		return nil, fmt.Errorf("%w: last entry %d differs from index offset %d", errs.ErrCorruptIndex, last, md.IndexOffset)
	}

	return index, nil
}

// writeIndex stores index at the offset held by its last entry and returns
// that offset.
func writeIndex(payload []byte, index []uint64) uint64 {
	offset := index[len(index)-1]
	endian.PutWords(payload, int(offset), index) //nolint: gosec

	return offset
}
