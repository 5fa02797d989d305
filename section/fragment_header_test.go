package section

import (
	"testing"
	"time"

	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/stretchr/testify/require"
)

func TestNewFragmentHeader(t *testing.T) {
	h := NewFragmentHeader(FragmentHeaderWords)

	require.Equal(t, uint32(FragmentHeaderWords), h.WordCount)
	require.Equal(t, uint16(FragmentHeaderVersion), h.Version)
	require.Equal(t, format.InvalidFragmentType, h.Type)
	require.True(t, h.Valid)
	require.True(t, h.Complete)
	require.NoError(t, h.Validate())
}

func TestFragmentHeader_RoundTrip(t *testing.T) {
	original := NewFragmentHeader(42)
	original.Type = format.FragmentType(17)
	original.MetadataWordCount = 3
	original.SequenceID = MaxSequenceID
	original.FragmentID = 0xBEEF
	original.Timestamp = 0x0123456789ABCDEF
	original.Complete = false
	original.SetAccessTime(time.Unix(1700000000, 999999999))

	data := original.Bytes()
	require.Len(t, data, FragmentHeaderSize)

	parsed, err := ParseFragmentHeader(data)
	require.NoError(t, err)
	require.Equal(t, original, parsed)
	require.Equal(t, time.Unix(1700000000, 999999999).UTC(), parsed.AccessTime())
}

func TestFragmentHeader_BitLayout(t *testing.T) {
	h := NewFragmentHeader(0x11223344)
	h.Type = 0x55
	h.MetadataWordCount = 0x66
	h.SequenceID = 0x0000AABBCCDDEEFF
	h.FragmentID = 0x7788

	w := h.Words()
	require.Equal(t, uint64(0x6655000211223344), w[0])
	require.Equal(t, uint64(0x7788AABBCCDDEEFF), w[1])
	require.Equal(t, uint64(validBit|completeBit), w[3])

	data := h.Bytes()
	require.Equal(t, w[0], endian.Layout().Uint64(data[0:8]))
}

func TestFragmentHeader_SequenceIDTruncatedTo48Bits(t *testing.T) {
	h := NewFragmentHeader(FragmentHeaderWords)
	h.SequenceID = 1<<48 | 5

	parsed, err := ParseFragmentHeader(h.Bytes())
	require.NoError(t, err)
	require.Equal(t, uint64(5), parsed.SequenceID)
	require.Equal(t, uint16(0), parsed.FragmentID)
}

func TestFragmentHeader_Parse_Errors(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		_, err := ParseFragmentHeader([]byte{1, 2, 3})
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("wrong exact size", func(t *testing.T) {
		h := &FragmentHeader{}
		require.ErrorIs(t, h.Parse(make([]byte, FragmentHeaderSize+8)), errs.ErrInvalidHeaderSize)
	})

	t.Run("bad version", func(t *testing.T) {
		h := NewFragmentHeader(FragmentHeaderWords)
		h.Version = 7
		_, err := ParseFragmentHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidHeaderVersion)
	})

	t.Run("word count below header and metadata", func(t *testing.T) {
		h := NewFragmentHeader(FragmentHeaderWords + 1)
		h.MetadataWordCount = 2
		_, err := ParseFragmentHeader(h.Bytes())
		require.ErrorIs(t, err, errs.ErrInvalidWordCount)
	})
}

func TestPeek(t *testing.T) {
	h := NewFragmentHeader(12)
	h.Type = 9
	data := append(make([]byte, 16), h.Bytes()...)

	wc, err := PeekWordCount(data, 16)
	require.NoError(t, err)
	require.Equal(t, uint32(12), wc)

	typ, err := PeekType(data, 16)
	require.NoError(t, err)
	require.Equal(t, format.FragmentType(9), typ)

	_, err = PeekWordCount(data, len(data)-4)
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

	_, err = PeekType(data, -1)
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
}

func TestFragmentHeader_Sizes(t *testing.T) {
	h := NewFragmentHeader(10)
	h.MetadataWordCount = 3

	require.Equal(t, 7, h.HeaderAndMetadataWords())
	require.Equal(t, 80, h.SizeBytes())
}
