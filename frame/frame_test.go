package frame

import (
	"bytes"
	"testing"

	"github.com/arloliu/fragbox/container"
	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/arloliu/fragbox/fragment"
	"github.com/arloliu/fragbox/internal/hash"
	"github.com/stretchr/testify/require"
)

var allCompressions = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

func sealedContainer(t *testing.T) *fragment.Fragment {
	t.Helper()

	frag, err := container.NewEmptyFragment(fragment.WithSequenceID(1001), fragment.WithFragmentID(4))
	require.NoError(t, err)

	b, err := container.NewBuilder(frag, container.WithExpectedType(6))
	require.NoError(t, err)

	for i := range 5 {
		payload := bytes.Repeat([]byte{byte(i)}, 200+i*40)
		rec, err := fragment.New(0, fragment.WithType(6), fragment.WithSequenceID(1001), fragment.WithPayload(payload))
		require.NoError(t, err)
		require.NoError(t, b.AddFragment(rec, false))
	}

	return frag
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	frag := sealedContainer(t)

	for _, compression := range allCompressions {
		t.Run(compression.String(), func(t *testing.T) {
			data, err := Encode(frag, compression)
			require.NoError(t, err)

			h, err := ParseHeader(data)
			require.NoError(t, err)
			require.Equal(t, Version, h.Version)
			require.Equal(t, compression, h.Compression)
			require.Equal(t, uint64(frag.SizeBytes()), h.RawLen)
			require.Equal(t, uint64(len(data)-HeaderSize), h.EncodedLen)
			require.Equal(t, frag.Checksum(), h.Checksum)

			got, err := Decode(data)
			require.NoError(t, err)
			require.Equal(t, frag.Bytes(), got.Bytes())

			c, err := container.New(got)
			require.NoError(t, err)
			require.NoError(t, c.Validate())
			require.Equal(t, uint64(5), c.BlockCount())
			require.Equal(t, uint64(1001), got.SequenceID())
		})
	}
}

func TestDecode_OwnsStorage(t *testing.T) {
	frag := sealedContainer(t)
	data, err := Encode(frag, format.CompressionNone)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	clear(data)
	require.Equal(t, frag.Bytes(), got.Bytes())
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(nil, format.CompressionNone)
	require.ErrorIs(t, err, errs.ErrNilFragment)

	frag := sealedContainer(t)
	_, err = Encode(frag, format.CompressionType(42))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestDecode_Errors(t *testing.T) {
	frag := sealedContainer(t)

	plain, err := Encode(frag, format.CompressionNone)
	require.NoError(t, err)
	zstd, err := Encode(frag, format.CompressionZstd)
	require.NoError(t, err)
	lz4, err := Encode(frag, format.CompressionLZ4)
	require.NoError(t, err)

	setRawLen := func(n uint64) func(b []byte) []byte {
		return func(b []byte) []byte {
			endian.Layout().PutUint64(b[8:16], n)
			return b
		}
	}
	rawLen := uint64(frag.SizeBytes())

	mutate := func(src []byte, fn func(b []byte) []byte) []byte {
		return fn(bytes.Clone(src))
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, errs.ErrInvalidFrame},
		{"short header", plain[:HeaderSize-1], errs.ErrInvalidFrame},
		{"bad magic", mutate(plain, func(b []byte) []byte { b[0] ^= 0xFF; return b }), errs.ErrInvalidFrame},
		{"unknown version", mutate(plain, func(b []byte) []byte { b[2] = 9; return b }), errs.ErrInvalidFrame},
		{"reserved bytes", mutate(plain, func(b []byte) []byte { b[5] = 1; return b }), errs.ErrInvalidFrame},
		{"unknown compression", mutate(plain, func(b []byte) []byte { b[3] = 77; return b }), errs.ErrUnsupportedCompression},
		{"truncated payload", plain[:len(plain)-8], errs.ErrInvalidFrame},
		{"trailing bytes", append(bytes.Clone(plain), 0), errs.ErrInvalidFrame},
		{
			"raw length not word aligned",
			mutate(plain, func(b []byte) []byte { endian.Layout().PutUint64(b[8:16], 33); return b }),
			errs.ErrInvalidFrame,
		},
		{
			"raw length smaller than header",
			mutate(plain, func(b []byte) []byte { endian.Layout().PutUint64(b[8:16], 8); return b }),
			errs.ErrInvalidFrame,
		},
		{"uncompressed raw length differs from payload", mutate(plain, setRawLen(rawLen-8)), errs.ErrInvalidFrame},
		{"raw length over limit", mutate(zstd, setRawLen(DefaultMaxRawLen+8)), errs.ErrInvalidFrame},
		{"lz4 raw length beyond expansion bound", mutate(lz4, setRawLen(1<<30)), errs.ErrInvalidFrame},
		{"lz4 raw length disagrees with payload", mutate(lz4, setRawLen(rawLen+8)), errs.ErrDecompressedSizeMismatch},
		{"payload bit flip", mutate(plain, func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }), errs.ErrChecksumMismatch},
		{"checksum field changed", mutate(zstd, func(b []byte) []byte { b[24] ^= 0x01; return b }), errs.ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, got)
		})
	}
}

func TestDecode_TinyFrameClaimingHugeFragment(t *testing.T) {
	h := Header{
		Version:     Version,
		Compression: format.CompressionLZ4,
		RawLen:      1 << 30,
		EncodedLen:  1,
	}
	data := append(h.Bytes(), 0)

	got, err := Decode(data, WithMaxRawLen(1<<31))
	require.ErrorIs(t, err, errs.ErrInvalidFrame)
	require.Nil(t, got)
}

func TestDecode_MaxRawLen(t *testing.T) {
	frag := sealedContainer(t)
	data, err := Encode(frag, format.CompressionS2)
	require.NoError(t, err)

	got, err := Decode(data, WithMaxRawLen(uint64(frag.SizeBytes())))
	require.NoError(t, err)
	require.Equal(t, frag.Bytes(), got.Bytes())

	got, err = Decode(data, WithMaxRawLen(uint64(frag.SizeBytes()-8)))
	require.ErrorIs(t, err, errs.ErrInvalidFrame)
	require.Nil(t, got)

	_, err = Decode(data, WithMaxRawLen(8))
	require.ErrorIs(t, err, errs.ErrInvalidFrame)
}

func TestDecode_WordCountDisagreesWithFrame(t *testing.T) {
	frag := sealedContainer(t)

	// well-formed frame around bytes whose header claims one word less
	raw := bytes.Clone(frag.Bytes())
	endian.Layout().PutUint32(raw[0:4], uint32(frag.Size()-1))

	h := Header{
		Version:     Version,
		Compression: format.CompressionNone,
		RawLen:      uint64(len(raw)),
		EncodedLen:  uint64(len(raw)),
		Checksum:    hash.Checksum(raw),
	}
	data := append(h.Bytes(), raw...)

	got, err := Decode(data)
	require.ErrorIs(t, err, errs.ErrInvalidFrame)
	require.Nil(t, got)
}

func TestHeader_Bytes(t *testing.T) {
	h := Header{Version: Version, Compression: format.CompressionLZ4, RawLen: 4096, EncodedLen: 1000, Checksum: 0xDEADBEEF}
	b := h.Bytes()

	require.Len(t, b, HeaderSize)
	require.Equal(t, []byte{0xA6, 0xF8, 1, byte(format.CompressionLZ4), 0, 0, 0, 0}, b[:8])

	parsed, err := ParseHeader(b)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}
