package section

import (
	"testing"

	"github.com/arloliu/fragbox/endian"
	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/stretchr/testify/require"
)

func TestContainerMetadata_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		meta ContainerMetadata
	}{
		{"fresh", ContainerMetadata{FragmentType: format.EmptyFragmentType, HasIndex: true, Version: 1}},
		{"filled", ContainerMetadata{BlockCount: 3, FragmentType: 5, HasIndex: true, Version: 1, IndexOffset: 456}},
		{"missing data", ContainerMetadata{BlockCount: 1, FragmentType: 224, MissingData: true, Version: 1, IndexOffset: 40}},
		{"max fields", ContainerMetadata{BlockCount: MaxBlockCount, FragmentType: 255, MissingData: true, HasIndex: true, Version: MaxContainerVersion, IndexOffset: ^uint64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.meta.Bytes()
			require.Len(t, data, ContainerMetadataSize)

			parsed, err := ParseContainerMetadata(data)
			require.NoError(t, err)
			require.Equal(t, tt.meta, parsed)
			require.NoError(t, parsed.Validate())
		})
	}
}

func TestContainerMetadata_BitLayout(t *testing.T) {
	m := ContainerMetadata{BlockCount: 2, FragmentType: 0x81, MissingData: true, HasIndex: true, Version: 1, IndexOffset: 0x100}
	w := m.Words()

	require.Equal(t, uint64(2)|uint64(0x81)<<55|uint64(1)<<63, w[0])
	require.Equal(t, uint64(0b11), w[1])
	require.Equal(t, uint64(0x100), w[2])
}

func TestContainerMetadata_FieldIsolation(t *testing.T) {
	m := ContainerMetadata{BlockCount: MaxBlockCount + 1, FragmentType: 0}
	parsed, err := ParseContainerMetadata(m.Bytes())
	require.NoError(t, err)
	require.Equal(t, uint64(0), parsed.BlockCount, "overflowing block count must not leak into the type field")
	require.Equal(t, format.FragmentType(0), parsed.FragmentType)
}

func TestContainerMetadata_Errors(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		_, err := ParseContainerMetadata(make([]byte, 16))
		require.ErrorIs(t, err, errs.ErrInvalidMetadataSize)
	})

	t.Run("reserved bits", func(t *testing.T) {
		data := (&ContainerMetadata{Version: 1}).Bytes()
		endian.Layout().PutUint64(data[8:16], 1<<40)
		_, err := ParseContainerMetadata(data)
		require.ErrorIs(t, err, errs.ErrInvalidMetadata)
	})

	t.Run("validate overflow", func(t *testing.T) {
		m := ContainerMetadata{BlockCount: MaxBlockCount + 1}
		require.ErrorIs(t, m.Validate(), errs.ErrBlockCountOverflow)

		m = ContainerMetadata{Version: 16}
		require.ErrorIs(t, m.Validate(), errs.ErrUnsupportedVersion)

		m = ContainerMetadata{Version: 0}
		require.ErrorIs(t, m.Validate(), errs.ErrUnsupportedVersion)
	})
}
