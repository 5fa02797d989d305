package section

// Sizes of the fixed sections of a fragment, in bytes unless noted.
const (
	WordSize                  = 8                                            // arena word, the unit of every fragment size
	FragmentHeaderWords       = 4                                            // header length in words
	FragmentHeaderSize        = FragmentHeaderWords * WordSize               // header length in bytes
	ContainerMetadataWords    = 3                                            // container metadata length in words
	ContainerMetadataSize     = ContainerMetadataWords * WordSize            // container metadata length in bytes
	IndexEntrySize            = 8                                            // one container index offset
	FragmentHeaderVersion     = 2                                            // header layout revision written by this package
	MaxFragmentWords          = 0xFFFFFFFF                                   // word_count is a 32-bit field
	MaxSequenceID             = (1 << 48) - 1                                // sequence_id is a 48-bit field
	MaxBlockCount             = (1 << 55) - 1                                // block_count is a 55-bit field
	MaxContainerVersion       = 0xF                                          // version is a 4-bit field
	MinimumContainerWordCount = FragmentHeaderWords + ContainerMetadataWords // fresh container arena
)

// Fragment header bit fields.
const (
	wordCountMask      = 0xFFFFFFFF
	headerVersionShift = 32
	headerVersionMask  = 0xFFFF
	typeShift          = 48
	typeMask           = 0xFF
	metadataWordsShift = 56
	metadataWordsMask  = 0xFF
	sequenceIDMask     = MaxSequenceID
	fragmentIDShift    = 48
	fragmentIDMask     = 0xFFFF
	validBit           = 1 << 0
	completeBit        = 1 << 1
	accessTimeNsShift  = 2
	accessTimeNsMask   = (1 << 30) - 1
	accessTimeSecShift = 32
	accessTimeSecMask  = 0xFFFFFFFF
)

// Container metadata bit fields.
const (
	blockCountMask        = MaxBlockCount
	fragmentTypeShift     = 55
	fragmentTypeMask      = 0xFF
	missingDataBit        = uint64(1) << 63
	hasIndexBit           = uint64(1) << 0
	containerVersionShift = 1
	containerVersionMask  = MaxContainerVersion
	containerReservedMask = ^uint64(0) &^ (hasIndexBit | containerVersionMask<<containerVersionShift)
)
