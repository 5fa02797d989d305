package format

import "strconv"

type (
	// FragmentType is the 8-bit type tag carried in every fragment header.
	FragmentType    uint8
	CompressionType uint8
)

const (
	InvalidFragmentType FragmentType = 0 // InvalidFragmentType marks a fragment whose type was never set.

	FirstUserType FragmentType = 1   // FirstUserType is the lowest type value available to data sources.
	LastUserType  FragmentType = 224 // LastUserType is the highest type value available to data sources.

	EndOfDataFragmentType   FragmentType = 225 // EndOfDataFragmentType closes a data stream.
	DataFragmentType        FragmentType = 226 // DataFragmentType is a generic system data fragment.
	InitFragmentType        FragmentType = 227 // InitFragmentType carries initialization records.
	EndOfRunFragmentType    FragmentType = 228 // EndOfRunFragmentType marks the end of a run.
	EndOfSubrunFragmentType FragmentType = 229 // EndOfSubrunFragmentType marks the end of a subrun.
	ShutdownFragmentType    FragmentType = 230 // ShutdownFragmentType requests a shutdown.
	EmptyFragmentType       FragmentType = 231 // EmptyFragmentType is the "no type bound yet" sentinel.
	ContainerFragmentType   FragmentType = 232 // ContainerFragmentType tags a container of fragments.
	ErrorFragmentType       FragmentType = 233 // ErrorFragmentType reports a readout error.

	FirstSystemType = EndOfDataFragmentType
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// IsUser reports whether t lies in the range reserved for data sources.
func (t FragmentType) IsUser() bool {
	return t >= FirstUserType && t <= LastUserType
}

// IsSystem reports whether t lies in the range reserved for system fragments.
func (t FragmentType) IsSystem() bool {
	return t >= FirstSystemType
}

// String returns the name of a known type, "User(n)" for a user type and
// "Unknown(n)" otherwise.
func (t FragmentType) String() string {
	switch t {
	case InvalidFragmentType:
		return "Invalid"
	case EndOfDataFragmentType:
		return "EndOfData"
	case DataFragmentType:
		return "Data"
	case InitFragmentType:
		return "Init"
	case EndOfRunFragmentType:
		return "EndOfRun"
	case EndOfSubrunFragmentType:
		return "EndOfSubrun"
	case ShutdownFragmentType:
		return "Shutdown"
	case EmptyFragmentType:
		return "Empty"
	case ContainerFragmentType:
		return "Container"
	case ErrorFragmentType:
		return "Error"
	}

	if t.IsUser() {
		return "User(" + strconv.Itoa(int(t)) + ")"
	}

	return "Unknown(" + strconv.Itoa(int(t)) + ")"
}

// String returns the name of the compression type.
func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
