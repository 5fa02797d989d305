// Package fragment implements the fragment record: a word-granular byte arena
// holding a fixed header, an optional metadata slot and a payload.
//
// A fragment is the unit of data a source produces for one event. Its header
// reports the fragment's own size, so a sequence of fragments can be walked
// without any external framing. This is what lets a container pack fragments
// back to back and rebuild its index from the packed bytes alone.
//
//	frag, err := fragment.New(len(samples),
//	    fragment.WithType(3),
//	    fragment.WithSequenceID(eventID),
//	    fragment.WithFragmentID(boardID),
//	    fragment.WithPayload(samples),
//	)
//
// Storage comes from an internal buffer pool; call Release when a fragment
// is no longer needed to recycle it.
package fragment
