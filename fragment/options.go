package fragment

import (
	"fmt"

	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/arloliu/fragbox/internal/options"
	"github.com/arloliu/fragbox/section"
)

type config struct {
	typ           format.FragmentType
	sequenceID    uint64
	fragmentID    uint16
	timestamp     uint64
	metadata      []byte
	metadataWords int
	payload       []byte
}

// Option configures a fragment created by New.
type Option = options.Option[*config]

// WithType sets a data-source type. It fails for values outside the user range.
func WithType(t format.FragmentType) Option {
	return options.New(func(c *config) error {
		if !t.IsUser() {
			return fmt.Errorf("%w: %s is not a user type", errs.ErrInvalidFragmentType, t)
		}
		c.typ = t

		return nil
	})
}

// WithSystemType sets a system type. It fails for values outside the system range.
func WithSystemType(t format.FragmentType) Option {
	return options.New(func(c *config) error {
		if !t.IsSystem() {
			return fmt.Errorf("%w: %s is not a system type", errs.ErrInvalidFragmentType, t)
		}
		c.typ = t

		return nil
	})
}

// WithSequenceID sets the 48-bit event sequence id.
func WithSequenceID(id uint64) Option {
	return options.New(func(c *config) error {
		if id > section.MaxSequenceID {
			return fmt.Errorf("%w: %d", errs.ErrSequenceIDOverflow, id)
		}
		c.sequenceID = id

		return nil
	})
}

// WithFragmentID sets the id of the data source.
func WithFragmentID(id uint16) Option {
	return options.NoError(func(c *config) {
		c.fragmentID = id
	})
}

// WithTimestamp sets the event timestamp.
func WithTimestamp(ts uint64) Option {
	return options.NoError(func(c *config) {
		c.timestamp = ts
	})
}

// WithMetadata stores md in the metadata slot. The slot is sized to md,
// rounded up to whole words, unless WithMetadataWords asks for more.
func WithMetadata(md []byte) Option {
	return options.NoError(func(c *config) {
		c.metadata = md
	})
}

// WithMetadataWords reserves a zeroed metadata slot of n words.
func WithMetadataWords(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 || n > 0xFF {
			return fmt.Errorf("%w: %d words", errs.ErrInvalidMetadataSize, n)
		}
		c.metadataWords = n

		return nil
	})
}

// WithPayload copies data into the payload. The payload is at least
// len(data) bytes, rounded up to whole words.
func WithPayload(data []byte) Option {
	return options.NoError(func(c *config) {
		c.payload = data
	})
}
