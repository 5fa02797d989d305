package container

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/fragbox/errs"
	"github.com/arloliu/fragbox/format"
	"github.com/arloliu/fragbox/fragment"
	"github.com/arloliu/fragbox/internal/options"
)

type builderConfig struct {
	expectedType format.FragmentType
	logger       *slog.Logger
	growthFactor float64
}

// BuilderOption configures a Builder created by NewBuilder.
type BuilderOption = options.Option[*builderConfig]

func newBuilderConfig() *builderConfig {
	return &builderConfig{
		expectedType: format.EmptyFragmentType,
		logger:       slog.New(slog.DiscardHandler),
		growthFactor: DefaultGrowthFactor,
	}
}

func (c *builderConfig) apply(opts ...BuilderOption) error {
	return options.Apply(c, opts...)
}

// WithExpectedType binds the container to a fragment type up front. Without
// it the container adopts the type of the first fragment added.
func WithExpectedType(t format.FragmentType) BuilderOption {
	return options.NoError(func(c *builderConfig) {
		c.expectedType = t
	})
}

// WithLogger sets the logger that receives debug records on adds and growth
// and error records on rejected calls. A nil logger keeps the default, which
// discards everything.
func WithLogger(logger *slog.Logger) BuilderOption {
	return options.NoError(func(c *builderConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithGrowthFactor sets the capacity multiplier used when the arena has to
// reallocate. It must be finite and at least 1.0; the default is DefaultGrowthFactor.
func WithGrowthFactor(factor float64) BuilderOption {
	return options.New(func(c *builderConfig) error {
		if !fragment.ValidGrowthFactor(factor) {
			return fmt.Errorf("%w: %v", errs.ErrInvalidGrowthFactor, factor)
		}
		c.growthFactor = factor

		return nil
	})
}
