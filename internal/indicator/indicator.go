package indicator

import (
	"github.com/rxtech-lab/argo-bh/internal/types"
)

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config replaces the indicator parameters. The expected parameters depend on the indicator.
	Config(params ...any) error
	// WarmUp returns how many candles are needed before the indicator produces its first defined value.
	WarmUp() int
}
