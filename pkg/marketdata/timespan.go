package marketdata

import (
	"fmt"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata/provider"
)

// Timespan is a candle interval in exchange notation, e.g. "2h".
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

// SupportedTimespans lists every timespan accepted by ParseTimespan.
var SupportedTimespans = []Timespan{
	TimespanOneSecond, TimespanOneMinute, TimespanThreeMinutes, TimespanFiveMinutes,
	TimespanFifteenMinutes, TimespanThirtyMinutes, TimespanOneHour, TimespanTwoHours,
	TimespanFourHours, TimespanSixHours, TimespanEightHours, TimespanTwelveHours,
	TimespanOneDay, TimespanThreeDays, TimespanOneWeek, TimespanOneMonth,
}

// ParseTimespan validates s against the supported timespans.
func ParseTimespan(s string) (Timespan, error) {
	for _, t := range SupportedTimespans {
		if string(t) == s {
			return t, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan: %q", s)
}

// Multiplier returns the number of units in the timespan. Unknown values count as 1.
func (t Timespan) Multiplier() int {
	multiplier, _, err := provider.ParseInterval(string(t))
	if err != nil {
		return 1
	}

	return multiplier
}

// Timespan returns the polygon unit of the timespan. Unknown values map to a day.
func (t Timespan) Timespan() models.Timespan {
	_, unit, err := provider.ParseInterval(string(t))
	if err != nil {
		return models.Day
	}

	return unit
}

// Duration returns the nominal length of one candle.
func (t Timespan) Duration() time.Duration {
	d, err := provider.IntervalDuration(string(t))
	if err != nil {
		return 0
	}

	return d
}

// Label returns the short human label used in notifications, e.g. "2Hr" or "15Min".
func (t Timespan) Label() string {
	multiplier, unit, err := provider.ParseInterval(string(t))
	if err != nil {
		return string(t)
	}

	switch unit {
	case models.Second:
		return fmt.Sprintf("%dSec", multiplier)
	case models.Minute:
		return fmt.Sprintf("%dMin", multiplier)
	case models.Hour:
		return fmt.Sprintf("%dHr", multiplier)
	case models.Day:
		return fmt.Sprintf("%dD", multiplier)
	case models.Week:
		return fmt.Sprintf("%dW", multiplier)
	default:
		return fmt.Sprintf("%dMo", multiplier)
	}
}
