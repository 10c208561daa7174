package provider

import (
	"fmt"
	"strconv"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// binanceIntervals lists the kline intervals accepted by the Binance spot API.
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
var binanceIntervals = map[string]bool{
	"1s": true, "1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

var intervalUnits = map[byte]models.Timespan{
	's': models.Second,
	'm': models.Minute,
	'h': models.Hour,
	'd': models.Day,
	'w': models.Week,
	'M': models.Month,
}

// ParseInterval splits an interval such as "2h" into a multiplier and a polygon timespan.
func ParseInterval(interval string) (int, models.Timespan, error) {
	if len(interval) < 2 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidTimespan, "invalid interval: %q", interval)
	}

	unit, ok := intervalUnits[interval[len(interval)-1]]
	if !ok {
		return 0, "", errors.Newf(errors.ErrCodeInvalidTimespan, "invalid interval unit: %q", interval)
	}

	multiplier, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || multiplier < 1 {
		return 0, "", errors.Newf(errors.ErrCodeInvalidTimespan, "invalid interval multiplier: %q", interval)
	}

	return multiplier, unit, nil
}

// IntervalDuration returns the nominal length of one candle. Months count as 30 days.
func IntervalDuration(interval string) (time.Duration, error) {
	multiplier, timespan, err := ParseInterval(interval)
	if err != nil {
		return 0, err
	}

	var unit time.Duration

	switch timespan {
	case models.Second:
		unit = time.Second
	case models.Minute:
		unit = time.Minute
	case models.Hour:
		unit = time.Hour
	case models.Day:
		unit = 24 * time.Hour
	case models.Week:
		unit = 7 * 24 * time.Hour
	default:
		unit = 30 * 24 * time.Hour
	}

	return time.Duration(multiplier) * unit, nil
}

// convertTimespanToBinanceInterval converts the polygon timespan and multiplier to a Binance interval string.
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	var interval string

	switch timespan {
	case models.Second:
		interval = fmt.Sprintf("%ds", multiplier)
	case models.Minute:
		interval = fmt.Sprintf("%dm", multiplier)
	case models.Hour:
		interval = fmt.Sprintf("%dh", multiplier)
	case models.Day:
		interval = fmt.Sprintf("%dd", multiplier)
	case models.Week:
		interval = fmt.Sprintf("%dw", multiplier)
	case models.Month:
		interval = fmt.Sprintf("%dM", multiplier)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan for Binance: %s", timespan)
	}

	if !binanceIntervals[interval] {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported interval for Binance: %s", interval)
	}

	return interval, nil
}
