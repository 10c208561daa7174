package datasource

import "github.com/rxtech-lab/argo-bh/pkg/errors"

// intervalMinutes is the bucket width, in minutes, of every resampling interval.
var intervalMinutes = map[Interval]int{
	Interval1m:  1,
	Interval5m:  5,
	Interval15m: 15,
	Interval30m: 30,
	Interval1h:  60,
	Interval2h:  2 * 60,
	Interval4h:  4 * 60,
	Interval6h:  6 * 60,
	Interval8h:  8 * 60,
	Interval12h: 12 * 60,
	Interval1d:  24 * 60,
	Interval1w:  7 * 24 * 60,
}

// Minutes returns the bucket width of the interval.
func (i Interval) Minutes() (int, error) {
	minutes, ok := intervalMinutes[i]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported resampling interval: %q", string(i))
	}

	return minutes, nil
}

// ParseInterval validates an interval string such as "2h".
func ParseInterval(value string) (Interval, error) {
	interval := Interval(value)
	if _, err := interval.Minutes(); err != nil {
		return "", err
	}

	return interval, nil
}
