package types

type IndicatorType string

const (
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeHeikinAshi     IndicatorType = "heikin_ashi"
	// IndicatorTypeBollingerHeikinAshi is the combined band touch + Heikin-Ashi confirmation pattern.
	IndicatorTypeBollingerHeikinAshi IndicatorType = "bollinger_heikin_ashi"
)
