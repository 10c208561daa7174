package types

// BollingerBand holds the band values at a single index.
type BollingerBand struct {
	Upper  float64 `json:"upper" yaml:"upper"`
	Middle float64 `json:"middle" yaml:"middle"`
	Lower  float64 `json:"lower" yaml:"lower"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}
