package marketdata

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// BaseDownloadConfig contains common fields for all download configurations.
type BaseDownloadConfig struct {
	Ticker    string `json:"ticker" jsonschema:"title=Ticker,description=The trading symbol to download data for (e.g. BTCUSDT or X:BTCUSD),required" validate:"required"`
	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=Start date as YYYY-MM-DD or RFC3339,required" validate:"required"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=End date as YYYY-MM-DD or RFC3339,required" validate:"required"`
	Interval  string `json:"interval" jsonschema:"title=Interval,description=Candle interval,required,enum=1s,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d,enum=3d,enum=1w,enum=1M" validate:"required"`
}

// PolygonDownloadConfig contains configuration for downloading from Polygon.io.
type PolygonDownloadConfig struct {
	BaseDownloadConfig

	ApiKey string `json:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" validate:"required"`
}

// BinanceDownloadConfig contains configuration for downloading from Binance.
// Binance public market data API does not require authentication.
type BinanceDownloadConfig struct {
	BaseDownloadConfig

	BaseURL string `json:"baseUrl,omitempty" jsonschema:"title=Base URL,description=Override of the Binance REST endpoint" validate:"omitempty,url"`
}

// parseDate accepts a plain date or an RFC3339 timestamp. Plain dates are midnight UTC.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}

	return time.Parse(time.RFC3339, value)
}

// Validate validates the BaseDownloadConfig fields.
func (c *BaseDownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid download config", err)
	}

	if _, err := ParseTimespan(c.Interval); err != nil {
		return err
	}

	start, err := parseDate(c.StartDate)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid startDate, expected YYYY-MM-DD or RFC3339", err)
	}

	end, err := parseDate(c.EndDate)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid endDate, expected YYYY-MM-DD or RFC3339", err)
	}

	if !end.After(start) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "endDate must be after startDate")
	}

	return nil
}

// Validate validates the PolygonDownloadConfig.
func (c *PolygonDownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid polygon download config", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// Validate validates the BinanceDownloadConfig.
func (c *BinanceDownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance download config", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// ToDownloadParams converts a validated BaseDownloadConfig to DownloadParams.
func (c *BaseDownloadConfig) ToDownloadParams() (DownloadParams, error) {
	if err := c.Validate(); err != nil {
		return DownloadParams{}, err
	}

	startDate, _ := parseDate(c.StartDate)
	endDate, _ := parseDate(c.EndDate)
	timespan := Timespan(c.Interval)

	return DownloadParams{
		Ticker:     c.Ticker,
		StartDate:  startDate,
		EndDate:    endDate,
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}, nil
}

// ToClientConfig converts a PolygonDownloadConfig to ClientConfig.
func (c *PolygonDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:   ProviderPolygon,
		WriterType:     WriterDuckDB,
		DataPath:       dataPath,
		PolygonApiKey:  c.ApiKey,
		BinanceBaseURL: "",
	}
}

// ToClientConfig converts a BinanceDownloadConfig to ClientConfig.
func (c *BinanceDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:   ProviderBinance,
		WriterType:     WriterDuckDB,
		DataPath:       dataPath,
		PolygonApiKey:  "",
		BinanceBaseURL: c.BaseURL,
	}
}

// downloadJob is a provider specific download configuration.
type downloadJob interface {
	Validate() error
	ToDownloadParams() (DownloadParams, error)
	ToClientConfig(dataPath string) ClientConfig
}

// decodeJob unmarshals raw into a new T and validates it.
func decodeJob[T any, PT interface {
	*T
	downloadJob
}](raw string) (PT, error) {
	job := PT(new(T))
	if err := json.Unmarshal([]byte(raw), job); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "download job is not valid JSON", err)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// ParsePolygonConfig decodes and validates a Polygon download job.
func ParsePolygonConfig(raw string) (*PolygonDownloadConfig, error) {
	return decodeJob[PolygonDownloadConfig](raw)
}

// ParseBinanceConfig decodes and validates a Binance download job.
func ParseBinanceConfig(raw string) (*BinanceDownloadConfig, error) {
	return decodeJob[BinanceDownloadConfig](raw)
}

// toJSONSchema reflects a download config into an inline JSON schema.
func toJSONSchema(v any) (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	schemaBytes, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnknown, "failed to marshal schema", err)
	}

	return string(schemaBytes), nil
}
