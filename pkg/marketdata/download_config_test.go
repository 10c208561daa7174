package marketdata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigTestSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

func validBase() BaseDownloadConfig {
	return BaseDownloadConfig{
		Ticker:    "BTCUSDT",
		StartDate: "2024-01-01",
		EndDate:   "2024-03-01T00:00:00Z",
		Interval:  "2h",
	}
}

func (suite *DownloadConfigTestSuite) TestPolygonConfigValidation() {
	config := &PolygonDownloadConfig{BaseDownloadConfig: validBase(), ApiKey: "test-api-key"}
	suite.NoError(config.Validate())

	config.ApiKey = ""
	err := config.Validate()
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	suite.Contains(err.Error(), "ApiKey")
}

func (suite *DownloadConfigTestSuite) TestBinanceConfigValidation() {
	config := &BinanceDownloadConfig{BaseDownloadConfig: validBase()}
	suite.NoError(config.Validate())

	config.BaseURL = "::bad"
	suite.True(errors.HasCode(config.Validate(), errors.ErrCodeInvalidConfiguration))
}

func (suite *DownloadConfigTestSuite) TestBaseValidationErrors() {
	tests := []struct {
		name   string
		mutate func(c *BaseDownloadConfig)
		code   errors.ErrorCode
	}{
		{"missing ticker", func(c *BaseDownloadConfig) { c.Ticker = "" }, errors.ErrCodeInvalidConfiguration},
		{"bad start date", func(c *BaseDownloadConfig) { c.StartDate = "01/01/2024" }, errors.ErrCodeInvalidConfiguration},
		{"bad end date", func(c *BaseDownloadConfig) { c.EndDate = "tomorrow" }, errors.ErrCodeInvalidConfiguration},
		{"end before start", func(c *BaseDownloadConfig) { c.EndDate = "2023-12-31" }, errors.ErrCodeInvalidConfiguration},
		{"unknown interval", func(c *BaseDownloadConfig) { c.Interval = "7h" }, errors.ErrCodeInvalidTimespan},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			config := validBase()
			tt.mutate(&config)
			suite.True(errors.HasCode(config.Validate(), tt.code))
		})
	}
}

func (suite *DownloadConfigTestSuite) TestAllIntervals() {
	for _, interval := range SupportedTimespans {
		config := validBase()
		config.Interval = string(interval)
		suite.NoError(config.Validate(), "interval %s should be valid", interval)
	}
}

func (suite *DownloadConfigTestSuite) TestToDownloadParams() {
	config := validBase()

	params, err := config.ToDownloadParams()
	suite.Require().NoError(err)
	suite.Equal("BTCUSDT", params.Ticker)
	suite.True(params.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	suite.True(params.EndDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	suite.Equal(2, params.Multiplier)
	suite.Equal(models.Hour, params.Timespan)

	config.Interval = "bad"
	_, err = config.ToDownloadParams()
	suite.Error(err)
}

func (suite *DownloadConfigTestSuite) TestToClientConfig() {
	polygonConfig := &PolygonDownloadConfig{BaseDownloadConfig: validBase(), ApiKey: "key"}
	clientConfig := polygonConfig.ToClientConfig("/tmp/data")
	suite.Equal(ProviderPolygon, clientConfig.ProviderType)
	suite.Equal(WriterDuckDB, clientConfig.WriterType)
	suite.Equal("key", clientConfig.PolygonApiKey)
	suite.Equal("/tmp/data", clientConfig.DataPath)

	binanceConfig := &BinanceDownloadConfig{BaseDownloadConfig: validBase(), BaseURL: "http://localhost:9000"}
	clientConfig = binanceConfig.ToClientConfig("/tmp/data")
	suite.Equal(ProviderBinance, clientConfig.ProviderType)
	suite.Equal("http://localhost:9000", clientConfig.BinanceBaseURL)
	suite.Empty(clientConfig.PolygonApiKey)
}

func (suite *DownloadConfigTestSuite) TestParseConfigs() {
	config, err := ParseBinanceConfig(`{"ticker":"ETHUSDT","startDate":"2024-01-01","endDate":"2024-02-01","interval":"1h"}`)
	suite.Require().NoError(err)
	suite.Equal("ETHUSDT", config.Ticker)

	_, err = ParseBinanceConfig(`{not json`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = ParsePolygonConfig(`{"ticker":"X:BTCUSD","startDate":"2024-01-01","endDate":"2024-02-01","interval":"1h"}`)
	suite.Error(err)
}

func (suite *DownloadConfigTestSuite) TestConfigJSONSchemas() {
	for provider, hasAPIKey := range map[string]bool{"polygon": true, "binance": false} {
		schema, err := GetDownloadConfigSchema(provider)
		suite.Require().NoError(err)

		var schemaMap map[string]any
		suite.Require().NoError(json.Unmarshal([]byte(schema), &schemaMap))

		properties, ok := schemaMap["properties"].(map[string]any)
		suite.Require().True(ok, "schema should have properties")
		suite.Contains(properties, "ticker")
		suite.Contains(properties, "startDate")
		suite.Contains(properties, "endDate")
		suite.Contains(properties, "interval")

		if hasAPIKey {
			suite.Contains(properties, "apiKey")
		} else {
			suite.NotContains(properties, "apiKey")
			suite.Contains(properties, "baseUrl")
		}
	}
}
