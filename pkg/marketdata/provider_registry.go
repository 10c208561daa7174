package marketdata

import (
	"slices"

	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	// SymbolExample shows the ticker notation expected by the provider.
	SymbolExample string `json:"symbolExample"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderPolygon: {
		Name:          string(ProviderPolygon),
		DisplayName:   "Polygon.io",
		Description:   "Aggregates for stocks and crypto, crypto pairs use the X: prefix",
		RequiresAuth:  true,
		SymbolExample: "X:BTCUSD",
	},
	ProviderBinance: {
		Name:          string(ProviderBinance),
		DisplayName:   "Binance",
		Description:   "Spot klines from the public Binance REST API",
		RequiresAuth:  false,
		SymbolExample: "BTCUSDT",
	},
}

// GetSupportedProviders returns the supported provider names in sorted order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	slices.Sort(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return toJSONSchema(&PolygonDownloadConfig{})
	case ProviderBinance:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return toJSONSchema(&BinanceDownloadConfig{})
	default:
		return "", errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}
}

// ParseDownloadConfig decodes a JSON download job for providerName. It returns the
// request together with a client configuration writing parquet files under dataPath.
func ParseDownloadConfig(providerName string, raw string, dataPath string) (DownloadParams, ClientConfig, error) {
	var (
		job downloadJob
		err error
	)

	switch ProviderType(providerName) {
	case ProviderPolygon:
		job, err = ParsePolygonConfig(raw)
	case ProviderBinance:
		job, err = ParseBinanceConfig(raw)
	default:
		err = errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	if err != nil {
		return DownloadParams{}, ClientConfig{}, err
	}

	params, err := job.ToDownloadParams()
	if err != nil {
		return DownloadParams{}, ClientConfig{}, err
	}

	return params, job.ToClientConfig(dataPath), nil
}
