package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidMultiplier    ErrorCode = 111
	ErrCodeInvalidThreshold     ErrorCode = 112
	ErrCodeInvalidCandle        ErrorCode = 120
	ErrCodeInvalidWindowPolicy  ErrorCode = 121
	ErrCodeInvalidSeedMode      ErrorCode = 122
	ErrCodeEmptySequence        ErrorCode = 123

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestConfigError  ErrorCode = 602
	ErrCodeBacktestCancelled    ErrorCode = 603
	ErrCodeBacktestNoDatasource ErrorCode = 608
	ErrCodeBacktestWriteFailed  ErrorCode = 609

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704

	// Collaborator errors (800-899)
	ErrCodeNotificationFailed ErrorCode = 800
	ErrCodeRecorderFailed     ErrorCode = 801
)

// Category groups error codes by their hundreds range.
type Category string

const (
	CategoryGeneral      Category = "general"
	CategoryValidation   Category = "validation"
	CategoryData         Category = "data"
	CategoryIndicator    Category = "indicator"
	CategoryBacktest     Category = "backtest"
	CategoryMarketData   Category = "market_data"
	CategoryCollaborator Category = "collaborator"
)

// Category returns the group of the code. Unassigned ranges count as general.
func (c ErrorCode) Category() Category {
	switch c / 100 {
	case 1:
		return CategoryValidation
	case 2:
		return CategoryData
	case 3:
		return CategoryIndicator
	case 6:
		return CategoryBacktest
	case 7:
		return CategoryMarketData
	case 8:
		return CategoryCollaborator
	default:
		return CategoryGeneral
	}
}
