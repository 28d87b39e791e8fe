package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation/configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidWindow        ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104
	ErrCodeInvalidMAKind        ErrorCode = 105
	ErrCodeInvalidRange         ErrorCode = 106
	ErrCodeInvalidInterval      ErrorCode = 107
	ErrCodeMissingParameter     ErrorCode = 108

	// Data errors (200-299)
	ErrCodeEmptySeries      ErrorCode = 200
	ErrCodeMissingColumn    ErrorCode = 201
	ErrCodeColumnMismatch   ErrorCode = 202
	ErrCodeDuplicateBar     ErrorCode = 203
	ErrCodeDataNotFound     ErrorCode = 204
	ErrCodeQueryFailed      ErrorCode = 205
	ErrCodeStoreUnavailable ErrorCode = 206

	// Computation/indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300
	ErrCodeSignalCalculation    ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeUnsupportedStrategy ErrorCode = 400
	ErrCodeStrategyConfigError ErrorCode = 401

	// Backtest errors (500-599)
	ErrCodeBacktestNoData   ErrorCode = 500
	ErrCodeBacktestNoSignal ErrorCode = 501
	ErrCodeOptimizerNoData  ErrorCode = 502

	// Market data / network errors (700-799)
	ErrCodeFetchTimeout       ErrorCode = 700
	ErrCodeFetchFailed        ErrorCode = 701
	ErrCodeNoDataForSymbol    ErrorCode = 702
	ErrCodeMarketDataParse    ErrorCode = 703
	ErrCodeInvalidProvider    ErrorCode = 704
	ErrCodeStreamDisconnected ErrorCode = 705
)
