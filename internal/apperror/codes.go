package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Exchange and staking specific error codes
const (
	// Network / chain errors
	CodeNetworkMismatch          Code = "NETWORK_MISMATCH"
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"

	// On-chain read errors
	CodeContractCallFailed Code = "CONTRACT_CALL_FAILED"
	CodePartialReadFailure Code = "PARTIAL_READ_FAILURE"
	CodeMulticallFailed    Code = "MULTICALL_FAILED"

	// Upstream HTTP errors
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeCoinGeckoAPIError   Code = "COINGECKO_API_ERROR"
	CodeAggregatorAPIError  Code = "AGGREGATOR_API_ERROR"

	// Quote / routing errors
	CodeUnsupportedPair      Code = "UNSUPPORTED_PAIR"
	CodeQuoteFailed          Code = "QUOTE_FAILED"
	CodeRateUnavailable      Code = "RATE_UNAVAILABLE"
	CodeInvalidQuoteAmount   Code = "INVALID_QUOTE_AMOUNT"
	CodeUnknownCurrency      Code = "UNKNOWN_CURRENCY"
	CodeFeeScheduleFailed    Code = "FEE_SCHEDULE_FAILED"
	CodeTokenListUnavailable Code = "TOKEN_LIST_UNAVAILABLE"

	// Wallet / transaction errors
	CodeWalletNotConnected Code = "WALLET_NOT_CONNECTED"
	CodeTransactionFailed  Code = "TRANSACTION_FAILED"
	CodeTransactionDropped Code = "TRANSACTION_DROPPED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
