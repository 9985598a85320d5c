package apperror

// messages maps error codes to their default human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "required field is missing",
	CodeInvalidInput:    "invalid input provided",
	CodeInvalidFormat:   "invalid format",
	CodeInvalidState:    "invalid state",
	CodeNotFound:        "resource not found",
	CodeValidationError: "validation failed",

	// Configuration
	CodeConfigurationError: "configuration error",

	// External services
	CodeExternalServiceError: "external service error",
	CodeServiceTimeout:       "service request timed out",
	CodeServiceUnavailable:   "service unavailable",
	CodeRateLimitExceeded:    "rate limit exceeded",

	// System
	CodeInternalError: "internal error",
	CodeUnknownError:  "unknown error",

	// Network / chain
	CodeNetworkMismatch:          "required contracts are not deployed on the active chain",
	CodeEthereumConnectionFailed: "failed to connect to ethereum node",
	CodeEthereumRPCError:         "ethereum RPC call failed",
	CodeBlockNotFound:            "block not found",

	// On-chain reads
	CodeContractCallFailed: "contract call failed",
	CodePartialReadFailure: "one or more batched reads failed",
	CodeMulticallFailed:    "multicall aggregate failed",

	// Upstream HTTP
	CodeUpstreamUnavailable: "upstream price API unavailable",
	CodeCoinGeckoAPIError:   "coingecko API request failed",
	CodeAggregatorAPIError:  "swap aggregator API request failed",

	// Quote / routing
	CodeUnsupportedPair:      "currency pair is not supported",
	CodeQuoteFailed:          "failed to compute quote",
	CodeRateUnavailable:      "exchange rate unavailable",
	CodeInvalidQuoteAmount:   "invalid quote amount",
	CodeUnknownCurrency:      "unknown currency key",
	CodeFeeScheduleFailed:    "failed to read exchange fee schedule",
	CodeTokenListUnavailable: "aggregator token list unavailable",

	// Wallet / transaction
	CodeWalletNotConnected: "wallet not connected",
	CodeTransactionFailed:  "transaction failed",
	CodeTransactionDropped: "transaction dropped from mempool",

	// Circuit breaker
	CodeCircuitOpen:     "circuit breaker is open",
	CodeCircuitHalfOpen: "circuit breaker is half-open",
}
