package synthetix

// Read-only fragments of the Synthetix contract surface used by the rate
// and fee providers.

// SynthUtilABI exposes synthsRates, which returns every listed synth key
// alongside its oracle rate in one call.
const SynthUtilABI = `[
	{
		"inputs": [],
		"name": "synthsRates",
		"outputs": [
			{"internalType": "bytes32[]", "name": "", "type": "bytes32[]"},
			{"internalType": "uint256[]", "name": "", "type": "uint256[]"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// ExchangeRatesABI exposes ratesForCurrencies for pricing non-synth keys
// tracked by the oracle.
const ExchangeRatesABI = `[
	{
		"inputs": [
			{"internalType": "bytes32[]", "name": "currencyKeys", "type": "bytes32[]"}
		],
		"name": "ratesForCurrencies",
		"outputs": [
			{"internalType": "uint256[]", "name": "", "type": "uint256[]"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// ExchangerABI exposes the fee schedule and fee reclamation reads.
const ExchangerABI = `[
	{
		"inputs": [
			{"internalType": "bytes32", "name": "sourceCurrencyKey", "type": "bytes32"},
			{"internalType": "bytes32", "name": "destinationCurrencyKey", "type": "bytes32"}
		],
		"name": "feeRateForExchange",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"},
			{"internalType": "bytes32", "name": "currencyKey", "type": "bytes32"}
		],
		"name": "settlementOwing",
		"outputs": [
			{"internalType": "uint256", "name": "reclaimAmount", "type": "uint256"},
			{"internalType": "uint256", "name": "rebateAmount", "type": "uint256"},
			{"internalType": "uint256", "name": "numEntries", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"},
			{"internalType": "bytes32", "name": "currencyKey", "type": "bytes32"}
		],
		"name": "maxSecsLeftInWaitingPeriod",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// SystemSettingsABI exposes the per-asset exchange fee component.
const SystemSettingsABI = `[
	{
		"inputs": [
			{"internalType": "bytes32", "name": "currencyKey", "type": "bytes32"}
		],
		"name": "exchangeFeeRate",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`
