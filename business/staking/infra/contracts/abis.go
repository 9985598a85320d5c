package contracts

// Read-only fragments of the staking contract surface.

// ERC20ABI covers the balance and allowance reads used by the batch.
const ERC20ABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "balanceOf",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "owner", "type": "address"},
			{"internalType": "address", "name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// StakingRewardsABI covers the pool position reads.
const StakingRewardsABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "nonEscrowedBalanceOf",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "escrowedBalanceOf",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "earned",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "totalSupply",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// RewardEscrowABI covers the escrow balance and vesting schedule reads.
const RewardEscrowABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "balanceOf",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"},
			{"internalType": "uint256", "name": "index", "type": "uint256"},
			{"internalType": "uint256", "name": "pageSize", "type": "uint256"}
		],
		"name": "getVestingSchedules",
		"outputs": [
			{
				"components": [
					{"internalType": "uint64", "name": "endTime", "type": "uint64"},
					{"internalType": "uint256", "name": "escrowAmount", "type": "uint256"},
					{"internalType": "uint256", "name": "entryID", "type": "uint256"}
				],
				"internalType": "struct VestingEntries.VestingEntryWithID[]",
				"name": "",
				"type": "tuple[]"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"},
			{"internalType": "uint256", "name": "entryID", "type": "uint256"}
		],
		"name": "getVestingEntryClaimable",
		"outputs": [
			{"internalType": "uint256", "name": "quantity", "type": "uint256"},
			{"internalType": "uint256", "name": "fee", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// SupplyScheduleABI covers the emission schedule constants behind the APY
// derivation.
const SupplyScheduleABI = `[
	{
		"inputs": [],
		"name": "DECAY_RATE",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "INITIAL_WEEKLY_SUPPLY",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "weekCounter",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// DistributorABI exposes the trading rewards distribution epoch.
const DistributorABI = `[
	{
		"inputs": [],
		"name": "distributionEpoch",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// SynthUtilBalancesABI exposes synthsBalances, returning every synth
// holding with its sUSD valuation in one call.
const SynthUtilBalancesABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "synthsBalances",
		"outputs": [
			{"internalType": "bytes32[]", "name": "", "type": "bytes32[]"},
			{"internalType": "uint256[]", "name": "", "type": "uint256[]"},
			{"internalType": "uint256[]", "name": "", "type": "uint256[]"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// EthBalanceABI is the Multicall3 helper used to read the native balance
// inside a batch.
const EthBalanceABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "addr", "type": "address"}
		],
		"name": "getEthBalance",
		"outputs": [
			{"internalType": "uint256", "name": "balance", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`
