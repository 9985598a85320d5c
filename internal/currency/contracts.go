package currency

import "github.com/ethereum/go-ethereum/common"

// Chain IDs the protocol is deployed on.
const (
	ChainIDEthereum       uint64 = 1
	ChainIDGoerli         uint64 = 5
	ChainIDOptimism       uint64 = 10
	ChainIDOptimismGoerli uint64 = 420
)

// Contract names used with AddressFor.
const (
	ContractExchanger        = "Exchanger"
	ContractSynthUtil        = "SynthUtil"
	ContractExchangeRates    = "ExchangeRates"
	ContractSystemSettings   = "SystemSettings"
	ContractSystemStatus     = "SystemStatus"
	ContractSynthRedeemer    = "SynthRedeemer"
	ContractSynthetix        = "Synthetix"
	ContractSynthSwap        = "SynthSwap"
	ContractStakingRewards   = "StakingRewards"
	ContractRewardEscrow     = "RewardEscrow"
	ContractSupplySchedule   = "SupplySchedule"
	ContractKwentaToken      = "KwentaToken"
	ContractVKwentaToken     = "VKwentaToken"
	ContractVKwentaRedeemer  = "VKwentaRedeemer"
	ContractVeKwentaToken    = "VeKwentaToken"
	ContractVeKwentaRedeemer = "VeKwentaRedeemer"
	ContractTradingRewards   = "TradingRewards"
	ContractMulticall3       = "Multicall3"
)

// Multicall3 is deployed at the same address on every supported chain.
var multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// addressBook maps contract name to per-chain deployment addresses.
var addressBook = map[string]map[uint64]common.Address{
	ContractExchanger: {
		ChainIDEthereum:       common.HexToAddress("0xD64D83829D92B5bdA881f6f61A4e4E27Fc185387"),
		ChainIDGoerli:         common.HexToAddress("0x889d8a97f43809Ef3FBb002B4b7a6A65319B61eD"),
		ChainIDOptimism:       common.HexToAddress("0xC37c47C55d894443493c1e2E615f4F9f4b8fDEa4"),
		ChainIDOptimismGoerli: common.HexToAddress("0x601A1Cf1a34d9cF0020dCCD361c155Fe54CE24fB"),
	},
	ContractSynthUtil: {
		ChainIDEthereum:       common.HexToAddress("0x81Aee4EA48f678E172640fB5813cf7A96AFaF6C3"),
		ChainIDGoerli:         common.HexToAddress("0x492395BA6866EF703DA49667fF92Cb8551e7a2D1"),
		ChainIDOptimism:       common.HexToAddress("0x87b1481c82913301Fc6c884Ac266a7c430F92cFA"),
		ChainIDOptimismGoerli: common.HexToAddress("0xC647DecC9c4f9162dBF77E4367199F5ED0950355"),
	},
	ContractExchangeRates: {
		ChainIDEthereum:       common.HexToAddress("0xb4dc5ced63C2918c89E491D19BF1C0e92845de7C"),
		ChainIDGoerli:         common.HexToAddress("0xea765947303051507033202CAB7D3f5d4961CF5d"),
		ChainIDOptimism:       common.HexToAddress("0x0cA3985f973f044978d2381AFEd9c4D85a762d11"),
		ChainIDOptimismGoerli: common.HexToAddress("0x280E5dFaA78CE685a846830bAe5F2FD21d6A3D89"),
	},
	ContractSystemSettings: {
		ChainIDEthereum:       common.HexToAddress("0x5ad055A1F8C936FB0deb7024f1539Bb3eAA8dc3E"),
		ChainIDGoerli:         common.HexToAddress("0xA1B0898C54124E06aEAa823dC46ad0C306Ca6CD5"),
		ChainIDOptimism:       common.HexToAddress("0x05E1b1Dff853B1D67828Aa5E8CB37cC25aA050eE"),
		ChainIDOptimismGoerli: common.HexToAddress("0xD2cECA6DD62243aB2d342Eb04882c86a10b35274"),
	},
	ContractSystemStatus: {
		ChainIDEthereum:       common.HexToAddress("0x696c905F8F8c006cA46e9808fE7e00049507798F"),
		ChainIDGoerli:         common.HexToAddress("0x31541f35F6Bd061f4A894fB7eEE565f81EE50df3"),
		ChainIDOptimism:       common.HexToAddress("0xE8c41bE1A167314ABAF2423b72Bf8da826943FFD"),
		ChainIDOptimismGoerli: common.HexToAddress("0x9D89fF8C6f3CC22F4BbB859D0F85FB3a4e1FA916"),
	},
	ContractSynthRedeemer: {
		ChainIDEthereum:       common.HexToAddress("0xe533139Af961c9747356D947838c98451015e234"),
		ChainIDGoerli:         common.HexToAddress("0x32A0BAA5Acec418a85Fd032f0292893B8E4f743B"),
		ChainIDOptimism:       common.HexToAddress("0xA997BD647AEe62Ef03b41e6fBFAdaB43d8E57535"),
		ChainIDOptimismGoerli: common.HexToAddress("0x2A8338199D802620B4516a557195a498595d7Eb6"),
	},
	ContractSynthetix: {
		ChainIDEthereum:       common.HexToAddress("0xC011a73ee8576Fb46F5E1c5751cA3B9Fe0af2a6F"),
		ChainIDGoerli:         common.HexToAddress("0x51f44ca59b867E005e48FA573Cb8df83FC7f7597"),
		ChainIDOptimism:       common.HexToAddress("0x8700dAec35aF8Ff88c16BdF0418774CB3D7599B4"),
		ChainIDOptimismGoerli: common.HexToAddress("0x2E5ED97596a8368EB9E44B1f3F25B2E813845303"),
	},
	ContractSynthSwap: {
		ChainIDOptimism: common.HexToAddress("0x6d6273f52b0C8eaB388141393c1e8cfDB3311De6"),
	},
	ContractStakingRewards: {
		ChainIDOptimism:       common.HexToAddress("0x6e56A5D49F775BA08041e28030bc7826b13489e0"),
		ChainIDOptimismGoerli: common.HexToAddress("0x1653a3A3c4cceE0538685F1600a30dF5E3EE830A"),
	},
	ContractRewardEscrow: {
		ChainIDOptimism:       common.HexToAddress("0x1066A8eB3d90Af0Ad3F89839b974658577e75BE2"),
		ChainIDOptimismGoerli: common.HexToAddress("0xaFD87d1a62260bD5714C55a1BB4057bDc8dFA413"),
	},
	ContractSupplySchedule: {
		ChainIDOptimism:       common.HexToAddress("0x3e8b82326Ff5f2f10da8CEa117bD44343ccb9c26"),
		ChainIDOptimismGoerli: common.HexToAddress("0x671423b2E8a99882FD14BbD07e90Ae8B64A0E63A"),
	},
	ContractKwentaToken: {
		ChainIDOptimism:       common.HexToAddress("0x920Cf626a271321C151D027030D5d08aF699456b"),
		ChainIDOptimismGoerli: common.HexToAddress("0xDA0C33402Fc1e10d18c532F0Ed9c1A6c5C9e386C"),
	},
	ContractVKwentaToken: {
		ChainIDOptimism:       common.HexToAddress("0x6789D8a7a7871923Fc6430432A602879eCB6520a"),
		ChainIDOptimismGoerli: common.HexToAddress("0xb897D76bC9F7efB66Fb94970371ef17998c296b6"),
	},
	ContractVKwentaRedeemer: {
		ChainIDOptimism:       common.HexToAddress("0x8132EE584bCD6f8Eb1bea141DB7a7AC1E72917b9"),
		ChainIDOptimismGoerli: common.HexToAddress("0x03c3E61D624F279243e1c8b43eD0fCF6790D10E9"),
	},
	ContractVeKwentaToken: {
		ChainIDOptimism: common.HexToAddress("0x678d8f4Ba8DFE6bad51796351824DCceceAeff2b"),
	},
	ContractVeKwentaRedeemer: {
		ChainIDOptimism: common.HexToAddress("0xc7088AC8F287539567e458C7D08C2a1470Fd25B7"),
	},
	ContractTradingRewards: {
		ChainIDOptimism:       common.HexToAddress("0xf486A72E8c8143ACd9F65A104A16990fDb38be14"),
		ChainIDOptimismGoerli: common.HexToAddress("0x74c0A3bD10634759DC8B4CA7078C8Bf85bFE1271"),
	},
	ContractMulticall3: {
		ChainIDEthereum:       multicall3Address,
		ChainIDGoerli:         multicall3Address,
		ChainIDOptimism:       multicall3Address,
		ChainIDOptimismGoerli: multicall3Address,
	},
}

// AddressFor returns the deployment address of a contract on a chain.
// The second return is false when the contract is not deployed there.
func AddressFor(contract string, chainID uint64) (common.Address, bool) {
	byChain, ok := addressBook[contract]
	if !ok {
		return common.Address{}, false
	}
	addr, ok := byChain[chainID]
	return addr, ok
}

// SupportedChain reports whether the core exchange contracts exist on chainID.
func SupportedChain(chainID uint64) bool {
	_, ok := addressBook[ContractExchanger][chainID]
	return ok
}

// StakingChain reports whether the staking contracts exist on chainID.
func StakingChain(chainID uint64) bool {
	_, ok := addressBook[ContractStakingRewards][chainID]
	return ok
}

// CoinGeckoPlatform returns the CoinGecko asset platform slug for a chain.
func CoinGeckoPlatform(chainID uint64) string {
	switch chainID {
	case ChainIDOptimism, ChainIDOptimismGoerli:
		return "optimistic-ethereum"
	default:
		return "ethereum"
	}
}
