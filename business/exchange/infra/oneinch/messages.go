package oneinch

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// tokenInfo is one entry of the aggregator token list.
type tokenInfo struct {
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
	Address  common.Address `json:"address"`
	LogoURI  string         `json:"logoURI"`
}

// tokensResponse is the /tokens payload, keyed by lowercase address.
type tokensResponse struct {
	Tokens map[string]tokenInfo `json:"tokens"`
}

// quoteResponse is the /quote payload. Amounts are raw integer strings in
// the token's lowest denomination; toToken echoes destination metadata.
type quoteResponse struct {
	FromTokenAmount string    `json:"fromTokenAmount"`
	ToTokenAmount   string    `json:"toTokenAmount"`
	ToToken         tokenInfo `json:"toToken"`
	EstimatedGas    uint64    `json:"estimatedGas"`
}

// spenderResponse is the /approve/spender payload.
type spenderResponse struct {
	Address common.Address `json:"address"`
}

// swapResponse is the /swap payload carrying a ready-to-send transaction.
type swapResponse struct {
	ToTokenAmount string `json:"toTokenAmount"`
	Tx            swapTx `json:"tx"`
}

type swapTx struct {
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	Data     hexutil.Bytes  `json:"data"`
	Value    string         `json:"value"`
	GasPrice string         `json:"gasPrice"`
	Gas      uint64         `json:"gas"`
}

// apiError is the error envelope the API returns on 4xx.
type apiError struct {
	StatusCode  int    `json:"statusCode"`
	ErrorName   string `json:"error"`
	Description string `json:"description"`
}
