// Package multicall batches contract reads through the Multicall3 contract.
package multicall

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pgrimaud/kwenta/internal/apperror"
)

// Multicall3 is deployed at the same address on every supported chain.
var ContractAddress = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

const multicall3ABI = `[{
	"name": "aggregate3",
	"type": "function",
	"stateMutability": "payable",
	"inputs": [{
		"name": "calls",
		"type": "tuple[]",
		"components": [
			{"name": "target", "type": "address"},
			{"name": "allowFailure", "type": "bool"},
			{"name": "callData", "type": "bytes"}
		]
	}],
	"outputs": [{
		"name": "returnData",
		"type": "tuple[]",
		"components": [
			{"name": "success", "type": "bool"},
			{"name": "returnData", "type": "bytes"}
		]
	}]
}]`

// ContractCaller is the subset of the ethereum client used for reads.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Call is a single read in an aggregate batch. The calldata is packed and
// validated at construction so a malformed descriptor fails before any
// network round trip.
type Call struct {
	target       common.Address
	contractABI  *abi.ABI
	method       string
	callData     []byte
	allowFailure bool
}

// NewCall packs a call descriptor for target.method(args...).
func NewCall(target common.Address, contractABI *abi.ABI, method string, args ...interface{}) (Call, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return Call{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage(fmt.Sprintf("failed to pack %s call", method)),
			apperror.WithCause(err))
	}

	return Call{
		target:      target,
		contractABI: contractABI,
		method:      method,
		callData:    data,
	}, nil
}

// MustNewCall is NewCall that panics on packing errors. Use only with
// static arguments known at compile time.
func MustNewCall(target common.Address, contractABI *abi.ABI, method string, args ...interface{}) Call {
	c, err := NewCall(target, contractABI, method, args...)
	if err != nil {
		panic(err)
	}
	return c
}

// AllowFailure marks the call as non-fatal: a revert yields an unsuccessful
// result instead of failing the whole batch.
func (c Call) AllowFailure() Call {
	c.allowFailure = true
	return c
}

// Target returns the call's target contract.
func (c Call) Target() common.Address {
	return c.target
}

// Method returns the call's method name.
func (c Call) Method() string {
	return c.method
}

// Unpack decodes return data according to the call's method signature.
func (c Call) Unpack(data []byte) ([]interface{}, error) {
	out, err := c.contractABI.Unpack(c.method, data)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithMessage(fmt.Sprintf("failed to unpack %s result", c.method)),
			apperror.WithCause(err))
	}
	return out, nil
}

// Result is the outcome of one call in a batch.
type Result struct {
	Success    bool
	ReturnData []byte
}

type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type result3 struct {
	Success    bool
	ReturnData []byte
}

// Caller executes batches against Multicall3.
type Caller struct {
	client  ContractCaller
	address common.Address
	mcABI   abi.ABI
}

// NewCaller creates a Caller bound to the canonical Multicall3 deployment.
func NewCaller(client ContractCaller) (*Caller, error) {
	parsed, err := abi.JSON(strings.NewReader(multicall3ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse multicall3 ABI: %w", err)
	}

	return &Caller{
		client:  client,
		address: ContractAddress,
		mcABI:   parsed,
	}, nil
}

// Aggregate executes the calls in a single eth_call. Calls marked with
// AllowFailure may revert individually; all others revert the whole batch.
// Results are returned in call order.
func (c *Caller) Aggregate(ctx context.Context, calls []Call) ([]Result, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	packed := make([]call3, len(calls))
	for i, call := range calls {
		packed[i] = call3{
			Target:       call.target,
			AllowFailure: call.allowFailure,
			CallData:     call.callData,
		}
	}

	input, err := c.mcABI.Pack("aggregate3", packed)
	if err != nil {
		return nil, apperror.New(apperror.CodeMulticallFailed,
			apperror.WithMessage("failed to pack aggregate3 input"),
			apperror.WithCause(err))
	}

	ret, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: input,
	}, nil)
	if err != nil {
		return nil, apperror.External(apperror.CodeMulticallFailed, "multicall3", err)
	}

	out, err := c.mcABI.Unpack("aggregate3", ret)
	if err != nil {
		return nil, apperror.New(apperror.CodeMulticallFailed,
			apperror.WithMessage("failed to unpack aggregate3 output"),
			apperror.WithCause(err))
	}

	raw := *abi.ConvertType(out[0], new([]result3)).(*[]result3)
	if len(raw) != len(calls) {
		return nil, apperror.New(apperror.CodeMulticallFailed,
			apperror.WithMessage(fmt.Sprintf("multicall returned %d results for %d calls", len(raw), len(calls))))
	}

	results := make([]Result, len(raw))
	for i, r := range raw {
		results[i] = Result{Success: r.Success, ReturnData: r.ReturnData}
	}
	return results, nil
}
