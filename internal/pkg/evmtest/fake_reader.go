// Package evmtest provides an in-memory chain reader for tests.
package evmtest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrReverted is returned for calls with no registered handler.
var ErrReverted = errors.New("execution reverted")

// CallFunc computes the outputs of a call from its unpacked inputs.
type CallFunc func(args []any) ([]any, error)

type callKey struct {
	to       common.Address
	selector string
}

type handler struct {
	method abi.Method
	fn     CallFunc
	raw    []byte
}

// FakeReader answers eth_call by ABI method, keyed by target address and selector.
type FakeReader struct {
	mu       sync.Mutex
	chainID  *big.Int
	chainErr error
	handlers map[callKey]handler
	calls    map[string]int
}

// NewFakeReader returns a reader reporting chainID.
func NewFakeReader(chainID uint64) *FakeReader {
	return &FakeReader{
		chainID:  new(big.Int).SetUint64(chainID),
		handlers: make(map[callKey]handler),
		calls:    make(map[string]int),
	}
}

// FailChainID makes ChainID return err.
func (f *FakeReader) FailChainID(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chainErr = err
}

// On registers fixed outputs for method on the contract at to.
func (f *FakeReader) On(to string, parsed *abi.ABI, method string, outputs ...any) {
	f.OnFunc(to, parsed, method, func([]any) ([]any, error) { return outputs, nil })
}

// Fail makes method on the contract at to return err.
func (f *FakeReader) Fail(to string, parsed *abi.ABI, method string, err error) {
	f.OnFunc(to, parsed, method, func([]any) ([]any, error) { return nil, err })
}

// OnFunc registers a dynamic handler.
func (f *FakeReader) OnFunc(to string, parsed *abi.ABI, method string, fn CallFunc) {
	f.register(to, parsed, method, handler{fn: fn})
}

// OnRaw makes method on the contract at to return output as is, without ABI packing.
func (f *FakeReader) OnRaw(to string, parsed *abi.ABI, method string, output []byte) {
	f.register(to, parsed, method, handler{raw: output})
}

func (f *FakeReader) register(to string, parsed *abi.ABI, method string, h handler) {
	m, ok := parsed.Methods[method]
	if !ok {
		panic(fmt.Sprintf("evmtest: method %s not in ABI", method))
	}
	h.method = m
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[callKey{to: common.HexToAddress(to), selector: string(m.ID)}] = h
}

// Calls returns how many times method was invoked on any contract.
func (f *FakeReader) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// ChainID implements port.ChainReader.
func (f *FakeReader) ChainID(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return new(big.Int).Set(f.chainID), nil
}

// CallContract implements port.ChainReader.
func (f *FakeReader) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, ErrReverted
	}

	f.mu.Lock()
	h, ok := f.handlers[callKey{to: *msg.To, selector: string(msg.Data[:4])}]
	if ok {
		f.calls[h.method.Name]++
	}
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no handler for %s selector %x", ErrReverted, strings.ToLower(msg.To.Hex()), msg.Data[:4])
	}

	if h.fn == nil {
		return append([]byte(nil), h.raw...), nil
	}
	args, err := h.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("evmtest: unpack %s inputs: %w", h.method.Name, err)
	}
	outputs, err := h.fn(args)
	if err != nil {
		return nil, err
	}
	packed, err := h.method.Outputs.Pack(outputs...)
	if err != nil {
		return nil, fmt.Errorf("evmtest: pack %s outputs: %w", h.method.Name, err)
	}
	return packed, nil
}
