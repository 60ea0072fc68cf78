package contracts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"vault_client/internal/app/port"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoContractCode is returned when a call yields no data, usually because nothing is deployed at the address.
var ErrNoContractCode = errors.New("empty call result, no contract code at address")

// CallObserver is notified after every contract call.
type CallObserver func(chainID string, err error)

// BoundContract is a read-only contract handle.
type BoundContract struct {
	name     string
	address  common.Address
	abi      *abi.ABI
	reader   port.ChainReader
	timeout  time.Duration
	chainID  uint64
	observer CallObserver
}

// Bind creates a handle for the ABI at address. A zero timeout disables the per-call deadline.
func Bind(name string, address common.Address, parsed *abi.ABI, reader port.ChainReader, chainID uint64, timeout time.Duration, observer CallObserver) *BoundContract {
	return &BoundContract{
		name:     name,
		address:  address,
		abi:      parsed,
		reader:   reader,
		timeout:  timeout,
		chainID:  chainID,
		observer: observer,
	}
}

func (c *BoundContract) Name() string { return c.name }

func (c *BoundContract) Address() string { return c.address.Hex() }

// UnpackError is a call result that does not decode against the method outputs.
// Got and Expected count 32-byte words and are set only when the result has the wrong size.
type UnpackError struct {
	Contract string
	Method   string
	Expected int
	Got      int
	Err      error
}

func (e *UnpackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: failed to unpack result: %v", e.Contract, e.Method, e.Err)
	}
	return fmt.Sprintf("%s.%s: expected %d result words, got %d", e.Contract, e.Method, e.Expected, e.Got)
}

func (e *UnpackError) Unwrap() error { return e.Err }

// Call packs args for method, performs eth_call and unpacks the outputs.
func (c *BoundContract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	output, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return c.unpack(method, output)
}

// CallExact is Call for methods whose outputs are all single-word values.
// The result must carry exactly one word per output; abi.Unpack alone would
// accept and truncate a longer tuple.
func (c *BoundContract) CallExact(ctx context.Context, method string, args ...any) ([]any, error) {
	output, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	expected := len(c.abi.Methods[method].Outputs)
	if len(output)%32 != 0 || len(output)/32 != expected {
		return nil, &UnpackError{Contract: c.name, Method: method, Expected: expected, Got: len(output) / 32}
	}
	return c.unpack(method, output)
}

func (c *BoundContract) call(ctx context.Context, method string, args ...any) ([]byte, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: failed to pack arguments: %w", c.name, method, err)
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	to := c.address
	output, err := c.reader.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err == nil && len(output) == 0 {
		err = ErrNoContractCode
	}
	if c.observer != nil {
		c.observer(strconv.FormatUint(c.chainID, 10), err)
	}
	if err != nil {
		return nil, fmt.Errorf("%s.%s at %s: %w", c.name, method, c.address.Hex(), err)
	}
	return output, nil
}

func (c *BoundContract) unpack(method string, output []byte) ([]any, error) {
	values, err := c.abi.Unpack(method, output)
	if err != nil {
		return nil, &UnpackError{Contract: c.name, Method: method, Err: err}
	}
	return values, nil
}
