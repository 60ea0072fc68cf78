package entity

import (
	"errors"
	"fmt"
)

// ErrMissingArgument is returned before any I/O when a required argument is empty.
var ErrMissingArgument = errors.New("missing required argument")

// ErrInvalidArgument is returned before any I/O when an argument is present but out of range.
var ErrInvalidArgument = errors.New("invalid argument")

// NotFoundError indicates that a named item (contract, strategy, group) is not registered.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// NoDeploymentError indicates that a known contract has no address on the resolved chain.
type NoDeploymentError struct {
	Contract string
	ChainID  uint64
}

func (e *NoDeploymentError) Error() string {
	return fmt.Sprintf("contract %s is not deployed on chain %d", e.Contract, e.ChainID)
}

// InvalidProviderError indicates that the supplied chain reader cannot resolve its network.
type InvalidProviderError struct {
	Reason string
	Err    error
}

func (e *InvalidProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid provider: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid provider: %s", e.Reason)
}

func (e *InvalidProviderError) Unwrap() error {
	return e.Err
}

// SchemaInvalidError indicates an incomplete or inconsistent strategy schema.
type SchemaInvalidError struct {
	StrategyID string
	Field      string
	Reason     string
}

func (e *SchemaInvalidError) Error() string {
	return fmt.Sprintf("strategy %s: invalid schema field %q: %s", e.StrategyID, e.Field, e.Reason)
}

// ArityError is a mismatch between an on-chain parameter tuple and the strategy layout.
type ArityError struct {
	StrategyID string
	Expected   int
	Got        int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("strategy %s: expected %d parameters, got %d", e.StrategyID, e.Expected, e.Got)
}

// TypeError is a slot whose runtime kind does not match the strategy layout.
type TypeError struct {
	StrategyID string
	Field      string
	Slot       int
	Expected   string
	Got        any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("strategy %s: slot %d (%s) expected %s, got %T", e.StrategyID, e.Slot, e.Field, e.Expected, e.Got)
}

// StageError wraps a pipeline failure with the stage and vault it occurred in.
type StageError struct {
	Stage string
	Vault string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed for vault %s: %v", e.Stage, e.Vault, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
