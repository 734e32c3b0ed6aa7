// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package massa

import (
	"encoding/json"
	"fmt"
)

const DefaultReadOnlyMaxGas = 4_294_167_295

type Slot struct {
	Period uint64 `json:"period"`
	Thread uint8  `json:"thread"`
}

type EventContext struct {
	Slot              Slot     `json:"slot"`
	Block             *string  `json:"block"`
	ReadOnly          bool     `json:"read_only"`
	IndexInSlot       uint64   `json:"index_in_slot"`
	CallStack         []string `json:"call_stack"`
	OriginOperationID *string  `json:"origin_operation_id"`
	IsFinal           bool     `json:"is_final"`
	IsError           bool     `json:"is_error"`
}

// Event is one entry of a contract's output event log
type Event struct {
	Context EventContext `json:"context"`
	Data    string       `json:"data"`
}

// Before orders events by emission position
func (e Event) Before(o Event) bool {
	a, b := e.Context, o.Context
	if a.Slot.Period != b.Slot.Period {
		return a.Slot.Period < b.Slot.Period
	}
	if a.Slot.Thread != b.Slot.Thread {
		return a.Slot.Thread < b.Slot.Thread
	}
	return a.IndexInSlot < b.IndexInSlot
}

type NodeStatus struct {
	NodeID  string `json:"node_id"`
	Version string `json:"version"`
	ChainID uint64 `json:"chain_id"`
}

type eventFilter struct {
	Start                 *Slot   `json:"start"`
	End                   *Slot   `json:"end"`
	EmitterAddress        string  `json:"emitter_address,omitempty"`
	OriginalCallerAddress *string `json:"original_caller_address"`
	OriginalOperationID   *string `json:"original_operation_id"`
	IsFinal               *bool   `json:"is_final"`
}

// ReadOnlyCall describes an execute_read_only_call request
type ReadOnlyCall struct {
	MaxGas         uint64  `json:"max_gas"`
	TargetAddress  string  `json:"target_address"`
	TargetFunction string  `json:"target_function"`
	Parameter      []byte  `json:"-"`
	CallerAddress  *string `json:"caller_address"`
	Coins          *string `json:"coins"`
	Fee            *string `json:"fee"`
}

// MarshalJSON encodes Parameter as a JSON array of numbers, as the node
// expects, instead of base64.
func (c ReadOnlyCall) MarshalJSON() ([]byte, error) {
	type alias ReadOnlyCall
	param := make([]int, len(c.Parameter))
	for i, b := range c.Parameter {
		param[i] = int(b)
	}
	return json.Marshal(struct {
		alias
		Parameter []int `json:"parameter"`
	}{alias(c), param})
}

type ReadOnlyOutcome struct {
	Ok    []byte `json:"-"`
	Error string `json:"Error,omitempty"`
}

func (o *ReadOnlyOutcome) UnmarshalJSON(data []byte) error {
	var raw struct {
		Ok    []int  `json:"Ok"`
		Error string `json:"Error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Error = raw.Error
	if raw.Ok != nil {
		o.Ok = make([]byte, len(raw.Ok))
		for i, v := range raw.Ok {
			o.Ok[i] = byte(v)
		}
	}
	return nil
}

type ReadOnlyResult struct {
	ExecutedAt   Slot            `json:"executed_at"`
	Result       ReadOnlyOutcome `json:"result"`
	OutputEvents []Event         `json:"output_events"`
	GasCost      uint64          `json:"gas_cost"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is a JSON-RPC level error returned by the node
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// CallError is a contract-level failure of a read-only call
type CallError struct {
	Function string
	Message  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Function, e.Message)
}
