package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed reports that the tool process ended its output stream before a
// full reply line was produced. Mid-conversation this fails a single tool
// call; during startup it is fatal.
var ErrClosed = errors.New("tool process closed the connection")

// ErrEmptyResult reports a reply that carried neither a result nor an error
// object. Treated as a protocol violation.
var ErrEmptyResult = errors.New("response carried neither result nor error")

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// DecodeError reports a reply whose result did not match the expected shape.
type DecodeError struct {
	Method string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Method, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PermissionError reports a tool call the security policy refused. The call
// never reached the transport.
type PermissionError struct {
	Tool string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("tool %q is blocked by the permission policy", e.Tool)
}

// ToolError reports a failure the tool process returned for one call.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
