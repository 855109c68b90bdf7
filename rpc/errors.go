package rpc

import (
	"errors"
	"fmt"
	"web3-rpc/codec"
	"web3-rpc/message"
)

// TransportError means the call produced no usable payload: the node was
// unreachable, the connection dropped, the call timed out or was cancelled, or the
// node answered with a JSON-RPC error object.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code returns the remote JSON-RPC error code when the node rejected the call.
func (e *TransportError) Code() (int, bool) {
	var rpcErr *message.Error
	if errors.As(e.Err, &rpcErr) {
		return rpcErr.Code, true
	}
	return 0, false
}

// DecodeError means the node answered, but the payload does not have the shape of
// the expected result.
type DecodeError struct {
	Method string
	Path   string // Offending member when known, empty otherwise
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode result: %v", e.Method, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func newDecodeError(method string, err error) *DecodeError {
	d := &DecodeError{Method: method, Err: err}
	var pathErr *codec.PathError
	if errors.As(err, &pathErr) {
		d.Path = pathErr.Path
	}
	return d
}

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsDecodeError reports whether err is, or wraps, a *DecodeError.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}
