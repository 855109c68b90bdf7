package message

import (
	"encoding/json"
	"fmt"
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// CodeServerError is the start of the implementation-defined range (-32000 to -32099).
	CodeServerError = -32000
)

// Error is a JSON-RPC error object. It is returned as a Go error by every transport
// when the node rejects a call, so callers can inspect the remote code with errors.As.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ErrorCode matches the go-ethereum rpc.Error interface.
func (e *Error) ErrorCode() int {
	return e.Code
}

// ErrorData matches the go-ethereum rpc.DataError interface.
func (e *Error) ErrorData() any {
	if len(e.Data) == 0 {
		return nil
	}
	return e.Data
}

func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func ErrParse(detail string) *Error {
	return NewError(CodeParseError, "parse error: "+detail)
}

func ErrInvalidRequest(detail string) *Error {
	return NewError(CodeInvalidRequest, "invalid request: "+detail)
}

func ErrMethodNotFound(method string) *Error {
	return NewError(CodeMethodNotFound, fmt.Sprintf("the method %s does not exist/is not available", method))
}

func ErrInvalidParams(detail string) *Error {
	return NewError(CodeInvalidParams, "invalid params: "+detail)
}

func ErrInternal(detail string) *Error {
	return NewError(CodeInternalError, "internal error: "+detail)
}
