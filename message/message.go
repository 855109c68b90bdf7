// Package message defines the JSON-RPC 2.0 envelopes exchanged between client and node.
//
// A Request carries the method name and the positional parameters as raw JSON values.
// A Response carries either the raw result or an error object; the id ties the two
// together so that several calls can share one connection.
package message

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Version is the only protocol version spoken on the wire.
const Version = "2.0"

// ErrNoResult is reported when a response carries neither a result nor an error.
var ErrNoResult = errors.New("jsonrpc response has no result")

// Request is a single JSON-RPC call.
//
//   - ID is absent for notifications, which never get a response.
//   - Params is always encoded as an array, empty when the method takes no arguments.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id,omitempty"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// Response is the reply to a Request with the same ID.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewRequest builds a call envelope with a numeric id.
func NewRequest(id uint64, method string, params []json.RawMessage) *Request {
	if params == nil {
		params = []json.RawMessage{}
	}
	return &Request{
		JSONRPC: Version,
		ID:      EncodeID(id),
		Method:  method,
		Params:  params,
	}
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// NewResult builds a successful response. A nil result is sent as JSON null.
func NewResult(id json.RawMessage, result json.RawMessage) *Response {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds a failed response.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return &Response{JSONRPC: Version, ID: id, Error: err}
}

// Outcome splits a response into its payload or its failure.
func (r *Response) Outcome() (json.RawMessage, error) {
	if r.Error != nil {
		return nil, r.Error
	}
	if len(r.Result) == 0 {
		return nil, ErrNoResult
	}
	return r.Result, nil
}

// EncodeID renders a numeric request id.
func EncodeID(id uint64) json.RawMessage {
	return json.RawMessage(strconv.FormatUint(id, 10))
}

// DecodeID parses a numeric request id. Ids issued by other clients may be strings
// or fractional numbers; those are reported as not ok.
func DecodeID(raw json.RawMessage) (uint64, bool) {
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
