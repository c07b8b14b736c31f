// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcjson

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RPCErrorCode represents an error code to be used as a part of an RPCError
// which is in turn used in a JSON-RPC Response object.
//
// A specific type is used to help ensure the wrong errors aren't used.
type RPCErrorCode int

// RPCError represents an error that is used as a part of a JSON-RPC Response
// object.
type RPCError struct {
	Code    RPCErrorCode `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Guarantee RPCError satisfies the builtin error interface.
var _, _ error = RPCError{}, (*RPCError)(nil)

// Error returns a string describing the RPC error.  This satisfies the
// builtin error interface.
func (e RPCError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// NewRPCError constructs and returns a new JSON-RPC error that is suitable
// for use in a JSON-RPC Response object.
func NewRPCError(code RPCErrorCode, message string) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
	}
}

// Request is the body posted to the daemon.  Params marshals as null when it
// is nil, which the daemon treats the same as an empty list.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// NewRequest returns a new request for method.  Each parameter is marshalled
// into a json.RawMessage for the Params field.  A nil params slice is kept nil.
func NewRequest(method string, params []interface{}) (*Request, error) {
	if params == nil {
		return &Request{Method: method}, nil
	}

	rawParams := make([]json.RawMessage, 0, len(params))
	for _, param := range params {
		marshalledParam, err := json.Marshal(param)
		if err != nil {
			return nil, err
		}
		rawParams = append(rawParams, json.RawMessage(marshalledParam))
	}

	return &Request{
		Method: method,
		Params: rawParams,
	}, nil
}

// Response is the general form of a JSON-RPC response.  The error member is
// kept raw since daemons do not agree on its shape; RPCError decodes the
// common {code, message} form.
type Response struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
	ID     json.RawMessage `json:"id,omitempty"`
}

// HasError returns whether the response carries an error member that is
// present and not null.
func (r *Response) HasError() bool {
	e := bytes.TrimSpace(r.Error)
	return len(e) != 0 && !bytes.Equal(e, []byte("null"))
}

// RPCError decodes the error member as an RPCError.  The second return value
// is false when the response has no error or it has another shape.
func (r *Response) RPCError() (*RPCError, bool) {
	if !r.HasError() {
		return nil, false
	}

	var rpcErr RPCError
	if err := json.Unmarshal(r.Error, &rpcErr); err != nil {
		return nil, false
	}
	return &rpcErr, true
}
