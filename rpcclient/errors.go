package rpcclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/rpcbridge/btcjson"
)

var (
	// ErrUnauthorized is matched by errors.Is for every call the daemon
	// rejected with HTTP 401.
	ErrUnauthorized = errors.New("authentication failure")

	// ErrTimeout is matched by errors.Is for calls that were aborted,
	// either because the per-call timeout expired or because the
	// connection was reset.
	ErrTimeout = errors.New("timeout")

	// ErrInvalidParam is returned when the caller provides an invalid
	// parameter to an RPC method.
	ErrInvalidParam = errors.New("invalid param")
)

// UnauthorizedError is returned when the daemon answers with HTTP 401.  The
// body of such a reply is never parsed.
type UnauthorizedError struct {
	Status int
}

// Error satisfies the error interface.
func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("status code: %d, %v", e.Status, ErrUnauthorized)
}

// Is allows errors.Is(err, ErrUnauthorized).
func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// TimeoutError is returned for calls that were aborted before a reply
// arrived.  Status is always 0 and Message is always "Timeout".
type TimeoutError struct {
	Status  int
	Message string

	// Err is the transport error the timeout was derived from.
	Err error
}

func newTimeoutError(err error) *TimeoutError {
	return &TimeoutError{Status: 0, Message: "Timeout", Err: err}
}

// Error satisfies the error interface.
func (e *TimeoutError) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrTimeout).
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// MalformedResponseError is returned when the reply body is not valid JSON.
type MalformedResponseError struct {
	Data []byte
	Err  error
}

// Error satisfies the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

// Unwrap returns the JSON decoding error.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ResponseError is returned when the daemon replied with a JSON body whose
// error member is not null.  Reply holds the entire parsed body.
type ResponseError struct {
	Reply *Reply

	// RPCErr is the decoded error member when it has the usual
	// {code, message} shape, nil otherwise.
	RPCErr *btcjson.RPCError
}

// Error satisfies the error interface.
func (e *ResponseError) Error() string {
	if e.RPCErr != nil {
		return e.RPCErr.Error()
	}
	return fmt.Sprintf("rpc error: %s", e.Reply.Error)
}

// Unwrap returns the decoded RPC error, if any, so callers can use errors.As
// with *btcjson.RPCError.
func (e *ResponseError) Unwrap() error {
	if e.RPCErr == nil {
		return nil
	}
	return e.RPCErr
}

// outcome returns the label an error is counted under.
func outcome(err error) string {
	var (
		respErr      *ResponseError
		malformedErr *MalformedResponseError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &respErr):
		return "rpc_error"
	case errors.As(err, &malformedErr):
		return "malformed"
	default:
		return "transport"
	}
}

// matchErrStr takes an error returned from the daemon and matches it
// against the specified string.  Dashes are replaced with spaces and the
// comparison is case insensitive, so "Loading-Block-Index" matches "loading
// block index".
func matchErrStr(err error, s string) bool {
	errStr := strings.ReplaceAll(strings.ToLower(err.Error()), "-", " ")
	s = strings.ReplaceAll(strings.ToLower(s), "-", " ")
	return strings.Contains(errStr, s)
}
