package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/btcsuite/rpcbridge/btcjson"
	"github.com/stretchr/testify/require"
)

// TestMatchErrStr checks that `matchErrStr` can correctly replace the dashes
// with spaces and turn title cases into lowercases for a given error and match
// it against the specified string pattern.
func TestMatchErrStr(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		daemonErr error
		matchStr  string
		matched   bool
	}{
		{
			name:      "error without dashes",
			daemonErr: errors.New("connection reset by peer"),
			matchStr:  "connection reset",
			matched:   true,
		},
		{
			name:      "error with dashes",
			daemonErr: errors.New("loading-block-index"),
			matchStr:  "loading block index",
			matched:   true,
		},
		{
			name:      "match str with dashes",
			daemonErr: errors.New("loading block index"),
			matchStr:  "loading-block-index",
			matched:   true,
		},
		{
			name:      "error with title case and dash",
			daemonErr: errors.New("Loading-Block-Index"),
			matchStr:  "loading block index",
			matched:   true,
		},
		{
			name:      "unmatched error",
			daemonErr: errors.New("loading block index"),
			matchStr:  "loadingblockindex",
			matched:   false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			matched := matchErrStr(tc.daemonErr, tc.matchStr)
			require.Equal(t, tc.matched, matched)
		})
	}
}

// TestClassifyTransportError ensures aborted and reset connections are
// reported as timeouts while other transport errors pass through untouched.
func TestClassifyTransportError(t *testing.T) {
	t.Parallel()

	urlErr := func(err error) error {
		return &url.Error{Op: "Post", URL: "http://127.0.0.1:8332/", Err: err}
	}
	opErr := func(errno syscall.Errno) error {
		return &net.OpError{
			Op:  "read",
			Net: "tcp",
			Err: os.NewSyscallError("read", errno),
		}
	}

	testCases := []struct {
		name    string
		err     error
		timeout bool
	}{
		{
			name:    "deadline exceeded",
			err:     urlErr(context.DeadlineExceeded),
			timeout: true,
		},
		{
			name:    "canceled",
			err:     urlErr(context.Canceled),
			timeout: true,
		},
		{
			name:    "connection reset",
			err:     urlErr(opErr(syscall.ECONNRESET)),
			timeout: true,
		},
		{
			name:    "connection aborted",
			err:     urlErr(opErr(syscall.ECONNABORTED)),
			timeout: true,
		},
		{
			name:    "reset reported as text",
			err:     fmt.Errorf("read tcp: connection reset by peer"),
			timeout: true,
		},
		{
			name: "connection refused",
			err:  urlErr(opErr(syscall.ECONNREFUSED)),
		},
		{
			name:    "closed before reply",
			err:     urlErr(io.EOF),
			timeout: true,
		},
		{
			name:    "unexpected eof",
			err:     urlErr(io.ErrUnexpectedEOF),
			timeout: true,
		},
		{
			name: "no such host",
			err:  urlErr(&net.DNSError{Err: "no such host", Name: "nodaemon"}),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := classifyTransportError(tc.err)
			if !tc.timeout {
				require.Same(t, tc.err, err)
				return
			}

			var timeoutErr *TimeoutError
			require.ErrorAs(t, err, &timeoutErr)
			require.Equal(t, 0, timeoutErr.Status)
			require.Equal(t, "Timeout", timeoutErr.Message)
			require.ErrorIs(t, err, ErrTimeout)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

// TestOutcome checks the metric label derived from each error class.
func TestOutcome(t *testing.T) {
	t.Parallel()

	respErr := &ResponseError{
		Reply:  &Reply{},
		RPCErr: btcjson.NewRPCError(btcjson.ErrRPCMisc, "boom"),
	}

	require.Equal(t, "success", outcome(nil))
	require.Equal(t, "unauthorized", outcome(&UnauthorizedError{Status: 401}))
	require.Equal(t, "timeout", outcome(newTimeoutError(context.Canceled)))
	require.Equal(t, "rpc_error", outcome(respErr))
	require.Equal(t, "malformed", outcome(&MalformedResponseError{}))
	require.Equal(t, "transport", outcome(errors.New("dial tcp: refused")))

	var rpcErr *btcjson.RPCError
	require.ErrorAs(t, respErr, &rpcErr)
	require.Equal(t, "-1: boom", respErr.Error())
}
