// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcjson

// Standard JSON-RPC 2.0 errors.
var (
	ErrRPCInvalidRequest = &RPCError{
		Code:    -32600,
		Message: "Invalid request",
	}
	ErrRPCMethodNotFound = &RPCError{
		Code:    -32601,
		Message: "Method not found",
	}
	ErrRPCInvalidParams = &RPCError{
		Code:    -32602,
		Message: "Invalid parameters",
	}
	ErrRPCInternal = &RPCError{
		Code:    -32603,
		Message: "Internal error",
	}
	ErrRPCParse = &RPCError{
		Code:    -32700,
		Message: "Parse error",
	}
)

// Daemon status errors a supervisor is likely to see while the daemon is
// starting up or shutting down.
const (
	// ErrRPCMisc indicates an exception thrown during command handling.
	ErrRPCMisc RPCErrorCode = -1

	// ErrRPCInWarmup indicates that the daemon is still warming up and does
	// not serve requests yet.
	ErrRPCInWarmup RPCErrorCode = -28

	// ErrRPCClientNotConnected indicates that the daemon has no peers.
	ErrRPCClientNotConnected RPCErrorCode = -9

	// ErrRPCClientInInitialDownload indicates that the daemon is still
	// downloading initial blocks.
	ErrRPCClientInInitialDownload RPCErrorCode = -10
)

// IsWarmup returns whether err is the daemon reporting that it has not
// finished starting.
func IsWarmup(err *RPCError) bool {
	return err != nil && err.Code == ErrRPCInWarmup
}
