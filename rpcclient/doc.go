// Copyright (c) 2014-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package rpcclient implements a JSON-RPC client for a locally running bitcoin
style daemon in HTTP POST mode.

# Authentication

Calls authenticate with HTTP basic auth.  When ConnConfig carries both User and
Pass they are used as is.  Otherwise the client reads the cookie the daemon
writes to its data directory at startup, either from ConnConfig.CookiePath or
from <datadir>/[testnet/].cookie.  The cookie is re-read whenever the file
changes, so a restarted daemon with a fresh cookie is picked up without a new
client.  A missing cookie is logged and the call goes out unauthenticated,
leaving the decision to the daemon.

# Outcomes

Every call ends in exactly one of:

  - a *Reply, when the body is JSON and its error member is missing or null
  - *UnauthorizedError for HTTP 401, the body is not parsed
  - *TimeoutError when the call was aborted by its timeout, its context or a
    connection reset
  - *MalformedResponseError when the body is not JSON
  - *ResponseError when the error member is set
  - the transport error from net/http for anything else

No call is retried.

# Timeouts

Each call is bounded by ConnConfig.Timeout, DefaultTimeout when unset, or a
per-call WithTimeout option.  Per-call options only apply to the call they
were passed to.
*/
package rpcclient
