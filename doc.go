// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package rpcbridge connects an application to a locally running daemon over
its JSON-RPC interface.

New reads the go-flags style command line and optional ini config file,
builds an rpcclient.Client and wraps it in a nodectl.Controller.  The
controller answers whether the daemon is running, asks it to stop, and serves
RPC calls arriving on the application's message bus:

	router := bus.NewRouter()
	b, err := rpcbridge.New(os.Args[1:], rpcbridge.Options{Registrar: router})
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.CheckRunning(ctx); err != nil {
		// Not running, or not answering within 200ms.
	}

Credentials come from --rpcuser and --rpcpassword when both are set, and
from the daemon's cookie file otherwise.
*/
package rpcbridge
