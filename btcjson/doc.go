// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package btcjson provides the JSON-RPC envelope exchanged with a bitcoin style
daemon.

Requests are posted as

	{"method":"SOMEMETHOD","params":SOMEPARAMS}

where params is a list or null.  Replies have the form

	{"result":SOMETHING,"error":null,"id":SOMEID}

A reply is successful when its error member is missing or null.  When it is
not, the member usually is an object with a code and a message which can be
decoded with Response.RPCError.
*/
package btcjson
