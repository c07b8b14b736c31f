// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package appdata locates the per-user data directory of a bitcoin style daemon.

The daemon writes its RPC authentication cookie into this directory when it
starts, so the directory is resolved with the same per-platform rules the
daemon uses and created on demand.  Resolution walks an ordered list of
candidates and settles on the first one that can be created and written to:

	dir, err := appdata.CookieDir("particl")
*/
package appdata
