// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build unix

package appdata

import (
	"golang.org/x/sys/unix"
)

// checkWritable returns an error when the current user may not create files
// in dir.
func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK)
}
