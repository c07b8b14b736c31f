// Copyright (c) 2017 The Namecoin developers
// Copyright (c) 2019 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"os"
	"strings"
	"sync"
	"time"
)

// readCookieFile returns the trimmed contents of the cookie file at path.
func readCookieFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

// cookieRetriever returns the credential stored in a cookie file.  The daemon
// rewrites the file each time it starts, so the file is read again whenever
// its modification time or size changes.
type cookieRetriever struct {
	mtx sync.Mutex

	path    string
	modTime time.Time
	size    int64

	credential string
	err        error
}

func newCookieRetriever(path string) *cookieRetriever {
	return &cookieRetriever{path: path}
}

func (r *cookieRetriever) retrieve() (string, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	st, err := os.Stat(r.path)
	if err != nil {
		r.modTime, r.size = time.Time{}, 0
		r.credential, r.err = "", err
		return "", err
	}

	if !st.ModTime().Equal(r.modTime) || st.Size() != r.size {
		r.modTime, r.size = st.ModTime(), st.Size()
		r.credential, r.err = readCookieFile(r.path)
		if r.err == nil {
			log.Debugf("Loaded RPC cookie from %s", r.path)
		}
	}

	return r.credential, r.err
}
