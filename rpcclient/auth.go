// Copyright (c) 2019 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/btcsuite/rpcbridge/appdata"
)

const (
	// DefaultAppName is the daemon name used to find its data directory
	// when ConnConfig.AppName is empty.
	DefaultAppName = "Particl"

	cookieFileName = ".cookie"
	testNetDirName = "testnet"
)

// cookiePath returns the location of the cookie file for the configuration,
// creating the data directory when it does not exist yet.
func (c *ConnConfig) cookiePath() (string, error) {
	if c.CookiePath != "" {
		return c.CookiePath, nil
	}

	dir := c.DataDir
	if dir == "" {
		appName := c.AppName
		if appName == "" {
			appName = DefaultAppName
		}

		var err error
		dir, err = appdata.CookieDir(appName)
		if err != nil {
			return "", err
		}
	}

	if c.TestNet {
		dir = filepath.Join(dir, testNetDirName)
	}
	return filepath.Join(dir, cookieFileName), nil
}

// cookieCache keeps one retriever for the cookie path last used so repeated
// calls only stat the file.
type cookieCache struct {
	mtx       sync.Mutex
	retriever *cookieRetriever
}

func (cc *cookieCache) get(path string) *cookieRetriever {
	cc.mtx.Lock()
	defer cc.mtx.Unlock()

	if cc.retriever == nil || cc.retriever.path != path {
		cc.retriever = newCookieRetriever(path)
	}
	return cc.retriever
}

// Credential returns the credential for the next call.  A configured user and
// password take precedence and never touch the filesystem.  Otherwise the
// cookie written by the daemon is used.  A missing cookie file is logged and
// yields an empty credential, leaving it to the daemon to reject the call.
func (c *Client) Credential() (string, error) {
	return credential(c.config, c.cookies)
}

// Credential resolves the credential for config without a client.
func Credential(config *ConnConfig) (string, error) {
	return credential(config, &cookieCache{})
}

func credential(config *ConnConfig, cookies *cookieCache) (string, error) {
	if config.User != "" && config.Pass != "" {
		return config.User + ":" + config.Pass, nil
	}

	path, err := config.cookiePath()
	if err != nil {
		return "", err
	}

	cred, err := cookies.get(path).retrieve()
	if errors.Is(err, fs.ErrNotExist) {
		log.Errorf("Cookie file %s does not exist", path)
		return "", nil
	}
	return cred, err
}
