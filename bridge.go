// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcbridge

import (
	"github.com/btcsuite/rpcbridge/bus"
	"github.com/btcsuite/rpcbridge/internal/config"
	"github.com/btcsuite/rpcbridge/internal/log"
	"github.com/btcsuite/rpcbridge/nodectl"
	"github.com/btcsuite/rpcbridge/rpcclient"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrShowVersion is returned by New when the version flag was given.
var ErrShowVersion = config.ErrShowVersion

// Options carries the optional collaborators of a bridge.
type Options struct {
	// Registrar is the message bus the client is exposed on.  The bridge
	// is not registered when it is nil.
	Registrar bus.Registrar

	// Metrics receives the RPC call collectors when set.
	Metrics prometheus.Registerer
}

// Bridge is a configured RPC client and the controller supervising the daemon
// through it.
type Bridge struct {
	*nodectl.Controller

	Client *rpcclient.Client
}

// New loads the configuration from args, connects the RPC client and, when a
// registrar is given, exposes the client on the bus.
func New(args []string, opts Options) (*Bridge, error) {
	cfg, _, err := config.Load(args)
	if err != nil {
		return nil, err
	}

	connCfg, err := cfg.ConnConfig()
	if err != nil {
		return nil, err
	}

	client, err := rpcclient.New(connCfg)
	if err != nil {
		return nil, err
	}

	if opts.Metrics != nil {
		if err := rpcclient.RegisterMetrics(opts.Metrics); err != nil {
			return nil, err
		}
	}

	ctrl := nodectl.New(client, opts.Registrar)
	if opts.Registrar != nil {
		if err := ctrl.Register(); err != nil {
			return nil, err
		}
	}

	log.RpccLog.Infof("RPC bridge for %s ready", connCfg.Host)

	return &Bridge{
		Controller: ctrl,
		Client:     client,
	}, nil
}

// Close unregisters the bridge from the bus and flushes the log file.
func (b *Bridge) Close() error {
	b.Unregister()

	if log.LogRotator != nil {
		return log.LogRotator.Close()
	}
	return nil
}
