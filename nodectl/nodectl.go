package nodectl

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/btcsuite/rpcbridge/btcjson"
	"github.com/btcsuite/rpcbridge/bus"
	"github.com/btcsuite/rpcbridge/rpcclient"
	"golang.org/x/sync/singleflight"
)

const (
	// ChannelName is the bus channel RPC calls are served on.
	ChannelName = "rpc-call"

	// LivenessTimeout bounds the getnetworkinfo call made by CheckRunning.
	LivenessTimeout = 200 * time.Millisecond
)

// Controller supervises a daemon over its RPC interface and exposes the
// client on a message bus.
type Controller struct {
	client *rpcclient.Client
	bus    bus.Registrar

	probes singleflight.Group
}

// New returns a controller for the daemon client talks to.  registrar may be
// nil when the client is not exposed on a bus.
func New(client *rpcclient.Client, registrar bus.Registrar) *Controller {
	return &Controller{
		client: client,
		bus:    registrar,
	}
}

// Register exposes the RPC client on ChannelName.  Every request resolves a
// fresh credential, so a cookie rotated by a daemon restart is used by the
// next request.
func (c *Controller) Register() error {
	if c.bus == nil {
		return errors.New("no bus to register with")
	}
	return c.bus.Handle(ChannelName, c.handleCall)
}

// Unregister removes the handler installed by Register.
func (c *Controller) Unregister() {
	if c.bus != nil {
		c.bus.Unhandle(ChannelName)
	}
}

// handleCall serves one bus request.  The returned channel delivers the reply
// body or the call's error and is closed afterwards.
func (c *Controller) handleCall(ctx context.Context, method string,
	params []json.RawMessage) <-chan *bus.Result {

	if err := ctx.Err(); err != nil {
		return bus.Once(&bus.Result{Err: err})
	}

	results := make(chan *bus.Result, 1)
	go func() {
		defer close(results)

		// No credential option, the client resolves a fresh one.
		reply, err := c.client.Call(ctx, method, params)
		if err != nil {
			log.Debugf("Bus call [%s] failed: %v", method, err)
			results <- &bus.Result{Err: err}
			return
		}
		results <- &bus.Result{Reply: reply.Raw}
	}()

	return results
}

// CheckRunning returns nil when the daemon answers getnetworkinfo without an
// error within LivenessTimeout.  The bus handler is unregistered whatever the
// outcome.  Concurrent checks share a single call, which ignores the
// cancellation of any one caller; each caller still stops waiting when its
// own ctx is done.
func (c *Controller) CheckRunning(ctx context.Context) error {
	defer c.Unregister()

	probeCtx := context.WithoutCancel(ctx)
	results := c.probes.DoChan("getnetworkinfo", func() (interface{}, error) {
		return c.client.Call(probeCtx, "getnetworkinfo", nil,
			rpcclient.WithTimeout(LivenessTimeout))
	})

	var err error
	select {
	case res := <-results:
		if res.Shared {
			log.Tracef("Liveness probe shared with a concurrent caller")
		}
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		log.Debugf("Daemon is not running: %v", err)
		return err
	}

	log.Debugf("Daemon is running")
	return nil
}

// Stop asks the daemon to shut down.  It returns once the daemon accepted the
// request, not once the process has exited.
func (c *Controller) Stop(ctx context.Context) error {
	_, err := c.client.Call(ctx, "stop", nil)
	if err != nil {
		log.Warnf("Unable to stop daemon: %v", err)
		return err
	}

	log.Infof("Daemon is stopping")
	return nil
}

// WaitForRPC polls CheckRunning every interval until the daemon answers or
// ctx is done.  It returns the last probe error when ctx ends first.
func (c *Controller) WaitForRPC(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := c.CheckRunning(ctx)
		if err == nil {
			return nil
		}

		var rpcErr *btcjson.RPCError
		if errors.As(err, &rpcErr) && btcjson.IsWarmup(rpcErr) {
			log.Infof("Daemon is warming up: %s", rpcErr.Message)
		}

		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), err)
		case <-ticker.C:
		}
	}
}
