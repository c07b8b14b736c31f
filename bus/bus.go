// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoHandler is returned by Dispatch when nothing is registered on
	// the channel.
	ErrNoHandler = errors.New("no handler registered")

	// ErrDuplicateHandler is returned by Handle when the channel already
	// has a handler.
	ErrDuplicateHandler = errors.New("handler already registered")
)

// Result is the single value a handler delivers.  Exactly one of Reply and
// Err is set.
type Result struct {
	Reply json.RawMessage
	Err   error
}

// Handler serves one request arriving on a channel.  The returned channel
// delivers exactly one Result and is then closed.
type Handler func(ctx context.Context, method string,
	params []json.RawMessage) <-chan *Result

// Registrar is the part of a message bus handlers are registered with.
type Registrar interface {
	Handle(channel string, handler Handler) error
	Unhandle(channel string)
}

// Router is an in-process Registrar that dispatches requests to handlers by
// channel name.
type Router struct {
	mtx      sync.RWMutex
	handlers map[string]Handler
}

// Ensure Router satisfies the Registrar interface.
var _ Registrar = (*Router)(nil)

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Handle registers handler for channel.
func (r *Router) Handle(channel string, handler Handler) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.handlers[channel]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, channel)
	}
	r.handlers[channel] = handler
	log.Debugf("Registered handler for channel %s", channel)
	return nil
}

// Unhandle removes the handler for channel, if any.
func (r *Router) Unhandle(channel string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.handlers[channel]; ok {
		delete(r.handlers, channel)
		log.Debugf("Removed handler for channel %s", channel)
	}
}

// Dispatch hands the request to the handler registered for channel.
func (r *Router) Dispatch(ctx context.Context, channel, method string,
	params []json.RawMessage) (<-chan *Result, error) {

	r.mtx.RLock()
	handler, ok := r.handlers[channel]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, channel)
	}

	log.Tracef("Dispatching [%s] on channel %s", method, channel)
	return handler(ctx, method, params), nil
}

// Once returns a channel that delivers result and is then closed.
func Once(result *Result) <-chan *Result {
	c := make(chan *Result, 1)
	c <- result
	close(c)
	return c
}
