// Copyright (c) 2014-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/btcsuite/go-socks/socks"
	"github.com/btcsuite/rpcbridge/btcjson"
	"github.com/btcsuite/rpcbridge/internal/version"
	"github.com/davecgh/go-spew/spew"
)

const (
	// DefaultTimeout is how long a call waits for the daemon's reply when
	// neither the connection config nor the call set a timeout.
	DefaultTimeout = 5 * time.Second
)

// ConnConfig describes the connection configuration parameters for the client.
type ConnConfig struct {
	// Host is the IP address and port of the daemon's RPC server you want
	// to connect to.
	Host string

	// Endpoint is the path the requests are posted to.  It defaults to
	// "/".
	Endpoint string

	// User and Pass are the username and password to use to authenticate
	// to the RPC server.  When either is empty the cookie file is used.
	User string
	Pass string

	// CookiePath is the path to the cookie file.  When empty it is derived
	// from DataDir, TestNet and AppName.
	CookiePath string

	// DataDir is the daemon's data directory.  When empty the per-user
	// default for AppName on this platform is used.
	DataDir string

	// AppName is the name of the daemon used to locate its default data
	// directory.
	AppName string

	// TestNet selects the testnet subdirectory of the data directory when
	// looking for the cookie.
	TestNet bool

	// EnableTLS switches the transport to HTTPS.  Local daemons normally
	// serve plain HTTP.
	EnableTLS bool

	// Certificates are the bytes for a PEM-encoded certificate chain used
	// for the TLS connection.  It has no effect if EnableTLS is false.
	Certificates []byte

	// Proxy specifies to connect through a SOCKS 5 proxy server.  It may
	// be an empty string if a proxy is not required.
	Proxy string

	// ProxyUser is an optional username to use for the proxy server if it
	// requires authentication.  It has no effect if the Proxy parameter
	// is not set.
	ProxyUser string

	// ProxyPass is an optional password to use for the proxy server if it
	// requires authentication.  It has no effect if the Proxy parameter
	// is not set.
	ProxyPass string

	// Timeout bounds each call.  Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client represents a JSON-RPC client which posts requests to a locally
// running daemon.  It is safe for concurrent use: every call is built from
// an immutable descriptor and no per-call state is kept on the client.
type Client struct {
	config *ConnConfig

	httpClient *http.Client

	cookies *cookieCache
}

// New creates a new RPC client based on the provided connection configuration
// details.
func New(config *ConnConfig) (*Client, error) {
	if config == nil || config.Host == "" {
		return nil, fmt.Errorf("%w: no host", ErrInvalidParam)
	}

	httpClient, err := newHTTPClient(config)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		cookies:    &cookieCache{},
	}, nil
}

// newHTTPClient returns a new http client that is configured according to the
// proxy and TLS settings in the associated connection configuration.
func newHTTPClient(config *ConnConfig) (*http.Client, error) {
	// Set proxy function if there is a proxy configured.
	var dial func(ctx context.Context, network, addr string) (net.Conn, error)
	if config.Proxy != "" {
		proxy := &socks.Proxy{
			Addr:     config.Proxy,
			Username: config.ProxyUser,
			Password: config.ProxyPass,
		}
		dial = func(_ context.Context, network, addr string) (net.Conn, error) {
			return proxy.Dial(network, addr)
		}
	}

	// Configure TLS if needed.
	var tlsConfig *tls.Config
	if config.EnableTLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		if len(config.Certificates) > 0 {
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(config.Certificates) {
				return nil, fmt.Errorf("%w: no certificates found",
					ErrInvalidParam)
			}
			tlsConfig.RootCAs = pool
		}
	}

	client := http.Client{
		Transport: &http.Transport{
			Proxy:           nil,
			DialContext:     dial,
			TLSClientConfig: tlsConfig,
		},
	}

	return &client, nil
}

// url returns the address requests are posted to.
func (c *ConnConfig) url() string {
	protocol := "http"
	if c.EnableTLS {
		protocol = "https"
	}

	endpoint := strings.TrimPrefix(c.Endpoint, "/")
	return fmt.Sprintf("%s://%s/%s", protocol, c.Host, endpoint)
}

// CallOption tunes a single call.
type CallOption func(*callOptions)

type callOptions struct {
	credential    string
	hasCredential bool
	timeout       time.Duration
}

// WithCredential makes the call authenticate with credential instead of the
// one resolved from the connection config.  An empty credential sends the
// request unauthenticated.
func WithCredential(credential string) CallOption {
	return func(o *callOptions) {
		o.credential = credential
		o.hasCredential = true
	}
}

// WithTimeout overrides the timeout for a single call.  The override never
// outlives the call it was passed to.
func WithTimeout(timeout time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = timeout
	}
}

// requestDescriptor holds everything needed to send one request.  It is
// built per call and never modified after.
type requestDescriptor struct {
	method     string
	url        string
	credential string
	timeout    time.Duration
	body       []byte
}

// newRequestDescriptor marshals the request body and resolves the credential
// and timeout for a call.
func (c *Client) newRequestDescriptor(method string, params []json.RawMessage,
	opts []CallOption) (*requestDescriptor, error) {

	// Method may not be empty.
	if method == "" {
		return nil, fmt.Errorf("%w: no method", ErrInvalidParam)
	}

	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	body, err := json.Marshal(&btcjson.Request{
		Method: method,
		Params: params,
	})
	if err != nil {
		return nil, err
	}

	credential := o.credential
	if !o.hasCredential {
		credential, err = c.Credential()
		if err != nil {
			return nil, err
		}
	}

	timeout := o.timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &requestDescriptor{
		method:     method,
		url:        c.config.url(),
		credential: credential,
		timeout:    timeout,
		body:       body,
	}, nil
}

// Reply is a successful reply from the daemon.
type Reply struct {
	btcjson.Response

	// Raw is the whole reply body.
	Raw json.RawMessage
}

// Call sends method with params to the daemon and waits for the reply.
//
// The error, if any, is one of *UnauthorizedError, *TimeoutError,
// *MalformedResponseError, *ResponseError or the transport error returned by
// net/http.
func (c *Client) Call(ctx context.Context, method string,
	params []json.RawMessage, opts ...CallOption) (*Reply, error) {

	desc, err := c.newRequestDescriptor(method, params, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	reply, err := c.sendPost(ctx, desc)
	observeCall(method, err, time.Since(start))
	return reply, err
}

// sendPost sends the request described by desc using HTTP POST mode and
// classifies the reply.
func (c *Client) sendPost(ctx context.Context, desc *requestDescriptor) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, desc.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		desc.url, bytes.NewReader(desc.body))
	if err != nil {
		return nil, err
	}
	httpReq.Close = true
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	httpReq.ContentLength = int64(len(desc.body))

	// Configure basic access authorization.
	if desc.credential != "" {
		user, pass, _ := strings.Cut(desc.credential, ":")
		httpReq.SetBasicAuth(user, pass)
	}

	log.Tracef("Sending command [%s] to %s", desc.method, desc.url)
	httpResponse, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	// Read the raw bytes and close the response.
	respBytes, err := io.ReadAll(httpResponse.Body)
	httpResponse.Body.Close()
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return parseReply(desc.method, httpResponse.StatusCode, respBytes)
}

// parseReply turns the status and body of an HTTP reply into the outcome of
// a call.
func parseReply(method string, status int, body []byte) (*Reply, error) {
	// Handle unsuccessful HTTP responses before attempting to parse.
	if status == http.StatusUnauthorized {
		log.Debugf("Command [%s] was not authorized", method)
		return nil, &UnauthorizedError{Status: status}
	}

	reply := &Reply{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, &reply.Response); err != nil {
		log.Errorf("Unable to parse reply to [%s]: %v (data: %q)",
			method, err, body)
		return nil, &MalformedResponseError{Data: body, Err: err}
	}

	log.Tracef("Reply to [%s]: %v", method, newLogClosure(func() string {
		return spew.Sdump(reply.Response)
	}))

	if reply.HasError() {
		rpcErr, _ := reply.RPCError()
		return nil, &ResponseError{Reply: reply, RPCErr: rpcErr}
	}

	return reply, nil
}

// classifyTransportError maps aborted and reset connections to a
// *TimeoutError and returns any other error unchanged.  A connection the
// daemon closed before replying, seen as EOF, counts as a reset.
func classifyTransportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr) && netErr.Timeout(),
		matchErrStr(err, "connection reset by peer"):

		log.Debugf("Request aborted: %v", err)
		return newTimeoutError(err)
	}

	return err
}

// FutureRawResult is a future promise to deliver the result of a CallAsync
// invocation (or an applicable error).
type FutureRawResult chan *response

// response is the outcome of a call delivered through a future.
type response struct {
	reply *Reply
	err   error
}

// Receive waits for the response promised by the future and returns the
// reply, or an error if the request was unsuccessful.
func (r FutureRawResult) Receive() (*Reply, error) {
	resp := <-r
	return resp.reply, resp.err
}

// CallAsync returns an instance of a type that can be used to get the result
// of the call at some future time by invoking the Receive function on the
// returned instance.
//
// See Call for the blocking version and more details.
func (c *Client) CallAsync(ctx context.Context, method string,
	params []json.RawMessage, opts ...CallOption) FutureRawResult {

	responseChan := make(chan *response, 1)
	go func() {
		reply, err := c.Call(ctx, method, params, opts...)
		responseChan <- &response{reply: reply, err: err}
	}()
	return responseChan
}

// CallWithCallback issues the call in the background and invokes onResult
// exactly once, with either the reply or the error.
func (c *Client) CallWithCallback(ctx context.Context, method string,
	params []json.RawMessage, onResult func(*Reply, error),
	opts ...CallOption) {

	go func() {
		onResult(c.Call(ctx, method, params, opts...))
	}()
}
