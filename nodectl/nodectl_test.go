package nodectl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/rpcbridge/btcjson"
	"github.com/btcsuite/rpcbridge/bus"
	"github.com/btcsuite/rpcbridge/rpcclient"
	"github.com/stretchr/testify/require"
)

// fakeDaemon answers JSON-RPC requests from a table of canned replies keyed
// by method and records the methods it was called with.
type fakeDaemon struct {
	mtx     sync.Mutex
	methods []string
	delay   time.Duration
	replies map[string]string
}

func (d *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req btcjson.Request
	body, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(body, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	d.mtx.Lock()
	d.methods = append(d.methods, req.Method)
	reply, ok := d.replies[req.Method]
	delay := d.delay
	d.mtx.Unlock()

	if delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}

	if !ok {
		reply = `{"result":null,"error":{"code":-32601,"message":"Method not found"}}`
	}
	io.WriteString(w, reply)
}

func (d *fakeDaemon) calls() []string {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return append([]string(nil), d.methods...)
}

func newController(t *testing.T, d *fakeDaemon, cfg rpcclient.ConnConfig) (*Controller, *bus.Router) {
	t.Helper()

	server := httptest.NewServer(d)
	t.Cleanup(server.Close)

	cfg.Host = strings.TrimPrefix(server.URL, "http://")
	client, err := rpcclient.New(&cfg)
	require.NoError(t, err)

	router := bus.NewRouter()
	return New(client, router), router
}

func userPass() rpcclient.ConnConfig {
	return rpcclient.ConnConfig{User: "user", Pass: "pass"}
}

// TestCheckRunning covers the liveness probe outcomes and its side effect on
// the bus registration.
func TestCheckRunning(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		daemon  *fakeDaemon
		wantErr bool
	}{
		{
			name: "running",
			daemon: &fakeDaemon{replies: map[string]string{
				"getnetworkinfo": `{"result":{"version":260000},"error":null}`,
			}},
		},
		{
			name: "warming up",
			daemon: &fakeDaemon{replies: map[string]string{
				"getnetworkinfo": `{"result":null,"error":{"code":-28,"message":"Loading block index..."}}`,
			}},
			wantErr: true,
		},
		{
			name: "too slow",
			daemon: &fakeDaemon{
				delay: time.Second,
				replies: map[string]string{
					"getnetworkinfo": `{"result":{},"error":null}`,
				},
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl, router := newController(t, tc.daemon, userPass())
			require.NoError(t, ctrl.Register())

			start := time.Now()
			err := ctrl.CheckRunning(context.Background())
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Less(t, time.Since(start), 900*time.Millisecond)
			require.Equal(t, []string{"getnetworkinfo"}, tc.daemon.calls())

			_, err = router.Dispatch(context.Background(), ChannelName,
				"getblockcount", nil)
			require.ErrorIs(t, err, bus.ErrNoHandler)
		})
	}
}

// TestCheckRunningTimeout ensures a slow daemon surfaces as a timeout.
func TestCheckRunningTimeout(t *testing.T) {
	t.Parallel()

	d := &fakeDaemon{delay: time.Second}
	ctrl, _ := newController(t, d, userPass())

	err := ctrl.CheckRunning(context.Background())
	require.ErrorIs(t, err, rpcclient.ErrTimeout)
}

// TestCheckRunningSharedCancel ensures a caller abandoning a liveness check
// does not fail another caller sharing the same call.
func TestCheckRunningSharedCancel(t *testing.T) {
	t.Parallel()

	d := &fakeDaemon{
		delay: 100 * time.Millisecond,
		replies: map[string]string{
			"getnetworkinfo": `{"result":{},"error":null}`,
		},
	}
	ctrl, _ := newController(t, d, userPass())

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		first <- ctrl.CheckRunning(ctx)
	}()
	time.Sleep(10 * time.Millisecond)

	second := make(chan error, 1)
	go func() {
		second <- ctrl.CheckRunning(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-first, context.Canceled)
	require.NoError(t, <-second)
}

// TestCheckRunningNoDaemon ensures nothing listening is reported as an error.
func TestCheckRunningNoDaemon(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	host := strings.TrimPrefix(server.URL, "http://")
	server.Close()

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host: host, User: "u", Pass: "p",
	})
	require.NoError(t, err)

	require.Error(t, New(client, nil).CheckRunning(context.Background()))
}

// TestStop covers the stop request.
func TestStop(t *testing.T) {
	t.Parallel()

	d := &fakeDaemon{replies: map[string]string{
		"stop": `{"result":"Bitcoin Core stopping","error":null}`,
	}}
	ctrl, _ := newController(t, d, userPass())
	require.NoError(t, ctrl.Stop(context.Background()))
	require.Equal(t, []string{"stop"}, d.calls())

	failing := &fakeDaemon{}
	ctrl, _ = newController(t, failing, userPass())
	err := ctrl.Stop(context.Background())

	var respErr *rpcclient.ResponseError
	require.ErrorAs(t, err, &respErr)
}

// TestStopUsesCookie ensures stop authenticates with the daemon's cookie when
// no user and password are configured.
func TestStopUsesCookie(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, ".cookie"),
		[]byte("__cookie__:secret\n"), 0600))

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "__cookie__" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, `{"result":"stopping","error":null}`)
		},
	))
	t.Cleanup(server.Close)

	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:    strings.TrimPrefix(server.URL, "http://"),
		DataDir: dataDir,
	})
	require.NoError(t, err)

	require.NoError(t, New(client, nil).Stop(context.Background()))

	require.NoError(t, os.Remove(filepath.Join(dataDir, ".cookie")))
	err = New(client, nil).Stop(context.Background())
	require.ErrorIs(t, err, rpcclient.ErrUnauthorized)
}

// TestRegister drives calls through the bus handler.
func TestRegister(t *testing.T) {
	t.Parallel()

	d := &fakeDaemon{replies: map[string]string{
		"getblockcount": `{"result":820000,"error":null,"id":null}`,
	}}
	ctrl, router := newController(t, d, userPass())
	require.NoError(t, ctrl.Register())
	require.Error(t, ctrl.Register())

	ctx := context.Background()
	results, err := router.Dispatch(ctx, ChannelName, "getblockcount", nil)
	require.NoError(t, err)

	result := <-results
	require.NoError(t, result.Err)
	require.JSONEq(t, `{"result":820000,"error":null,"id":null}`,
		string(result.Reply))
	_, ok := <-results
	require.False(t, ok)

	results, err = router.Dispatch(ctx, ChannelName, "nosuchmethod", nil)
	require.NoError(t, err)

	result = <-results
	var respErr *rpcclient.ResponseError
	require.ErrorAs(t, result.Err, &respErr)
	require.Nil(t, result.Reply)
	_, ok = <-results
	require.False(t, ok)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	results, err = router.Dispatch(canceled, ChannelName, "getblockcount", nil)
	require.NoError(t, err)
	result = <-results
	require.ErrorIs(t, result.Err, context.Canceled)
	require.Equal(t, []string{"getblockcount", "nosuchmethod"}, d.calls())

	ctrl.Unregister()
	_, err = router.Dispatch(ctx, ChannelName, "getblockcount", nil)
	require.ErrorIs(t, err, bus.ErrNoHandler)

	require.Error(t, New(nil, nil).Register())
}

// TestWaitForRPC ensures polling stops once the daemon answers, and gives up
// with the context.
func TestWaitForRPC(t *testing.T) {
	t.Parallel()

	d := &fakeDaemon{replies: map[string]string{}}
	ctrl, _ := newController(t, d, userPass())

	go func() {
		time.Sleep(100 * time.Millisecond)
		d.mtx.Lock()
		d.replies["getnetworkinfo"] = `{"result":{},"error":null}`
		d.mtx.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ctrl.WaitForRPC(ctx, 20*time.Millisecond))

	down := &fakeDaemon{}
	ctrl, _ = newController(t, down, userPass())

	ctx, cancel = context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := ctrl.WaitForRPC(ctx, 20*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
