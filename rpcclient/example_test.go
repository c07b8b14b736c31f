package rpcclient

import (
	"context"
	"fmt"
)

func ExampleClient_Call() {
	// Connect to a local particld RPC server.  No user or password is
	// set, so the cookie in the default data directory is used.
	connCfg := &ConnConfig{
		Host:    "localhost:51735",
		AppName: "Particl",
	}
	client, err := New(connCfg)
	if err != nil {
		log.Error(err)
		return
	}

	reply, err := client.Call(context.Background(), "getblockcount", nil)
	if err != nil {
		log.Error(err)
		return
	}

	fmt.Printf("Block count: %s\n", reply.Result)
}
