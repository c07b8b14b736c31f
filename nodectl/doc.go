/*
Package nodectl supervises a running daemon through its RPC interface.

It does not start or kill processes.  CheckRunning is a short getnetworkinfo
probe used to tell whether a daemon already accepts connections, Stop asks the
daemon to shut down, and Register exposes the RPC client on a message bus so a
UI process can issue arbitrary calls:

	ctrl := nodectl.New(client, router)
	if err := ctrl.CheckRunning(ctx); err != nil {
		// start the daemon
	}
	err := ctrl.Register()
*/
package nodectl
