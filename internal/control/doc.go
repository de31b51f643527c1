// Package control is the harness-side facade over the daemon's remote-control
// protocol (JSON-RPC over HTTP POST to /jsonrpc, basic auth).
//
// Every call blocks until the daemon answers or the transport fails. The
// client never retries; callers that need to wait for the daemon (startup,
// completion polling) own their retry loops. Transport failures are returned
// as *TransportError, which matches faults.ErrTransport under errors.Is, and
// errors the daemon reports come back as *RPCError.
package control
