// Package notify tracks live push connections and fans events out to them.
//
// A Registry owns an ordered set of connection handles guarded by a single
// mutex. Broadcast encodes the event once, snapshots the set under the lock
// and writes to each transport with the lock released; transports that fail
// are removed in a second pass once the sweep is over. A failure on one
// connection never stops delivery to the others and is never reported to the
// caller that triggered the broadcast.
//
// WSTransport adapts a gorilla websocket connection to the Transport
// interface, and ServeConn runs the per-connection read loop (inbound text is
// echoed back), keepalive pings and deregistration.
package notify
