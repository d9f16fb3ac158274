// Package session implements the GDB/MI session engine: it drives a gdb
// subprocess through the token-correlated MI protocol, maintains the
// authoritative model of threads, stack frames and breakpoints, and
// coalesces view redraws to one pass per output batch.
//
// The engine never blocks on the debugger. Commands are fire-and-forget;
// replies are matched back to their intent through a pending-context table
// keyed by the command token, and unsolicited notifications mutate state
// directly. All record processing for a session is serialized onto one
// logical queue, so replies may arrive in any order and some may never
// arrive at all.
package session
