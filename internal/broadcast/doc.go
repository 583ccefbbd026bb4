// Package broadcast fans snapshots from one blocking producer out to many WebSocket clients.
//
// A Bridge owns the single goroutine that drains the producer and publishes onto a Channel.
// The Channel keeps one slot per subscription: a slow reader loses intermediate values, never the latest one,
// and the producer never blocks. Each connected client runs a Session that serializes values and writes them
// through a Transport until the transport fails or the channel is closed.
package broadcast
