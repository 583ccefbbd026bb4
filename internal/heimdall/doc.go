// Package heimdall watches the home network and produces full NetworkState snapshots.
//
// A Monitor emits on a blocking, unbuffered channel: each send waits until the consumer
// takes the value. Cancelling the context passed to Run closes the channel.
package heimdall
