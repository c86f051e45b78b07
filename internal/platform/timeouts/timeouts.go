// Package timeouts defines shared timeout constants used across service
// boundaries. Centralizing these values prevents drift and makes the
// durations discoverable.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// GRPCRequest caps the time allowed for a single gRPC request to the play
// service.
const GRPCRequest = 2 * time.Second

// Shutdown limits how long the server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
