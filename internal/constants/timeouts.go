package constants

import "time"

const (
	// ServerReadHeaderTimeout bounds slow-header clients.
	ServerReadHeaderTimeout = 10 * time.Second
	// ServerShutdownTimeout bounds graceful HTTP server shutdown.
	ServerShutdownTimeout = 30 * time.Second
	// UpstreamMaxErrorBody caps how much of an upstream error body is read for logging.
	UpstreamMaxErrorBody = 64 << 10
	// UpstreamMaxBody caps a successful upstream response body.
	UpstreamMaxBody = 32 << 20
	// StoreOpTimeout bounds a single usage-ledger write issued after the response path.
	StoreOpTimeout = 5 * time.Second
)
