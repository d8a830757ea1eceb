package constants

// Version information, injected at build time with -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// ServiceName labels logs, traces and the root endpoint.
const ServiceName = "gemini-pool-go"
