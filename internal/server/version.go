package server

// Set with -ldflags "-X github.com/dhnt/qrserve/internal/server.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
