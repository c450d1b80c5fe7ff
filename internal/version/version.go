package version

const (
	AppName        = "headroom"
	AppDescription = "A small pattern-matching chat bot."
)

// Version is set at build time with -ldflags "-X .../internal/version.Version=...".
var Version = "dev"
