package version

import "fmt"

// Version, Commit and BuildDate are set at build time, for example:
// go build -ldflags "-X github.com/oukeidos/pgnct/internal/version.Version=0.2.0"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns a multi-line version string for CLI output.
func Info() string {
	return fmt.Sprintf("pgnct %s\ncommit: %s\nbuild: %s", Version, Commit, BuildDate)
}

// UserAgent identifies the tool in HTTP requests.
func UserAgent() string {
	return "pgnct/" + Version
}
