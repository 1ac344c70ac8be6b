package capture

import "os"

// Environment variables forming the contract between the shell hooks and
// the CLI.
const (
	// EnvSession carries the pending session id between history start and end.
	EnvSession = "CORVUS_SESSION"
	// EnvQuery seeds the interactive search with the shell's current buffer.
	EnvQuery = "CORVUS_QUERY"
	// EnvDBPath overrides the configured database location.
	EnvDBPath = "CORVUS_DB_PATH"
)

// Cwd returns the working directory of the invoking shell. Capture must not
// fail the shell, so an unreadable cwd degrades to the empty sentinel rather
// than an error.
func Cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}
