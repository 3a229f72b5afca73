// Package internal carries build-time identity injected via linker flags.
package internal

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Name used for the binary, directories, and log grouping.
const Name = "xcforge"

// Set via -ldflags during a release build. A build with no version or
// commit is reported as a local development build.
var (
	version   = "" // Release version, e.g. "1.2.3".
	gitCommit = "" // Short commit hash.

	rawQuiet   = "false" // Default log suppression.
	rawDebug   = "false" // Default debug logging.
	rawVerbose = "false" // Default verbose logging.
)

// Returns the release version without any "v" prefix, or "(dev)" for a
// local build.
func Version() string {
	v := strings.TrimSpace(strings.ToLower(version))
	if v == "" {
		return "(dev)"
	}
	return strings.TrimPrefix(v, "v")
}

// Returns a detailed version string for the version subcommand and kong's
// usage output.
func VersionString() string {
	commit := strings.TrimSpace(gitCommit)
	if commit == "" {
		return Version()
	}
	return fmt.Sprintf("%s (%s) [%s/%s]", Version(), commit, runtime.GOOS, runtime.GOARCH)
}

// Default logging modes baked in at build time. CLI flags override these
// after parsing; reads before then see the linker-flag defaults.

func IsQuiet() bool   { return parseBool(rawQuiet) }
func IsDebug() bool   { return parseBool(rawDebug) }
func IsVerbose() bool { return parseBool(rawVerbose) }

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
