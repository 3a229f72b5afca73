package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "xcforge"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644

	// Default permission mode for executable scripts.
	DefaultExecMode os.FileMode = 0755
)

// Path to the persistent download cache shared across build runs.
//
//	Linux:   ~/.cache/xcforge/downloads
//	macOS:   ~/Library/Caches/xcforge/downloads
func DownloadCache() string {
	return filepath.Join(xdg.CacheHome, toolName, "downloads")
}

// Default installation prefix relative to the working directory.
func DefaultPrefix() string {
	return "./install"
}

// Default directory for extracted source trees.
func DefaultSourceDir() string {
	return "./sources"
}

// Default directory for per-stage build trees.
func DefaultBuildDir() string {
	return "./build"
}
