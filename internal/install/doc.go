// Package install finalizes a built toolchain: version metadata, an
// environment-activation script, and optional distributable packaging.
package install
