package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/forgehq/xcforge/internal/paths"
)

// One download candidate for a component archive.
//
// Filename is the name the archive is cached under; candidates for the same
// component may carry different filenames when upstream publishes the release
// under more than one naming convention.
type Remote struct {
	URL      string
	Filename string
}

// Describes one required source artifact.
//
// Mirrors is the ordered candidate list. When a component has a secondary
// naming convention, its variant is interleaved directly after the primary
// candidate for the same mirror, so the variant is tried before moving on.
type Request struct {
	Name    string        // Component name (e.g., "gcc").
	Version string        // Release version (e.g., "13.2.0").
	Mirrors []Remote      // Ordered download candidates.
	Digest  digest.Digest // Expected content digest, empty when unknown.
}

// Returns the canonical "name-version" identifier used for the extraction
// directory.
func (r Request) Slug() string {
	return r.Name + "-" + r.Version
}

// Downloads and extracts component source archives.
type Acquirer struct {
	CacheDir  string // Persistent archive cache.
	SourceDir string // Destination for extracted source trees.
	Client    *http.Client
}

// Creates an [Acquirer] using the default HTTP client.
func New(cacheDir, sourceDir string) *Acquirer {
	return &Acquirer{
		CacheDir:  cacheDir,
		SourceDir: sourceDir,
		Client:    http.DefaultClient,
	}
}

// Resolves the request to a local source directory.
//
// Candidates are tried strictly in order; any failure is logged and the next
// candidate is attempted. Exhausting every candidate is fatal for the run.
// Extraction is skipped when the destination directory already exists: the
// directory's presence is the sole completion signal, so a partially
// extracted tree from an interrupted run is indistinguishable from a
// complete one.
func (a *Acquirer) Acquire(ctx context.Context, req Request) (string, error) {
	if len(req.Mirrors) == 0 {
		return "", fmt.Errorf("%w: no mirrors for %s", ErrAcquisition, req.Slug())
	}

	if err := os.MkdirAll(a.CacheDir, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	if err := os.MkdirAll(a.SourceDir, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	archive := ""
	for _, remote := range req.Mirrors {
		dest := filepath.Join(a.CacheDir, remote.Filename)
		if err := a.fetch(ctx, remote.URL, dest, req.Digest); err != nil {
			slog.Warn("mirror candidate failed", "component", req.Name, "url", remote.URL, "error", err)
			continue
		}
		archive = dest
		break
	}
	if archive == "" {
		return "", fmt.Errorf("%w: %s %s", ErrExhausted, req.Name, req.Version)
	}

	dir := filepath.Join(a.SourceDir, req.Slug())
	if _, err := os.Stat(dir); err == nil {
		slog.Debug("sources already extracted", "dir", dir)
		return dir, nil
	}

	slog.Info("extracting", "archive", archive, "dest", a.SourceDir)
	if err := ExtractArchive(archive, a.SourceDir); err != nil {
		return "", err
	}

	return dir, nil
}
