package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"

	"github.com/forgehq/xcforge/internal/paths"
)

// Ensures dest holds a verified copy of the file at url.
//
// A cached file is reused when no digest is expected, or when it still
// matches the expected digest. A mismatching cached file is deleted and the
// download is performed once; a mismatch after download is fatal for this
// candidate and never falls back to the stale file.
func (a *Acquirer) fetch(ctx context.Context, url, dest string, want digest.Digest) error {
	if _, err := os.Stat(dest); err == nil {
		if want == "" {
			slog.Debug("using cached archive", "path", dest)
			return nil
		}
		ok, err := verify(dest, want)
		if err != nil {
			return err
		}
		if ok {
			slog.Debug("using cached archive", "path", dest, "digest", want)
			return nil
		}
		slog.Warn("cached archive does not match expected digest, re-downloading", "path", dest)
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("%w: %w", ErrAcquisition, err)
		}
	}

	if err := a.download(ctx, url, dest); err != nil {
		return err
	}

	if want != "" {
		ok, err := verify(dest, want)
		if err != nil {
			return err
		}
		if !ok {
			os.Remove(dest)
			return fmt.Errorf("%w: %s", ErrChecksum, dest)
		}
	}

	return nil
}

// Downloads url to dest. A partial file is removed on failure so a later
// run never mistakes it for a complete archive.
func (a *Acquirer) download(ctx context.Context, url, dest string) error {
	slog.Info("downloading", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: unexpected status %s", ErrAcquisition, url, resp.Status)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, paths.DefaultFileMode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("%w: %s: %w", ErrAcquisition, url, err)
	}

	slog.Info("downloaded", "path", dest, "size", humanize.Bytes(uint64(n)))
	return nil
}

// Whether the file at path matches the expected digest.
func verify(path string, want digest.Digest) (bool, error) {
	if err := want.Validate(); err != nil {
		return false, fmt.Errorf("%w: invalid expected digest %q: %w", ErrAcquisition, want, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	defer f.Close()

	v := want.Verifier()
	if _, err := io.Copy(v, f); err != nil {
		return false, fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	return v.Verified(), nil
}
