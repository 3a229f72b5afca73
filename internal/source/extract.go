package source

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/forgehq/xcforge/internal/paths"
)

// Extracts an archive into the destination directory.
//
// The container format is chosen by filename suffix. Tar archives may be
// compressed with gzip, bzip2, xz, or zstd; zip archives are taken as-is.
// Any other suffix is an immediate error. Entries that would escape the
// destination directory are rejected.
func ExtractArchive(archive, dest string) error {
	if err := os.MkdirAll(dest, paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	name := filepath.Base(archive)
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		return extractTar(archive, dest, func(r io.Reader) (io.Reader, error) {
			zr, err := gzip.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr, nil
		})
	case strings.HasSuffix(name, ".tar.bz2"):
		return extractTar(archive, dest, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		})
	case strings.HasSuffix(name, ".tar.xz"):
		return extractTar(archive, dest, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case strings.HasSuffix(name, ".tar.zst"):
		return extractTar(archive, dest, func(r io.Reader) (io.Reader, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		})
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archive, dest)
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedArchive, name)
}

// Extracts a tar archive, decompressed by the given wrapper.
func extractTar(archive, dest string, decompress func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	defer f.Close()

	r, err := decompress(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAcquisition, archive, err)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAcquisition, archive, err)
		}
		if err := writeTarEntry(dest, hdr, tr); err != nil {
			return err
		}
	}
}

// Writes a single tar entry under dest.
func writeTarEntry(dest string, hdr *tar.Header, r io.Reader) error {
	target, err := safeJoin(dest, hdr.Name)
	if err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, os.FileMode(hdr.Mode)|0700); err != nil {
			return fmt.Errorf("%w: %w", ErrAcquisition, err)
		}
	case tar.TypeReg:
		if err := writeFile(target, r, os.FileMode(hdr.Mode)); err != nil {
			return err
		}
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), paths.DefaultDirMode); err != nil {
			return fmt.Errorf("%w: %w", ErrAcquisition, err)
		}
		os.Remove(target)
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return fmt.Errorf("%w: %w", ErrAcquisition, err)
		}
	}
	// Other entry types (hard links, devices) do not appear in release
	// tarballs and are skipped.

	return nil
}

// Extracts a zip archive.
func extractZip(archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAcquisition, archive, err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		target, err := safeJoin(dest, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, entry.Mode()|0700); err != nil {
				return fmt.Errorf("%w: %w", ErrAcquisition, err)
			}
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAcquisition, err)
		}
		err = writeFile(target, rc, entry.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// Writes a regular file from the reader, creating parent directories.
func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm()|0600)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}

	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	return nil
}

// Joins an archive entry name onto dest, rejecting absolute paths and
// parent-directory escapes.
func safeJoin(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: unsafe archive path %q", ErrAcquisition, name)
	}
	return filepath.Join(dest, cleaned), nil
}
