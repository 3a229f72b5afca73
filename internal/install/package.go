package install

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/ulikunitz/xz"

	"github.com/forgehq/xcforge/internal/build"
	"github.com/forgehq/xcforge/internal/paths"
)

// Produces a distributable xz-compressed tarball of the installed prefix
// together with a detached checksum file.
//
// The archive lands in the build directory as <family>-<target>-<version>.tar.xz
// with all entries rooted under a directory of the same name. The checksum
// file carries the archive's SHA-256 in the conventional two-column format.
func Package(cfg *build.Config) (string, string, error) {
	name := fmt.Sprintf("%s-%s-%s", cfg.Family, cfg.Target.Raw, cfg.ToolchainVersion())
	archivePath := filepath.Join(cfg.BuildDir, name+".tar.xz")

	slog.Info("packaging toolchain", "archive", archivePath)

	if err := os.MkdirAll(cfg.BuildDir, paths.DefaultDirMode); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInstall, err)
	}
	if err := writeArchive(archivePath, name, cfg.Prefix); err != nil {
		os.Remove(archivePath)
		return "", "", fmt.Errorf("%w: %w", ErrInstall, err)
	}

	checksumPath, err := writeChecksum(archivePath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInstall, err)
	}

	if info, err := os.Stat(archivePath); err == nil {
		slog.Info("package ready", "archive", archivePath, "size", humanize.Bytes(uint64(info.Size())))
	}
	return archivePath, checksumPath, nil
}

// Writes every file under root into an xz-compressed tarball, with entry
// names rooted at prefix.
func writeArchive(path, prefix, root string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	xw, err := xz.NewWriter(out)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(xw)

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		return writeArchiveEntry(tw, p, prefix, root, d)
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func writeArchiveEntry(tw *tar.Writer, p, prefix, root string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	link := ""
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(p); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return err
	}
	hdr.Name = prefix + "/" + filepath.ToSlash(rel)
	if info.IsDir() {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// Writes the detached <archive>.sha256 file next to the archive.
func writeChecksum(archivePath string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	digester := digest.SHA256.Digester()
	if _, err := io.Copy(digester.Hash(), f); err != nil {
		return "", err
	}

	checksumPath := archivePath + ".sha256"
	line := fmt.Sprintf("%s  %s\n", digester.Digest().Encoded(), filepath.Base(archivePath))
	if err := os.WriteFile(checksumPath, []byte(line), paths.DefaultFileMode); err != nil {
		return "", err
	}
	return checksumPath, nil
}
