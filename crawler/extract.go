package crawler

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kabegame/kabegame/filesystem"
	"github.com/kabegame/kabegame/util"
	"github.com/ulikunitz/xz"
)

// ErrUnsupportedArchive reports a filename whose suffix matches no known
// archive format. The caller decides whether that matters.
var ErrUnsupportedArchive = errors.New("unsupported archive format")

// archiveSuffixes lists every suffix the extractor dispatches on, which is
// also the set of suffixes the pipeline recognizes as source archives.
var archiveSuffixes = []string{".tar.gz", ".tgz", ".tar.xz", ".tar.bz2", ".zip"}

// IsArchiveName reports whether name mentions a recognized archive suffix.
// Matching is a substring test; mirrors append query junk after the suffix.
func IsArchiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range archiveSuffixes {
		if strings.Contains(lower, suffix) {
			return true
		}
	}
	return false
}

// Extract unpacks the archive at archivePath into dest, dispatching on the
// filename suffix. Unrecognized suffixes yield ErrUnsupportedArchive.
func Extract(archivePath, dest string) error {
	lower := strings.ToLower(archivePath)

	switch {
	case strings.HasSuffix(lower, ".zip"):
		return extractZip(archivePath, dest)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return extractTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.xz"):
		return extractTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.bz2"):
		return extractTar(archivePath, dest, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		})
	default:
		return ErrUnsupportedArchive
	}
}

// entryPath validates an archive member name and resolves it under dest.
func entryPath(dest, name string) (string, error) {
	path := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) && path != filepath.Clean(dest) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return path, nil
}

func extractTar(archivePath, dest string, decompress func(io.Reader) (io.Reader, error)) error {
	fs := filesystem.API()

	f, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer util.Ignore(f.Close)

	r, err := decompress(f)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", filepath.Base(archivePath), err)
	}

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		path, err := entryPath(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(path, os.ModePerm); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeEntry(path, tr); err != nil {
				return err
			}
		default:
			// Symlinks and special files are not representable on every
			// backend, skip them.
		}
	}
}

func extractZip(archivePath, dest string) error {
	fs := filesystem.API()

	f, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer util.Ignore(f.Close)

	stat, err := fs.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	zr, err := zip.NewReader(f, stat.Size())
	if err != nil {
		return fmt.Errorf("read zip: %w", err)
	}

	for _, entry := range zr.File {
		path, err := entryPath(dest, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := fs.MkdirAll(path, os.ModePerm); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", entry.Name, err)
		}

		err = writeEntry(path, rc)
		util.Ignore(rc.Close)
		if err != nil {
			return err
		}
	}

	return nil
}

func writeEntry(path string, r io.Reader) error {
	fs := filesystem.API()

	if err := fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	_, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
