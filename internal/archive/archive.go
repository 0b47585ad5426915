// Package archive unpacks the release and build archives the pipeline deals
// with: Blender releases ship as .tar.xz (Linux) or .zip (Windows), and
// extension builds are plain zips.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Extract unpacks the archive at srcPath into destDir, choosing the decoder
// from the file name. It returns the number of files written.
func Extract(srcPath, destDir string) (int, error) {
	switch {
	case strings.HasSuffix(srcPath, ".tar.xz"):
		return extractTarXz(srcPath, destDir)
	case strings.HasSuffix(srcPath, ".tar.gz"), strings.HasSuffix(srcPath, ".tgz"):
		return extractTarGz(srcPath, destDir)
	case strings.HasSuffix(srcPath, ".zip"):
		return Unzip(srcPath, destDir)
	default:
		return 0, fmt.Errorf("archive: unsupported archive format: %s", filepath.Base(srcPath))
	}
}

func extractTarXz(srcPath, destDir string) (int, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("archive: open xz stream: %w", err)
	}
	return extractTar(xr, destDir)
}

func extractTarGz(srcPath, destDir string) (int, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("archive: open gzip stream: %w", err)
	}
	defer gr.Close()
	return extractTar(gr, destDir)
}

func extractTar(r io.Reader, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("archive: create dest dir: %w", err)
	}

	tr := tar.NewReader(r)
	written := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("archive: read tar: %w", err)
		}

		destPath, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return written, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return written, fmt.Errorf("archive: create dir %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				return written, fmt.Errorf("archive: create parent dir for %s: %w", hdr.Name, err)
			}
			mode := os.FileMode(hdr.Mode) & 0o777
			if err := writeFile(destPath, tr, mode); err != nil {
				return written, fmt.Errorf("archive: write %s: %w", hdr.Name, err)
			}
			written++
		case tar.TypeSymlink:
			// Blender archives use relative symlinks for shared libraries.
			if strings.HasPrefix(filepath.Clean(hdr.Linkname), "..") || filepath.IsAbs(hdr.Linkname) {
				return written, fmt.Errorf("archive: symlink %s escapes archive root", hdr.Name)
			}
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				return written, err
			}
			if err := os.Symlink(hdr.Linkname, destPath); err != nil {
				return written, fmt.Errorf("archive: symlink %s: %w", hdr.Name, err)
			}
		}
	}
}

// Unzip unpacks a zip archive into destDir. It returns the number of files
// written.
func Unzip(srcPath, destDir string) (int, error) {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return 0, fmt.Errorf("archive: open zip %s: %w", srcPath, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("archive: create dest dir: %w", err)
	}

	written := 0
	for _, zf := range zr.File {
		destPath, err := safeJoin(destDir, zf.Name)
		if err != nil {
			return written, err
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return written, fmt.Errorf("archive: create dir %s: %w", zf.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return written, fmt.Errorf("archive: create parent dir for %s: %w", zf.Name, err)
		}

		rc, err := zf.Open()
		if err != nil {
			return written, fmt.Errorf("archive: open %s in zip: %w", zf.Name, err)
		}
		err = writeFile(destPath, rc, zf.Mode()&0o777)
		rc.Close()
		if err != nil {
			return written, fmt.Errorf("archive: write %s: %w", zf.Name, err)
		}
		written++
	}
	return written, nil
}

// safeJoin joins an archive entry name onto destDir, rejecting entries that
// would escape it.
func safeJoin(destDir, name string) (string, error) {
	clean := filepath.Clean(name)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("archive: invalid entry path: %s", name)
	}
	return filepath.Join(destDir, clean), nil
}

func writeFile(destPath string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
