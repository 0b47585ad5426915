// Package fsutil provides file system utility functions shared by the
// pipeline loader and the step runners.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths. If the
// root path is itself a matching file, it is returned directly.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if strings.HasSuffix(rootPath, extension) {
			return []string{rootPath}, nil
		}
		return nil, fmt.Errorf("file %s does not have extension %s", rootPath, extension)
	}

	var files []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// FindExecutable walks rootPath looking for an executable regular file whose
// base name matches one of the given patterns (shell globs, matched against
// the base name only), in preference order. Used to locate the blender
// binary and its bundled python interpreter inside an extracted release
// archive, where the interpreter name carries a version suffix (python3.11).
func FindExecutable(rootPath string, patterns ...string) (string, error) {
	rank := func(name string) int {
		for i, p := range patterns {
			if ok, _ := filepath.Match(p, name); ok {
				return i
			}
		}
		return len(patterns)
	}

	best := ""
	bestRank := len(patterns)
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		r := rank(d.Name())
		if r >= bestRank {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&0o111 == 0 {
			return nil
		}
		best = path
		bestRank = r
		return nil
	})
	if err != nil {
		return "", err
	}
	if best == "" {
		return "", fmt.Errorf("no executable matching %v found under %s", patterns, rootPath)
	}
	return best, nil
}

// EnsureDir creates the directory and any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
