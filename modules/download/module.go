// Package download provides the 'download' runner. It fetches a file over
// HTTP with retries and optional checksum verification, and knows how to
// resolve a short Blender version like "4.4" against the official release
// mirror, replacing the external blender-downloader tool the CI workflow
// used to shell out to.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/specialistvlad/addonforge/internal/ctxlog"
	"github.com/specialistvlad/addonforge/internal/fsutil"
	"github.com/specialistvlad/addonforge/internal/registry"
)

// DefaultMirror is the official Blender release mirror.
const DefaultMirror = "https://download.blender.org/release/"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'arguments' HCL block. Either url or
// blender_version must be set.
type Input struct {
	URL            string `hcl:"url,optional"`
	BlenderVersion string `hcl:"blender_version,optional"`
	Dest           string `hcl:"dest"`
	SHA256         string `hcl:"sha256,optional"`
	Mirror         string `hcl:"mirror,optional"`
	Platform       string `hcl:"platform,optional"`
	Retries        int    `hcl:"retries,optional"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	Path   string `cty:"path"`
	Size   int64  `cty:"size"`
	SHA256 string `cty:"sha256"`
}

// OnRunDownload is the handler for the 'download' runner.
func OnRunDownload(ctx context.Context, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	if (input.URL == "") == (input.BlenderVersion == "") {
		return nil, fmt.Errorf("download: exactly one of url or blender_version must be set")
	}

	client := resty.New()

	url := input.URL
	if input.BlenderVersion != "" {
		mirror := input.Mirror
		if mirror == "" {
			mirror = DefaultMirror
		}
		resolved, err := ResolveBlenderURL(ctx, client, mirror, input.BlenderVersion, input.Platform)
		if err != nil {
			return nil, err
		}
		url = resolved
		logger.Info("Resolved Blender release.", "version", input.BlenderVersion, "url", url)
	}

	if err := fsutil.EnsureDir(input.Dest); err != nil {
		return nil, fmt.Errorf("download: create dest dir: %w", err)
	}
	destPath := filepath.Join(input.Dest, path.Base(url))

	retries := input.Retries
	if retries <= 0 {
		retries = 3
	}

	fetch := func() error {
		logger.Info("Downloading.", "url", url, "dest", destPath)
		resp, err := client.R().
			SetContext(ctx).
			SetOutput(destPath).
			Get(url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("download: GET %s: status %s", url, resp.Status())
		}
		return nil
	}
	err := backoff.Retry(fetch,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries)), ctx))
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	size, sum, err := hashFile(destPath)
	if err != nil {
		return nil, err
	}
	if input.SHA256 != "" && input.SHA256 != sum {
		return nil, fmt.Errorf("download: checksum mismatch for %s: got %s, want %s", destPath, sum, input.SHA256)
	}

	logger.Info("Download complete.", "path", destPath, "size", size)
	return &Output{Path: destPath, Size: size, SHA256: sum}, nil
}

// hashFile computes the size and SHA-256 digest of a file.
func hashFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return 0, "", fmt.Errorf("download: hashing %s: %w", path, err)
	}
	return size, hex.EncodeToString(hasher.Sum(nil)), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("download", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunDownload,
	})
}
