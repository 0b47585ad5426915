package download

import (
	"context"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

// platformSuffix maps a GOOS/GOARCH pair to the suffix Blender release
// archives carry on the mirror. macOS ships as .dmg, which is not an archive
// the extract runner can unpack, so it is unsupported here.
func platformSuffix(goos, goarch string) (string, error) {
	switch goos + "/" + goarch {
	case "linux/amd64":
		return "linux-x64.tar.xz", nil
	case "linux/arm64":
		return "linux-arm64.tar.xz", nil
	case "windows/amd64":
		return "windows-x64.zip", nil
	case "windows/arm64":
		return "windows-arm64.zip", nil
	default:
		return "", fmt.Errorf("download: no Blender archive for platform %s/%s", goos, goarch)
	}
}

// normalizeSuffix completes a short platform name like "linux-x64" with the
// archive extension that platform's releases carry on the mirror. Full
// suffixes pass through unchanged.
func normalizeSuffix(platform string) (string, error) {
	if strings.HasSuffix(platform, ".tar.xz") || strings.HasSuffix(platform, ".zip") {
		return platform, nil
	}
	switch {
	case strings.HasPrefix(platform, "linux"):
		return platform + ".tar.xz", nil
	case strings.HasPrefix(platform, "windows"):
		return platform + ".zip", nil
	default:
		return "", fmt.Errorf("download: unsupported platform %q", platform)
	}
}

// ResolveBlenderURL turns a short version like "4.4" (or a full one like
// "4.4.1") into the URL of the newest matching release archive for the given
// platform, by listing the mirror's per-series directory.
func ResolveBlenderURL(ctx context.Context, client *resty.Client, mirror, version, platform string) (string, error) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("download: blender_version must be at least major.minor, got %q", version)
	}
	series := parts[0] + "." + parts[1]

	suffix := platform
	if suffix == "" {
		var err error
		suffix, err = platformSuffix(runtime.GOOS, runtime.GOARCH)
		if err != nil {
			return "", err
		}
	}
	suffix, err := normalizeSuffix(suffix)
	if err != nil {
		return "", err
	}

	dirURL := strings.TrimSuffix(mirror, "/") + "/Blender" + series + "/"
	resp, err := client.R().SetContext(ctx).Get(dirURL)
	if err != nil {
		return "", fmt.Errorf("download: listing %s: %w", dirURL, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("download: listing %s: status %s", dirURL, resp.Status())
	}

	name, err := pickRelease(resp.String(), series, version, suffix)
	if err != nil {
		return "", err
	}
	return dirURL + name, nil
}

// releasePattern matches archive file names in the mirror's directory index.
var releasePattern = regexp.MustCompile(`blender-(\d+)\.(\d+)\.(\d+)-([a-z0-9.-]+)`)

// pickRelease scans a directory listing for archives of the wanted series
// and platform, returning the newest patch release. When version pins a full
// patch (e.g. "4.4.1"), only that exact release matches.
func pickRelease(listing, series, version, suffix string) (string, error) {
	type candidate struct {
		name  string
		patch int
	}

	exact := strings.Count(version, ".") >= 2
	seen := make(map[string]bool)
	var candidates []candidate

	for _, m := range releasePattern.FindAllStringSubmatch(listing, -1) {
		full := m[0]
		if seen[full] {
			continue
		}
		seen[full] = true

		if m[1]+"."+m[2] != series || !strings.HasSuffix(full, suffix) {
			continue
		}
		release := fmt.Sprintf("%s.%s.%s", m[1], m[2], m[3])
		if exact && release != version {
			continue
		}
		patch, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: full, patch: patch})
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("download: no release matching version %q and platform %q on mirror", version, suffix)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].patch > candidates[j].patch })
	return candidates[0].name, nil
}
