// Package ciinfo detects metadata about the surrounding CI job so artifacts
// can be keyed by addon, ref, and commit without pipeline authors wiring the
// platform's environment variables by hand.
package ciinfo

import (
	"os"
	"strings"
)

// Info describes the current CI (or local) execution context.
type Info struct {
	// CI is true when a CI platform was detected.
	CI bool
	// Ref is the branch or tag name, sanitized for use in artifact keys.
	Ref string
	// SHA is the full commit SHA, or "dev" when unknown.
	SHA string
}

// ShortSHA returns the first 7 characters of the commit SHA.
func (i Info) ShortSHA() string {
	if len(i.SHA) > 7 {
		return i.SHA[:7]
	}
	return i.SHA
}

// Detect inspects the environment for known CI platforms. GitHub Actions is
// checked first, then GitLab CI, then a generic fallback for local runs.
func Detect() Info {
	return detect(os.Getenv)
}

// detect is the testable core of Detect.
func detect(getenv func(string) string) Info {
	if getenv("GITHUB_ACTIONS") == "true" {
		ref := getenv("GITHUB_REF_NAME")
		if ref == "" {
			ref = strings.TrimPrefix(getenv("GITHUB_REF"), "refs/heads/")
		}
		return Info{
			CI:  true,
			Ref: SanitizeRef(ref),
			SHA: orDefault(getenv("GITHUB_SHA"), "dev"),
		}
	}

	if getenv("GITLAB_CI") == "true" {
		return Info{
			CI:  true,
			Ref: SanitizeRef(getenv("CI_COMMIT_REF_NAME")),
			SHA: orDefault(getenv("CI_COMMIT_SHA"), "dev"),
		}
	}

	return Info{
		CI:  getenv("CI") == "true",
		Ref: "local",
		SHA: "dev",
	}
}

// SanitizeRef replaces characters that are unsafe in artifact names.
// "feature/new-exporter" becomes "feature-new-exporter".
func SanitizeRef(ref string) string {
	if ref == "" {
		return "local"
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	return replacer.Replace(ref)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
