package ciinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func envFunc(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestDetect_GitHubActions(t *testing.T) {
	t.Parallel()

	info := detect(envFunc(map[string]string{
		"GITHUB_ACTIONS":  "true",
		"GITHUB_REF_NAME": "feature/new-exporter",
		"GITHUB_SHA":      "0123456789abcdef0123456789abcdef01234567",
	}))

	assert.True(t, info.CI)
	assert.Equal(t, "feature-new-exporter", info.Ref)
	assert.Equal(t, "0123456", info.ShortSHA())
}

func TestDetect_GitHubActions_RefFallback(t *testing.T) {
	t.Parallel()

	info := detect(envFunc(map[string]string{
		"GITHUB_ACTIONS": "true",
		"GITHUB_REF":     "refs/heads/main",
	}))

	assert.Equal(t, "main", info.Ref)
	assert.Equal(t, "dev", info.SHA)
}

func TestDetect_GitLab(t *testing.T) {
	t.Parallel()

	info := detect(envFunc(map[string]string{
		"GITLAB_CI":          "true",
		"CI_COMMIT_REF_NAME": "v1.2.3",
		"CI_COMMIT_SHA":      "abc1234",
	}))

	assert.True(t, info.CI)
	assert.Equal(t, "v1.2.3", info.Ref)
	assert.Equal(t, "abc1234", info.ShortSHA())
}

func TestDetect_Local(t *testing.T) {
	t.Parallel()

	info := detect(envFunc(nil))
	assert.False(t, info.CI)
	assert.Equal(t, "local", info.Ref)
	assert.Equal(t, "dev", info.SHA)
}

func TestSanitizeRef(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "local", SanitizeRef(""))
	assert.Equal(t, "feature-x", SanitizeRef("feature/x"))
	assert.Equal(t, "a-b-c-d", SanitizeRef(`a\b:c d`))
}
