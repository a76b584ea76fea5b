package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanChannel(t *testing.T) {
	assert.Equal(t, "mychannel", CleanChannel("https://t.me/mychannel"))
	assert.Equal(t, "mychannel", CleanChannel("@mychannel"))
	assert.Equal(t, "mychannel", CleanChannel(" mychannel "))
	assert.Equal(t, "foo", CleanChannel("https://t.me/@foo "))
	assert.Equal(t, "foo", CleanChannel("@foo"))
}

func TestNormalizeSiteURL(t *testing.T) {
	assert.Equal(t, "", NormalizeSiteURL(""))
	assert.Equal(t, "https://example.com/", NormalizeSiteURL("https://example.com"))
	assert.Equal(t, "https://example.com/", NormalizeSiteURL("https://example.com/"))
}

func TestInferGitHubPagesURL(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY_OWNER", "octo")
	t.Setenv("GITHUB_REPOSITORY", "octo/mirror")
	assert.Equal(t, "https://octo.github.io/mirror/", InferGitHubPagesURL())

	t.Setenv("GITHUB_REPOSITORY", "octo/octo.github.io")
	assert.Equal(t, "https://octo.github.io/", InferGitHubPagesURL())

	t.Setenv("GITHUB_REPOSITORY_OWNER", "")
	t.Setenv("GITHUB_REPOSITORY", "")
	assert.Equal(t, "", InferGitHubPagesURL())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "yes")
	assert.True(t, envBool("X_BOOL", false))
	t.Setenv("X_BOOL", "off")
	assert.False(t, envBool("X_BOOL", true))
	t.Setenv("X_BOOL", "nonsense")
	assert.True(t, envBool("X_BOOL", true))

	t.Setenv("X_INT", "42")
	assert.Equal(t, 42, envInt("X_INT", 7))
	t.Setenv("X_INT", "not-a-number")
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 7, envInt("X_INT_UNSET", 7))
}
