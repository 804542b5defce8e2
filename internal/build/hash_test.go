package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceDigest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0o644))
	target := Target{Name: "api", Dir: dir, Source: "main.go"}

	first, err := SourceDigest(target)
	require.NoError(t, err)
	assert.Len(t, first, 12)

	again, err := SourceDigest(target)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("changed"), 0o644))
	unchanged, err := SourceDigest(target)
	require.NoError(t, err)
	assert.Equal(t, first, unchanged, "non-Go files are not part of the digest")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	changed, err := SourceDigest(target)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestSourceDigest_MissingDir(t *testing.T) {
	_, err := SourceDigest(Target{Name: "api", Dir: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}
