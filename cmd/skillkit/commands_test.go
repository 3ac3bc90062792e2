package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageErrorMessage(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()

	cfg := NewPackageConfig()
	cfg.OutputDir = filepath.Join(base, "dist")

	_, err := packageSkill(ctx, filepath.Join(base, "missing"), cfg)
	assert.Equal(t, "Skill folder not found: "+filepath.Join(base, "missing"), packageErrorMessage(err, filepath.Join(base, "missing")))

	bad := filepath.Join(base, "bad")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "SKILL.md"), []byte("---\nname: bad\n---\n"), 0o644))
	_, err = packageSkill(ctx, bad, cfg)
	assert.Equal(t, "Validation failed: Missing 'description' in frontmatter", packageErrorMessage(err, bad))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééééééé...", truncate(strings.Repeat("é", 20), 10))
}
