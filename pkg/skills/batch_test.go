package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAll(t *testing.T) {
	ctx := context.Background()

	t.Run("all valid", func(t *testing.T) {
		parent := t.TempDir()
		writeSkill(t, parent, "skill-a", validDescriptor("skill-a"))
		writeSkill(t, parent, "skill-b", validDescriptor("skill-b"))

		report, err := ValidateAll(ctx, parent)
		require.NoError(t, err)
		assert.True(t, report.AllValid())
		assert.Equal(t, 0, report.Failed())
		assert.NoError(t, report.Err())
		assert.Len(t, report.Results, 2)
	})

	t.Run("one invalid", func(t *testing.T) {
		parent := t.TempDir()
		writeSkill(t, parent, "good-skill", validDescriptor("good-skill"))
		writeSkill(t, parent, "bad-skill", "---\nname: bad-skill\n---\n")

		report, err := ValidateAll(ctx, parent)
		require.NoError(t, err)
		assert.False(t, report.AllValid())
		assert.Equal(t, 1, report.Failed())

		require.Len(t, report.Results, 2)
		assert.Equal(t, "bad-skill", report.Results[0].Name)
		assert.False(t, report.Results[0].Valid)
		assert.Equal(t, "Missing 'description' in frontmatter", report.Results[0].Message)
		assert.Equal(t, "good-skill", report.Results[1].Name)
		assert.True(t, report.Results[1].Valid)

		require.Error(t, report.Err())
		assert.Contains(t, report.Err().Error(), "bad-skill: Missing 'description' in frontmatter")
	})

	t.Run("all invalid", func(t *testing.T) {
		parent := t.TempDir()
		writeSkill(t, parent, "one", "no frontmatter")
		writeSkill(t, parent, "two", "---\nname: Two\ndescription: x\n---\n")

		report, err := ValidateAll(ctx, parent)
		require.NoError(t, err)
		assert.False(t, report.AllValid())
		assert.Equal(t, 2, report.Failed())
	})

	t.Run("no skills found", func(t *testing.T) {
		parent := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(parent, "not-a-skill"), 0o755))

		report, err := ValidateAll(ctx, parent)
		assert.Nil(t, report)
		assert.True(t, errors.Is(err, ErrNoSkills))
	})

	t.Run("not a directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		report, err := ValidateAll(ctx, file)
		assert.Nil(t, report)
		assert.True(t, errors.Is(err, ErrNotDirectory))
	})

	t.Run("skips non skill directories", func(t *testing.T) {
		parent := t.TempDir()
		writeSkill(t, parent, "real-skill", validDescriptor("real-skill"))
		require.NoError(t, os.MkdirAll(filepath.Join(parent, "docs"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(parent, "README.md"), []byte("# readme"), 0o644))

		report, err := ValidateAll(ctx, parent)
		require.NoError(t, err)
		assert.True(t, report.AllValid())
		require.Len(t, report.Results, 1)
		assert.Equal(t, "real-skill", report.Results[0].Name)
	})
}

func TestCandidatesSorted(t *testing.T) {
	parent := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeSkill(t, parent, name, validDescriptor(name))
	}

	dirs, err := Candidates(parent)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(parent, "alpha"),
		filepath.Join(parent, "mid"),
		filepath.Join(parent, "zeta"),
	}, dirs)
}
