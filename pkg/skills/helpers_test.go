package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeSkill creates parent/name/SKILL.md with content and returns the skill directory
func writeSkill(t *testing.T, parent, name, content string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName), []byte(content), 0o644))
	return dir
}

func validDescriptor(name string) string {
	return "---\nname: " + name + "\ndescription: A test skill\n---\n\n# " + name + "\n"
}
