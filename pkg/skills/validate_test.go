package skills

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		manifest string
		valid    bool
		message  string
		kind     ErrorKind
	}{
		{
			name:    "valid skill",
			content: validDescriptor("test-skill"),
			valid:   true,
			message: "Skill 'test-skill' is valid",
		},
		{
			name: "valid with optional fields",
			content: `---
name: full-skill
description: A skill with every optional field
license: Apache-2.0
allowed-tools: Bash Read
metadata:
  owner: anyt
compatibility: Requires uv and ffmpeg
---
`,
			valid:   true,
			message: "Skill 'full-skill' is valid",
		},
		{
			name:    "missing frontmatter",
			content: "# No frontmatter\n",
			message: "SKILL.md must start with YAML frontmatter (---)",
			kind:    KindFormat,
		},
		{
			name:    "unterminated frontmatter",
			content: "---\nname: test-skill\ndescription: A test skill\n",
			message: "SKILL.md must have closing --- for YAML frontmatter",
			kind:    KindFormat,
		},
		{
			name:    "frontmatter not a mapping",
			content: "---\n- name\n---\n",
			message: "YAML frontmatter must be a mapping",
			kind:    KindFormat,
		},
		{
			name:    "unknown keys are sorted",
			content: "---\nname: test-skill\ndescription: A test skill\nzeta: 1\nauthor: me\n---\n",
			message: "Unknown frontmatter keys: author, zeta",
			kind:    KindSchema,
		},
		{
			name:    "missing name",
			content: "---\ndescription: A test skill\n---\n",
			message: "Missing 'name' in frontmatter",
			kind:    KindSchema,
		},
		{
			name:    "empty name",
			content: "---\nname: \"\"\ndescription: A test skill\n---\n",
			message: "Missing 'name' in frontmatter",
			kind:    KindSchema,
		},
		{
			name:    "name not a string",
			content: "---\nname: 42\ndescription: A test skill\n---\n",
			message: "'name' must be a string",
			kind:    KindSchema,
		},
		{
			name:    "name too long",
			content: "---\nname: " + strings.Repeat("a", 65) + "\ndescription: A test skill\n---\n",
			message: "Skill name must be 64 characters or fewer",
			kind:    KindSchema,
		},
		{
			name:    "name uppercase",
			content: "---\nname: Test-Skill\ndescription: A test skill\n---\n",
			message: "Skill name must be kebab-case (lowercase, digits, single hyphens)",
			kind:    KindSchema,
		},
		{
			name:    "missing description",
			content: "---\nname: test-skill\n---\n",
			message: "Missing 'description' in frontmatter",
			kind:    KindSchema,
		},
		{
			name:    "description not a string",
			content: "---\nname: test-skill\ndescription: [a, b]\n---\n",
			message: "'description' must be a string",
			kind:    KindSchema,
		},
		{
			name:    "description too long",
			content: "---\nname: test-skill\ndescription: " + strings.Repeat("d", 1025) + "\n---\n",
			message: "Description must be 1024 characters or fewer",
			kind:    KindSchema,
		},
		{
			name:    "description with angle brackets",
			content: "---\nname: test-skill\ndescription: Use <b>bold</b>\n---\n",
			message: "Description must not contain angle brackets",
			kind:    KindSchema,
		},
		{
			name:    "compatibility not a string",
			content: "---\nname: test-skill\ndescription: A test skill\ncompatibility: 3\n---\n",
			message: "'compatibility' must be a string",
			kind:    KindSchema,
		},
		{
			name:    "compatibility too long",
			content: "---\nname: test-skill\ndescription: A test skill\ncompatibility: " + strings.Repeat("c", 501) + "\n---\n",
			message: "Compatibility must be 500 characters or fewer",
			kind:    KindSchema,
		},
		{
			name:     "valid manifest",
			content:  validDescriptor("test-skill"),
			manifest: `{"name": "test-skill"}`,
			valid:    true,
			message:  "Skill 'test-skill' is valid",
		},
		{
			name:     "invalid manifest",
			content:  validDescriptor("test-skill"),
			manifest: `{"name": `,
			message:  "Invalid pspm.json: ",
			kind:     KindFormat,
		},
		{
			name:     "name checked before manifest",
			content:  "---\nname: Bad_Name\ndescription: A test skill\n---\n",
			manifest: `not json`,
			message:  "Skill name must be kebab-case (lowercase, digits, single hyphens)",
			kind:     KindSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeSkill(t, t.TempDir(), "skill", tt.content)
			if tt.manifest != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(tt.manifest), 0o644))
			}

			valid, message := Validate(context.Background(), dir)
			assert.Equal(t, tt.valid, valid)
			assert.True(t, strings.HasPrefix(message, tt.message), "message %q should start with %q", message, tt.message)

			_, err := Check(context.Background(), dir)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.kind, verr.Kind)
		})
	}
}

func TestValidateStructuralFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing descriptor", func(t *testing.T) {
		valid, message := Validate(ctx, t.TempDir())
		assert.False(t, valid)
		assert.Equal(t, "SKILL.md not found", message)
	})

	t.Run("not a directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		valid, message := Validate(ctx, file)
		assert.False(t, valid)
		assert.Equal(t, "Not a directory: "+file, message)
	})

	t.Run("missing path", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing")
		valid, message := Validate(ctx, missing)
		assert.False(t, valid)
		assert.Contains(t, message, "Not a directory")
	})
}

func TestCheckReturnsFrontmatter(t *testing.T) {
	dir := writeSkill(t, t.TempDir(), "full-skill", `---
name: full-skill
description: Everything set
license: MIT
allowed-tools: [Bash, Read]
compatibility: Python 3.10+
metadata:
  owner: anyt
---
`)

	fm, err := Check(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "full-skill", fm.Name)
	assert.Equal(t, "Everything set", fm.Description)
	assert.Equal(t, "Python 3.10+", fm.Compatibility)
	assert.Equal(t, "MIT", fm.License)
	assert.Equal(t, []any{"Bash", "Read"}, fm.AllowedTools)
	assert.Equal(t, map[string]any{"owner": "anyt"}, fm.Metadata)
}

func TestUnterminatedFrontmatterAlwaysFails(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		body := rapid.StringMatching(`[a-zA-Z0-9 :#\n]{0,200}`).Draw(rt, "body")
		content := "---\nname: test-skill\ndescription: A test skill\n" + body

		_, err := ParseFrontmatter([]byte(content))
		if !errors.Is(err, ErrUnterminatedFrontmatter) {
			rt.Fatalf("expected unterminated frontmatter error, got %v", err)
		}
	})
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "skill", true},
		{"kebab", "my-cool-skill", true},
		{"digits", "skill-2", true},
		{"max length", strings.Repeat("a", 64), true},
		{"uppercase", "My-Skill", false},
		{"underscore", "my_skill", false},
		{"leading hyphen", "-skill", false},
		{"trailing hyphen", "skill-", false},
		{"double hyphen", "my--skill", false},
		{"space", "my skill", false},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// descriptionText generates strings of minRunes to maxRunes runes with no angle brackets
func descriptionText(minRunes, maxRunes int) *rapid.Generator[string] {
	r := rapid.Rune().Filter(func(r rune) bool { return r != '<' && r != '>' })
	return rapid.StringOfN(r, minRunes, maxRunes, -1)
}

func kebabName() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		segments := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9]{1,8}`), 1, 7).Draw(t, "segments")
		return strings.Join(segments, "-")
	})
}

func TestValidateNameAcceptsKebabCase(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := kebabName().Draw(rt, "name")
		if err := ValidateName(name); err != nil {
			rt.Fatalf("ValidateName(%q) = %v", name, err)
		}
	})
}

func TestValidateNameRejectsMalformed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := kebabName().Draw(rt, "name")
		mutation := rapid.SampledFrom([]string{"upper", "underscore", "leading", "trailing", "double"}).Draw(rt, "mutation")

		var bad string
		switch mutation {
		case "upper":
			bad = name + "X"
		case "underscore":
			bad = name + "_x"
		case "leading":
			bad = "-" + name
		case "trailing":
			bad = name + "-"
		case "double":
			bad = name + "--x"
		}

		if err := ValidateName(bad); err == nil {
			rt.Fatalf("ValidateName(%q) accepted a %s mutation", bad, mutation)
		}
	})
}

func TestValidateDescription(t *testing.T) {
	assert.NoError(t, ValidateDescription(strings.Repeat("d", 1024)))
	assert.NoError(t, ValidateDescription(strings.Repeat("é", 1024)))
	assert.Error(t, ValidateDescription(strings.Repeat("d", 1025)))
	assert.Error(t, ValidateDescription("a < b"))
	assert.Error(t, ValidateDescription("a > b"))
}

func TestValidateDescriptionProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		desc := descriptionText(0, MaxDescriptionLength).Draw(rt, "description")
		if err := ValidateDescription(desc); err != nil {
			rt.Fatalf("ValidateDescription rejected %q: %v", desc, err)
		}

		prefix := descriptionText(0, 100).Draw(rt, "prefix")
		bracket := rapid.SampledFrom([]string{"<", ">"}).Draw(rt, "bracket")
		if err := ValidateDescription(prefix + bracket); err == nil {
			rt.Fatalf("ValidateDescription accepted %q", prefix+bracket)
		}
	})
}

func TestUnknownKeysMessageNamesExtras(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		extras := rapid.SliceOfNDistinct(rapid.StringMatching(`x[a-z]{1,6}`), 1, 4, func(s string) string { return s }).Draw(rt, "extras")

		v := &validation{metadata: map[string]any{"name": "ok", "description": "ok"}}
		for _, key := range extras {
			v.metadata[key] = "value"
		}

		verr := checkUnknownKeys(v)
		if verr == nil {
			rt.Fatalf("extra keys %v were accepted", extras)
		}

		sorted := append([]string(nil), extras...)
		sort.Strings(sorted)
		want := "Unknown frontmatter keys: " + strings.Join(sorted, ", ")
		if verr.Message != want {
			rt.Fatalf("got %q, want %q", verr.Message, want)
		}
	})
}

func TestCheckChainStopsAtFirstFailure(t *testing.T) {
	dir := writeSkill(t, t.TempDir(), "chain",
		"---\nname: Bad_Name\ndescription: <bad>\nextra: 1\n---\n")

	fm, err := Check(context.Background(), dir)
	assert.Nil(t, fm)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, KindSchema, verr.Kind)
	assert.Equal(t, "Unknown frontmatter keys: extra", verr.Message)
}

func TestAllowedFrontmatterKeys(t *testing.T) {
	keys := AllowedFrontmatterKeys()
	assert.Equal(t, []string{"allowed-tools", "compatibility", "description", "license", "metadata", "name"}, keys)

	metadata := map[string]any{"name": "ok", "description": "ok"}
	for _, key := range keys {
		if _, ok := metadata[key]; !ok {
			metadata[key] = "value"
		}
	}
	assert.Nil(t, checkUnknownKeys(&validation{metadata: metadata}))
}
