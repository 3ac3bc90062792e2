// Package skills implements the PSPM skill toolchain core: parsing the YAML
// frontmatter of SKILL.md files, validating skill directories against the
// frontmatter rules, batch validation of a directory of skills, and skill
// discovery for listing.
// A skill is a directory containing a SKILL.md file whose frontmatter
// describes the skill, optionally accompanied by a pspm.json manifest.
package skills

import "sort"

const (
	// DescriptorFileName is the required descriptor file of every skill
	DescriptorFileName = "SKILL.md"
	// ManifestFileName is the optional package manifest sitting next to the descriptor
	ManifestFileName = "pspm.json"

	// MaxNameLength is the maximum number of characters in a skill name
	MaxNameLength = 64
	// MaxDescriptionLength is the maximum number of characters in a description
	MaxDescriptionLength = 1024
	// MaxCompatibilityLength is the maximum number of characters in a compatibility string
	MaxCompatibilityLength = 500
)

// allowedFrontmatterKeys is the closed set of keys accepted in SKILL.md frontmatter
var allowedFrontmatterKeys = map[string]struct{}{
	"name":          {},
	"description":   {},
	"license":       {},
	"allowed-tools": {},
	"metadata":      {},
	"compatibility": {},
}

// AllowedFrontmatterKeys returns the accepted frontmatter keys in alphabetical order
func AllowedFrontmatterKeys() []string {
	keys := make([]string, 0, len(allowedFrontmatterKeys))
	for key := range allowedFrontmatterKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Skill represents a discovered skill with its metadata
type Skill struct {
	Name        string // Unique name from frontmatter
	Description string // Brief description of what the skill does
	Title       string // First level-1 heading of the body, if any
	Directory   string // Full path to the skill directory
	Content     string // Body of SKILL.md without the frontmatter
}

// Frontmatter is the typed form of a validated SKILL.md frontmatter block.
// Only name, description and compatibility are checked by the validator;
// the remaining optional keys are carried as whatever YAML produced.
type Frontmatter struct {
	Name          string `mapstructure:"name"`
	Description   string `mapstructure:"description"`
	Compatibility string `mapstructure:"compatibility"`
	License       any    `mapstructure:"license"`
	AllowedTools  any    `mapstructure:"allowed-tools"`
	Metadata      any    `mapstructure:"metadata"`
}
