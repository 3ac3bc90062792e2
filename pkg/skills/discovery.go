package skills

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Discovery finds skills under a set of parent directories
type Discovery struct {
	skillDirs []string
	markdown  goldmark.Markdown
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithSkillDirs sets the parent directories to scan for skills
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.skillDirs = dirs
		return nil
	}
}

// WithWorkingDir scans the current working directory
func WithWorkingDir() Option {
	return func(d *Discovery) error {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get working directory")
		}
		d.skillDirs = []string{wd}
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance. Without options it
// scans the current working directory.
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{
		markdown: goldmark.New(goldmark.WithExtensions(meta.Meta)),
	}

	if len(opts) == 0 {
		opts = []Option{WithWorkingDir()}
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// DiscoverSkills finds all loadable skills in the configured directories.
// When two directories hold a skill with the same name the first one wins.
func (d *Discovery) DiscoverSkills() (map[string]*Skill, error) {
	skills := make(map[string]*Skill)

	for _, dir := range d.skillDirs {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to access skills directory %s", dir)
		}
		if !info.IsDir() {
			return nil, errors.Wrap(ErrNotDirectory, dir)
		}

		candidates, err := Candidates(dir)
		if err != nil {
			return nil, err
		}
		for _, candidate := range candidates {
			skill, err := d.loadSkill(filepath.Join(candidate, DescriptorFileName))
			if err != nil {
				continue
			}
			if _, exists := skills[skill.Name]; !exists {
				skill.Directory = candidate
				skills[skill.Name] = skill
			}
		}
	}

	return skills, nil
}

// GetSkill returns a specific skill by name
func (d *Discovery) GetSkill(name string) (*Skill, error) {
	skills, err := d.DiscoverSkills()
	if err != nil {
		return nil, err
	}

	skill, exists := skills[name]
	if !exists {
		return nil, errors.Errorf("skill '%s' not found", name)
	}

	return skill, nil
}

// ListSkillNames returns the sorted names of all discovered skills
func (d *Discovery) ListSkillNames() ([]string, error) {
	skills, err := d.DiscoverSkills()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// loadSkill loads a single skill from its SKILL.md file. Loading is lenient:
// only name and description are required, the full rule set is Check's job.
func (d *Discovery) loadSkill(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	pctx := parser.NewContext()
	root := d.markdown.Parser().Parse(text.NewReader(content), parser.WithContext(pctx))

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse frontmatter")
	}
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)

	if name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	body := string(content)
	if _, rest, err := splitFrontmatter(body); err == nil {
		body = rest
	}

	return &Skill{
		Name:        name,
		Description: description,
		Title:       firstHeading(root, content),
		Content:     body,
	}, nil
}

// firstHeading returns the plain text of the first level-1 heading
func firstHeading(root ast.Node, source []byte) string {
	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 1 {
			return ast.WalkContinue, nil
		}
		var sb strings.Builder
		for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		title = strings.TrimSpace(sb.String())
		return ast.WalkStop, nil
	})
	return title
}

// FilterByAllowlist filters skills by an allowlist of names
// If the allowlist is empty, all skills are returned
func FilterByAllowlist(skills map[string]*Skill, allowed []string) map[string]*Skill {
	if len(allowed) == 0 {
		return skills
	}

	filtered := make(map[string]*Skill)
	for _, name := range allowed {
		if skill, exists := skills[name]; exists {
			filtered[name] = skill
		}
	}
	return filtered
}
