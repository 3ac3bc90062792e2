package packager

import (
	"bufio"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// IgnoreFileName is the per-skill publishing exclusion file
const IgnoreFileName = ".pspmignore"

// compiledSuffix is the extension of compiled bytecode files, never packaged
const compiledSuffix = ".pyc"

// excludedSegments are dev artifacts never packaged, matched against every
// segment of a path relative to the skill root
var excludedSegments = map[string]struct{}{
	".venv":           {},
	"__pycache__":     {},
	".ruff_cache":     {},
	".pytest_cache":   {},
	".pyc":            {},
	"uv.lock":         {},
	".python-version": {},
	"node_modules":    {},
	"bun.lock":        {},
}

// IsExcluded reports whether the slash-separated path rel, relative to the
// skill root, falls under the built-in dev artifact exclusions
func IsExcluded(rel string) bool {
	return hasExcludedSegment(rel) || path.Ext(rel) == compiledSuffix
}

func hasExcludedSegment(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if _, ok := excludedSegments[segment]; ok {
			return true
		}
	}
	return false
}

// ignorePattern is one line of a .pspmignore file
type ignorePattern struct {
	pattern  string
	anchored bool // contains a slash, so matched against leading path prefixes
	dirOnly  bool // trailing slash, so never matches the file itself
	negate   bool // leading "!", re-includes what earlier patterns excluded
}

func (p ignorePattern) match(rel string, isDir bool) bool {
	segments := strings.Split(rel, "/")
	for i := range segments {
		last := i == len(segments)-1
		if p.dirOnly && last && !isDir {
			continue
		}
		candidate := segments[i]
		if p.anchored {
			candidate = strings.Join(segments[:i+1], "/")
		}
		if ok, _ := doublestar.Match(p.pattern, candidate); ok {
			return true
		}
	}
	return false
}

// Matcher decides which files are left out of a skill archive. The built-in
// exclusions always apply; configured globs and .pspmignore patterns add to them.
type Matcher struct {
	globs  []glob.Glob
	ignore []ignorePattern
}

// NewMatcher compiles extra exclusion globs. Each glob is matched against
// every path segment, so "*.log" excludes log files at any depth.
func NewMatcher(globs []string) (*Matcher, error) {
	m := &Matcher{}
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		compiled, err := glob.Compile(g)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid exclude pattern %q", g)
		}
		m.globs = append(m.globs, compiled)
	}
	return m, nil
}

// LoadIgnoreFile adds the patterns of a .pspmignore file. A missing file is
// not an error. Blank lines and comments are skipped.
func (m *Matcher) LoadIgnoreFile(filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to open %s", filePath)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := m.AddIgnorePattern(line); err != nil {
			return err
		}
	}
	return errors.Wrapf(scanner.Err(), "failed to read %s", filePath)
}

// AddIgnorePattern adds a single gitignore-style pattern. A leading "!"
// re-includes matching paths unless a parent directory is excluded.
func (m *Matcher) AddIgnorePattern(line string) error {
	p := ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = strings.TrimLeft(line, "/")
	}
	if strings.Contains(line, "/") {
		p.anchored = true
	}
	if line == "" {
		return nil
	}
	if !doublestar.ValidatePattern(line) {
		return errors.Errorf("invalid ignore pattern %q", line)
	}
	p.pattern = line
	m.ignore = append(m.ignore, p)
	return nil
}

// Excluded reports whether the slash-separated path rel should be left out
func (m *Matcher) Excluded(rel string, isDir bool) bool {
	if isDir && hasExcludedSegment(rel) || !isDir && IsExcluded(rel) {
		return true
	}
	for _, g := range m.globs {
		for _, segment := range strings.Split(rel, "/") {
			if g.Match(segment) {
				return true
			}
		}
	}
	segments := strings.Split(rel, "/")
	for i := 1; i < len(segments); i++ {
		if m.ignored(strings.Join(segments[:i], "/"), true) {
			return true
		}
	}
	return m.ignored(rel, isDir)
}

// ignored applies the ignore patterns in order; the last match wins
func (m *Matcher) ignored(rel string, isDir bool) bool {
	excluded := false
	for _, p := range m.ignore {
		if p.match(rel, isDir) {
			excluded = !p.negate
		}
	}
	return excluded
}
