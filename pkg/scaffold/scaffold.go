// Package scaffold creates new skill directories from embedded templates.
package scaffold

import (
	"bytes"
	"context"
	"embed"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/manifest"
	"github.com/anyt-io/notebook/pkg/packager"
	"github.com/anyt-io/notebook/pkg/skills"
	"github.com/anyt-io/notebook/pkg/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Template files
//
//go:embed templates/*
var TemplateFS embed.FS

// Runtime selects the language toolchain of the skill's runtime folder
type Runtime string

const (
	// RuntimePython scaffolds a uv-managed Python runtime
	RuntimePython Runtime = "py"
	// RuntimeTypeScript scaffolds a bun-managed TypeScript runtime
	RuntimeTypeScript Runtime = "ts"
)

var (
	// ErrAlreadyExists is returned when the target skill directory exists
	ErrAlreadyExists = errors.New("directory already exists")
	// ErrUnknownRuntime is returned for runtimes other than py and ts
	ErrUnknownRuntime = errors.New("unknown runtime type")
)

// Options describes the skill to create
type Options struct {
	Name     string  // kebab-case skill name, also the directory name
	BasePath string  // parent directory, defaults to "."
	Runtime  Runtime // defaults to RuntimePython
}

// templateData is passed to every template
type templateData struct {
	Name    string
	Title   string
	Runtime Runtime
}

// file maps a template to its destination relative to the skill directory
type file struct {
	template string
	dest     string
}

var commonFiles = []file{
	{"templates/skill.md.tmpl", skills.DescriptorFileName},
	{"templates/pspmignore.tmpl", packager.IgnoreFileName},
	{"templates/gitignore.tmpl", ".gitignore"},
}

var runtimeFiles = map[Runtime][]file{
	RuntimePython: {
		{"templates/py/pyproject.toml.tmpl", "runtime/pyproject.toml"},
		{"templates/py/example.py.tmpl", "runtime/example.py"},
		{"templates/py/tests_init.py.tmpl", "runtime/tests/__init__.py"},
		{"templates/py/test_example.py.tmpl", "runtime/tests/test_example.py"},
	},
	RuntimeTypeScript: {
		{"templates/ts/package.json.tmpl", "runtime/package.json"},
		{"templates/ts/example.ts.tmpl", "runtime/example.ts"},
	},
}

// Title turns a kebab-case name into a heading, e.g. "pdf-tools" becomes "Pdf Tools"
func Title(name string) string {
	words := strings.Split(name, "-")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Init creates a new skill directory under opts.BasePath and returns its path.
// Nothing is left on disk if any file fails to be written.
func Init(ctx context.Context, opts Options) (string, error) {
	var skillPath string
	err := telemetry.WithSpan(ctx, "scaffold.init", func(ctx context.Context) error {
		var err error
		skillPath, err = initSkill(ctx, opts)
		return err
	}, attribute.String("skill.name", opts.Name), attribute.String("skill.runtime", string(opts.Runtime)))
	return skillPath, err
}

func initSkill(ctx context.Context, opts Options) (string, error) {
	if err := skills.ValidateName(opts.Name); err != nil {
		return "", err
	}

	runtime := opts.Runtime
	if runtime == "" {
		runtime = RuntimePython
	}
	extra, ok := runtimeFiles[runtime]
	if !ok {
		return "", errors.Wrapf(ErrUnknownRuntime, "%q (expected py or ts)", runtime)
	}

	base := opts.BasePath
	if base == "" {
		base = "."
	}
	skillPath := filepath.Join(base, opts.Name)
	if _, err := os.Lstat(skillPath); err == nil {
		return "", errors.Wrap(ErrAlreadyExists, skillPath)
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "failed to access %s", skillPath)
	}

	data := templateData{Name: opts.Name, Title: Title(opts.Name), Runtime: runtime}

	if err := writeSkill(skillPath, data, slices.Concat(commonFiles, extra)); err != nil {
		os.RemoveAll(skillPath)
		return "", err
	}

	logger.G(ctx).WithField("path", skillPath).
		WithField("runtime", runtime).
		Debug("initialized skill")

	return skillPath, nil
}

func writeSkill(skillPath string, data templateData, files []file) error {
	if err := os.MkdirAll(filepath.Join(skillPath, "runtime"), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", skillPath)
	}

	for _, f := range files {
		content, err := render(f.template, data)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(skillPath, filepath.FromSlash(f.dest)), content); err != nil {
			return err
		}
	}

	m, err := manifest.Default(data.Name).Marshal()
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(skillPath, skills.ManifestFileName), m)
}

func render(name string, data templateData) ([]byte, error) {
	tmplContent, err := TemplateFS.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template file %s", name)
	}

	tmpl, err := template.New(filepath.Base(name)).Parse(string(tmplContent))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse template %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "failed to execute template %s", name)
	}
	return buf.Bytes(), nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
