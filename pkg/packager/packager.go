// Package packager builds distributable .skill archives from validated skill
// directories. An archive is a deflate-compressed ZIP whose entries all live
// under a top-level folder named after the skill directory.
package packager

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/skills"
	"github.com/anyt-io/notebook/pkg/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultExtension is the file extension of skill archives
const DefaultExtension = ".skill"

var (
	// ErrSkillNotFound is returned when the skill directory does not exist
	ErrSkillNotFound = errors.New("skill folder not found")
	// ErrNotDirectory is returned when the skill path is not a directory
	ErrNotDirectory = errors.New("path is not a directory")
	// ErrDescriptorMissing is returned when the skill directory has no SKILL.md
	ErrDescriptorMissing = errors.New(skills.DescriptorFileName + " not found")
)

// ValidationFailedError is returned when the skill does not pass validation.
// No archive is written in that case.
type ValidationFailedError struct {
	Message string
}

func (e *ValidationFailedError) Error() string {
	return "validation failed: " + e.Message
}

// Packager writes skill archives
type Packager struct {
	outputDir     string
	extension     string
	excludes      []string
	respectIgnore bool
	onEntry       func(entry string)
}

// Option configures a Packager
type Option func(*Packager)

// WithOutputDir sets the directory the archive is written to. It is created
// if absent. Defaults to the current working directory.
func WithOutputDir(dir string) Option {
	return func(p *Packager) {
		p.outputDir = dir
	}
}

// WithExtension overrides the archive file extension
func WithExtension(ext string) Option {
	return func(p *Packager) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		p.extension = ext
	}
}

// WithExcludes adds glob patterns matched against every path segment
func WithExcludes(patterns ...string) Option {
	return func(p *Packager) {
		p.excludes = append(p.excludes, patterns...)
	}
}

// WithIgnoreFile makes the packager honour the skill's .pspmignore file
func WithIgnoreFile(enabled bool) Option {
	return func(p *Packager) {
		p.respectIgnore = enabled
	}
}

// WithEntryCallback registers a function called with each archive entry name as it is added
func WithEntryCallback(fn func(entry string)) Option {
	return func(p *Packager) {
		p.onEntry = fn
	}
}

// New creates a Packager
func New(opts ...Option) *Packager {
	p := &Packager{extension: DefaultExtension}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Package validates skillDir and writes its archive, returning the archive path
func Package(ctx context.Context, skillDir string, opts ...Option) (string, error) {
	return New(opts...).Package(ctx, skillDir)
}

// Package validates skillDir and writes its archive, returning the archive
// path. The archive is written to a temporary file and renamed into place,
// so a failure never leaves a partial archive at the destination.
func (p *Packager) Package(ctx context.Context, skillDir string) (string, error) {
	var archivePath string
	err := telemetry.WithSpan(ctx, "packager.package", func(ctx context.Context) error {
		var err error
		archivePath, err = p.pack(ctx, skillDir)
		return err
	}, attribute.String("skill.dir", skillDir))
	return archivePath, err
}

func (p *Packager) pack(ctx context.Context, skillDir string) (string, error) {
	if abs, err := filepath.Abs(skillDir); err == nil {
		skillDir = abs
	}

	info, err := os.Stat(skillDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(ErrSkillNotFound, skillDir)
		}
		return "", errors.Wrapf(err, "failed to access %s", skillDir)
	}
	if !info.IsDir() {
		return "", errors.Wrap(ErrNotDirectory, skillDir)
	}
	if _, err := os.Stat(filepath.Join(skillDir, skills.DescriptorFileName)); err != nil {
		return "", errors.Wrap(ErrDescriptorMissing, skillDir)
	}

	if _, err := skills.Check(ctx, skillDir); err != nil {
		var verr *skills.ValidationError
		if errors.As(err, &verr) {
			return "", &ValidationFailedError{Message: verr.Message}
		}
		return "", err
	}

	matcher, err := NewMatcher(p.excludes)
	if err != nil {
		return "", err
	}
	if p.respectIgnore {
		if err := matcher.LoadIgnoreFile(filepath.Join(skillDir, IgnoreFileName)); err != nil {
			return "", err
		}
	}

	outDir, err := p.resolveOutputDir()
	if err != nil {
		return "", err
	}

	skillName := filepath.Base(skillDir)
	archivePath := filepath.Join(outDir, skillName+p.extension)

	files, err := collectFiles(ctx, skillDir, archivePath, matcher)
	if err != nil {
		return "", err
	}

	if err := p.writeArchive(archivePath, skillDir, skillName, files); err != nil {
		return "", err
	}

	telemetry.SetAttributes(ctx,
		attribute.String("archive.path", archivePath),
		attribute.Int("archive.entries", len(files)),
	)
	logger.G(ctx).WithField("archive", archivePath).
		WithField("entries", len(files)).
		Debug("packaged skill")

	return archivePath, nil
}

func (p *Packager) resolveOutputDir() (string, error) {
	if p.outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "failed to get working directory")
		}
		return wd, nil
	}

	out, err := filepath.Abs(p.outputDir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve output directory %s", p.outputDir)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create output directory %s", out)
	}
	return out, nil
}

// collectFiles returns the slash-separated relative paths of every regular
// file under root that the matcher keeps, in segment-wise lexical order
func collectFiles(ctx context.Context, root, archivePath string, matcher *Matcher) ([]string, error) {
	log := logger.G(ctx)
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.Excluded(rel, true) {
				log.WithField("path", rel).Debug("excluded directory from package")
				return filepath.SkipDir
			}
			return nil
		}

		if !isRegularFile(path, d) || path == archivePath {
			return nil
		}
		if matcher.Excluded(rel, false) {
			telemetry.AddEvent(ctx, "excluded", attribute.String("path", rel))
			log.WithField("path", rel).Debug("excluded file from package")
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", root)
	}

	slices.SortFunc(files, compareSegments)
	return files, nil
}

// isRegularFile follows symlinks the way a file check on the path would
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func compareSegments(a, b string) int {
	return slices.Compare(strings.Split(a, "/"), strings.Split(b, "/"))
}

func (p *Packager) writeArchive(archivePath, root, skillName string, files []string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(archivePath), "."+skillName+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create archive file")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, rel := range files {
		entry := skillName + "/" + rel
		if err = addFile(zw, filepath.Join(root, filepath.FromSlash(rel)), entry); err != nil {
			zw.Close()
			return errors.Wrapf(err, "failed to add %s", entry)
		}
		if p.onEntry != nil {
			p.onEntry(entry)
		}
	}

	// Close writes the central directory
	if err = zw.Close(); err != nil {
		return errors.Wrap(err, "failed to finalize archive")
	}
	if err = tmp.Chmod(0o644); err != nil {
		return errors.Wrap(err, "failed to set archive permissions")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close archive file")
	}
	if err = os.Rename(tmp.Name(), archivePath); err != nil {
		return errors.Wrapf(err, "failed to move archive to %s", archivePath)
	}
	return nil
}

func addFile(zw *zip.Writer, path, entry string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = entry
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
