package skills

import (
	"context"
	"os"
	"path/filepath"

	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/telemetry"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrNotDirectory is returned when the skills parent path is not a directory
	ErrNotDirectory = errors.New("not a directory")
	// ErrNoSkills is returned when a parent directory holds no skill directories
	ErrNoSkills = errors.New("no skills found")
)

// Result is the validation outcome of a single skill directory
type Result struct {
	Name    string // directory name of the skill
	Dir     string
	Valid   bool
	Message string
}

// Report collects the results of validating every skill under a parent directory
type Report struct {
	Dir     string
	Results []Result
}

// AllValid reports whether every skill in the report passed validation
func (r *Report) AllValid() bool {
	for _, res := range r.Results {
		if !res.Valid {
			return false
		}
	}
	return true
}

// Failed returns the number of skills that failed validation
func (r *Report) Failed() int {
	failed := 0
	for _, res := range r.Results {
		if !res.Valid {
			failed++
		}
	}
	return failed
}

// Err returns all validation failures as one error, or nil when every skill is valid
func (r *Report) Err() error {
	var result *multierror.Error
	for _, res := range r.Results {
		if !res.Valid {
			result = multierror.Append(result, errors.Errorf("%s: %s", res.Name, res.Message))
		}
	}
	return result.ErrorOrNil()
}

// Candidates returns the immediate subdirectories of parent that contain a
// SKILL.md file, sorted by name. Other entries are skipped.
func Candidates(parent string) ([]string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", parent)
	}

	var dirs []string
	for _, entry := range entries {
		entryPath := filepath.Join(parent, entry.Name())

		info, err := os.Stat(entryPath)
		if err != nil || !info.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(entryPath, DescriptorFileName)); err != nil {
			continue
		}
		dirs = append(dirs, entryPath)
	}

	return dirs, nil
}

// ValidateAll validates every skill directory directly under parent. It
// returns ErrNotDirectory when parent is not a directory and ErrNoSkills
// when parent contains no skills.
func ValidateAll(ctx context.Context, parent string) (*Report, error) {
	var report *Report
	err := telemetry.WithSpan(ctx, "skills.validate_all", func(ctx context.Context) error {
		var err error
		report, err = validateAll(ctx, parent)
		return err
	}, attribute.String("skills.dir", parent))
	return report, err
}

func validateAll(ctx context.Context, parent string) (*Report, error) {
	if abs, err := filepath.Abs(parent); err == nil {
		parent = abs
	}

	info, err := os.Stat(parent)
	if err != nil || !info.IsDir() {
		return nil, errors.Wrap(ErrNotDirectory, parent)
	}

	dirs, err := Candidates(parent)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, errors.Wrap(ErrNoSkills, parent)
	}

	report := &Report{Dir: parent, Results: make([]Result, 0, len(dirs))}
	for _, dir := range dirs {
		valid, message := Validate(ctx, dir)
		report.Results = append(report.Results, Result{
			Name:    filepath.Base(dir),
			Dir:     dir,
			Valid:   valid,
			Message: message,
		})
	}

	telemetry.SetAttributes(ctx,
		attribute.Int("skills.total", len(report.Results)),
		attribute.Int("skills.failed", report.Failed()),
	)
	logger.G(ctx).WithField("skills_dir", parent).
		WithField("total", len(report.Results)).
		WithField("failed", report.Failed()).
		Debug("validated skills")

	return report, nil
}
