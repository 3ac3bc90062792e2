package skills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/anyt-io/notebook/pkg/logger"
	"github.com/anyt-io/notebook/pkg/manifest"
	"github.com/anyt-io/notebook/pkg/telemetry"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ErrorKind classifies why a skill failed validation
type ErrorKind int

const (
	// KindStructural covers a missing directory or a missing required file
	KindStructural ErrorKind = iota
	// KindFormat covers unparseable frontmatter or manifest content
	KindFormat
	// KindSchema covers frontmatter that parses but breaks a field rule
	KindSchema
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindFormat:
		return "format"
	case KindSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// ValidationError is the first rule a skill directory violated
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func structural(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindStructural, Message: fmt.Sprintf(format, args...)}
}

func formatErr(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindFormat, Message: fmt.Sprintf(format, args...)}
}

func schemaErr(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindSchema, Message: fmt.Sprintf(format, args...)}
}

// validation is the state threaded through the check chain
type validation struct {
	dir      string
	content  []byte
	metadata map[string]any
}

type checkFunc func(v *validation) *ValidationError

// checks run in order and the first failure stops validation
var checks = []checkFunc{
	checkDirectory,
	checkDescriptor,
	checkFrontmatter,
	checkUnknownKeys,
	checkName,
	checkDescription,
	checkCompatibility,
	checkManifest,
}

// Validate validates the skill directory at dir and returns whether it is
// valid together with a human-readable message
func Validate(ctx context.Context, dir string) (bool, string) {
	fm, err := Check(ctx, dir)
	if err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("Skill '%s' is valid", fm.Name)
}

// Check validates the skill directory at dir and returns its typed
// frontmatter. A skill that breaks a rule yields a *ValidationError.
func Check(ctx context.Context, dir string) (*Frontmatter, error) {
	var fm *Frontmatter
	err := telemetry.WithSpan(ctx, "skills.validate", func(ctx context.Context) error {
		var err error
		fm, err = check(ctx, dir)
		return err
	}, attribute.String("skill.dir", dir))
	return fm, err
}

func check(ctx context.Context, dir string) (*Frontmatter, error) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	log := logger.G(ctx).WithField("skill_dir", dir)

	v := &validation{dir: dir}
	for _, c := range checks {
		if verr := c(v); verr != nil {
			log.WithField("kind", verr.Kind.String()).Debugf("skill failed validation: %s", verr.Message)
			return nil, verr
		}
	}

	var fm Frontmatter
	if err := mapstructure.Decode(v.metadata, &fm); err != nil {
		return nil, errors.Wrap(err, "failed to decode frontmatter")
	}
	log.WithField("skill", fm.Name).Debug("skill passed validation")
	return &fm, nil
}

func checkDirectory(v *validation) *ValidationError {
	info, err := os.Stat(v.dir)
	if err != nil || !info.IsDir() {
		return structural("Not a directory: %s", v.dir)
	}
	return nil
}

func checkDescriptor(v *validation) *ValidationError {
	path := filepath.Join(v.dir, DescriptorFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return structural("%s not found", DescriptorFileName)
		}
		return structural("Failed to access %s: %v", DescriptorFileName, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return structural("Failed to read %s: %v", DescriptorFileName, err)
	}
	v.content = content
	return nil
}

func checkFrontmatter(v *validation) *ValidationError {
	doc, err := ParseFrontmatter(v.content)
	if err != nil {
		var malformed *MalformedMetadataError
		switch {
		case errors.Is(err, ErrMissingFrontmatter):
			return formatErr("%s must start with YAML frontmatter (---)", DescriptorFileName)
		case errors.Is(err, ErrUnterminatedFrontmatter):
			return formatErr("%s must have closing --- for YAML frontmatter", DescriptorFileName)
		case errors.As(err, &malformed) && malformed.NotMapping():
			return formatErr("YAML frontmatter must be a mapping")
		default:
			return formatErr("Invalid YAML frontmatter: %v", err)
		}
	}
	v.metadata = doc.Metadata
	return nil
}

func checkUnknownKeys(v *validation) *ValidationError {
	var unknown []string
	for key := range v.metadata {
		if _, ok := allowedFrontmatterKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return schemaErr("Unknown frontmatter keys: %s", strings.Join(unknown, ", "))
}

func checkName(v *validation) *ValidationError {
	value := v.metadata["name"]
	if isBlank(value) {
		return schemaErr("Missing 'name' in frontmatter")
	}
	name, ok := value.(string)
	if !ok {
		return schemaErr("'name' must be a string")
	}
	if err := ValidateName(name); err != nil {
		return schemaErr("%s", err.Error())
	}
	return nil
}

func checkDescription(v *validation) *ValidationError {
	value := v.metadata["description"]
	if isBlank(value) {
		return schemaErr("Missing 'description' in frontmatter")
	}
	desc, ok := value.(string)
	if !ok {
		return schemaErr("'description' must be a string")
	}
	if err := ValidateDescription(desc); err != nil {
		return schemaErr("%s", err.Error())
	}
	return nil
}

func checkCompatibility(v *validation) *ValidationError {
	value, present := v.metadata["compatibility"]
	if !present || value == nil {
		return nil
	}
	compat, ok := value.(string)
	if !ok {
		return schemaErr("'compatibility' must be a string")
	}
	if utf8.RuneCountInString(compat) > MaxCompatibilityLength {
		return schemaErr("Compatibility must be %d characters or fewer", MaxCompatibilityLength)
	}
	return nil
}

func checkManifest(v *validation) *ValidationError {
	path := filepath.Join(v.dir, ManifestFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := manifest.Check(path); err != nil {
		return formatErr("Invalid %s: %v", ManifestFileName, err)
	}
	return nil
}

// ValidateName checks that name is a kebab-case identifier of at most
// MaxNameLength characters
func ValidateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return errors.Errorf("Skill name must be %d characters or fewer", MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return errors.New("Skill name must be kebab-case (lowercase, digits, single hyphens)")
	}
	return nil
}

// ValidateDescription checks the description length and that it carries no angle brackets
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return errors.Errorf("Description must be %d characters or fewer", MaxDescriptionLength)
	}
	if strings.ContainsAny(desc, "<>") {
		return errors.New("Description must not contain angle brackets")
	}
	return nil
}

// isBlank mirrors the truthiness test applied to required keys: absent,
// null, empty and zero values all count as missing
func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case float64:
		return v == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
