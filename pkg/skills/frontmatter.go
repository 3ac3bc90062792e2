package skills

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

var (
	// ErrMissingFrontmatter is returned when the document does not open with a --- line
	ErrMissingFrontmatter = errors.New("no opening frontmatter delimiter")
	// ErrUnterminatedFrontmatter is returned when the opening --- line is never closed
	ErrUnterminatedFrontmatter = errors.New("no closing frontmatter delimiter")
)

// MalformedMetadataError reports a frontmatter block that is not a valid YAML mapping
type MalformedMetadataError struct {
	// Err is the YAML parser error, nil when the block parsed but is not a mapping
	Err error
}

func (e *MalformedMetadataError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "frontmatter must be a mapping"
}

func (e *MalformedMetadataError) Unwrap() error {
	return e.Err
}

// NotMapping reports whether the block parsed as YAML but its root is not a mapping
func (e *MalformedMetadataError) NotMapping() bool {
	return e.Err == nil
}

// Document is a descriptor split into its parsed frontmatter and body
type Document struct {
	Metadata map[string]any
	Keys     []string // frontmatter keys in source order
	Body     string
}

// ParseFrontmatter splits content into frontmatter and body and parses the
// frontmatter block as a flat YAML mapping
func ParseFrontmatter(content []byte) (*Document, error) {
	block, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(block), &root); err != nil {
		return nil, &MalformedMetadataError{Err: err}
	}

	mapping := &root
	if mapping.Kind == yaml.DocumentNode && len(mapping.Content) > 0 {
		mapping = mapping.Content[0]
	}
	if mapping.Kind != yaml.MappingNode {
		return nil, &MalformedMetadataError{}
	}

	doc := &Document{
		Metadata: make(map[string]any, len(mapping.Content)/2),
		Body:     body,
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		var value any
		if err := mapping.Content[i+1].Decode(&value); err != nil {
			return nil, &MalformedMetadataError{Err: err}
		}
		if _, seen := doc.Metadata[key]; !seen {
			doc.Keys = append(doc.Keys, key)
		}
		doc.Metadata[key] = value
	}

	return doc, nil
}

// splitFrontmatter returns the text between the opening and closing --- lines
// and the body that follows the closing line
func splitFrontmatter(content string) (string, string, error) {
	lines := strings.Split(content, "\n")
	if strings.TrimSuffix(lines[0], "\r") != frontmatterDelimiter {
		return "", "", ErrMissingFrontmatter
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSuffix(lines[i], "\r") == frontmatterDelimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", ErrUnterminatedFrontmatter
	}

	block := strings.Join(lines[1:end], "\n")
	body := strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\r\n")
	return block, body, nil
}
