// Package manifest models the optional pspm.json package manifest that sits
// next to a skill's SKILL.md.
package manifest

import (
	"encoding/json"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// SchemaURL is the published JSON Schema location referenced by new manifests
const SchemaURL = "https://pspm.dev/schema/v1/pspm.json"

// Manifest is the conventional shape of a pspm.json file. Validation only
// requires the file to be well-formed JSON; these fields are what the
// scaffolder writes and what the published schema describes.
type Manifest struct {
	Schema       string            `json:"$schema,omitempty" jsonschema:"description=JSON Schema this manifest conforms to"`
	Name         string            `json:"name" jsonschema:"description=Skill name in kebab-case,pattern=^[a-z0-9]+(-[a-z0-9]+)*$,maxLength=64"`
	Version      string            `json:"version" jsonschema:"description=Semantic version of the skill package"`
	Description  string            `json:"description" jsonschema:"description=Short description of the skill"`
	Author       string            `json:"author,omitempty"`
	License      string            `json:"license,omitempty"`
	Type         string            `json:"type" jsonschema:"enum=skill"`
	Capabilities []string          `json:"capabilities"`
	Main         string            `json:"main" jsonschema:"description=Entry document of the skill,default=SKILL.md"`
	Requirements map[string]string `json:"requirements,omitempty" jsonschema:"description=Version constraints on the host tooling"`
	Files        []string          `json:"files" jsonschema:"description=Paths included when publishing"`
	Dependencies map[string]string `json:"dependencies"`
	Private      bool              `json:"private"`
}

// Default returns the manifest written for a newly scaffolded skill
func Default(name string) Manifest {
	return Manifest{
		Schema:       SchemaURL,
		Name:         name,
		Version:      "0.1.0",
		Description:  "TODO: brief description",
		Author:       "TODO",
		License:      "Apache-2.0",
		Type:         "skill",
		Capabilities: []string{},
		Main:         "SKILL.md",
		Requirements: map[string]string{"pspm": ">=0.1.0"},
		Files:        []string{"SKILL.md", "runtime"},
		Dependencies: map[string]string{},
		Private:      false,
	}
}

// Marshal renders the manifest as indented JSON with a trailing newline
func (m Manifest) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal manifest")
	}
	return append(data, '\n'), nil
}

// Check reports whether the file at path is well-formed JSON. The JSON
// decoder's error is returned unwrapped so callers can quote it.
func Check(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read manifest")
	}
	var v any
	return json.Unmarshal(data, &v)
}

// Load reads and decodes the manifest at path
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return &m, nil
}

// Schema returns the JSON Schema describing the manifest
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Manifest{})
	schema.ID = jsonschema.ID(SchemaURL)
	schema.Title = "PSPM skill manifest"
	return schema
}
