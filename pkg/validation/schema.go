package validation

import (
	"github.com/cockroachdb/errors"
	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema for one request body
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile compiles a JSON schema document and panics on error. Schemas
// are package-level constants, so a failure is a programming error.
func MustCompile(name, document string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic(errors.Wrapf(err, "compile schema %s", name))
	}
	return &Schema{name: name, schema: s}
}

func (s *Schema) Name() string { return s.name }

// Validate checks a raw JSON body. It returns the list of violations, or an
// error when the body is not JSON at all.
func (s *Schema) Validate(body []byte) ([]string, error) {
	res, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, errors.Wrap(err, "malformed JSON body")
	}
	if res.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}

// Request schemas for the mutating resume endpoints
var (
	ResumeCreateSchema = MustCompile("resume.create", `{
		"type": "object",
		"properties": {
			"title":   {"type": "string", "minLength": 1, "pattern": "\\S"},
			"content": {"type": "string", "minLength": 1, "pattern": "\\S"}
		},
		"required": ["title", "content"],
		"additionalProperties": false
	}`)

	ResumeUpdateSchema = MustCompile("resume.update", `{
		"type": "object",
		"properties": {
			"title":   {"type": "string", "minLength": 1, "pattern": "\\S"},
			"content": {"type": "string", "minLength": 1, "pattern": "\\S"}
		},
		"minProperties": 1,
		"additionalProperties": false
	}`)

	ResumeLogSchema = MustCompile("resume.log", `{
		"type": "object",
		"properties": {
			"resumeStatus": {"type": "string", "minLength": 1},
			"reason":       {"type": "string", "minLength": 1, "pattern": "\\S"}
		},
		"required": ["resumeStatus", "reason"],
		"additionalProperties": false
	}`)
)
