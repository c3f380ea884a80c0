package apiclient

import (
	"bytes"
	"embed"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gimvicurnik/urnik/core"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// routes maps endpoint path prefixes to schema files. The longest matching prefix wins.
var routes = []struct {
	prefix string
	schema string
}{
	{"/list/", "strings.json"},
	{"/timetable", "lessons.json"},
	{"/substitutions/date/", "substitutions.json"},
	{"/menus/date/", "menu.json"},
	{"/schedule/date/", "schedules.json"},
	{"/documents", "documents.json"},
	{"/notifications", "notifications.json"},
}

// Schemas validates API payloads by endpoint.
type Schemas struct {
	byFile map[string]*jsonschema.Schema
}

func LoadSchemas() (*Schemas, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded schemas")
	}
	for _, entry := range entries {
		data, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "reading schema %s", entry.Name())
		}
		if err = compiler.AddResource(entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, errors.Wrapf(err, "adding schema %s", entry.Name())
		}
	}

	s := &Schemas{byFile: make(map[string]*jsonschema.Schema, len(entries))}
	for _, entry := range entries {
		schema, err := compiler.Compile(entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "compiling schema %s", entry.Name())
		}
		s.byFile[entry.Name()] = schema
	}
	return s, nil
}

func (s *Schemas) lookup(path string) *jsonschema.Schema {
	best := ""
	for _, r := range routes {
		if strings.HasPrefix(path, r.prefix) && len(r.prefix) > len(best) {
			best = r.prefix
		}
	}
	for _, r := range routes {
		if r.prefix == best && best != "" {
			return s.byFile[r.schema]
		}
	}
	return nil
}

// Validate checks `body` against the schema registered for `path`. Unknown paths are accepted.
func (s *Schemas) Validate(path string, body []byte) error {
	schema := s.lookup(path)
	if schema == nil {
		return nil
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	if err := schema.Validate(doc); err != nil {
		var valErr *jsonschema.ValidationError
		if errors.As(err, &valErr) {
			return &core.ValidationError{
				Err:    errors.Errorf("invalid payload from %s", path),
				Fields: schemaFieldErrors(valErr),
			}
		}
		return errors.Wrapf(err, "validating %s", path)
	}
	return nil
}

func schemaFieldErrors(err *jsonschema.ValidationError) []core.FieldError {
	if len(err.Causes) == 0 {
		field := err.InstanceLocation
		if field == "" {
			field = "/"
		}
		return []core.FieldError{{Field: field, Error: err.Message}}
	}
	var fields []core.FieldError
	for _, cause := range err.Causes {
		fields = append(fields, schemaFieldErrors(cause)...)
	}
	return fields
}
