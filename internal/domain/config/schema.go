package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const manifestSchemaURL = "https://archivist.dev/schema/manifest.json"

//go:embed schema/manifest.schema.json
var schemaFS embed.FS

var (
	schemaOnce     sync.Once
	manifestSchema *jsonschema.Schema
	errSchema      error
)

// ManifestSchema returns the compiled manifest schema.
func ManifestSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := schemaFS.ReadFile("schema/manifest.schema.json")
		if err != nil {
			errSchema = err
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft7
		if err := compiler.AddResource(manifestSchemaURL, bytes.NewReader(data)); err != nil {
			errSchema = err
			return
		}
		manifestSchema, errSchema = compiler.Compile(manifestSchemaURL)
	})
	return manifestSchema, errSchema
}

// ValidateDocument checks a decoded manifest document against the schema.
// Every violation is reported, keyed by its location in the document.
func ValidateDocument(path string, doc interface{}) error {
	schema, err := ManifestSchema()
	if err != nil {
		return fmt.Errorf("manifest schema: %w", err)
	}

	normalized, err := toJSONValue(doc)
	if err != nil {
		return &UserError{
			Code:       ErrCodeConfigParse,
			Message:    "manifest contains values that cannot be represented as JSON",
			Context:    path,
			Suggestion: "Use string keys and plain scalar values.",
			Underlying: err,
		}
	}

	err = schema.Validate(normalized)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	list := NewErrorList()
	for _, leaf := range leafCauses(verr) {
		location := leaf.InstanceLocation
		if location == "" {
			location = "/"
		}
		list.Add(&UserError{
			Code:       ErrCodeConfigInvalid,
			Message:    leaf.Message,
			Context:    path + "#" + location,
			Suggestion: "See the manifest reference for the accepted archive fields.",
		})
	}
	return list.AsError()
}

// toJSONValue converts a YAML or TOML document into the value model the
// schema validator expects.
func toJSONValue(doc interface{}) (interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

func leafCauses(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, c := range err.Causes {
		out = append(out, leafCauses(c)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InstanceLocation < out[j].InstanceLocation
	})
	return out
}
