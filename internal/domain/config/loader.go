package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// Format is a manifest encoding.
type Format string

// Manifest formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor infers the manifest format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", NewUnsupportedFormatError(path)
}

// Loader loads manifests from the filesystem.
type Loader struct {
	fs        ports.FileSystem
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a new Loader reading through fs. Variables are looked up
// in the process environment.
func NewLoader(fs ports.FileSystem) *Loader {
	return &Loader{fs: fs, lookupEnv: os.LookupEnv}
}

// WithLookupEnv returns a copy that resolves ${VAR} with lookup.
func (l *Loader) WithLookupEnv(lookup func(string) (string, bool)) *Loader {
	clone := *l
	clone.lookupEnv = lookup
	return &clone
}

// LoadManifest loads, checks and expands the manifest at path. A leading
// "~/" is resolved against the home directory.
func (l *Loader) LoadManifest(path string) (*Manifest, error) {
	path = ports.ExpandPath(path)
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	r, err := l.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m, err := ParseManifest(path, format, data)
	if err != nil {
		return nil, err
	}
	if err := l.expand(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseManifest decodes data, checks it against the manifest schema and
// rejects duplicate paths. Variables are not expanded.
func ParseManifest(path string, format Format, data []byte) (*Manifest, error) {
	var doc interface{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, NewYAMLParseError(path, err)
		}
	case FormatTOML:
		var table map[string]interface{}
		if err := toml.Unmarshal(data, &table); err != nil {
			var derr *toml.DecodeError
			line := 0
			if errors.As(err, &derr) {
				line, _ = derr.Position()
			}
			return nil, NewTOMLParseError(path, line, err)
		}
		doc = table
	default:
		return nil, NewUnsupportedFormatError(path)
	}

	if doc == nil {
		doc = map[string]interface{}{}
	}
	if err := ValidateDocument(path, doc); err != nil {
		return nil, err
	}

	// The document is schema-valid, so a JSON round trip cannot lose fields.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, NewYAMLParseError(path, err)
	}
	m := &Manifest{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(m); err != nil {
		return nil, &UserError{
			Code:       ErrCodeConfigInvalid,
			Message:    "cannot decode manifest",
			Context:    path,
			Underlying: err,
		}
	}
	m.Path = path

	if err := m.checkDuplicates(); err != nil {
		return nil, err
	}
	return m, nil
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand substitutes ${VAR} in the credential and proxy fields.
func (l *Loader) expand(m *Manifest) error {
	list := NewErrorList()
	for i := range m.Archives {
		e := &m.Archives[i]
		fields := []struct {
			name  string
			value *string
		}{
			{"cookie", &e.Cookie},
			{"username", &e.Username},
			{"password", &e.Password},
			{"proxy_server", &e.ProxyServer},
		}
		for _, f := range fields {
			location := fmt.Sprintf("%s#/archives/%d/%s", m.Path, i, f.name)
			*f.value = l.expandString(*f.value, location, list)
		}
	}
	return list.AsError()
}

func (l *Loader) expandString(s, location string, list *ErrorList) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return varPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := varPattern.FindStringSubmatch(ref)[1]
		value, ok := l.lookupEnv(name)
		if !ok {
			list.Add(NewUndefinedVariableError(name, location))
			return ref
		}
		return value
	})
}
