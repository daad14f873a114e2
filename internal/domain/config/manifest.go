// Package config loads archive manifests and runtime settings.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/archivist/internal/domain/archive"
)

// Manifest is a decoded list of archive declarations.
type Manifest struct {
	Path     string  `json:"-"`
	Version  int     `json:"version,omitempty"`
	Archives []Entry `json:"archives"`
}

// Entry is one archive as written in a manifest.
type Entry struct {
	Path           string      `json:"path"`
	Ensure         string      `json:"ensure,omitempty"`
	Source         string      `json:"source,omitempty"`
	Checksum       string      `json:"checksum,omitempty"`
	ChecksumType   string      `json:"checksum_type,omitempty"`
	ChecksumURL    string      `json:"checksum_url,omitempty"`
	ChecksumVerify switchValue `json:"checksum_verify,omitempty"`
	Extract        switchValue `json:"extract,omitempty"`
	ExtractPath    string      `json:"extract_path,omitempty"`
	ExtractCommand string      `json:"extract_command,omitempty"`
	ExtractFlags   flagsValue  `json:"extract_flags,omitempty"`
	Cleanup        switchValue `json:"cleanup,omitempty"`
	Creates        string      `json:"creates,omitempty"`
	Cookie         string      `json:"cookie,omitempty"`
	Username       string      `json:"username,omitempty"`
	Password       string      `json:"password,omitempty"`
	User           string      `json:"user,omitempty"`
	Group          string      `json:"group,omitempty"`
	ProxyType      string      `json:"proxy_type,omitempty"`
	ProxyServer    string      `json:"proxy_server,omitempty"`
}

// Descriptor converts the entry into the desired state of one archive.
func (e Entry) Descriptor() archive.Descriptor {
	return archive.Descriptor{
		Path:           e.Path,
		Source:         e.Source,
		Checksum:       e.Checksum,
		ChecksumType:   archive.ChecksumType(e.ChecksumType),
		ChecksumURL:    e.ChecksumURL,
		ChecksumVerify: archive.Switch(e.ChecksumVerify),
		Extract:        archive.Switch(e.Extract),
		ExtractPath:    e.ExtractPath,
		ExtractCommand: e.ExtractCommand,
		ExtractFlags:   archive.ExtractFlags(e.ExtractFlags),
		Cleanup:        archive.Switch(e.Cleanup),
		Creates:        e.Creates,
		Cookie:         e.Cookie,
		Username:       e.Username,
		Password:       e.Password,
		User:           e.User,
		Group:          e.Group,
		ProxyType:      archive.ProxyType(e.ProxyType),
		ProxyServer:    e.ProxyServer,
		Ensure:         archive.Ensure(e.Ensure),
	}
}

// Descriptors returns the desired state of every declared archive, in
// manifest order.
func (m *Manifest) Descriptors() []archive.Descriptor {
	out := make([]archive.Descriptor, 0, len(m.Archives))
	for _, e := range m.Archives {
		out = append(out, e.Descriptor())
	}
	return out
}

// checkDuplicates rejects two entries that resolve to the same path.
func (m *Manifest) checkDuplicates() error {
	list := NewErrorList()
	seen := make(map[string]int, len(m.Archives))
	for i, e := range m.Archives {
		key := filepath.Clean(e.Path)
		if first, ok := seen[key]; ok {
			list.Add(NewDuplicatePathError(key, first, i))
			continue
		}
		seen[key] = i
	}
	return list.AsError()
}

// switchValue accepts a YAML/TOML boolean or the strings "true" and "false".
type switchValue string

func (s *switchValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = switchValue(archive.On(b))
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("expected true or false, got %s", data)
	}
	*s = switchValue(str)
	return nil
}

// flagsValue accepts a single flag string for every tool or a map keyed by
// tool name.
type flagsValue map[string]string

func (f *flagsValue) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*f = flagsValue(archive.FlagsForAllTools(str))
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("extract_flags must be a string or a map of tool to flags: %w", err)
	}
	*f = m
	return nil
}
