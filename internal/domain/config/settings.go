package config

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// DefaultSettingsFile is read when no --settings path is given.
const DefaultSettingsFile = "archivist.ini"

// Settings are the runtime options of the archivist CLI.
type Settings struct {
	Log     LogSettings
	Fetch   FetchSettings
	Extract ExtractSettings
	Run     RunSettings
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

// FetchSettings configures the transports.
type FetchSettings struct {
	Timeout   time.Duration
	UserAgent string
	Progress  bool
}

// ExtractSettings selects the extraction backend.
type ExtractSettings struct {
	Backend string // auto, native, command
}

// RunSettings configures the orchestrator.
type RunSettings struct {
	Concurrency int
	CreateDirs  bool
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Log:     LogSettings{Level: "info", Format: "console"},
		Fetch:   FetchSettings{Timeout: 10 * time.Minute, UserAgent: "archivist"},
		Extract: ExtractSettings{Backend: "auto"},
		Run:     RunSettings{Concurrency: 4},
	}
}

// LoadSettings reads an ini settings file. A missing file yields the
// defaults when required is false.
func LoadSettings(fs ports.FileSystem, path string, required bool) (Settings, error) {
	path = ports.ExpandPath(path)
	r, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return DefaultSettings(), nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, NewConfigNotFoundError(path)
		}
		return Settings{}, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return Settings{}, err
	}
	return ParseSettings(path, data)
}

// ParseSettings decodes ini data on top of the defaults.
func ParseSettings(path string, data []byte) (Settings, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return Settings{}, &UserError{
			Code:       ErrCodeConfigParse,
			Message:    "invalid settings file",
			Context:    path,
			Suggestion: "Use key = value pairs grouped in [log], [fetch], [extract] and [run] sections.",
			Underlying: err,
		}
	}

	s := DefaultSettings()
	list := NewErrorList()

	log := cfg.Section("log")
	s.Log.Level = strings.ToLower(log.Key("level").MustString(s.Log.Level))
	s.Log.Format = strings.ToLower(log.Key("format").MustString(s.Log.Format))

	fetch := cfg.Section("fetch")
	if fetch.HasKey("timeout") {
		d, err := fetch.Key("timeout").Duration()
		if err != nil || d <= 0 {
			list.Add(NewSettingsError("fetch.timeout", "expected a positive duration such as 30s or 5m"))
		} else {
			s.Fetch.Timeout = d
		}
	}
	s.Fetch.UserAgent = fetch.Key("user_agent").MustString(s.Fetch.UserAgent)
	if fetch.HasKey("progress") {
		b, err := fetch.Key("progress").Bool()
		if err != nil {
			list.Add(NewSettingsError("fetch.progress", "expected true or false"))
		}
		s.Fetch.Progress = b
	}

	s.Extract.Backend = strings.ToLower(cfg.Section("extract").Key("backend").MustString(s.Extract.Backend))

	run := cfg.Section("run")
	if run.HasKey("concurrency") {
		n, err := run.Key("concurrency").Int()
		if err != nil || n < 1 {
			list.Add(NewSettingsError("run.concurrency", "expected a positive integer"))
		} else {
			s.Run.Concurrency = n
		}
	}
	if run.HasKey("create_dirs") {
		b, err := run.Key("create_dirs").Bool()
		if err != nil {
			list.Add(NewSettingsError("run.create_dirs", "expected true or false"))
		}
		s.Run.CreateDirs = b
	}

	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		list.Add(NewSettingsError("log.level", "expected debug, info, warn or error"))
	}
	switch s.Log.Format {
	case "console", "json":
	default:
		list.Add(NewSettingsError("log.format", "expected console or json"))
	}
	switch s.Extract.Backend {
	case "auto", "native", "command":
	default:
		list.Add(NewSettingsError("extract.backend", "expected auto, native or command"))
	}

	if err := list.AsError(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
