// Package app provides the main application logic for archivist.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/archivist/internal/adapters/command"
	"github.com/felixgeelhaar/archivist/internal/adapters/digest"
	"github.com/felixgeelhaar/archivist/internal/adapters/extract"
	"github.com/felixgeelhaar/archivist/internal/adapters/fetch"
	"github.com/felixgeelhaar/archivist/internal/adapters/filesystem"
	"github.com/felixgeelhaar/archivist/internal/adapters/logging"
	"github.com/felixgeelhaar/archivist/internal/domain/archive"
	"github.com/felixgeelhaar/archivist/internal/domain/config"
	"github.com/felixgeelhaar/archivist/internal/ports"
)

// toolEnv is appended to the environment of extraction tools.
var toolEnv = []string{"LC_ALL=C"}

// Deps are the collaborators of the reconciler.
type Deps struct {
	FS        ports.FileSystem
	Fetcher   ports.Fetcher
	Checksums ports.ChecksumResolver
	Digester  ports.Digester
	Extractor ports.Extractor
	Logger    ports.Logger
}

// Archivist is the main application orchestrator. It loads manifests and
// reconciles every declared archive, several at a time.
type Archivist struct {
	fs          ports.FileSystem
	loader      *config.Loader
	reconciler  *archive.Reconciler
	logger      ports.Logger
	concurrency int
	createDirs  bool
	out         io.Writer
	styles      Styles
}

// New creates an Archivist backed by the real filesystem, transports and
// extraction tools. progress receives download progress bars when enabled.
func New(out io.Writer, settings config.Settings, logger ports.Logger, progress io.Writer) (*Archivist, error) {
	fs := filesystem.NewRealFileSystem()

	httpOpts := []fetch.HTTPOption{
		fetch.WithTimeout(settings.Fetch.Timeout),
		fetch.WithUserAgent(settings.Fetch.UserAgent),
	}
	if settings.Fetch.Progress && progress != nil {
		httpOpts = append(httpOpts, fetch.WithProgress(progress))
	}
	router := fetch.NewRouter(
		fetch.NewHTTPFetcher(fs, httpOpts...),
		fetch.NewFTPFetcher(fs, settings.Fetch.Timeout),
		fetch.NewFileFetcher(fs),
	)

	backend, err := extract.ParseBackend(settings.Extract.Backend)
	if err != nil {
		return nil, err
	}
	extractor, err := extract.New(backend, fs, command.NewRealRunner().WithEnv(toolEnv...))
	if err != nil {
		return nil, err
	}

	return NewWithDeps(out, settings, Deps{
		FS:        fs,
		Fetcher:   router,
		Checksums: fetch.NewRemoteChecksum(router, fs),
		Digester:  digest.New(fs),
		Extractor: extractor,
		Logger:    logger,
	}), nil
}

// NewWithDeps creates an Archivist from explicit collaborators.
func NewWithDeps(out io.Writer, settings config.Settings, deps Deps) *Archivist {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	reconciler := archive.NewReconciler(
		archive.NewProber(deps.FS, deps.Digester),
		archive.NewExecutor(deps.FS, deps.Fetcher, deps.Digester, deps.Extractor),
	).WithLogger(deps.Logger)
	if deps.Checksums != nil {
		reconciler = reconciler.WithChecksumResolver(deps.Checksums)
	}

	concurrency := settings.Run.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Archivist{
		fs:          deps.FS,
		loader:      config.NewLoader(deps.FS),
		reconciler:  reconciler,
		logger:      deps.Logger,
		concurrency: concurrency,
		createDirs:  settings.Run.CreateDirs,
		out:         out,
		styles:      DefaultStyles(),
	}
}

// WithLoader replaces the manifest loader.
func (a *Archivist) WithLoader(loader *config.Loader) *Archivist {
	a.loader = loader
	return a
}

// WithCreateDirs overrides the create_dirs setting.
func (a *Archivist) WithCreateDirs(enabled bool) *Archivist {
	a.createDirs = enabled
	return a
}

// Load reads the manifest at path.
func (a *Archivist) Load(path string) ([]archive.Descriptor, error) {
	m, err := a.loader.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return m.Descriptors(), nil
}

// Plan decides the action of every descriptor without changing anything.
func (a *Archivist) Plan(ctx context.Context, descriptors []archive.Descriptor) []archive.Result {
	return a.run(ctx, descriptors, a.reconciler.Plan)
}

// Apply converges every descriptor. With dryRun it behaves like Plan.
func (a *Archivist) Apply(ctx context.Context, descriptors []archive.Descriptor, dryRun bool) []archive.Result {
	if dryRun {
		return a.Plan(ctx, descriptors)
	}
	return a.run(ctx, descriptors, func(ctx context.Context, d archive.Descriptor) archive.Result {
		if a.createDirs {
			if err := a.prepare(ctx, d); err != nil {
				return archive.Result{Path: d.Path, Err: err}
			}
		}
		return a.reconciler.Reconcile(ctx, d)
	})
}

// run reconciles descriptors on a bounded pool. Results keep manifest order.
// Paths are unique per manifest, so no two workers touch the same target.
func (a *Archivist) run(ctx context.Context, descriptors []archive.Descriptor, pass func(context.Context, archive.Descriptor) archive.Result) []archive.Result {
	results := make([]archive.Result, len(descriptors))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, d := range descriptors {
		g.Go(func() error {
			results[i] = pass(ctx, d)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// prepare creates the parent directory of the archive and the extraction
// directory of a valid, present descriptor.
func (a *Archivist) prepare(ctx context.Context, d archive.Descriptor) error {
	v, err := archive.Validate(d)
	if err != nil || !v.Present() {
		return nil
	}

	dirs := []string{filepath.Dir(v.Path)}
	if v.ShouldExtract() {
		dirs = append(dirs, v.ExtractPath)
	}
	for _, dir := range dirs {
		a.logger.Debug(ctx, "ensuring directory", ports.F("path", v.Path), ports.F("dir", dir))
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return &archive.Error{
				Code:       archive.ErrCodeIO,
				Message:    "cannot create directory " + dir,
				Path:       v.Path,
				Underlying: err,
			}
		}
	}
	return nil
}

// ValidationResult contains the results of manifest validation.
type ValidationResult struct {
	Errors []string
	Info   []string
}

// Validate checks every descriptor without touching the filesystem.
func (a *Archivist) Validate(path string, descriptors []archive.Descriptor) *ValidationResult {
	result := &ValidationResult{}
	result.Info = append(result.Info, fmt.Sprintf("Loaded %d archive(s) from %s", len(descriptors), path))

	for i, d := range descriptors {
		label := d.Path
		if label == "" {
			label = fmt.Sprintf("archives[%d]", i)
		}
		_, err := archive.Validate(d)
		if err == nil {
			continue
		}
		var verrs *archive.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs.Errors() {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", label, e.Error()))
			}
			continue
		}
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", label, err))
	}
	return result
}

// Failed reports whether any result carries an error.
func Failed(results []archive.Result) bool {
	for _, r := range results {
		if !r.Success() {
			return true
		}
	}
	return false
}
