package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// archiveMode is applied to the archive when an owner is requested.
const archiveMode os.FileMode = 0o644

// Executor carries out the action chosen by Decide. It never re-derives the
// action and never retries: each failure is returned as an *Error naming the
// stage that failed.
type Executor struct {
	fs        ports.FileSystem
	fetcher   ports.Fetcher
	digester  ports.Digester
	extractor ports.Extractor
	logger    ports.Logger
	newID     func() string
}

// NewExecutor creates a new Executor.
func NewExecutor(fs ports.FileSystem, fetcher ports.Fetcher, digester ports.Digester, extractor ports.Extractor) *Executor {
	return &Executor{
		fs:        fs,
		fetcher:   fetcher,
		digester:  digester,
		extractor: extractor,
		logger:    nopLogger{},
		newID:     uuid.NewString,
	}
}

// WithLogger returns a copy of the executor that logs to logger.
func (e *Executor) WithLogger(logger ports.Logger) *Executor {
	clone := *e
	if logger != nil {
		clone.logger = logger
	}
	return &clone
}

// StagingPath returns the temporary download location for path. It lives in
// the same directory so promotion is a rename.
func StagingPath(path, id string) string {
	dir, file := filepath.Split(path)
	return filepath.Join(dir, "."+file+"."+id+".part")
}

// Execute performs action for the validated descriptor d.
func (e *Executor) Execute(ctx context.Context, d Descriptor, action Action) error {
	if action == nil || action.Kind() == ActionNoOp {
		return nil
	}

	p, err := newPipeline(action.Target(), action.Kind())
	if err != nil {
		return &Error{Code: ErrCodeIO, Message: "cannot build executor pipeline", Path: action.Target(), Action: action.Kind(), Underlying: err}
	}
	defer p.stop()

	log := ports.LoggerFromContext(ctx, e.logger).With(
		ports.F("path", action.Target()),
		ports.F("action", action.Kind().String()),
	)

	switch a := action.(type) {
	case Create:
		err = e.download(ctx, p, log, d, a.Path, a.Source)
	case Replace:
		err = e.download(ctx, p, log, d, a.Path, a.Source)
	case Remove:
		err = e.remove(ctx, p, log, a.Path)
	default:
		err = fmt.Errorf("unsupported action %T", action)
	}
	if err != nil {
		return e.failure(p, action, err)
	}
	if err := p.enter(StageDone); err != nil {
		return e.failure(p, action, err)
	}
	return nil
}

// download runs fetch, verify, promote, permissions, extract and cleanup.
func (e *Executor) download(ctx context.Context, p *pipeline, log ports.Logger, d Descriptor, path, source string) error {
	if err := p.enter(StageFetching); err != nil {
		return err
	}
	staging := StagingPath(path, e.newID())
	log.Debug(ctx, "fetching archive", ports.F("source", source), ports.F("staging", staging))

	req := ports.FetchRequest{
		Source:      source,
		Credentials: d.Credentials(),
		Proxy:       d.Proxy(),
	}
	if err := e.fetcher.Fetch(ctx, req, staging); err != nil {
		e.discard(staging)
		return withCode(ErrCodeFetch, "cannot fetch "+source, err)
	}

	if d.ComparesChecksum() {
		if err := p.enter(StageVerifying); err != nil {
			e.discard(staging)
			return err
		}
		if err := e.verify(d, staging); err != nil {
			e.discard(staging)
			return err
		}
		log.Debug(ctx, "checksum verified", ports.F("algorithm", d.ChecksumType.String()))
	}

	if err := p.enter(StagePromoting); err != nil {
		e.discard(staging)
		return err
	}
	if err := e.fs.Rename(staging, path); err != nil {
		e.discard(staging)
		return withCode(ErrCodeIO, "cannot move archive into place", err)
	}

	if d.User != "" || d.Group != "" {
		if err := p.enter(StagePermissions); err != nil {
			return err
		}
		if err := e.fs.Chmod(path, archiveMode); err != nil {
			return withCode(ErrCodeIO, "cannot set archive mode", err)
		}
		if err := e.fs.Chown(path, d.User, d.Group); err != nil {
			return withCode(ErrCodeIO, "cannot set archive owner", err)
		}
	}

	if !d.ShouldExtract() {
		return nil
	}
	if err := p.enter(StageExtracting); err != nil {
		return err
	}
	log.Debug(ctx, "extracting archive", ports.F("extract_path", d.ExtractPath), ports.F("command", d.ExtractCommandLine()))
	err := e.extractor.Extract(ctx, ports.ExtractRequest{
		Archive: path,
		Dest:    d.ExtractPath,
		Command: d.ExtractCommand,
		Flags:   d.ExtractFlags,
		User:    d.User,
		Group:   d.Group,
	})
	if err != nil {
		return withCode(ErrCodeExtract, "cannot extract into "+d.ExtractPath, err)
	}

	if !d.ShouldCleanup() {
		return nil
	}
	if err := p.enter(StageCleaning); err != nil {
		return err
	}
	if err := e.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return withCode(ErrCodeIO, "cannot clean up archive", err)
	}
	log.Debug(ctx, "archive cleaned up")
	return nil
}

// verify compares the digest of the staged file with the expected one.
func (e *Executor) verify(d Descriptor, staging string) error {
	got, err := e.digester.Digest(staging, d.ChecksumType.String())
	if err != nil {
		return withCode(ErrCodeIO, "cannot compute "+d.ChecksumType.String()+" digest", err)
	}
	if !strings.EqualFold(got, d.Checksum) {
		return &Error{
			Code:    ErrCodeChecksumMismatch,
			Message: fmt.Sprintf("expected (%s)%s, got (%s)%s", d.ChecksumType, d.Checksum, d.ChecksumType, got),
		}
	}
	return nil
}

func (e *Executor) remove(ctx context.Context, p *pipeline, log ports.Logger, path string) error {
	if err := p.enter(StageRemoving); err != nil {
		return err
	}
	err := e.fs.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug(ctx, "archive already gone")
		return nil
	}
	if err != nil {
		return withCode(ErrCodeIO, "cannot remove archive", err)
	}
	return nil
}

// discard removes a staging file. A missing file is not an error.
func (e *Executor) discard(staging string) {
	_ = e.fs.Remove(staging)
}

// failure moves the pipeline to failed and decorates err with the path,
// action and stage.
func (e *Executor) failure(p *pipeline, action Action, err error) error {
	stage := p.fail()

	var archErr *Error
	if !errors.As(err, &archErr) {
		archErr = withCode(ErrCodeIO, "", err)
	}
	out := *archErr
	out.Path = action.Target()
	out.Action = action.Kind()
	out.Stage = stage
	return &out
}

func withCode(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Underlying: err}
}
