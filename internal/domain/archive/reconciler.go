package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/archivist/internal/ports"
)

// Result is what one reconciliation pass reports to its caller.
type Result struct {
	Path      string
	Action    Action
	Narration string
	Outcome   string
	Err       error
	DryRun    bool
	Duration  time.Duration
}

// Changed reports whether the pass modified (or, in a dry run, would modify)
// the filesystem.
func (r Result) Changed() bool {
	return r.Action != nil && r.Action.Kind().Changes()
}

// Success reports whether the pass ended without error.
func (r Result) Success() bool {
	return r.Err == nil
}

// Kind returns the kind of the decided action, or "" when none was decided.
func (r Result) Kind() ActionKind {
	if r.Action == nil {
		return ""
	}
	return r.Action.Kind()
}

// Reconciler runs validate, probe, decide, narrate and execute for one
// descriptor at a time. It holds no per-pass state, so one Reconciler may
// serve concurrent passes over different paths.
type Reconciler struct {
	prober    *Prober
	executor  *Executor
	checksums ports.ChecksumResolver
	logger    ports.Logger
	dryRun    bool
}

// NewReconciler creates a new Reconciler.
func NewReconciler(prober *Prober, executor *Executor) *Reconciler {
	return &Reconciler{
		prober:   prober,
		executor: executor,
		logger:   nopLogger{},
	}
}

// WithChecksumResolver returns a copy that resolves checksum_url.
func (r *Reconciler) WithChecksumResolver(resolver ports.ChecksumResolver) *Reconciler {
	clone := *r
	clone.checksums = resolver
	return &clone
}

// WithLogger returns a copy that logs to logger.
func (r *Reconciler) WithLogger(logger ports.Logger) *Reconciler {
	clone := *r
	if logger != nil {
		clone.logger = logger
	}
	return &clone
}

// WithDryRun returns a copy that decides and narrates but never executes.
func (r *Reconciler) WithDryRun(dryRun bool) *Reconciler {
	clone := *r
	clone.dryRun = dryRun
	return &clone
}

// Plan validates, probes and decides without executing.
func (r *Reconciler) Plan(ctx context.Context, d Descriptor) Result {
	return r.WithDryRun(true).Reconcile(ctx, d)
}

// Reconcile converges one descriptor.
func (r *Reconciler) Reconcile(ctx context.Context, d Descriptor) (result Result) {
	start := time.Now()
	result = Result{Path: d.Path, DryRun: r.dryRun}
	defer func() { result.Duration = time.Since(start) }()

	log := ports.LoggerFromContext(ctx, r.logger).With(
		ports.F("run_id", uuid.NewString()),
		ports.F("path", d.Path),
	)

	validated, err := Validate(d)
	if err != nil {
		log.Error(ctx, "invalid archive descriptor", ports.Err(err))
		result.Err = err
		return result
	}

	remote := r.wantsRemoteChecksum(validated)
	req := ProbeFor(validated)
	req.NeedDigest = req.NeedDigest || remote
	observed, err := r.prober.Probe(ctx, req)
	if err != nil {
		log.Error(ctx, "probe failed", ports.Err(err))
		result.Err = err
		return result
	}
	log.Debug(ctx, "probed archive",
		ports.F("exists", observed.Exists),
		ports.F("creates_exists", observed.CreatesExists),
		ports.F("digest", observed.Digest),
	)

	if remote && !(validated.Creates != "" && observed.CreatesExists) {
		validated, err = r.resolveChecksum(ctx, validated)
		if err != nil {
			log.Error(ctx, "cannot resolve checksum", ports.Err(err))
			result.Err = err
			return result
		}
	}

	action := Decide(validated, observed)
	result.Action = action
	log = log.With(ports.F("action", action.Kind().String()))

	if action.Kind() == ActionNoOp {
		result.Outcome = NarrateOutcome(action, nil)
		log.Debug(ctx, result.Outcome)
		return result
	}

	result.Narration = Narrate(action)
	if r.dryRun {
		log.Info(ctx, "would "+result.Narration)
		return result
	}
	log.Info(ctx, result.Narration)

	ctx = ports.ContextWithLogger(ctx, log)
	result.Err = r.executor.Execute(ctx, validated, action)
	result.Outcome = NarrateOutcome(action, result.Err)
	if result.Err != nil {
		log.Error(ctx, "archive action failed", ports.Err(result.Err))
		return result
	}
	log.Info(ctx, result.Outcome)
	return result
}

// wantsRemoteChecksum reports whether the expected digest has to come from
// checksum_url. It is fetched only after the probe, so an existing creates
// marker never triggers a request.
func (r *Reconciler) wantsRemoteChecksum(d Descriptor) bool {
	if d.Checksum != "" || d.ChecksumURL == "" || r.checksums == nil {
		return false
	}
	return d.Present() && d.ShouldVerify() && d.ChecksumType != ChecksumNone
}

// resolveChecksum fills in the expected digest from checksum_url.
func (r *Reconciler) resolveChecksum(ctx context.Context, d Descriptor) (Descriptor, error) {
	sum, err := r.checksums.Resolve(ctx, ports.ChecksumRequest{
		URL:         d.ChecksumURL,
		Filename:    d.Filename(),
		Credentials: d.Credentials(),
		Proxy:       d.Proxy(),
	})
	if err != nil {
		return d, &Error{Code: ErrCodeFetch, Message: "cannot fetch checksum from " + d.ChecksumURL, Field: "checksum_url", Path: d.Path, Underlying: err}
	}

	resolved := d.WithChecksum(sum)
	if !checksumPattern.MatchString(resolved.Checksum) {
		return d, &Error{Code: ErrCodeInvalidChecksum, Message: "checksum_url returned an invalid digest: " + sum, Field: "checksum_url", Path: d.Path}
	}
	return resolved, nil
}
