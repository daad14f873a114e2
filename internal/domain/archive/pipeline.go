package archive

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Stage is a step of the executor pipeline.
type Stage string

// Machine state names.
const (
	stIdle        = "idle"
	stFetching    = "fetching"
	stVerifying   = "verifying"
	stPromoting   = "promoting"
	stPermissions = "permissions"
	stExtracting  = "extracting"
	stCleaning    = "cleaning"
	stRemoving    = "removing"
	stDone        = "done"
	stFailed      = "failed"
)

// Executor stages.
const (
	StageIdle        Stage = stIdle
	StageFetching    Stage = stFetching
	StageVerifying   Stage = stVerifying
	StagePromoting   Stage = stPromoting
	StagePermissions Stage = stPermissions
	StageExtracting  Stage = stExtracting
	StageCleaning    Stage = stCleaning
	StageRemoving    Stage = stRemoving
	StageDone        Stage = stDone
	StageFailed      Stage = stFailed
)

// Event types for the pipeline state machine.
const (
	evFetch       = "FETCH"
	evVerify      = "VERIFY"
	evPromote     = "PROMOTE"
	evPermissions = "PERMISSIONS"
	evExtract     = "EXTRACT"
	evCleanup     = "CLEANUP"
	evRemove      = "REMOVE"
	evDone        = "DONE"
	evFail        = "FAIL"
	evReset       = "RESET"
)

var stageEvents = map[Stage]statekit.EventType{
	StageFetching:    evFetch,
	StageVerifying:   evVerify,
	StagePromoting:   evPromote,
	StagePermissions: evPermissions,
	StageExtracting:  evExtract,
	StageCleaning:    evCleanup,
	StageRemoving:    evRemove,
	StageDone:        evDone,
	StageFailed:      evFail,
}

// pipelineContext is the statekit context of one execution.
type pipelineContext struct {
	Path   string
	Action ActionKind
}

// pipeline tracks the stage of one Execute call. Optional stages may be
// skipped, but a stage can never be entered out of order.
type pipeline struct {
	interp  *statekit.Interpreter[pipelineContext]
	history []Stage
}

func newPipeline(path string, kind ActionKind) (*pipeline, error) {
	machine, err := statekit.NewMachine[pipelineContext]("archive-executor").
		WithInitial(stIdle).
		WithContext(pipelineContext{Path: path, Action: kind}).
		State(stIdle).
		On(evFetch).Target(stFetching).
		On(evRemove).Target(stRemoving).
		On(evDone).Target(stDone).Done().
		State(stFetching).
		On(evVerify).Target(stVerifying).
		On(evPromote).Target(stPromoting).
		On(evFail).Target(stFailed).Done().
		State(stVerifying).
		On(evPromote).Target(stPromoting).
		On(evFail).Target(stFailed).Done().
		State(stPromoting).
		On(evPermissions).Target(stPermissions).
		On(evExtract).Target(stExtracting).
		On(evDone).Target(stDone).
		On(evFail).Target(stFailed).Done().
		State(stPermissions).
		On(evExtract).Target(stExtracting).
		On(evDone).Target(stDone).
		On(evFail).Target(stFailed).Done().
		State(stExtracting).
		On(evCleanup).Target(stCleaning).
		On(evDone).Target(stDone).
		On(evFail).Target(stFailed).Done().
		State(stCleaning).
		On(evDone).Target(stDone).
		On(evFail).Target(stFailed).Done().
		State(stRemoving).
		On(evDone).Target(stDone).
		On(evFail).Target(stFailed).Done().
		State(stDone).
		On(evReset).Target(stIdle).Done().
		State(stFailed).
		On(evReset).Target(stIdle).Done().
		Build()
	if err != nil {
		return nil, err
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &pipeline{interp: interp, history: []Stage{StageIdle}}, nil
}

// Stage returns the current stage.
func (p *pipeline) Stage() Stage {
	return Stage(p.interp.State().Value)
}

// enter moves the pipeline to next.
func (p *pipeline) enter(next Stage) error {
	ev, ok := stageEvents[next]
	if !ok {
		return fmt.Errorf("no transition into stage %s", next)
	}
	from := p.Stage()
	p.interp.Send(statekit.Event{Type: ev})
	if p.Stage() != next {
		return fmt.Errorf("invalid stage transition %s -> %s", from, next)
	}
	p.history = append(p.history, next)
	return nil
}

// fail records a failure in the current stage and returns that stage.
func (p *pipeline) fail() Stage {
	stage := p.Stage()
	p.interp.Send(statekit.Event{Type: evFail})
	p.history = append(p.history, StageFailed)
	return stage
}

// History returns the stages visited so far.
func (p *pipeline) History() []Stage {
	out := make([]Stage, len(p.history))
	copy(out, p.history)
	return out
}

func (p *pipeline) stop() {
	p.interp.Stop()
}
