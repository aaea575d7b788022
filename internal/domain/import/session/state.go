package session

import (
	"errors"
	"fmt"
)

// Step is a stage of the import wizard
type Step string

const (
	StepUpload          Step = "upload"
	StepTargetSelection Step = "target-selection"
	StepPreview         Step = "preview"
	StepValidating      Step = "validating"
	StepImporting       Step = "importing"
	StepResult          Step = "result"
)

// Event drives a transition between steps
type Event string

const (
	EventParsed           Event = "parsed"
	EventParseFailed      Event = "parse-failed"
	EventTargetConfirmed  Event = "target-confirmed"
	EventValidate         Event = "validate"
	EventValidated        Event = "validated"
	EventValidationFailed Event = "validation-failed"
	EventCommit           Event = "commit"
	EventCommitted        Event = "committed"
	EventReset            Event = "reset"
	EventCancel           Event = "cancel"
)

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrCancelled         = errors.New("import session cancelled")
)

var transitions = map[Step]map[Event]Step{
	StepUpload: {
		EventParsed:      StepTargetSelection,
		EventParseFailed: StepUpload,
		EventReset:       StepUpload,
	},
	StepTargetSelection: {
		EventTargetConfirmed: StepPreview,
	},
	StepPreview: {
		EventValidate: StepValidating,
	},
	// validating doubles as "validated" once a result is attached
	StepValidating: {
		EventValidated:        StepValidating,
		EventValidationFailed: StepPreview,
		EventCommit:           StepImporting,
	},
	StepImporting: {
		EventCommitted: StepResult,
	},
	StepResult: {
		EventReset: StepUpload,
	},
}

// Transition returns the step reached from `from` on ev. Cancel is accepted everywhere.
func Transition(from Step, ev Event) (Step, error) {
	if ev == EventCancel {
		return StepUpload, nil
	}
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, from)
}
