package nacc

import (
	"errors"
	"fmt"
)

// Record-level failures. Each aborts the current record only.
var (
	ErrRoutingMismatch = errors.New("record does not belong to the active protocol")
	ErrDateOutOfRange  = errors.New("visit date precedes protocol cutoff")
	ErrDateParse       = errors.New("malformed visit date component")
	ErrMissingField    = errors.New("required field missing from record")
	ErrUnknownField    = errors.New("field not declared on form")
	ErrRuleEvaluation  = errors.New("blanking rule could not be evaluated")
	ErrFieldOverflow   = errors.New("field value exceeds declared length")
)

// Configuration failures. These are raised before the per-record loop.
var (
	ErrRuleSyntax         = errors.New("blanking rule could not be parsed")
	ErrProtocolNotFound   = errors.New("no protocol registered under this name")
	ErrProtocolRegistered = errors.New("a protocol with this name is already registered")
	ErrRuleSetNotFound    = errors.New("no rule set registered under this name")
	ErrConflictingOptions = errors.New("conflicting protocol options")
	ErrUnknownFormat      = errors.New("unknown record format")
	ErrInvalidCatalog     = errors.New("invalid catalog definition")
)

// Stage names a step of the per-record pipeline.
type Stage string

const (
	StageRoute    Stage = "route"
	StageBuild    Stage = "build"
	StageValidate Stage = "validate"
	StageEmit     Stage = "emit"
)

// RecordError attributes a pipeline failure to a participant.
type RecordError struct {
	PTID  string
	Stage Stage
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("ptid %s: %s: %v", e.PTID, e.Stage, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
