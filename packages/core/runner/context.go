package runner

import (
	"github.com/abdul-hamid-achik/scenarist/packages/audit"
	"github.com/abdul-hamid-achik/scenarist/packages/builtin"
	"github.com/abdul-hamid-achik/scenarist/packages/core/env"
)

// RunContext is the state shared by all documents of one run.
type RunContext struct {
	Environment *env.Vars
	Generator   *builtin.Generator
	Recorder    *audit.Recorder
}

// NewRunContext creates a run context. Nil arguments get fresh defaults.
func NewRunContext(environment *env.Vars, gen *builtin.Generator, recorder *audit.Recorder) *RunContext {
	if environment == nil {
		environment = env.NewVars()
	}
	if gen == nil {
		gen = builtin.NewGenerator()
	}
	if recorder == nil {
		recorder = audit.NewRecorder()
	}
	return &RunContext{
		Environment: environment,
		Generator:   gen,
		Recorder:    recorder,
	}
}
