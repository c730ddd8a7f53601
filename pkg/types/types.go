// Package types provides the core data model for a Crucible run
package types

import (
	"fmt"
	"strings"
	"time"
)

// Invocation is a single unit of work: one external command executed in a
// working directory, optionally under a reduced feature configuration.
// Invocations are immutable once constructed.
type Invocation struct {
	// Dir is the working directory the command runs in.
	Dir string `yaml:"dir"`

	// Command is the executable name, resolved through PATH.
	Command string `yaml:"command"`

	// Args are the base arguments, in order.
	Args []string `yaml:"args,flow"`

	// Features optionally selects a non-default feature configuration.
	// When set, the default feature set is disabled and only the listed
	// features are enabled.
	Features []string `yaml:"features,flow,omitempty"`
}

// FullArgs returns the complete argument list, including the feature
// selector flags when a feature configuration is set.
func (i Invocation) FullArgs() []string {
	args := make([]string, 0, len(i.Args)+3)
	args = append(args, i.Args...)

	if len(i.Features) > 0 {
		args = append(args, "--no-default-features", "--features", strings.Join(i.Features, ","))
	}

	return args
}

// CommandLine renders the invocation the way a shell trace would print it.
func (i Invocation) CommandLine() string {
	parts := append([]string{i.Command}, i.FullArgs()...)
	return fmt.Sprintf("cd %s && %s", i.Dir, strings.Join(parts, " "))
}

// Phase is a named, ordered group of invocations representing one logical
// stage of the run. Order within a phase is significant and preserved.
type Phase struct {
	Name        string       `yaml:"name"`
	Invocations []Invocation `yaml:"invocations"`
}

// Plan is the complete, statically ordered set of phases executed by one
// run. Order across phases is significant and preserved.
type Plan struct {
	Phases []Phase `yaml:"phases"`
}

// Len returns the total number of invocations across all phases.
func (p Plan) Len() int {
	n := 0
	for _, phase := range p.Phases {
		n += len(phase.Invocations)
	}
	return n
}

// RunStatus represents the orchestrator's lifecycle state
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
)

// Terminal reports whether the status is a terminal state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusAborted
}

// RunResult describes the outcome of one run of a plan. It is produced once
// per run and never persisted.
type RunResult struct {
	// ID uniquely identifies the run.
	ID string

	// Status is Completed or Aborted.
	Status RunStatus

	// Executed counts the invocations that were dispatched, including a
	// failing one.
	Executed int

	// Failed references the first failing invocation, if any. Nothing
	// after it was executed.
	Failed *Invocation

	// ExitCode is the failing command's exit code, or 0 on success. When
	// the command never ran (e.g. it could not be located), the code is a
	// generic nonzero failure.
	ExitCode int

	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether every invocation in the plan ran and passed.
func (r RunResult) Succeeded() bool {
	return r.Status == RunStatusCompleted
}
