// Package tracker is the operation-tracking and audit collaborator the
// parse orchestrator reports into. It is injected rather than global,
// so library code can run without initializing any monitoring state.
package tracker

import "time"

// Status of a tracked operation.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result classifies an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultPartial Result = "partial_success"
	ResultFailure Result = "failure"
)

// Entry is one audit log record.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Resource  string            `json:"resource"`
	Action    string            `json:"action"`
	Result    Result            `json:"result"`
	Detail    string            `json:"detail,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Operation is a handle to one in-flight tracked operation. Progress
// may be called any number of times; exactly one of Complete or Fail
// ends the operation.
type Operation interface {
	ID() string
	Progress(records uint64)
	Complete()
	Fail(err error)
}

// Tracker receives operation lifecycle signals and audit entries.
// Implementations must tolerate concurrent use; callers must not
// assume a Tracker retries or blocks.
type Tracker interface {
	Start(name string, metadata map[string]string) Operation
	Audit(entry Entry)
}

// Nop discards everything. It is the default collaborator.
type Nop struct{}

func (Nop) Start(string, map[string]string) Operation { return nopOperation{} }

func (Nop) Audit(Entry) {}

type nopOperation struct{}

func (nopOperation) ID() string      { return "" }
func (nopOperation) Progress(uint64) {}
func (nopOperation) Complete()       {}
func (nopOperation) Fail(error)      {}
