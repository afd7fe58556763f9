// Where: internal/commands/result.go
// What: Structured command outcome.
// Why: The shell renders every command through one result shape.
package commands

// Status tags a command outcome.
type Status string

const (
	// StatusSucceeded marks a completed command.
	StatusSucceeded Status = "succeeded"
	// StatusFailed marks a command that could not complete.
	StatusFailed Status = "failed"
	// StatusAborted marks a command the operator declined to confirm.
	StatusAborted Status = "aborted"
	// StatusExited marks the shell shutdown command.
	StatusExited Status = "exited"
)

// Result is the structured outcome of one command invocation.
type Result struct {
	Status  Status
	Message string

	// Info carries optional structured data rendered after the
	// message, such as the names a selection resolved to.
	Info map[string]any
}

func success(message string) Result {
	return Result{Status: StatusSucceeded, Message: message}
}

func failure(err error) Result {
	return Result{Status: StatusFailed, Message: err.Error()}
}
