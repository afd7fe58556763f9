// Where: internal/commands/configs.go
// What: The configs command.
// Why: Dump the resolved configuration so the operator can verify
//      what the document expands to.
package commands

import (
	"context"
)

func runConfigs(_ context.Context, shell *Shell, args []string) Result {
	if err := parseArgs(&struct{}{}, args); err != nil {
		return failure(err)
	}
	shell.Console.YAML(shell.Context.Configuration.Serialize())
	return Result{Status: StatusSucceeded}
}
