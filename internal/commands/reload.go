// Where: internal/commands/reload.go
// What: The reload command.
// Why: Re-read the configuration document mid-session without
//      orphaning the working directories of unchanged targets.
package commands

import (
	"context"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

func runReload(_ context.Context, shell *Shell, args []string) Result {
	if err := parseArgs(&struct{}{}, args); err != nil {
		return failure(err)
	}

	next, err := definitions.LoadContext(
		shell.Context.ConfigPath,
		shell.Context.Configuration.Account,
		shell.Context.Configuration.WorkRoot,
	)
	if err != nil {
		return failure(err)
	}

	definitions.CarryIdentityTokens(shell.Context.Configuration, next.Configuration)
	shell.Context = next
	return success("Configuration reloaded.")
}
