// Where: internal/commands/list.go
// What: The list command.
// Why: Survey deployed versions, aliases and layer attachments for
//      the selected targets.
package commands

import (
	"context"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/servicer"
)

func runList(ctx context.Context, shell *Shell, args []string) Result {
	if err := parseArgs(&struct{}{}, args); err != nil {
		return failure(err)
	}

	selected := shell.Context.SelectedTargets(shell.Selection)
	if len(selected.Targets) == 0 {
		return Result{Status: StatusSucceeded, Message: "Nothing is selected."}
	}

	for _, target := range selected.FunctionTargets() {
		client := shell.ServiceClients.Lambda(target.Region())
		if err := servicer.EchoFunctionVersions(ctx, client, shell.Console, target.Names()); err != nil {
			return failure(err)
		}
	}
	for _, target := range selected.LayerTargets() {
		client := shell.ServiceClients.Lambda(target.Region())
		holders := regionFunctionNames(shell.Context.Configuration, target.Region())
		if err := servicer.EchoLayerVersions(ctx, client, shell.Console, target.Names(), holders); err != nil {
			return failure(err)
		}
	}
	return Result{Status: StatusSucceeded}
}

// regionFunctionNames lists every configured function name deployed in
// the given region. Layer attachment surveys consult all of them, not
// only the selected ones.
func regionFunctionNames(configuration *definitions.Configuration, region string) []string {
	var out []string
	for _, target := range configuration.FunctionTargets() {
		if target.Region() == region {
			out = append(out, target.Names()...)
		}
	}
	return out
}
