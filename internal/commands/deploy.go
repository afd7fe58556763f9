// Where: internal/commands/deploy.go
// What: The deploy command.
// Why: Upload bundled artifacts and publish them, layers before
//      functions.
package commands

import (
	"context"
	"fmt"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/deploying"
	"github.com/poruru/lambda-shepherd/internal/templating"
)

type deployGrammar struct {
	Description string `short:"d" help:"Version description; supports environment references and template functions."`
	DryRun      bool   `name:"dry-run" help:"Report the plan without mutating remote state."`
}

func runDeploy(ctx context.Context, shell *Shell, args []string) Result {
	var grammar deployGrammar
	if err := parseArgs(&grammar, args); err != nil {
		return failure(err)
	}
	targets, err := deployTargets(ctx, shell, grammar.Description, grammar.DryRun)
	if err != nil {
		return failure(err)
	}
	if grammar.DryRun {
		return success(fmt.Sprintf("Dry run finished for %d target(s).", len(targets)))
	}
	return success(fmt.Sprintf("Deployed %d target(s).", len(targets)))
}

// deployTargets runs the deploy pipeline for the current selection,
// shared with the push command.
func deployTargets(
	ctx context.Context,
	shell *Shell,
	description string,
	dryRun bool,
) ([]*definitions.Target, error) {
	rendered, err := templating.RenderDescription(description)
	if err != nil {
		return nil, err
	}
	deployer := &deploying.Deployer{
		Clients: shell.DeployClients,
		Console: shell.Console,
		Log:     shell.Log,
		DryRun:  dryRun,
	}
	return deployer.Deploy(ctx, shell.Context, shell.Selection, rendered)
}
