// Where: internal/commands/push.go
// What: The push command.
// Why: Bundle and deploy the current selection in one step.
package commands

import (
	"context"
	"fmt"
)

type pushGrammar struct {
	Reinstall   bool   `short:"r" help:"Reinstall dependencies even when a cached installation exists."`
	Description string `short:"d" help:"Version description; supports environment references and template functions."`
	DryRun      bool   `name:"dry-run" help:"Bundle, then report the deploy plan without mutating remote state."`
}

func runPush(ctx context.Context, shell *Shell, args []string) Result {
	var grammar pushGrammar
	if err := parseArgs(&grammar, args); err != nil {
		return failure(err)
	}
	if _, err := bundleTargets(ctx, shell, grammar.Reinstall, ""); err != nil {
		return failure(err)
	}
	targets, err := deployTargets(ctx, shell, grammar.Description, grammar.DryRun)
	if err != nil {
		return failure(err)
	}
	if grammar.DryRun {
		return success(fmt.Sprintf("Bundled %d target(s); deploy dry run finished.", len(targets)))
	}
	return success(fmt.Sprintf("Pushed %d target(s).", len(targets)))
}
