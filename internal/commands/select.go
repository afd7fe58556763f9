// Where: internal/commands/select.go
// What: The select command.
// Why: Narrow or reset the target set the other commands operate on.
package commands

import (
	"context"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

type selectGrammar struct {
	Functions bool     `short:"f" help:"Restrict the selection to function targets."`
	Layers    bool     `short:"l" help:"Restrict the selection to layer targets."`
	Exact     bool     `short:"e" help:"Match names literally instead of fuzzily."`
	Names     []string `arg:"" optional:"" help:"Names or needles to select; * selects everything."`
}

func runSelect(_ context.Context, shell *Shell, args []string) Result {
	var grammar selectGrammar
	if err := parseArgs(&grammar, args); err != nil {
		return failure(err)
	}

	names := grammar.Names
	if len(names) == 0 {
		names = []string{"*"}
	}

	switch {
	case len(names) == 1 && names[0] == "*" && !grammar.Functions && !grammar.Layers:
		shell.Selection = definitions.NewSelection()
	case grammar.Exact:
		shell.Selection = shell.Selection.WithExact(names, grammar.Functions, grammar.Layers)
	default:
		shell.Selection = shell.Selection.WithFuzzy(names, grammar.Functions, grammar.Layers)
	}

	selected := shell.Context.SelectedTargets(shell.Selection)
	return Result{
		Status:  StatusSucceeded,
		Message: "Selection updated.",
		Info: map[string]any{
			"functions": targetNames(selected.FunctionTargets()),
			"layers":    targetNames(selected.LayerTargets()),
		},
	}
}
