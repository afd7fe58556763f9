// Where: internal/commands/bundle.go
// What: The bundle command.
// Why: Assemble zip artifacts for the selected targets, optionally
//      exporting them outside the working directory.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/poruru/lambda-shepherd/internal/bundling"
	"github.com/poruru/lambda-shepherd/internal/definitions"
)

type bundleGrammar struct {
	Reinstall bool   `short:"r" help:"Reinstall dependencies even when a cached installation exists."`
	Output    string `short:"o" type:"path" help:"Directory to copy the finished archives into."`
}

func runBundle(ctx context.Context, shell *Shell, args []string) Result {
	var grammar bundleGrammar
	if err := parseArgs(&grammar, args); err != nil {
		return failure(err)
	}
	selected, err := bundleTargets(ctx, shell, grammar.Reinstall, grammar.Output)
	if err != nil {
		return failure(err)
	}
	return success(fmt.Sprintf("Bundled %d target(s).", len(selected.Targets)))
}

// bundleTargets runs the bundling pipeline for the current selection,
// shared with the push command.
func bundleTargets(
	ctx context.Context,
	shell *Shell,
	reinstall bool,
	output string,
) (definitions.SelectedTargets, error) {
	bundler := &bundling.Bundler{
		Credentials: shell.Credentials,
		Console:     shell.Console,
		Log:         shell.Log,
	}
	selected, err := bundler.Create(ctx, shell.Context, shell.Selection, reinstall)
	if err != nil {
		return selected, err
	}
	if output == "" {
		return selected, nil
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return selected, fmt.Errorf("create output directory: %w", err)
	}
	for _, target := range selected.Targets {
		names := target.Names()
		if len(names) == 0 {
			continue
		}
		destination := filepath.Join(output, fmt.Sprintf("%s-%s.zip", names[0], target.Kind()))
		if err := copyArchive(target.BundleZipPath(), destination); err != nil {
			return selected, err
		}
		shell.Console.ItemPlain(fmt.Sprintf("Exported %s", destination))
	}
	return selected, nil
}

func copyArchive(source, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create archive copy: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy archive: %w", err)
	}
	return out.Close()
}
