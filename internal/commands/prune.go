// Where: internal/commands/prune.go
// What: The prune command.
// Why: Remove stale published versions while protecting $LATEST,
//      aliased function versions and the newest layer version.
package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/poruru/lambda-shepherd/internal/servicer"
)

type pruneGrammar struct {
	Start  int  `default:"0" help:"Lowest version number to remove (inclusive)."`
	End    int  `default:"0" help:"Highest version number to remove (inclusive)."`
	DryRun bool `name:"dry-run" help:"Report removable versions without deleting anything."`
	Yes    bool `short:"y" help:"Skip the confirmation prompt."`
}

// pruneEntry is one removable version, remembered with the regional
// client that can delete it.
type pruneEntry struct {
	client servicer.LambdaAPI
	arn    string
	layer  bool
}

func runPrune(ctx context.Context, shell *Shell, args []string) Result {
	var grammar pruneGrammar
	if err := parseArgs(&grammar, args); err != nil {
		return failure(err)
	}

	entries, err := removableVersions(ctx, shell, grammar.Start, grammar.End)
	if err != nil {
		return failure(err)
	}
	if len(entries) == 0 {
		return success("Nothing to prune.")
	}

	shell.Console.Header("🪓", fmt.Sprintf("%d removable version(s)", len(entries)))
	for _, entry := range entries {
		shell.Console.ItemPlain(entry.arn)
	}
	if grammar.DryRun {
		return success("Dry run finished, nothing was removed.")
	}

	confirmed, err := shell.confirm(fmt.Sprintf("Remove %d version(s)?", len(entries)), grammar.Yes)
	if err != nil {
		return failure(err)
	}
	if !confirmed {
		return Result{Status: StatusAborted, Message: "Pruning aborted."}
	}

	removed := 0
	for _, entry := range entries {
		ok := false
		if entry.layer {
			ok = servicer.RemoveLayerVersion(ctx, entry.client, shell.Console, entry.arn)
		} else {
			ok = servicer.RemoveFunctionVersion(ctx, entry.client, shell.Console, entry.arn)
		}
		if ok {
			removed++
		}
	}
	return success(fmt.Sprintf("Pruned %d of %d version(s).", removed, len(entries)))
}

// removableVersions surveys the selected targets for versions inside
// the optional bounds. Function versions stay when they are $LATEST or
// carry an alias; the newest layer version always stays.
func removableVersions(ctx context.Context, shell *Shell, start, end int) ([]pruneEntry, error) {
	var out []pruneEntry
	selected := shell.Context.SelectedTargets(shell.Selection)

	for _, target := range selected.FunctionTargets() {
		client := shell.ServiceClients.Lambda(target.Region())
		for _, name := range target.Names() {
			versions, err := servicer.GetFunctionVersions(ctx, client, name)
			if err != nil {
				return nil, err
			}
			for _, version := range versions {
				if version.Version() == "$LATEST" || len(version.Aliases) > 0 {
					continue
				}
				number, err := strconv.Atoi(version.Version())
				if err != nil || !withinBounds(number, start, end) {
					continue
				}
				out = append(out, pruneEntry{client: client, arn: version.Arn()})
			}
		}
	}

	for _, target := range selected.LayerTargets() {
		client := shell.ServiceClients.Lambda(target.Region())
		for _, name := range target.Names() {
			versions, err := servicer.GetLayerVersions(ctx, client, name)
			if err != nil {
				return nil, err
			}
			if len(versions) < 2 {
				continue
			}
			for _, version := range versions[:len(versions)-1] {
				if !withinBounds(int(version.Version()), start, end) {
					continue
				}
				out = append(out, pruneEntry{client: client, arn: version.Arn(), layer: true})
			}
		}
	}
	return out, nil
}

// withinBounds applies the inclusive start/end bounds; zero means the
// bound is unset.
func withinBounds(version, start, end int) bool {
	if start > 0 && version < start {
		return false
	}
	if end > 0 && version > end {
		return false
	}
	return true
}
