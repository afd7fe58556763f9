// Where: internal/commands/status.go
// What: The status command.
// Why: Show the live configuration of the selected targets, including
//      whether attached layers are current.
package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/servicer"
)

type statusGrammar struct {
	Qualifier string `arg:"" optional:"" help:"Function version or alias to inspect, default $LATEST."`
}

func runStatus(ctx context.Context, shell *Shell, args []string) Result {
	var grammar statusGrammar
	if err := parseArgs(&grammar, args); err != nil {
		return failure(err)
	}

	selected := shell.Context.SelectedTargets(shell.Selection)
	if len(selected.Targets) == 0 {
		return Result{Status: StatusSucceeded, Message: "Nothing is selected."}
	}

	for _, target := range selected.FunctionTargets() {
		client := shell.ServiceClients.Lambda(target.Region())
		for _, name := range target.Names() {
			info, err := functionStatus(ctx, client, name, grammar.Qualifier)
			if err != nil {
				return failure(err)
			}
			shell.Console.Header("⚡", name)
			shell.Console.YAML(info)
		}
	}
	for _, target := range selected.LayerTargets() {
		client := shell.ServiceClients.Lambda(target.Region())
		for _, name := range target.Names() {
			info, err := layerStatus(ctx, client, name, grammar.Qualifier)
			if err != nil {
				return failure(err)
			}
			shell.Console.Header("🧱", name)
			shell.Console.YAML(info)
		}
	}
	return Result{Status: StatusSucceeded}
}

func functionStatus(ctx context.Context, client servicer.LambdaAPI, name, qualifier string) (map[string]any, error) {
	function, err := servicer.GetFunctionVersion(ctx, client, name, qualifier)
	if err != nil {
		return nil, err
	}

	var layers []map[string]any
	for _, reference := range function.Layers() {
		layers = append(layers, layerReferenceStatus(ctx, client, reference))
	}
	var aliases []string
	for _, alias := range function.Aliases {
		aliases = append(aliases, alias.Name())
	}

	info := map[string]any{
		"arn":      function.Arn(),
		"version":  function.Version(),
		"runtime":  function.Runtime(),
		"handler":  function.Handler(),
		"memory":   function.Memory(),
		"timeout":  function.Timeout(),
		"size":     function.Size(),
		"modified": function.Modified(),
	}
	if state := function.Status().ToMap(); len(state) > 0 {
		info["state"] = state
	}
	if update := function.UpdateStatus().ToMap(); len(update) > 0 {
		info["last_update"] = update
	}
	if len(aliases) > 0 {
		info["aliases"] = aliases
	}
	if len(layers) > 0 {
		info["layers"] = layers
	}
	if environment := function.Environment(); len(environment) > 0 {
		info["environment"] = environment
	}
	return info, nil
}

// layerReferenceStatus describes one attached layer and notes when a
// newer version of it has been published.
func layerReferenceStatus(ctx context.Context, client servicer.LambdaAPI, reference definitions.LayerReference) map[string]any {
	info := map[string]any{
		"arn":  reference.Arn(),
		"size": reference.Size(),
	}
	versions, err := servicer.GetLayerVersions(ctx, client, reference.UnversionedArn())
	if err != nil || len(versions) == 0 {
		return info
	}
	newest := versions[len(versions)-1].Version()
	attached, err := strconv.ParseInt(reference.Version(), 10, 64)
	if err == nil && newest > attached {
		info["note"] = fmt.Sprintf("Newer version %d exists.", newest)
	}
	return info
}

func layerStatus(ctx context.Context, client servicer.LambdaAPI, name, qualifier string) (map[string]any, error) {
	var layer definitions.LambdaLayer
	if number, err := strconv.ParseInt(qualifier, 10, 64); err == nil && number > 0 {
		layer, err = servicer.GetLayerVersion(ctx, client, name, number)
		if err != nil {
			return nil, err
		}
	} else {
		versions, err := servicer.GetLayerVersions(ctx, client, name)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return map[string]any{"note": "No published versions."}, nil
		}
		layer = versions[len(versions)-1]
	}

	info := map[string]any{
		"arn":     layer.Arn(),
		"version": layer.Version(),
	}
	if description := layer.Description(); description != "" {
		info["description"] = description
	}
	if created := layer.Created(); !created.IsZero() {
		info["created"] = created.Format("2006-01-02 15:04:05")
	}
	if runtimes := layer.Runtimes(); len(runtimes) > 0 {
		info["runtimes"] = runtimes
	}
	if layer.CodeSize > 0 {
		info["size"] = layer.Size()
	}
	return info, nil
}
