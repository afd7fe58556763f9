// Where: internal/commands/alias.go
// What: The alias command.
// Why: Point a named alias at a published function version.
package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/servicer"
)

type aliasGrammar struct {
	Alias    string `arg:"" help:"Alias name."`
	Version  string `arg:"" optional:"" help:"Version number; zero or negative counts back from the newest published version."`
	Function string `short:"f" help:"Function name when the selection holds more than one."`
	Create   bool   `help:"Create the alias instead of moving an existing one."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func runAlias(ctx context.Context, shell *Shell, args []string) Result {
	var grammar aliasGrammar
	if err := parseArgs(&grammar, args); err != nil {
		return failure(err)
	}

	functionName, region, err := resolveAliasFunction(shell, grammar.Function)
	if err != nil {
		return failure(err)
	}
	client := shell.ServiceClients.Lambda(region)

	version, err := resolveAliasVersion(ctx, client, functionName, grammar.Version)
	if err != nil {
		return failure(err)
	}

	title := fmt.Sprintf("Point alias %q at version %s of %s?", grammar.Alias, version, functionName)
	confirmed, err := shell.confirm(title, grammar.Yes)
	if err != nil {
		return failure(err)
	}
	if !confirmed {
		return Result{Status: StatusAborted, Message: "Aliasing aborted."}
	}

	if grammar.Create {
		err = client.CreateAlias(ctx, functionName, grammar.Alias, version)
	} else {
		err = client.UpdateAlias(ctx, functionName, grammar.Alias, version)
	}
	if err != nil {
		return failure(err)
	}
	return success(fmt.Sprintf("Alias %s now points at %s:%s.", grammar.Alias, functionName, version))
}

// resolveAliasFunction picks the single function the alias applies to,
// either the explicit name or an unambiguous selection.
func resolveAliasFunction(shell *Shell, explicit string) (string, string, error) {
	configuration := shell.Context.Configuration
	if explicit != "" {
		target := configuration.GetFunction(explicit)
		if target == nil {
			return "", "", fmt.Errorf("no function %q is configured", explicit)
		}
		return explicit, target.Region(), nil
	}

	selected := shell.Context.SelectedTargets(shell.Selection)
	names := targetNames(selected.FunctionTargets())
	if len(names) != 1 {
		return "", "", fmt.Errorf("select exactly one function or pass --function; %d are selected", len(names))
	}
	target := configuration.GetFunction(names[0])
	region := configuration.Region()
	if target != nil {
		region = target.Region()
	}
	return names[0], region, nil
}

// resolveAliasVersion turns the version argument into a published
// version number. Zero or a negative number counts back from the
// newest published version.
func resolveAliasVersion(ctx context.Context, client servicer.LambdaAPI, functionName, argument string) (string, error) {
	number := 0
	if argument != "" {
		parsed, err := strconv.Atoi(argument)
		if err != nil {
			return "", fmt.Errorf("version must be a number, got %q", argument)
		}
		number = parsed
	}
	if number > 0 {
		return strconv.Itoa(number), nil
	}

	versions, err := servicer.GetFunctionVersions(ctx, client, functionName)
	if err != nil {
		return "", err
	}
	published := make([]definitions.LambdaFunction, 0, len(versions))
	for _, version := range versions {
		if version.Version() != "$LATEST" {
			published = append(published, version)
		}
	}
	index := len(published) - 1 + number
	if index < 0 || index >= len(published) {
		return "", fmt.Errorf("function %s has no published version %d back from the newest", functionName, -number)
	}
	return published[index].Version(), nil
}
