// Where: internal/servicer/functioning.go
// What: Function version listing, lookup and removal.
// Why: Version surveys drive the list, prune and alias operations.
package servicer

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/ui"
)

// latestSortWeight places $LATEST after every numeric version.
const latestSortWeight = int(1e8)

// GetFunctionVersions lists all versions of a function with their
// attached aliases, sorted by increasing version with $LATEST last.
// A missing function yields an empty list.
func GetFunctionVersions(ctx context.Context, client LambdaAPI, functionName string) ([]definitions.LambdaFunction, error) {
	configurations, err := client.ListFunctionVersions(ctx, functionName)
	if err != nil {
		return nil, fmt.Errorf("list function versions: %w", err)
	}
	if len(configurations) == 0 {
		return nil, nil
	}

	aliases, err := client.ListAliases(ctx, functionName, "")
	if err != nil {
		return nil, fmt.Errorf("list function aliases: %w", err)
	}
	aliased := map[string][]definitions.FunctionAlias{}
	for _, alias := range aliases {
		version := ""
		if alias.FunctionVersion != nil {
			version = *alias.FunctionVersion
		}
		aliased[version] = append(aliased[version], definitions.FunctionAlias{Response: alias})
	}

	versions := make([]definitions.LambdaFunction, 0, len(configurations))
	for _, configuration := range configurations {
		view := definitions.LambdaFunction{Response: configuration}
		view.Aliases = aliased[view.Version()]
		versions = append(versions, view)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versionWeight(versions[i].Version()) < versionWeight(versions[j].Version())
	})
	return versions, nil
}

// GetFunctionVersion fetches the configuration for one version of a
// function along with the aliases pointing at it.
func GetFunctionVersion(ctx context.Context, client LambdaAPI, functionName string, qualifier string) (definitions.LambdaFunction, error) {
	response, err := client.GetFunctionConfiguration(ctx, functionName, qualifier)
	if err != nil {
		return definitions.LambdaFunction{}, fmt.Errorf("get function configuration: %w", err)
	}
	view := definitions.NewLambdaFunction(response)

	aliases, err := client.ListAliases(ctx, functionName, view.Version())
	if err != nil {
		return definitions.LambdaFunction{}, fmt.Errorf("list function aliases: %w", err)
	}
	for _, alias := range aliases {
		view.Aliases = append(view.Aliases, definitions.FunctionAlias{Response: alias})
	}
	return view, nil
}

// RemoveFunctionVersion deletes the function version with the given
// ARN. Failures are reported, not fatal, so pruning continues across
// the remaining versions.
func RemoveFunctionVersion(ctx context.Context, client LambdaAPI, console *ui.Console, versionArn string) bool {
	if err := client.DeleteFunction(ctx, versionArn); err != nil {
		console.Error(fmt.Sprintf("Version %s could not be deleted: %v", versionArn, err))
		return false
	}
	console.ItemPlain(fmt.Sprintf("Pruned %s", versionArn))
	return true
}

// EchoFunctionVersions prints a version summary for each function.
func EchoFunctionVersions(ctx context.Context, client LambdaAPI, console *ui.Console, names []string) error {
	for _, name := range names {
		versions, err := GetFunctionVersions(ctx, client, name)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			console.Warn(fmt.Sprintf("No function %q was found.", name))
			continue
		}
		console.Header("⚡", name)
		for _, version := range versions {
			line := fmt.Sprintf("%s: %s (%s)", version.Version(), version.Modified(), version.Size())
			console.ItemPlain(line)
			for _, alias := range version.Aliases {
				console.ItemPlain(fmt.Sprintf("   - %s:%s", name, alias.Name()))
			}
		}
	}
	return nil
}

func versionWeight(version string) int {
	if version == "$LATEST" {
		return latestSortWeight
	}
	value, err := strconv.Atoi(version)
	if err != nil {
		return 0
	}
	return value
}
