// Where: internal/servicer/layering.go
// What: Layer version listing and removal.
// Why: Version surveys drive the list and prune operations, including
//      which function versions hold each layer attachment.
package servicer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/ui"
)

// GetLayerVersions lists the published versions of a layer in
// increasing version order. A missing layer yields an empty list.
func GetLayerVersions(ctx context.Context, client LambdaAPI, layerName string) ([]definitions.LambdaLayer, error) {
	items, err := client.ListLayerVersions(ctx, layerName)
	if err != nil {
		return nil, fmt.Errorf("list layer versions: %w", err)
	}
	versions := make([]definitions.LambdaLayer, 0, len(items))
	for _, item := range items {
		versions = append(versions, definitions.LambdaLayer{Response: item, LayerName: layerName})
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Version() < versions[j].Version()
	})
	return versions, nil
}

// GetLayerVersion fetches one published layer version.
func GetLayerVersion(ctx context.Context, client LambdaAPI, layerName string, version int64) (definitions.LambdaLayer, error) {
	response, err := client.GetLayerVersion(ctx, layerName, version)
	if err != nil {
		return definitions.LambdaLayer{}, fmt.Errorf("get layer version: %w", err)
	}
	return definitions.NewLambdaLayer(response, layerName), nil
}

// RemoveLayerVersion deletes the layer version addressed by a
// versioned ARN. Failures are reported, not fatal.
func RemoveLayerVersion(ctx context.Context, client LambdaAPI, console *ui.Console, layerArn string) bool {
	cut := strings.LastIndex(layerArn, ":")
	if cut < 0 {
		console.Error(fmt.Sprintf("Cannot delete unversioned layer ARN %s", layerArn))
		return false
	}
	version, err := strconv.ParseInt(layerArn[cut+1:], 10, 64)
	if err != nil {
		console.Error(fmt.Sprintf("Cannot delete unversioned layer ARN %s", layerArn))
		return false
	}
	if err := client.DeleteLayerVersion(ctx, layerArn[:cut], version); err != nil {
		console.Error(fmt.Sprintf("Version %s could not be deleted: %v", layerArn, err))
		return false
	}
	console.ItemPlain(fmt.Sprintf("Pruned %s", layerArn))
	return true
}

// AttachedFunctionVersions surveys which function versions and aliases
// hold an attachment for the named layer, keyed by layer version.
func AttachedFunctionVersions(
	ctx context.Context,
	client LambdaAPI,
	layerName string,
	functionNames []string,
) (map[string][]string, error) {
	attachments := map[string][]string{}
	for _, functionName := range functionNames {
		versions, err := GetFunctionVersions(ctx, client, functionName)
		if err != nil {
			return nil, err
		}
		for _, function := range versions {
			match := function.GetLayer(layerName)
			if match == nil {
				continue
			}
			key := match.Version()
			attachments[key] = append(attachments[key], fmt.Sprintf("%s:%s", function.Name(), function.Version()))
			for _, alias := range function.Aliases {
				attachments[key] = append(attachments[key], fmt.Sprintf("%s:%s", function.Name(), alias.Name()))
			}
		}
	}
	return attachments, nil
}

// EchoLayerVersions prints a version summary for each layer including
// the function versions holding each attachment.
func EchoLayerVersions(
	ctx context.Context,
	client LambdaAPI,
	console *ui.Console,
	layerNames []string,
	functionNames []string,
) error {
	for _, name := range layerNames {
		versions, err := GetLayerVersions(ctx, client, name)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			console.Warn(fmt.Sprintf("No layer %q was found.", name))
			continue
		}

		attachments, err := AttachedFunctionVersions(ctx, client, name, functionNames)
		if err != nil {
			return err
		}

		console.Header("🧱", name)
		for _, version := range versions {
			label := version.Description()
			if label == "" {
				label = version.Created().Format("2006-01-02 15:04:05")
			}
			console.ItemPlain(fmt.Sprintf("%d: %s", version.Version(), label))
			for _, holder := range attachments[strconv.FormatInt(version.Version(), 10)] {
				console.ItemPlain(fmt.Sprintf("   - %s", holder))
			}
		}
	}
	return nil
}
