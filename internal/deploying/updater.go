// Where: internal/deploying/updater.go
// What: Minimal function configuration diffing and update.
// Why: Only fields that differ from the deployed configuration are
//      sent, honoring the target's ignore list throughout.
package deploying

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

// updateFunctionConfiguration diffs the target's declared configuration
// against the deployed one and applies only the changed fields.
func (d *Deployer) updateFunctionConfiguration(
	ctx context.Context,
	client LambdaAPI,
	functionName string,
	target *definitions.Target,
	publishedLayers []definitions.PublishedLayer,
) error {
	current, err := client.GetFunctionConfiguration(ctx, functionName)
	if err != nil {
		return fmt.Errorf("get function configuration: %w", err)
	}
	deployed := definitions.NewLambdaFunction(current)

	changes := ConfigurationChanges{FunctionName: functionName}
	if err := d.diffLayers(ctx, client, functionName, target, deployed, publishedLayers, &changes); err != nil {
		return err
	}
	diffRuntime(target, deployed, &changes)
	diffMemory(target, deployed, &changes)
	diffTimeout(target, deployed, &changes)
	diffEnvironment(functionName, target, deployed, &changes)
	diffHandler(target, deployed, &changes)

	if changes.IsEmpty() {
		d.Console.ItemPlain(fmt.Sprintf("%s configuration unchanged.", functionName))
		return nil
	}

	d.Console.Info(fmt.Sprintf("Updating %s configuration values:", functionName))
	d.Console.YAML(changes.ToMap())

	if d.DryRun {
		d.Console.ItemPlain("Dry run, no configuration updates applied.")
		return nil
	}
	if err := client.UpdateFunctionConfiguration(ctx, changes); err != nil {
		return fmt.Errorf("update function configuration: %w", err)
	}
	return nil
}

// diffLayers computes the attachment list for the function, swapping in
// freshly published layer versions and resolving unversioned ARNs to
// their latest published version.
func (d *Deployer) diffLayers(
	ctx context.Context,
	client LambdaAPI,
	functionName string,
	target *definitions.Target,
	deployed definitions.LambdaFunction,
	publishedLayers []definitions.PublishedLayer,
	changes *ConfigurationChanges,
) error {
	if target.IgnoresAny("layer", "layers") {
		return nil
	}

	updates := map[string]string{}
	for _, published := range publishedLayers {
		updates[published.Arn()] = published.VersionedArn()
	}

	var latest []string
	for _, attachment := range target.LayerAttachments() {
		if !attachment.IsAttachable(functionName) {
			continue
		}
		arn := attachment.Arn()
		if versioned, ok := updates[arn]; ok {
			arn = versioned
		}
		versioned, err := d.toVersionedArn(ctx, client, arn)
		if err != nil {
			return err
		}
		if versioned != "" {
			latest = append(latest, versioned)
		}
	}

	var existing []string
	for _, reference := range deployed.Layers() {
		existing = append(existing, reference.Arn())
	}
	if stringsEqual(latest, existing) {
		return nil
	}
	changes.Layers = latest
	changes.HasLayers = true
	return nil
}

// toVersionedArn resolves an unversioned layer ARN to its latest
// published version. A layer with no published versions is skipped
// with a warning.
func (d *Deployer) toVersionedArn(ctx context.Context, client LambdaAPI, arn string) (string, error) {
	if arn == "" {
		return "", nil
	}
	// Seven colons means the version qualifier is already present.
	if countColons(arn) == 7 {
		return arn, nil
	}
	version, found, err := client.LatestLayerVersion(ctx, arn)
	if err != nil {
		return "", fmt.Errorf("list layer versions: %w", err)
	}
	if !found {
		d.Console.Warn(fmt.Sprintf("No versions found for layer %s", arn))
		return "", nil
	}
	return fmt.Sprintf("%s:%d", arn, version), nil
}

func diffRuntime(target *definitions.Target, deployed definitions.LambdaFunction, changes *ConfigurationChanges) {
	latest := target.Runtime()
	if target.IgnoresAny("runtime") || latest == deployed.Runtime() {
		return
	}
	changes.Runtime = aws.String(latest)
}

func diffMemory(target *definitions.Target, deployed definitions.LambdaFunction, changes *ConfigurationChanges) {
	latest := target.Memory()
	if target.IgnoresAny("memory") || latest == 0 {
		return
	}
	if int32(latest) == aws.ToInt32(deployed.Response.MemorySize) {
		return
	}
	changes.MemorySize = aws.Int32(int32(latest))
}

func diffTimeout(target *definitions.Target, deployed definitions.LambdaFunction, changes *ConfigurationChanges) {
	latest := target.Timeout()
	if target.IgnoresAny("timeout") || latest == 0 {
		return
	}
	if int32(latest) == aws.ToInt32(deployed.Response.Timeout) {
		return
	}
	changes.Timeout = aws.Int32(int32(latest))
}

// diffEnvironment resolves the declared variables for the function,
// carrying deployed values forward for preserved variables.
func diffEnvironment(
	functionName string,
	target *definitions.Target,
	deployed definitions.LambdaFunction,
	changes *ConfigurationChanges,
) {
	if target.IgnoresAny("variable", "variables") {
		return
	}

	existing := deployed.Environment()
	latest := map[string]string{}
	for _, variable := range target.Variables() {
		if variable.Preserve() {
			if value, ok := existing[variable.Name()]; ok && value != "" {
				latest[variable.Name()] = value
			}
			continue
		}
		if value, ok := variable.Value(functionName); ok && value != "" {
			latest[variable.Name()] = value
		}
	}

	if mapsEqual(latest, existing) {
		return
	}
	changes.Environment = latest
	changes.HasEnv = true
}

func diffHandler(target *definitions.Target, deployed definitions.LambdaFunction, changes *ConfigurationChanges) {
	latest := target.Bundle().Handler()
	if target.IgnoresAny("handler") || latest == deployed.Handler() {
		return
	}
	changes.Handler = aws.String(latest)
}

func countColons(value string) int {
	count := 0
	for _, character := range value {
		if character == ':' {
			count++
		}
	}
	return count
}

func stringsEqual(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for index := range a {
		if a[index] != b[index] {
			return false
		}
	}
	return true
}

func mapsEqual(a map[string]string, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for key, value := range a {
		if b[key] != value {
			return false
		}
	}
	return true
}
