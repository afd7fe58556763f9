// Where: internal/deploying/publisher.go
// What: Function and layer version publishing.
// Why: Push uploaded code live, waiting out in-flight updates between
//      the code, configuration and publish steps.
package deploying

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

// publishFunctions deploys the uploaded code to every function name of
// the target: update code on $LATEST, apply configuration changes, then
// publish a new version pinned to the uploaded code hash.
func (d *Deployer) publishFunctions(
	ctx context.Context,
	target *definitions.Target,
	keys []string,
	publishedLayers []definitions.PublishedLayer,
	description string,
) error {
	client := d.Clients.Lambda(target.Region())
	names := target.Names()

	for index, name := range names {
		if index >= len(keys) {
			break
		}
		d.Console.Info(fmt.Sprintf("Deploying code bundle to %s $LATEST", name))

		var codeSha256 string
		if !d.DryRun {
			response, err := client.UpdateFunctionCode(ctx, name, target.Bucket(), keys[index])
			if err != nil {
				return fmt.Errorf("update function code: %w", err)
			}
			codeSha256 = aws.ToString(response.CodeSha256)
		}

		if !d.DryRun {
			if err := client.WaitForFunctionUpdated(ctx, name); err != nil {
				return fmt.Errorf("wait for function update: %w", err)
			}
		}
		if err := d.updateFunctionConfiguration(ctx, client, name, target, publishedLayers); err != nil {
			return err
		}

		d.Console.Info("Publishing new version from bundle")
		if d.DryRun {
			continue
		}
		if err := client.WaitForFunctionUpdated(ctx, name); err != nil {
			return fmt.Errorf("wait for function update: %w", err)
		}
		published, err := client.PublishVersion(ctx, name, codeSha256, description)
		if err != nil {
			return fmt.Errorf("publish function version: %w", err)
		}
		d.Console.Success(fmt.Sprintf("Function %s (%s)", name, aws.ToString(published.Version)))
		d.Console.Item("Version", aws.ToString(published.FunctionArn))
		d.Console.Item("Runtime", string(published.Runtime))
	}

	d.Console.Success("Lambda function code has been deployed")
	return nil
}

// publishLayers publishes a new layer version for every layer name of
// the target and returns the published versions so function deploys in
// the same invocation can attach them.
func (d *Deployer) publishLayers(
	ctx context.Context,
	target *definitions.Target,
	keys []string,
	description string,
) ([]definitions.PublishedLayer, error) {
	client := d.Clients.Lambda(target.Region())
	names := target.Names()

	var published []definitions.PublishedLayer
	for index, name := range names {
		if index >= len(keys) {
			break
		}
		d.Console.Info(fmt.Sprintf("Publishing code bundle to %s layer", name))
		if d.DryRun {
			continue
		}
		response, err := client.PublishLayerVersion(
			ctx, name, target.Bucket(), keys[index], description, target.Runtime(),
		)
		if err != nil {
			return nil, fmt.Errorf("publish layer version: %w", err)
		}
		layer := definitions.PublishedLayer{Response: response}
		d.Console.Success(fmt.Sprintf("Layer %s (%d)", name, layer.Version()))
		d.Console.Item("Layer", layer.Arn())
		d.Console.Item("Version", layer.VersionedArn())
		published = append(published, layer)
	}

	d.Console.Success("Lambda layer code has been deployed")
	return published, nil
}
