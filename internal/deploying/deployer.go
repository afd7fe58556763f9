// Where: internal/deploying/deployer.go
// What: Deployment orchestration across selected targets.
// Why: Layers publish before functions so function updates can attach
//      the versions published in the same invocation.
package deploying

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/ui"
)

// functionUpdateWaitLimit bounds how long a deploy waits for in-flight
// function updates to finish before giving up.
const functionUpdateWaitLimit = 5 * time.Minute

// Deployer executes the upload-and-publish pipeline for bundled
// targets. With DryRun set every step is echoed without mutating
// remote state.
type Deployer struct {
	Clients ClientProvider
	Console *ui.Console
	Log     *log.Logger
	DryRun  bool
}

// Deploy uploads and publishes every selected target. Layer targets go
// first and their published versions feed the function updates.
func (d *Deployer) Deploy(
	ctx context.Context,
	execution *definitions.Context,
	selection definitions.Selection,
	description string,
) ([]*definitions.Target, error) {
	selected := execution.SelectedTargets(selection)

	var publishedLayers []definitions.PublishedLayer
	for _, target := range selected.LayerTargets() {
		published, err := d.deployTarget(ctx, target, description, nil)
		if err != nil {
			return selected.Targets, err
		}
		publishedLayers = append(publishedLayers, published...)
	}

	for _, target := range selected.FunctionTargets() {
		if _, err := d.deployTarget(ctx, target, description, publishedLayers); err != nil {
			return selected.Targets, err
		}
	}

	return selected.Targets, nil
}

// deployTarget uploads the target's artifact and publishes it. Layer
// targets return their published versions.
func (d *Deployer) deployTarget(
	ctx context.Context,
	target *definitions.Target,
	description string,
	publishedLayers []definitions.PublishedLayer,
) ([]definitions.PublishedLayer, error) {
	d.Log.Debug("deploying target", "kind", target.Kind(), "names", target.Names())

	keys, err := d.upload(ctx, target)
	if err != nil {
		return nil, err
	}

	if target.Kind() == definitions.TargetKindLayer {
		return d.publishLayers(ctx, target, keys, description)
	}
	return nil, d.publishFunctions(ctx, target, keys, publishedLayers, description)
}
