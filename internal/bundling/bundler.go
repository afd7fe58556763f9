// Where: internal/bundling/bundler.go
// What: Bundle assembly orchestration for selected targets.
// Why: Install dependencies once per shared group, copy sources and
//      archive each target into its deployable zip.
package bundling

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/charmbracelet/log"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/ui"
)

// CredentialsProvider supplies session credentials for package-manager
// subprocesses that talk to private repositories.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (aws.Credentials, error)
}

// Bundler assembles zip artifacts for selected targets.
type Bundler struct {
	Credentials CredentialsProvider
	Console     *ui.Console
	Log         *log.Logger
}

// Create assembles the bundle for every selected target and returns
// the selection that was bundled. Shared dependency groups install at
// most once per invocation; later targets copy the installed output.
func (b *Bundler) Create(
	ctx context.Context,
	execution *definitions.Context,
	selection definitions.Selection,
	reinstall bool,
) (definitions.SelectedTargets, error) {
	selected := execution.SelectedTargets(selection)
	installedShared := map[string]bool{}

	for _, target := range selected.Targets {
		if err := os.MkdirAll(target.BundleDirectory(), 0o755); err != nil {
			return selected, fmt.Errorf("create bundle directory: %w", err)
		}

		group := target.Dependencies()
		switch {
		case b.shouldInstall(group, reinstall, installedShared):
			if err := b.installDependencies(ctx, target); err != nil {
				return selected, err
			}
			if group.IsShared() {
				installedShared[group.Name()] = true
			}
		case b.shouldCopyShared(group, installedShared):
			if err := b.copySharedDependencies(target); err != nil {
				return selected, err
			}
		default:
			b.Console.Info("Using existing dependency installation cache.")
		}

		for _, copyPath := range target.Bundle().CopyPaths() {
			copied, err := copyPath.Copy()
			if err != nil {
				return selected, fmt.Errorf("copy bundle source: %w", err)
			}
			if copied {
				relative, _ := filepath.Rel(target.Directory, copyPath.Source)
				b.Console.ItemPlain(fmt.Sprintf("Copied %s", relative))
			}
		}

		if err := b.createZip(target); err != nil {
			return selected, err
		}
		b.Console.Success(fmt.Sprintf("Archived %s", target.BundleZipPath()))
	}

	return selected, nil
}

// shouldInstall decides whether the target's dependencies need a fresh
// installation. Reinstall forces one unless a shared group was already
// installed earlier in this invocation.
func (b *Bundler) shouldInstall(
	group *definitions.DependencyGroup,
	reinstall bool,
	installedShared map[string]bool,
) bool {
	forced := reinstall && (!group.IsShared() || !installedShared[group.Name()])
	if forced {
		return true
	}
	entries, err := os.ReadDir(group.SitePackagesDirectory())
	return err != nil || len(entries) == 0
}

// shouldCopyShared decides whether the target can reuse a shared group
// installed by an earlier target in this invocation.
func (b *Bundler) shouldCopyShared(
	group *definitions.DependencyGroup,
	installedShared map[string]bool,
) bool {
	return group.IsShared() && installedShared[group.Name()]
}
