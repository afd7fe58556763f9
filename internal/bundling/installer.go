// Where: internal/bundling/installer.go
// What: Per-kind dependency installation backends.
// Why: Resolve every source of a dependency group into its site
//      packages directory with the matching package manager.
package bundling

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

// installDependencies resets the group's site packages directory and
// resolves every source into it, then copies shared output into the
// target when the group is shared.
func (b *Bundler) installDependencies(ctx context.Context, target *definitions.Target) error {
	group := target.Dependencies()
	directory := group.SitePackagesDirectory()

	if _, err := os.Stat(directory); err == nil {
		b.Console.Info("Resetting existing site packages directory.")
		if err := os.RemoveAll(target.SitePackagesDirectory()); err != nil {
			return fmt.Errorf("reset site packages: %w", err)
		}
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("create site packages directory: %w", err)
	}

	skipped := skipSet(group)
	for _, source := range group.Sources() {
		var err error
		switch source.Kind() {
		case definitions.DependencyKindPipper:
			err = b.installPipper(ctx, source, directory, skipped)
		case definitions.DependencyKindPoetryCommand, definitions.DependencyKindUvCommand:
			err = b.installViaCommand(source, directory)
		default:
			// pip, poetry and uv all resolve to requirement lines that
			// install through pip into the group directory.
			err = b.installPackages(ctx, source, directory, skipped, nil)
		}
		if err != nil {
			return err
		}
	}

	return b.copySharedDependencies(target)
}

// copySharedDependencies replaces the target's site packages with the
// shared group's installed output. A no-op for unshared groups, whose
// group directory is the target directory itself.
func (b *Bundler) copySharedDependencies(target *definitions.Target) error {
	group := target.Dependencies()
	if !group.IsShared() {
		return nil
	}
	destination := target.SitePackagesDirectory()
	if _, err := os.Stat(destination); err == nil {
		b.Console.Info("Replacing site packages with latest shared installation.")
		if err := os.RemoveAll(destination); err != nil {
			return fmt.Errorf("replace site packages: %w", err)
		}
	}
	if err := copyTree(group.SitePackagesDirectory(), destination); err != nil {
		return fmt.Errorf("copy shared site packages: %w", err)
	}
	return nil
}

// installPackages installs each of the source's resolved packages into
// the directory through pip.
func (b *Bundler) installPackages(
	ctx context.Context,
	source definitions.Dependency,
	directory string,
	skipped map[string]bool,
	extraEnv map[string]string,
) error {
	packages, err := source.PackageNames()
	if err != nil {
		return err
	}
	for _, name := range filterSkipped(packages, skipped) {
		b.Console.ItemPlain(fmt.Sprintf("Installing %q %s package", name, source.Kind()))
		args := append(
			[]string{"-m", "pip", "install", "--upgrade", name, "-t", directory},
			source.Arguments()...,
		)
		if err := runInstallCommand(ctx, "python", args, extraEnv); err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}
	}
	return nil
}

// installPipper installs the source's packages through pipper with the
// session credentials exported for the subprocess.
func (b *Bundler) installPipper(
	ctx context.Context,
	source definitions.Dependency,
	directory string,
	skipped map[string]bool,
) error {
	pipper, ok := source.(*definitions.PipperDependency)
	if !ok {
		return fmt.Errorf("unexpected pipper dependency type %T", source)
	}

	extraEnv := map[string]string{}
	if b.Credentials != nil {
		credentials, err := b.Credentials.Credentials(ctx)
		if err != nil {
			return fmt.Errorf("resolve pipper credentials: %w", err)
		}
		// Empty values would shadow real environment configuration.
		if credentials.AccessKeyID != "" {
			extraEnv["PIPPER_AWS_ACCESS_KEY_ID"] = credentials.AccessKeyID
		}
		if credentials.SecretAccessKey != "" {
			extraEnv["PIPPER_AWS_SECRET_ACCESS_KEY"] = credentials.SecretAccessKey
		}
		if credentials.SessionToken != "" {
			extraEnv["PIPPER_AWS_SESSION_TOKEN"] = credentials.SessionToken
		}
	}

	var options []string
	if bucket := pipper.Bucket(); bucket != "" {
		options = append(options, "--bucket="+bucket)
	}
	if prefix := pipper.Prefix(); prefix != "" {
		options = append(options, "--prefix="+prefix)
	}
	options = append(options, source.Arguments()...)

	packages, err := source.PackageNames()
	if err != nil {
		return err
	}
	for _, name := range filterSkipped(packages, skipped) {
		b.Console.ItemPlain(fmt.Sprintf("Installing %q pipper package", name))
		args := append([]string{"install", name, "--upgrade", "--target", directory}, options...)
		if err := runInstallCommand(ctx, "pipper", args, extraEnv); err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}
	}
	return nil
}

// installViaCommand executes the manager command and harvests the
// virtual environment it produces into the group directory.
func (b *Bundler) installViaCommand(source definitions.Dependency, directory string) error {
	if err := source.Execute(); err != nil {
		return err
	}

	projectDir := filepath.Dir(source.ManifestPath())
	if source.ManifestPath() == "" {
		projectDir = directory
	}
	sitePackages, found := findVenvSitePackages(filepath.Join(projectDir, ".venv"))
	if !found {
		b.Console.Warn("No .venv site-packages found after command execution, skipping package copy.")
		return nil
	}

	b.Console.ItemPlain(fmt.Sprintf("Copying packages from %s", sitePackages))
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(sitePackages)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		sourceItem := filepath.Join(sitePackages, entry.Name())
		targetItem := filepath.Join(directory, entry.Name())
		if entry.IsDir() {
			if err := os.RemoveAll(targetItem); err != nil {
				return err
			}
			if err := copyTree(sourceItem, targetItem); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(sourceItem, targetItem); err != nil {
			return err
		}
	}
	return nil
}

// findVenvSitePackages locates the site-packages directory inside a
// virtual environment, conventionally .venv/lib/python3.X/site-packages.
func findVenvSitePackages(venvDir string) (string, bool) {
	libDir := filepath.Join(venvDir, "lib")
	entries, err := os.ReadDir(libDir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		candidate := filepath.Join(libDir, name, "site-packages")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func skipSet(group *definitions.DependencyGroup) map[string]bool {
	out := map[string]bool{}
	for _, name := range group.Skip() {
		out[definitions.CanonicalPackageName(name)] = true
	}
	return out
}

func filterSkipped(packages []string, skipped map[string]bool) []string {
	out := make([]string, 0, len(packages))
	for _, name := range packages {
		if skipped[definitions.CanonicalPackageName(name)] {
			continue
		}
		out = append(out, name)
	}
	return out
}

func copyTree(source string, destination string) error {
	return filepath.Walk(source, func(item string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(source, item)
		if err != nil {
			return err
		}
		target := filepath.Join(destination, relative)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(item, target)
	})
}

func copyFile(source string, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// runInstallCommand is the package-manager subprocess seam, overridden
// in tests.
var runInstallCommand = func(ctx context.Context, name string, args []string, extraEnv map[string]string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	env := os.Environ()
	keys := make([]string, 0, len(extraEnv))
	for key := range extraEnv {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, key+"="+extraEnv[key])
	}
	cmd.Env = env
	return cmd.Run()
}
