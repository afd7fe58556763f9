// Where: internal/definitions/depending.go
// What: Dependency group and per-kind package source views.
// Why: Resolve package identifiers from inline lists, manifests and
//      manager export commands.
package definitions

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Dependency is one package source tagged with a package-manager kind.
// Command kinds resolve to no packages and instead expose a
// side-effecting Execute action.
type Dependency interface {
	// Kind returns the package-manager kind tag.
	Kind() DependencyKind
	// UUID returns the source's identity token.
	UUID() string
	// ManifestPath returns the resolved manifest file, or "".
	ManifestPath() string
	// PackageNames resolves the package identifiers for this source.
	PackageNames() ([]string, error)
	// Execute runs the side-effecting action for command kinds. It is
	// a no-op for package-list kinds.
	Execute() error
	// Arguments lists extra installer arguments as key=value pairs.
	Arguments() []string
	// Serialize renders the source for display.
	Serialize() map[string]any
}

// DependencyGroup is a named, optionally shared set of package sources
// that resolve into one install directory.
type DependencyGroup struct {
	Specification

	// Target is the owning target definition.
	Target *Target
}

func newDependencyGroup(target *Target) *DependencyGroup {
	data, ok := target.Get("dependencies").(map[string]any)
	if !ok {
		// A plain list of sources forms an anonymous group. The group
		// borrows the target's document node so its identity stays
		// stable across view construction.
		data = target.Data()
	}
	return &DependencyGroup{
		Specification: newSpecification(target.Directory, data),
		Target:        target,
	}
}

// Name returns the group name, or "" for anonymous groups.
func (g *DependencyGroup) Name() string {
	if g.Data() == nil {
		return ""
	}
	if _, sameNode := g.Get("dependencies").([]any); sameNode {
		// Anonymous group borrowing the target node.
		return ""
	}
	return g.GetString("name")
}

// IsShared reports whether the group's install output is shared across
// targets declaring the same group name.
func (g *DependencyGroup) IsShared() bool {
	return g.Name() != "" && g.GetBool("shared")
}

// Skip lists package identifiers removed from the resolved set,
// matched with version and extras suffixes stripped.
func (g *DependencyGroup) Skip() []string {
	return g.GetFirstStringList([]string{"skip"}, []string{"skips"})
}

// SitePackagesDirectory is the install directory the group resolves
// into. Shared groups install into a name-keyed location so that later
// targets in the same run can copy the output instead of reinstalling.
func (g *DependencyGroup) SitePackagesDirectory() string {
	if g.IsShared() {
		return filepath.Join(g.Target.Configuration.WorkRoot, "shared-deps-"+g.Name())
	}
	return g.Target.SitePackagesDirectory()
}

// Sources lists the group's package sources.
func (g *DependencyGroup) Sources() []Dependency {
	entries := g.sourceEntries()
	out := make([]Dependency, 0, len(entries))
	for _, entry := range entries {
		data, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		base := baseDependency{
			Specification: newSpecification(g.Directory, data),
			Group:         g,
		}
		switch DependencyKind(base.GetString("kind")) {
		case DependencyKindPipper:
			out = append(out, &PipperDependency{base})
		case DependencyKindPoetry:
			out = append(out, &PoetryDependency{base})
		case DependencyKindUv:
			out = append(out, &UvDependency{base})
		case DependencyKindPoetryCommand:
			out = append(out, &PoetryCommandDependency{commandDependency{base, "poetry"}})
		case DependencyKindUvCommand:
			out = append(out, &UvCommandDependency{commandDependency{base, "uv"}})
		default:
			out = append(out, &PipDependency{base})
		}
	}
	return out
}

func (g *DependencyGroup) sourceEntries() []any {
	if list, ok := g.Target.Get("dependencies").([]any); ok {
		return list
	}
	return g.GetList("sources")
}

// PackageNames resolves the union of all source packages with the skip
// list applied uniformly.
func (g *DependencyGroup) PackageNames() ([]string, error) {
	skipped := map[string]bool{}
	for _, name := range g.Skip() {
		skipped[CanonicalPackageName(name)] = true
	}
	var out []string
	for _, source := range g.Sources() {
		names, err := source.PackageNames()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if skipped[CanonicalPackageName(name)] {
				continue
			}
			out = append(out, name)
		}
	}
	return out, nil
}

// Serialize renders the group for display. Resolution failures are
// reported in place of the package list rather than aborting display.
func (g *DependencyGroup) Serialize() map[string]any {
	sources := g.Sources()
	serialized := make([]map[string]any, 0, len(sources))
	for _, source := range sources {
		serialized = append(serialized, source.Serialize())
	}
	return map[string]any{
		"name":    g.Name(),
		"shared":  g.IsShared(),
		"skip":    g.Skip(),
		"sources": serialized,
	}
}

// CanonicalPackageName strips version constraints, extras and
// environment markers from a requirement line.
func CanonicalPackageName(requirement string) string {
	name := strings.TrimSpace(requirement)
	for _, separator := range []string{";", "[", "==", ">=", "<=", "~=", "!=", ">", "<", "=", " "} {
		if index := strings.Index(name, separator); index >= 0 {
			name = name[:index]
		}
	}
	return strings.ToLower(strings.TrimSpace(name))
}

type baseDependency struct {
	Specification

	// Group is the owning dependency group.
	Group *DependencyGroup
}

func (d *baseDependency) Kind() DependencyKind {
	if kind := DependencyKind(d.GetString("kind")); kind != "" {
		return kind
	}
	return DependencyKindPip
}

// ManifestPath resolves the manifest file for this source: an explicit
// `file` value, nothing when inline packages are declared, or the
// kind's conventional default when it exists on disk.
func (d *baseDependency) ManifestPath() string {
	if value := d.GetString("file"); value != "" {
		return filepath.Join(d.Directory, value)
	}
	if d.Has("packages") || d.Has("package") {
		return ""
	}
	fallback := filepath.Join(d.Directory, DefaultManifestFile(d.Kind()))
	if _, err := os.Stat(fallback); err == nil {
		return fallback
	}
	return ""
}

// InlinePackages lists explicitly declared packages.
func (d *baseDependency) InlinePackages() []string {
	return d.GetFirstStringList([]string{"packages"}, []string{"package"})
}

// Arguments lists extra installer arguments as key=value pairs, sorted
// for deterministic command lines.
func (d *baseDependency) Arguments() []string {
	values, ok := d.Get("arguments").(map[string]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for key, value := range values {
		if value == nil {
			continue
		}
		out = append(out, fmt.Sprintf("%s=%v", key, value))
	}
	sort.Strings(out)
	return out
}

func (d *baseDependency) Execute() error {
	return nil
}

func (d *baseDependency) serializeWith(packages []string, err error) map[string]any {
	out := map[string]any{"kind": string(d.Kind())}
	if err != nil {
		out["error"] = err.Error()
		return out
	}
	out["packages"] = packages
	return out
}

// PipDependency resolves requirement lines from inline packages and a
// requirements-style manifest.
type PipDependency struct {
	baseDependency
}

func (d *PipDependency) PackageNames() ([]string, error) {
	packages := append([]string(nil), d.InlinePackages()...)
	if manifest := d.ManifestPath(); manifest != "" {
		lines, err := readRequirementLines(manifest)
		if err != nil {
			return nil, err
		}
		packages = append(packages, lines...)
	}
	return packages, nil
}

func (d *PipDependency) Serialize() map[string]any {
	packages, err := d.PackageNames()
	return d.serializeWith(packages, err)
}

// PipperDependency resolves packages from inline values and the JSON
// dependency list of a pipper package file.
type PipperDependency struct {
	baseDependency
}

// Prefix returns the custom key prefix of the pipper repository.
func (d *PipperDependency) Prefix() string {
	return d.GetString("prefix")
}

// Bucket resolves the bucket holding the pipper repository, following
// the canonical order and falling back to the package file's own
// bucket value last.
func (d *PipperDependency) Bucket() string {
	value := d.GetFirst([]string{"buckets"}, []string{"bucket"})
	accountID := d.Group.Target.Configuration.AccountID()
	region := d.Group.Target.Region()
	if bucket := MatchingBucket(value, accountID, region, ""); bucket != "" {
		return bucket
	}
	if data, err := d.packageData(); err == nil && data != nil {
		if bucket, ok := data["bucket"].(string); ok {
			return bucket
		}
	}
	return ""
}

func (d *PipperDependency) packageData() (map[string]any, error) {
	manifest := d.ManifestPath()
	if manifest == "" {
		return nil, nil
	}
	contents, err := os.ReadFile(manifest)
	if err != nil {
		return nil, fmt.Errorf("read pipper file: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("parse pipper file: %w", err)
	}
	return data, nil
}

func (d *PipperDependency) PackageNames() ([]string, error) {
	packages := append([]string(nil), d.InlinePackages()...)
	data, err := d.packageData()
	if err != nil {
		return nil, err
	}
	if data != nil {
		if listed, ok := data["dependencies"].([]any); ok {
			packages = append(packages, toStrings(listed)...)
		}
	}
	return packages, nil
}

func (d *PipperDependency) Serialize() map[string]any {
	packages, err := d.PackageNames()
	out := d.serializeWith(packages, err)
	out["bucket"] = d.Bucket()
	out["prefix"] = d.Prefix()
	return out
}

// PoetryDependency resolves packages by exporting the poetry lock as
// requirement lines.
type PoetryDependency struct {
	baseDependency
}

// Extras lists extra package groups passed to the export command.
func (d *PoetryDependency) Extras() []string {
	return d.GetFirstStringList([]string{"extras"}, []string{"extra"})
}

func (d *PoetryDependency) PackageNames() ([]string, error) {
	packages := append([]string(nil), d.InlinePackages()...)
	if d.ManifestPath() == "" {
		return packages, nil
	}
	executable, err := findManagerExecutable("poetry")
	if err != nil {
		return nil, err
	}
	args := []string{"export", "--format=requirements.txt", "--without-hashes"}
	for _, extra := range d.Extras() {
		args = append(args, "--extras="+extra)
	}
	output, err := runExport(executable, args, d.Directory)
	if err != nil {
		return nil, fmt.Errorf("poetry export: %w", err)
	}
	return append(packages, parseRequirementOutput(output)...), nil
}

func (d *PoetryDependency) Serialize() map[string]any {
	packages, err := d.PackageNames()
	return d.serializeWith(packages, err)
}

// UvDependency resolves packages by exporting the uv lock as
// requirement lines.
type UvDependency struct {
	baseDependency
}

func (d *UvDependency) PackageNames() ([]string, error) {
	packages := append([]string(nil), d.InlinePackages()...)
	if d.ManifestPath() == "" {
		return packages, nil
	}
	executable, err := findManagerExecutable("uv")
	if err != nil {
		return nil, err
	}
	args := []string{"export", "--format", "requirements-txt", "--no-hashes"}
	output, err := runExport(executable, args, d.Directory)
	if err != nil {
		return nil, fmt.Errorf("uv export: %w", err)
	}
	return append(packages, parseRequirementOutput(output)...), nil
}

func (d *UvDependency) Serialize() map[string]any {
	packages, err := d.PackageNames()
	return d.serializeWith(packages, err)
}

// commandDependency runs an arbitrary argument vector through the
// manager executable instead of resolving packages.
type commandDependency struct {
	baseDependency

	manager string
}

// CommandArgs returns the configured argument vector.
func (d *commandDependency) CommandArgs() []string {
	return d.GetStringList("args")
}

func (d *commandDependency) PackageNames() ([]string, error) {
	return nil, nil
}

func (d *commandDependency) Execute() error {
	executable, err := findManagerExecutable(d.manager)
	if err != nil {
		return err
	}
	return runManagerCommand(executable, d.CommandArgs(), d.Directory, nil)
}

func (d *commandDependency) Serialize() map[string]any {
	return map[string]any{
		"kind": string(d.Kind()),
		"args": d.CommandArgs(),
	}
}

// PoetryCommandDependency runs a poetry command and relies on the
// installer to harvest the produced virtual environment.
type PoetryCommandDependency struct {
	commandDependency
}

// UvCommandDependency runs a uv command and relies on the installer to
// harvest the produced virtual environment.
type UvCommandDependency struct {
	commandDependency
}

func readRequirementLines(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requirements file: %w", err)
	}
	return parseRequirementOutput(contents), nil
}

// parseRequirementOutput splits newline-delimited requirement strings,
// stripping environment markers after `;` and blank lines.
func parseRequirementOutput(output []byte) []string {
	var out []string
	for _, line := range strings.Split(string(output), "\n") {
		item := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Subprocess seams, overridable in tests.
var (
	runExport = func(executable string, args []string, dir string) ([]byte, error) {
		cmd := exec.Command(executable, args...)
		cmd.Dir = dir
		return cmd.Output()
	}

	runManagerCommand = func(executable string, args []string, dir string, extraEnv map[string]string) error {
		cmd := exec.Command(executable, args...)
		cmd.Dir = dir
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

	findManagerExecutable = discoverManagerExecutable
)

// discoverManagerExecutable searches the user-local bin directory and
// the running binary's directory for an executable named after the
// manager (exactly, or prefixed with a dot suffix), then falls back to
// PATH lookup. Missing managers are a fatal dependency error.
func discoverManagerExecutable(name string) (string, error) {
	var directories []string
	if home, err := os.UserHomeDir(); err == nil {
		directories = append(directories, filepath.Join(home, ".local", "bin"))
	}
	if self, err := os.Executable(); err == nil {
		directories = append(directories, filepath.Dir(self))
	}
	for _, directory := range directories {
		entries, err := os.ReadDir(directory)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if entry.Name() == name || strings.HasPrefix(entry.Name(), name+".") {
				return filepath.Join(directory, entry.Name()), nil
			}
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("unable to find a %s installation for dependency resolution", name)
}
