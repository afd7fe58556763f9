// Where: internal/definitions/bundling.go
// What: Bundle contents definition and file-set resolution.
// Why: Decide exactly which project and dependency files ship per target.
package definitions

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// CopyPath maps one source file to its destination inside the bundle
// working directory.
type CopyPath struct {
	Source      string
	Destination string
}

// Copy copies the source file to the destination, creating parent
// directories as needed. A missing source is reported as not copied
// rather than as an error.
func (c CopyPath) Copy() (bool, error) {
	info, err := os.Stat(c.Source)
	if err != nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Destination), 0o755); err != nil {
		return false, err
	}
	source, err := os.Open(c.Source)
	if err != nil {
		return false, err
	}
	defer source.Close()
	destination, err := os.OpenFile(c.Destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return false, err
	}
	defer destination.Close()
	if _, err := io.Copy(destination, source); err != nil {
		return false, err
	}
	return true, nil
}

// Bundle defines the file contents of the zip artifact built for a
// function or layer target.
type Bundle struct {
	Specification

	// Target is the owning target definition.
	Target *Target
}

func newBundle(target *Target, data map[string]any) *Bundle {
	return &Bundle{
		Specification: newSpecification(target.Directory, data),
		Target:        target,
	}
}

// Handler returns the `filename.function` entrypoint for function
// targets, defaulting to the Lambda convention. Layers have none.
func (b *Bundle) Handler() string {
	if b.Target.Kind() == TargetKindLayer {
		return ""
	}
	if handler := b.GetString("handler"); handler != "" {
		return handler
	}
	return "lambda_function.lambda_handler"
}

// HandlerFilename returns the python file holding the handler.
func (b *Bundle) HandlerFilename() string {
	handler := b.Handler()
	if handler == "" {
		return ""
	}
	if index := strings.LastIndex(handler, "."); index >= 0 {
		handler = handler[:index]
	}
	return handler + ".py"
}

// HandlerFunction returns the entrypoint function name of the handler.
func (b *Bundle) HandlerFunction() string {
	handler := b.Handler()
	if handler == "" {
		return ""
	}
	if index := strings.LastIndex(handler, "."); index >= 0 {
		return handler[index+1:]
	}
	return handler
}

// OmittedPackages lists site packages excluded from the artifact, used
// when a dependency is installed in an attached layer and should not be
// duplicated in the function bundle.
func (b *Bundle) OmittedPackages() []string {
	return b.GetFirstStringList([]string{"omit_packages"}, []string{"omit_package"})
}

// IncludePatterns lists the project-relative patterns copied into the
// artifact. When a function target declares none, python packages found
// in the project root are included by default; layers default to
// nothing. The handler file is always included for functions.
func (b *Bundle) IncludePatterns() []string {
	includes := b.GetFirstStringList([]string{"includes"}, []string{"include"})
	patterns := make([]string, 0, len(includes)+1)
	for _, include := range includes {
		patterns = append(patterns, filepath.Join(b.Directory, include))
	}
	if len(patterns) == 0 && b.Target.Kind() == TargetKindFunction {
		markers := globMatches(filepath.Join(b.Directory, "*", "__init__.py"))
		for _, marker := range markers {
			patterns = append(patterns, filepath.Dir(marker))
		}
	}
	if filename := b.HandlerFilename(); filename != "" {
		patterns = append(patterns, filepath.Join(b.Directory, filename))
	}
	return patterns
}

// ExcludePatterns lists the project-relative patterns removed from the
// include results. Python bytecode caches and OS metadata files are
// always excluded.
func (b *Bundle) ExcludePatterns() []string {
	excludes := b.GetFirstStringList([]string{"excludes"}, []string{"exclude"})
	excludes = append(excludes, "**/__pycache__", "**/*.pyc", "**/.DS_Store")
	patterns := make([]string, 0, len(excludes))
	for _, exclude := range excludes {
		patterns = append(patterns, filepath.Join(b.Directory, exclude))
	}
	return patterns
}

// PackageExcludePatterns lists patterns, relative to the target's site
// packages directory, removed from the installed dependency output.
func (b *Bundle) PackageExcludePatterns() []string {
	excludes := b.GetFirstStringList([]string{"package_excludes"}, []string{"package_exclude"})
	patterns := make([]string, 0, len(excludes))
	for _, exclude := range excludes {
		patterns = append(patterns, filepath.Join(b.Target.SitePackagesDirectory(), exclude))
	}
	return patterns
}

// Paths resolves the project files to bundle: everything matching the
// include patterns minus everything matching the exclude patterns,
// returned relative to the project directory in sorted order.
func (b *Bundle) Paths() []string {
	included := expandPatterns(b.IncludePatterns())
	for excluded := range expandPatterns(b.ExcludePatterns()) {
		delete(included, excluded)
	}
	out := make([]string, 0, len(included))
	for item := range included {
		if relative, err := filepath.Rel(b.Directory, item); err == nil {
			out = append(out, relative)
		}
	}
	sort.Strings(out)
	return out
}

// CopyPaths maps each resolved project file to its destination in the
// bundle working directory.
func (b *Bundle) CopyPaths() []CopyPath {
	paths := b.Paths()
	out := make([]CopyPath, 0, len(paths))
	for _, item := range paths {
		out = append(out, CopyPath{
			Source:      filepath.Join(b.Directory, item),
			Destination: filepath.Join(b.Target.BundleDirectory(), item),
		})
	}
	return out
}

// SitePackagePaths resolves the installed dependency files to bundle,
// with omitted packages and user package excludes removed, in sorted
// order. Omitted packages are matched in all the layouts an installed
// package can take: a package directory, a single module file, and
// versioned metadata directories.
func (b *Bundle) SitePackagePaths() []string {
	directory := b.Target.SitePackagesDirectory()
	exclusions := b.PackageExcludePatterns()
	for _, name := range b.OmittedPackages() {
		exclusions = append(exclusions,
			filepath.Join(directory, name, "**", "*"),
			filepath.Join(directory, name+".*"),
			filepath.Join(directory, name+"-*"),
			filepath.Join(directory, name+"-*", "**", "*"),
		)
	}
	included := expandPatterns([]string{filepath.Join(directory, "**", "*")})
	for excluded := range expandPatterns(exclusions) {
		delete(included, excluded)
	}
	out := make([]string, 0, len(included))
	for item := range included {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Serialize renders the bundle definition for display.
func (b *Bundle) Serialize() map[string]any {
	return map[string]any{
		"handler":          b.Handler(),
		"handler_filename": b.HandlerFilename(),
		"handler_function": b.HandlerFunction(),
		"omitted_packages": b.OmittedPackages(),
		"include_patterns": b.IncludePatterns(),
		"exclude_patterns": b.ExcludePatterns(),
	}
}

// expandPatterns resolves glob patterns to the set of regular files they
// cover. A pattern matching a directory covers the directory's whole
// subtree.
func expandPatterns(patterns []string) map[string]bool {
	out := map[string]bool{}
	for _, pattern := range patterns {
		for _, match := range globMatches(pattern) {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				out[match] = true
				continue
			}
			filepath.WalkDir(match, func(item string, entry fs.DirEntry, err error) error {
				if err == nil && !entry.IsDir() {
					out[item] = true
				}
				return nil
			})
		}
	}
	return out
}

// globMatches resolves a single glob pattern, supporting `**` as a
// match for any number of path segments including none.
func globMatches(pattern string) []string {
	root, segments := splitPatternRoot(pattern)
	if len(segments) == 0 {
		if _, err := os.Stat(root); err != nil {
			return nil
		}
		return []string{root}
	}
	var out []string
	filepath.WalkDir(root, func(item string, entry fs.DirEntry, err error) error {
		if err != nil || item == root {
			return nil
		}
		relative, err := filepath.Rel(root, item)
		if err != nil {
			return nil
		}
		names := strings.Split(filepath.ToSlash(relative), "/")
		if matchSegments(segments, names) {
			out = append(out, item)
		}
		return nil
	})
	sort.Strings(out)
	return out
}

// splitPatternRoot splits a pattern into its literal directory prefix
// and the remaining wildcard segments.
func splitPatternRoot(pattern string) (string, []string) {
	segments := strings.Split(filepath.ToSlash(pattern), "/")
	root := string(filepath.Separator)
	var index int
	for index = 0; index < len(segments); index++ {
		if strings.ContainsAny(segments[index], "*?[") {
			break
		}
		root = filepath.Join(root, segments[index])
	}
	return root, segments[index:]
}

// matchSegments reports whether the pattern segments cover the path
// segments, with `**` spanning zero or more segments.
func matchSegments(pattern []string, names []string) bool {
	if len(pattern) == 0 {
		return len(names) == 0
	}
	if pattern[0] == "**" {
		for skip := 0; skip <= len(names); skip++ {
			if matchSegments(pattern[1:], names[skip:]) {
				return true
			}
		}
		return false
	}
	if len(names) == 0 {
		return false
	}
	if ok, err := path.Match(pattern[0], names[0]); err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], names[1:])
}
