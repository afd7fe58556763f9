package definitions

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, item := range paths {
		full := filepath.Join(root, item)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("content"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBundleHandlerParsing(t *testing.T) {
	configuration := testConfiguration(t, map[string]any{
		"targets": []any{
			map[string]any{"name": "f"},
			map[string]any{"name": "g", "bundle": map[string]any{"handler": "app.main"}},
			map[string]any{"name": "l", "kind": "layer"},
		},
	})
	targets := configuration.Targets()

	bundle := targets[0].Bundle()
	if bundle.Handler() != "lambda_function.lambda_handler" {
		t.Fatalf("default handler = %q", bundle.Handler())
	}
	if bundle.HandlerFilename() != "lambda_function.py" {
		t.Fatalf("handler filename = %q", bundle.HandlerFilename())
	}

	custom := targets[1].Bundle()
	if custom.HandlerFilename() != "app.py" || custom.HandlerFunction() != "main" {
		t.Fatalf("custom handler = %q / %q", custom.HandlerFilename(), custom.HandlerFunction())
	}

	if targets[2].Bundle().Handler() != "" {
		t.Fatal("layer bundle exposed a handler")
	}
}

func TestBundlePathsAutoDiscoversPackages(t *testing.T) {
	directory := t.TempDir()
	writeFiles(t, directory,
		"lambda_function.py",
		"mypkg/__init__.py",
		"mypkg/logic.py",
		"mypkg/__pycache__/logic.cpython-312.pyc",
		"notes.txt",
		".DS_Store",
	)

	configuration := configurationIn(t, directory, map[string]any{
		"targets": []any{map[string]any{"name": "f"}},
	})

	paths := configuration.Targets()[0].Bundle().Paths()
	want := []string{
		"lambda_function.py",
		filepath.Join("mypkg", "__init__.py"),
		filepath.Join("mypkg", "logic.py"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestBundlePathsExplicitIncludes(t *testing.T) {
	directory := t.TempDir()
	writeFiles(t, directory,
		"handler.py",
		"helpers/util.py",
		"helpers/secret.py",
		"unrelated/skip.py",
	)

	configuration := configurationIn(t, directory, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"bundle": map[string]any{
				"handler":  "handler.respond",
				"includes": []any{"helpers/**/*"},
				"excludes": []any{"helpers/secret.py"},
			},
		}},
	})

	paths := configuration.Targets()[0].Bundle().Paths()
	want := []string{
		"handler.py",
		filepath.Join("helpers", "util.py"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestSitePackagePathsOmissions(t *testing.T) {
	configuration := testConfiguration(t, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"bundle": map[string]any{
				"omit_packages": []any{"boto3"},
			},
		}},
	})
	target := configuration.Targets()[0]

	site := target.SitePackagesDirectory()
	writeFiles(t, site,
		"requests/__init__.py",
		"boto3/__init__.py",
		"boto3/session.py",
		"boto3-1.28.0.dist-info/METADATA",
		"six.py",
	)

	paths := target.Bundle().SitePackagePaths()
	want := []string{
		filepath.Join(site, "requests", "__init__.py"),
		filepath.Join(site, "six.py"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestSitePackagePathsPackageExcludes(t *testing.T) {
	configuration := testConfiguration(t, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"bundle": map[string]any{
				"package_excludes": []any{"*/tests/**/*"},
			},
		}},
	})
	target := configuration.Targets()[0]

	site := target.SitePackagesDirectory()
	writeFiles(t, site,
		"lib/__init__.py",
		"lib/tests/test_lib.py",
	)

	paths := target.Bundle().SitePackagePaths()
	want := []string{filepath.Join(site, "lib", "__init__.py")}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestCopyPathMissingSource(t *testing.T) {
	destination := filepath.Join(t.TempDir(), "out", "file.py")
	copied, err := CopyPath{Source: "/does/not/exist", Destination: destination}.Copy()
	if err != nil {
		t.Fatalf("missing source should not error: %v", err)
	}
	if copied {
		t.Fatal("missing source reported as copied")
	}
}

func TestCopyPathCopies(t *testing.T) {
	directory := t.TempDir()
	writeFiles(t, directory, "src.py")
	destination := filepath.Join(directory, "nested", "dst.py")

	copied, err := CopyPath{
		Source:      filepath.Join(directory, "src.py"),
		Destination: destination,
	}.Copy()
	if err != nil || !copied {
		t.Fatalf("copy = %v/%v", copied, err)
	}
	contents, err := os.ReadFile(destination)
	if err != nil || string(contents) != "content" {
		t.Fatalf("destination contents = %q/%v", contents, err)
	}
}
