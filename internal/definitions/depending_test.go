package definitions

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestCanonicalPackageName(t *testing.T) {
	cases := []struct {
		requirement string
		want        string
	}{
		{"requests", "requests"},
		{"Requests==2.31.0", "requests"},
		{"boto3>=1.28", "boto3"},
		{"uvicorn[standard]~=0.23", "uvicorn"},
		{"pydantic ; python_version >= '3.8'", "pydantic"},
		{"  NumPy  ", "numpy"},
	}
	for _, tc := range cases {
		if got := CanonicalPackageName(tc.requirement); got != tc.want {
			t.Errorf("CanonicalPackageName(%q) = %q, want %q", tc.requirement, got, tc.want)
		}
	}
}

func configurationIn(t *testing.T, directory string, data map[string]any) *Configuration {
	t.Helper()
	return NewConfiguration(directory, data, fakeAccount{account: "111122223333", region: "eu-west-1"}, t.TempDir())
}

func TestDependencyGroupUnionWithSkip(t *testing.T) {
	configuration := testConfiguration(t, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": map[string]any{
				"name": "deps",
				"skip": []any{"boto3"},
				"sources": []any{
					map[string]any{"kind": "pip", "packages": []any{"requests==2.31.0", "boto3>=1.28"}},
					map[string]any{"kind": "pip", "packages": []any{"pydantic"}},
				},
			},
		}},
	})

	group := configuration.Targets()[0].Dependencies()
	packages, err := group.PackageNames()
	if err != nil {
		t.Fatalf("PackageNames: %v", err)
	}
	sort.Strings(packages)
	want := []string{"pydantic", "requests==2.31.0"}
	if !reflect.DeepEqual(packages, want) {
		t.Fatalf("packages = %v, want %v", packages, want)
	}
}

func TestAnonymousDependencyGroup(t *testing.T) {
	configuration := testConfiguration(t, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": []any{
				map[string]any{"kind": "pip", "packages": []any{"requests"}},
			},
		}},
	})

	group := configuration.Targets()[0].Dependencies()
	if group.Name() != "" {
		t.Fatalf("anonymous group has name %q", group.Name())
	}
	if group.IsShared() {
		t.Fatal("anonymous group reported shared")
	}
	if group.SitePackagesDirectory() != group.Target.SitePackagesDirectory() {
		t.Fatal("anonymous group does not install into the target directory")
	}
}

func TestSharedGroupInstallsIntoNamedDirectory(t *testing.T) {
	configuration := testConfiguration(t, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": map[string]any{
				"name":   "common",
				"shared": true,
			},
		}},
	})

	group := configuration.Targets()[0].Dependencies()
	if !group.IsShared() {
		t.Fatal("shared group not reported shared")
	}
	want := filepath.Join(configuration.WorkRoot, "shared-deps-common")
	if group.SitePackagesDirectory() != want {
		t.Fatalf("shared dir = %q, want %q", group.SitePackagesDirectory(), want)
	}
}

func TestPipManifestResolution(t *testing.T) {
	directory := t.TempDir()
	requirements := filepath.Join(directory, "requirements.txt")
	contents := "requests==2.31.0\npydantic ; python_version >= '3.8'\n\n"
	if err := os.WriteFile(requirements, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	configuration := configurationIn(t, directory, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": []any{
				map[string]any{"kind": "pip"},
			},
		}},
	})

	sources := configuration.Targets()[0].Dependencies().Sources()
	if len(sources) != 1 {
		t.Fatalf("sources = %d", len(sources))
	}
	if sources[0].ManifestPath() != requirements {
		t.Fatalf("manifest = %q", sources[0].ManifestPath())
	}
	packages, err := sources[0].PackageNames()
	if err != nil {
		t.Fatalf("PackageNames: %v", err)
	}
	want := []string{"requests==2.31.0", "pydantic"}
	if !reflect.DeepEqual(packages, want) {
		t.Fatalf("packages = %v, want %v", packages, want)
	}
}

func TestPoetryExport(t *testing.T) {
	directory := t.TempDir()
	if err := os.WriteFile(filepath.Join(directory, "pyproject.toml"), []byte("[tool.poetry]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotExecutable string
	var gotArgs []string
	restoreFind := findManagerExecutable
	restoreRun := runExport
	findManagerExecutable = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	runExport = func(executable string, args []string, dir string) ([]byte, error) {
		gotExecutable = executable
		gotArgs = args
		return []byte("requests==2.31.0\nboto3 ; extra == 's3'\n"), nil
	}
	defer func() {
		findManagerExecutable = restoreFind
		runExport = restoreRun
	}()

	configuration := configurationIn(t, directory, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": []any{
				map[string]any{"kind": "poetry", "extras": []any{"aws"}},
			},
		}},
	})

	packages, err := configuration.Targets()[0].Dependencies().Sources()[0].PackageNames()
	if err != nil {
		t.Fatalf("PackageNames: %v", err)
	}
	want := []string{"requests==2.31.0", "boto3"}
	if !reflect.DeepEqual(packages, want) {
		t.Fatalf("packages = %v, want %v", packages, want)
	}
	if gotExecutable != "/usr/bin/poetry" {
		t.Fatalf("executable = %q", gotExecutable)
	}
	wantArgs := []string{"export", "--format=requirements.txt", "--without-hashes", "--extras=aws"}
	if !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Fatalf("args = %v, want %v", gotArgs, wantArgs)
	}
}

func TestUvExportArguments(t *testing.T) {
	directory := t.TempDir()
	if err := os.WriteFile(filepath.Join(directory, "pyproject.toml"), []byte("[project]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotArgs []string
	restoreFind := findManagerExecutable
	restoreRun := runExport
	findManagerExecutable = func(name string) (string, error) { return name, nil }
	runExport = func(executable string, args []string, dir string) ([]byte, error) {
		gotArgs = args
		return nil, nil
	}
	defer func() {
		findManagerExecutable = restoreFind
		runExport = restoreRun
	}()

	configuration := configurationIn(t, directory, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": []any{
				map[string]any{"kind": "uv"},
			},
		}},
	})

	if _, err := configuration.Targets()[0].Dependencies().Sources()[0].PackageNames(); err != nil {
		t.Fatalf("PackageNames: %v", err)
	}
	want := []string{"export", "--format", "requirements-txt", "--no-hashes"}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
}

func TestPipperBucketFallsBackToPackageFile(t *testing.T) {
	directory := t.TempDir()
	packageFile := `{"bucket": "pipper-store", "dependencies": ["internal-lib"]}`
	if err := os.WriteFile(filepath.Join(directory, "pipper.json"), []byte(packageFile), 0o644); err != nil {
		t.Fatal(err)
	}

	configuration := configurationIn(t, directory, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": []any{
				map[string]any{"kind": "pipper"},
			},
		}},
	})

	source := configuration.Targets()[0].Dependencies().Sources()[0]
	pipper, ok := source.(*PipperDependency)
	if !ok {
		t.Fatalf("source type = %T", source)
	}
	if pipper.Bucket() != "pipper-store" {
		t.Fatalf("bucket = %q", pipper.Bucket())
	}
	packages, err := pipper.PackageNames()
	if err != nil {
		t.Fatalf("PackageNames: %v", err)
	}
	if !reflect.DeepEqual(packages, []string{"internal-lib"}) {
		t.Fatalf("packages = %v", packages)
	}
}

func TestCommandDependency(t *testing.T) {
	var gotExecutable string
	var gotArgs []string
	restoreFind := findManagerExecutable
	restoreRun := runManagerCommand
	findManagerExecutable = func(name string) (string, error) { return "/opt/" + name, nil }
	runManagerCommand = func(executable string, args []string, dir string, extraEnv map[string]string) error {
		gotExecutable = executable
		gotArgs = args
		return nil
	}
	defer func() {
		findManagerExecutable = restoreFind
		runManagerCommand = restoreRun
	}()

	configuration := testConfiguration(t, map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": []any{
				map[string]any{"kind": "uv_command", "args": []any{"sync", "--frozen"}},
			},
		}},
	})

	source := configuration.Targets()[0].Dependencies().Sources()[0]
	if source.Kind() != DependencyKindUvCommand {
		t.Fatalf("kind = %s", source.Kind())
	}
	packages, err := source.PackageNames()
	if err != nil || packages != nil {
		t.Fatalf("command kinds resolve no packages, got %v/%v", packages, err)
	}
	if err := source.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotExecutable != "/opt/uv" {
		t.Fatalf("executable = %q", gotExecutable)
	}
	if !reflect.DeepEqual(gotArgs, []string{"sync", "--frozen"}) {
		t.Fatalf("args = %v", gotArgs)
	}
}
