package bundling

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/logging"
	"github.com/poruru/lambda-shepherd/internal/ui"
)

type testAccount struct{}

func (testAccount) AccountID() string { return "111122223333" }
func (testAccount) Region() string    { return "eu-west-1" }

func newTestBundler() *Bundler {
	return &Bundler{
		Console: ui.New(io.Discard),
		Log:     logging.NewWithWriter(io.Discard, false),
	}
}

func testContext(t *testing.T, directory string, data map[string]any) *definitions.Context {
	t.Helper()
	return &definitions.Context{
		Configuration: definitions.NewConfiguration(directory, data, testAccount{}, t.TempDir()),
	}
}

// fakeInstall simulates a pip install by dropping a module file into
// the -t target directory.
func fakeInstall(t *testing.T, calls *[]string) func(context.Context, string, []string, map[string]string) error {
	t.Helper()
	return func(_ context.Context, name string, args []string, _ map[string]string) error {
		*calls = append(*calls, strings.Join(args, " "))
		for index, arg := range args {
			if arg == "-t" && index+1 < len(args) {
				if err := os.MkdirAll(args[index+1], 0o755); err != nil {
					return err
				}
				return os.WriteFile(filepath.Join(args[index+1], "installed.py"), []byte("pass"), 0o644)
			}
		}
		t.Fatal("install command carried no -t directory")
		return nil
	}
}

func TestSharedGroupInstallsOnce(t *testing.T) {
	var calls []string
	restore := runInstallCommand
	runInstallCommand = fakeInstall(t, &calls)
	defer func() { runInstallCommand = restore }()

	sharedGroup := func() map[string]any {
		return map[string]any{
			"name":   "common",
			"shared": true,
			"sources": []any{
				map[string]any{"kind": "pip", "packages": []any{"requests"}},
			},
		}
	}
	execution := testContext(t, t.TempDir(), map[string]any{
		"targets": []any{
			map[string]any{"name": "first", "dependencies": sharedGroup()},
			map[string]any{"name": "second", "dependencies": sharedGroup()},
		},
	})

	bundler := newTestBundler()
	selected, err := bundler.Create(context.Background(), execution, definitions.NewSelection(), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(selected.Targets) != 2 {
		t.Fatalf("bundled %d targets", len(selected.Targets))
	}
	if len(calls) != 1 {
		t.Fatalf("install ran %d times, want once: %v", len(calls), calls)
	}

	for _, target := range selected.Targets {
		if _, err := os.Stat(filepath.Join(target.SitePackagesDirectory(), "installed.py")); err != nil {
			t.Fatalf("target %v missing shared install output: %v", target.Names(), err)
		}
		if _, err := os.Stat(target.BundleZipPath()); err != nil {
			t.Fatalf("target %v missing archive: %v", target.Names(), err)
		}
	}
}

func TestBundleReusesInstallationCache(t *testing.T) {
	var calls []string
	restore := runInstallCommand
	runInstallCommand = fakeInstall(t, &calls)
	defer func() { runInstallCommand = restore }()

	execution := testContext(t, t.TempDir(), map[string]any{
		"targets": []any{map[string]any{
			"name": "cached",
			"dependencies": []any{
				map[string]any{"kind": "pip", "packages": []any{"requests"}},
			},
		}},
	})

	bundler := newTestBundler()
	for run := 0; run < 2; run++ {
		if _, err := bundler.Create(context.Background(), execution, definitions.NewSelection(), false); err != nil {
			t.Fatalf("Create run %d: %v", run, err)
		}
	}
	if len(calls) != 1 {
		t.Fatalf("cached rebundle reinstalled: %d calls", len(calls))
	}

	if _, err := bundler.Create(context.Background(), execution, definitions.NewSelection(), true); err != nil {
		t.Fatalf("Create with reinstall: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("reinstall did not force a fresh install: %d calls", len(calls))
	}
}

func TestInstallSkipsFilteredPackages(t *testing.T) {
	var calls []string
	restore := runInstallCommand
	runInstallCommand = fakeInstall(t, &calls)
	defer func() { runInstallCommand = restore }()

	execution := testContext(t, t.TempDir(), map[string]any{
		"targets": []any{map[string]any{
			"name": "f",
			"dependencies": map[string]any{
				"skip": []any{"boto3"},
				"sources": []any{
					map[string]any{"kind": "pip", "packages": []any{"requests==2.31.0", "boto3>=1.28"}},
				},
			},
		}},
	})

	if _, err := newTestBundler().Create(context.Background(), execution, definitions.NewSelection(), false); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(calls) != 1 || !strings.Contains(calls[0], "requests==2.31.0") {
		t.Fatalf("calls = %v", calls)
	}
}
