package definitions

import (
	"os"
	"path/filepath"
	"testing"
)

const contextDocument = `
region: eu-west-1
targets:
  - kind: function
    names: [foo, bar]
  - kind: layer
    name: shared-deps
run:
  release:
    - select *
    - push
`

func loadTestContext(t *testing.T) *Context {
	t.Helper()
	directory := t.TempDir()
	path := filepath.Join(directory, DefaultConfigFilename)
	if err := os.WriteFile(path, []byte(contextDocument), 0o644); err != nil {
		t.Fatal(err)
	}
	execution, err := LoadContext(path, fakeAccount{account: "111122223333", region: "eu-west-1"}, t.TempDir())
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	return execution
}

func TestLoadContextFromDirectory(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, DefaultConfigFilename)
	if err := os.WriteFile(path, []byte(contextDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	execution, err := LoadContext(directory, fakeAccount{}, t.TempDir())
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	if execution.ConfigPath != path {
		t.Fatalf("config path = %q, want %q", execution.ConfigPath, path)
	}
}

func TestLoadContextMissingFile(t *testing.T) {
	if _, err := LoadContext(filepath.Join(t.TempDir(), "absent.yaml"), fakeAccount{}, ""); err == nil {
		t.Fatal("missing configuration loaded")
	}
}

func TestSelectedTargetsDropsEmpty(t *testing.T) {
	execution := loadTestContext(t)

	selection := NewSelection().WithExact([]string{"absent"}, false, false)
	if selected := execution.SelectedTargets(selection); len(selected.Targets) != 0 {
		t.Fatalf("selected %d targets, want 0", len(selected.Targets))
	}

	selection = NewSelection().WithFuzzy([]string{"shared"}, false, true)
	selected := execution.SelectedTargets(selection)
	if len(selected.FunctionTargets()) != 0 || len(selected.LayerTargets()) != 1 {
		t.Fatalf("selection resolved %d functions / %d layers",
			len(selected.FunctionTargets()), len(selected.LayerTargets()))
	}

	names := selected.LayerTargets()[0].Names()
	if len(names) != 1 || names[0] != "shared-deps" {
		t.Fatalf("layer names = %v", names)
	}
}

func TestCommandQueue(t *testing.T) {
	execution := loadTestContext(t)

	queue := execution.CommandQueue("release")
	if len(queue) != 2 || queue[0] != "select *" || queue[1] != "push" {
		t.Fatalf("queue = %v", queue)
	}
	if execution.CommandQueue("absent") != nil {
		t.Fatal("undefined run group returned commands")
	}
}
