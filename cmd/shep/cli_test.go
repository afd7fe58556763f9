package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

type fakeAccount struct{}

func (fakeAccount) AccountID() string { return "111122223333" }
func (fakeAccount) Region() string    { return "eu-west-1" }

func parseCLI(t *testing.T, args ...string) CLI {
	t.Helper()
	cli := CLI{}
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cli
}

func TestCLIParsing(t *testing.T) {
	cli := parseCLI(t, "-c", "lambda.yaml", "-p", "ops", "-r", "release", "-v", "status", "configs")

	if filepath.Base(cli.Config) != "lambda.yaml" {
		t.Fatalf("config = %q", cli.Config)
	}
	if cli.Profile != "ops" || cli.Run != "release" || !cli.Verbose {
		t.Fatalf("cli = %+v", cli)
	}
	if !reflect.DeepEqual(cli.Commands, []string{"status", "configs"}) {
		t.Fatalf("commands = %v", cli.Commands)
	}
}

func loadQueueContext(t *testing.T) *definitions.Context {
	t.Helper()
	directory := t.TempDir()
	path := filepath.Join(directory, definitions.DefaultConfigFilename)
	document := strings.Join([]string{
		"targets:",
		"  - name: app",
		"run:",
		"  release:",
		"    - select *",
		"    - push",
	}, "\n")
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatal(err)
	}
	execution, err := definitions.LoadContext(path, fakeAccount{}, t.TempDir())
	if err != nil {
		t.Fatalf("LoadContext: %v", err)
	}
	return execution
}

func TestCommandQueue(t *testing.T) {
	execution := loadQueueContext(t)

	queue, err := commandQueue(execution, CLI{Run: "release", Commands: []string{"status"}})
	if err != nil {
		t.Fatalf("commandQueue: %v", err)
	}
	want := []string{"select *", "push", "status"}
	if !reflect.DeepEqual(queue, want) {
		t.Fatalf("queue = %v, want %v", queue, want)
	}

	queue, err = commandQueue(execution, CLI{Commands: []string{"configs"}})
	if err != nil || !reflect.DeepEqual(queue, []string{"configs"}) {
		t.Fatalf("queue = %v, %v", queue, err)
	}

	if _, err := commandQueue(execution, CLI{Run: "absent"}); err == nil {
		t.Fatal("undefined run group accepted")
	}
}
