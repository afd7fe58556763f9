// Where: cmd/shep/cli.go
// What: CLI flags and dependency wiring helpers.
// Why: Centralize construction for testability.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/poruru/lambda-shepherd/internal/awsconn"
	"github.com/poruru/lambda-shepherd/internal/commands"
	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/interaction"
	"github.com/poruru/lambda-shepherd/internal/logging"
	"github.com/poruru/lambda-shepherd/internal/ui"
)

// CLI defines the command-line interface structure parsed by Kong.
type CLI struct {
	Config    string           `short:"c" type:"path" help:"Configuration file or directory (default: lambda.yaml)."`
	Profile   string           `short:"p" help:"AWS shared-config profile."`
	Directory string           `short:"C" type:"path" help:"Change to this directory before loading."`
	EnvFile   string           `name:"env-file" type:"path" help:"Path to a .env file to load."`
	Run       string           `short:"r" help:"Run the named command group from the configuration and exit."`
	Verbose   bool             `short:"v" help:"Enable debug logging."`
	Version   kong.VersionFlag `help:"Print the build version and exit."`
	Commands  []string         `arg:"" optional:"" help:"Commands to run non-interactively, one per argument."`
}

var (
	chdir         = os.Chdir
	newConnection = awsconn.New
)

// buildDependencies constructs the shell with a live AWS session and
// the loaded configuration context.
func buildDependencies(ctx context.Context, cli CLI) (*commands.Shell, error) {
	if cli.Directory != "" {
		if err := chdir(cli.Directory); err != nil {
			return nil, fmt.Errorf("change directory: %w", err)
		}
	}

	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	logger := logging.New(cli.Verbose)
	console := ui.New(os.Stdout)

	connection, err := newConnection(ctx, cli.Profile)
	if err != nil {
		return nil, err
	}
	logger.Debug("session established",
		"account", connection.AccountID(),
		"region", connection.Region(),
		"caller", connection.UserSlug(),
	)

	execution, err := definitions.LoadContext(cli.Config, connection, "")
	if err != nil {
		return nil, err
	}

	shell := commands.NewShell(execution, connection, console, logger)
	shell.Queue, err = commandQueue(execution, cli)
	if err != nil {
		return nil, err
	}
	shell.Interactive = len(shell.Queue) == 0 && interaction.IsTerminal(os.Stdin)
	return shell, nil
}

// commandQueue builds the scripted command list from the run group
// and any literal command arguments.
func commandQueue(execution *definitions.Context, cli CLI) ([]string, error) {
	var queue []string
	if cli.Run != "" {
		group := execution.CommandQueue(cli.Run)
		if len(group) == 0 {
			return nil, fmt.Errorf("no run group %q is configured", cli.Run)
		}
		queue = append(queue, group...)
	}
	queue = append(queue, cli.Commands...)
	return queue, nil
}
