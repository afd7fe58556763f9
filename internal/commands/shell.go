// Where: internal/commands/shell.go
// What: Command shell state and dispatch loop.
// Why: One place holds the current selection and configuration that
//      every command reads and mutates.
package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/poruru/lambda-shepherd/internal/awsconn"
	"github.com/poruru/lambda-shepherd/internal/bundling"
	"github.com/poruru/lambda-shepherd/internal/definitions"
	"github.com/poruru/lambda-shepherd/internal/deploying"
	"github.com/poruru/lambda-shepherd/internal/interaction"
	"github.com/poruru/lambda-shepherd/internal/servicer"
	"github.com/poruru/lambda-shepherd/internal/ui"
)

// handler executes one shell command against the shell state.
type handler func(ctx context.Context, shell *Shell, args []string) Result

// Shell holds the mutable state shared by all commands: the loaded
// configuration context and the current target selection.
type Shell struct {
	Context    *definitions.Context
	Connection *awsconn.Connection
	Selection  definitions.Selection

	Console  *ui.Console
	Log      *log.Logger
	Prompter interaction.Prompter

	// Credentials feeds package-manager subprocesses during bundling.
	Credentials bundling.CredentialsProvider

	// DeployClients and ServiceClients build the regional API surfaces
	// the deploy and version-service commands depend on.
	DeployClients  deploying.ClientProvider
	ServiceClients servicer.ClientProvider

	// Queue holds scripted commands consumed before any prompting.
	Queue []string

	// Interactive enables prompting once the queue is drained.
	Interactive bool

	// Shutdown stops the loop after the current command.
	Shutdown bool
}

// NewShell wires a shell against a live AWS connection.
func NewShell(
	execution *definitions.Context,
	connection *awsconn.Connection,
	console *ui.Console,
	logger *log.Logger,
) *Shell {
	return &Shell{
		Context:        execution,
		Connection:     connection,
		Selection:      definitions.NewSelection(),
		Console:        console,
		Log:            logger,
		Prompter:       interaction.HuhPrompter{},
		Credentials:    connection,
		DeployClients:  deploying.ConnectionProvider{Connection: connection},
		ServiceClients: servicer.ConnectionProvider{Connection: connection},
	}
}

// handlers maps command words to their implementations.
func handlers() map[string]handler {
	return map[string]handler{
		"select":  runSelect,
		"bundle":  runBundle,
		"deploy":  runDeploy,
		"push":    runPush,
		"list":    runList,
		"prune":   runPrune,
		"alias":   runAlias,
		"status":  runStatus,
		"configs": runConfigs,
		"reload":  runReload,
		"help":    runHelp,
		"exit":    runExit,
		"quit":    runExit,
	}
}

// CommandNames lists the available command words for prompting.
func CommandNames() []string {
	names := make([]string, 0, len(handlers()))
	for name := range handlers() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one command line and returns its result. A blank line
// is a successful no-op.
func (s *Shell) Execute(ctx context.Context, line string) Result {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return Result{Status: StatusSucceeded}
	}

	run, ok := handlers()[tokens[0]]
	if !ok {
		return Result{
			Status:  StatusFailed,
			Message: fmt.Sprintf("Unknown command %q. Try %s.", tokens[0], strings.Join(CommandNames(), ", ")),
		}
	}

	s.Log.Debug("executing command", "command", tokens[0], "args", tokens[1:])
	return run(ctx, s, tokens[1:])
}

// Run drains the queued commands and then, when interactive, prompts
// for further commands until exit. A failed queued command halts the
// queue with an error; interactive failures only report.
func (s *Shell) Run(ctx context.Context) error {
	for !s.Shutdown {
		line, queued, ok, err := s.nextLine()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		result := s.Execute(ctx, line)
		s.echo(result)
		if queued && result.Status == StatusFailed {
			return errors.New(result.Message)
		}
	}
	return nil
}

func (s *Shell) nextLine() (line string, queued bool, ok bool, err error) {
	if len(s.Queue) > 0 {
		line = s.Queue[0]
		s.Queue = s.Queue[1:]
		return line, true, true, nil
	}
	if !s.Interactive {
		return "", false, false, nil
	}
	line, err = s.Prompter.Input("shepherd>", CommandNames())
	if err != nil {
		// A cancelled prompt ends the session, it is not a failure.
		return "", false, false, nil
	}
	return line, false, true, nil
}

func (s *Shell) echo(result Result) {
	switch {
	case result.Message == "":
	case result.Status == StatusFailed:
		s.Console.Error(result.Message)
	case result.Status == StatusAborted:
		s.Console.Warn(result.Message)
	default:
		s.Console.Success(result.Message)
	}
	if len(result.Info) > 0 {
		s.Console.YAML(result.Info)
	}
}

// confirm asks the operator before a destructive step. AssumeYes skips
// the prompt, used by scripted invocations.
func (s *Shell) confirm(title string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if s.Prompter != nil {
		return s.Prompter.Confirm(title)
	}
	return interaction.PromptYesNo(title)
}

func targetNames(targets []*definitions.Target) []string {
	var out []string
	for _, target := range targets {
		out = append(out, target.Names()...)
	}
	return out
}
