// Where: internal/commands/exit.go
// What: The exit and help commands.
// Why: Session control for the interactive loop.
package commands

import (
	"context"
	"fmt"
)

func runExit(_ context.Context, shell *Shell, _ []string) Result {
	shell.Shutdown = true
	return Result{Status: StatusExited, Message: "Bye."}
}

var commandSummaries = []struct {
	name    string
	summary string
}{
	{"select", "Narrow the target selection; * selects everything."},
	{"bundle", "Assemble zip artifacts for the selected targets."},
	{"deploy", "Upload and publish the selected targets."},
	{"push", "Bundle and deploy in one step."},
	{"list", "List deployed versions, aliases and layer attachments."},
	{"prune", "Remove stale published versions."},
	{"alias", "Point an alias at a published function version."},
	{"status", "Show the live configuration of the selected targets."},
	{"configs", "Dump the resolved configuration document."},
	{"reload", "Re-read the configuration document."},
	{"help", "Show this summary."},
	{"exit", "Leave the shell."},
}

func runHelp(_ context.Context, shell *Shell, _ []string) Result {
	shell.Console.Header("🐑", "Commands")
	for _, command := range commandSummaries {
		shell.Console.ItemPlain(fmt.Sprintf("%-8s %s", command.name, command.summary))
	}
	shell.Console.Info("Append --help to any command for its flags.")
	return Result{Status: StatusSucceeded}
}
