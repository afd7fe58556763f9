// Where: internal/commands/parse.go
// What: Per-command argument parsing.
// Why: Each shell command declares a small kong grammar; parsing must
//      report errors instead of exiting the process.
package commands

import (
	"github.com/alecthomas/kong"
)

// parseArgs binds args into the grammar struct. Help requests and
// parse failures surface as errors rather than terminating.
func parseArgs(grammar any, args []string) error {
	parser, err := kong.New(grammar, kong.Exit(func(int) {}))
	if err != nil {
		return err
	}
	_, err = parser.Parse(args)
	return err
}
