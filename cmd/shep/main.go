// Where: cmd/shep/main.go
// What: CLI entrypoint.
// Why: Run shepherd commands with configured dependencies.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/poruru/lambda-shepherd/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("shep"),
		kong.Description("Bundle, deploy and tend AWS Lambda functions and layers."),
		kong.Vars{"version": version.String()},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx := context.Background()
	shell, err := buildDependencies(ctx, cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := shell.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
