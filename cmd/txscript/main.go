// Command txscript is the CLI harness around the evaluator: it loads a
// fixture, evaluates every script it declares against the fixture's
// domain, and prints one line per script — colorized on a real terminal
// exactly the way the teacher's own CLI output decides color via
// mattn/go-isatty.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/vaultchain/txscript/internal/config"
	"github.com/vaultchain/txscript/internal/evaluator"
	"github.com/vaultchain/txscript/internal/fixture"
	"github.com/vaultchain/txscript/internal/registry"
	"github.com/vaultchain/txscript/internal/values"
)

func main() {
	if len(os.Args) != 3 || os.Args[1] != "run" {
		fmt.Fprintln(os.Stderr, "usage: txscript run <fixture.yaml>")
		os.Exit(2)
	}
	if err := runFixture(os.Args[2]); err != nil {
		fmt.Fprintln(os.Stderr, "txscript:", err)
		os.Exit(1)
	}
}

func runFixture(path string) error {
	reg := registry.New()
	f, err := fixture.Load(path, reg)
	if err != nil {
		return err
	}

	runID := uuid.New()
	color := isatty.IsTerminal(os.Stdout.Fd()) && !config.IsTestMode

	fmt.Printf("run %s: %d script(s) from %s\n", runID, len(f.Scripts), path)

	ctx := evaluator.NewContext(f.Domain)
	for _, s := range f.Scripts {
		v, diag := evaluator.Evaluate(ctx, s.Expr, nil)
		if diag != nil {
			printLine(color, red, s.Name, "err", diag.Error())
			continue
		}
		printLine(color, green, s.Name, "ok", values.String(v))
	}
	return nil
}

const (
	red   = "\x1b[31m"
	green = "\x1b[32m"
	reset = "\x1b[0m"
)

func printLine(color bool, ansi, name, status, body string) {
	if color {
		fmt.Printf("%s: %s%s %s%s\n", name, ansi, status, body, reset)
		return
	}
	fmt.Printf("%s: %s %s\n", name, status, body)
}
