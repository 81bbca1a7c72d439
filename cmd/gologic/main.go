// Command gologic evaluates formulas and runs rule files from the shell.
//
//	gologic eval [flags] <formula>      evaluate a program and print its value
//	gologic run [flags] <rule-file>     execute a rule; exit 1 when it is violated
//	gologic test [flags] <rule-file>... run the test statements of rule files
//	gologic repl [flags]                interactive session
//	gologic functions [flags]           list the registered functions
//	gologic version
//
// Common flags:
//
//	-config file   YAML evaluator configuration (see package config)
//	-facts file    YAML or JSON facts; repeatable, later files win
//	-ext list      comma separated function packs, or "all"
//	-debug         log evaluation at debug level to stderr
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/sandrolain/gologic"
	"github.com/sandrolain/gologic/pkg/config"
	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/ext"
)

const appName = "gologic"

func usage(w io.Writer) {
	fmt.Fprintf(w, `Usage: %s <command> [flags] [args]

Commands:
  eval <formula>       evaluate a program and print its value
  run <rule-file>      execute a rule file; exit 1 when it is violated
  test <rule-file>...  run the test statements of rule files
  repl                 interactive session
  functions            list the registered functions
  version              print the version

Run '%s <command> -h' for the flags of a command.
`, appName, appName)
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var code int
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "eval":
		code = cmdEval(ctx, args)
	case "run":
		code = cmdRun(ctx, args)
	case "test":
		code = cmdTest(ctx, args)
	case "repl":
		code = cmdRepl(ctx, args)
	case "functions":
		code = cmdFunctions(ctx, args)
	case "version":
		fmt.Println(gologic.Version())
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage(os.Stderr)
		code = 2
	}
	stop()
	os.Exit(code)
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// common holds the flags shared by every command that builds an evaluator.
type common struct {
	configPath string
	facts      stringList
	packs      string
	debug      bool
	trace      bool
}

func newFlagSet(name string, c *common) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&c.configPath, "config", "", "YAML evaluator configuration `file`")
	fs.Var(&c.facts, "facts", "YAML or JSON facts `file` (repeatable)")
	fs.StringVar(&c.packs, "ext", "", "comma separated function packs ("+strings.Join(ext.Names(), ", ")+") or all")
	fs.BoolVar(&c.debug, "debug", false, "log evaluation to stderr")
	fs.BoolVar(&c.trace, "trace", false, "print the execution trace to stderr")
	return fs
}

// runtime builds the evaluator and facts context described by c.
func (c *common) runtime(ctx context.Context) (*config.Runtime, *evaluator.EvalContext, error) {
	cfg := &config.Config{}
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return nil, nil, err
		}
	}
	for _, p := range strings.Split(c.packs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Packs = append(cfg.Packs, p)
		}
	}
	if c.debug {
		cfg.Debug = true
	}
	if c.trace {
		cfg.Tracing = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	facts, err := config.FactsContext(c.facts...)
	if err != nil {
		return nil, nil, err
	}
	rt, err := cfg.NewRuntime(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	return rt, facts, nil
}

func (c *common) printTrace(ev *evaluator.Evaluator) {
	if !c.trace {
		return
	}
	for _, line := range ev.ExecutionTrace() {
		fmt.Fprintln(os.Stderr, line)
	}
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
	return 1
}

func readSource(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}
