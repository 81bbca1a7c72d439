package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/sandrolain/gologic"
	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/parser"
	"github.com/sandrolain/gologic/pkg/types"
)

const (
	historyFile = ".gologic_history"
	promptMain  = "gologic> "
	promptCont  = "   ...> "
)

const replHelp = `REPL commands:
  :help              Show this help
  :quit              Exit the REPL
  :vars              List the facts and let bindings
  :functions [pfx]   List functions, optionally by name prefix
  :trace on|off      Print the execution trace after each input
  :metrics           Show evaluation counters
  :check <formula>   Evaluate and list every forall violation
  :tests <file>      Run the test statements of a rule file

Statements are separated by ';'. let bindings persist across inputs.`

func cmdRepl(ctx context.Context, args []string) int {
	var c common
	fs := newFlagSet("repl", &c)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	rt, facts, err := c.runtime(ctx)
	if err != nil {
		return fail(err)
	}
	defer rt.Close(ctx)

	fmt.Printf("gologic %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", gologic.Version())

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := &session{ev: rt.Evaluator, env: facts, trace: c.trace}
	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(src, ":") {
			if quit := s.command(ctx, src); quit {
				return 0
			}
			continue
		}
		s.eval(ctx, src)
	}
}

// readInput reads lines until they form a complete program. Input that
// fails only because it ends early continues on the next line.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !incomplete(src) {
			return src, true
		}
	}
}

func incomplete(src string) bool {
	if strings.TrimSpace(src) == "" {
		return false
	}
	_, err := parser.Parse(src)
	var pe *types.ParseError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Code {
	case types.ErrUnexpectedEnd, types.ErrStringNotClosed:
		return true
	case types.ErrExpectedToken:
		// An expected closing token missing at end of input.
		return pe.Offset >= len(strings.TrimRight(src, " \t\r\n"))
	}
	return false
}

type session struct {
	ev    *evaluator.Evaluator
	env   *evaluator.EvalContext
	trace bool
}

func (s *session) eval(ctx context.Context, src string) {
	s.ev.ClearTrace()
	v, err := s.ev.Run(ctx, src, s.env)
	s.printTrace()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(v.String())
}

func (s *session) printTrace() {
	if !s.trace {
		return
	}
	for _, line := range s.ev.ExecutionTrace() {
		fmt.Fprintln(os.Stderr, line)
	}
}

// command runs a ':' command and reports whether the REPL should exit.
func (s *session) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "quit", "q", "exit":
		return true
	case "help", "h":
		fmt.Println(replHelp)
	case "vars":
		for _, n := range s.env.Names() {
			v, _ := s.env.Lookup(n)
			fmt.Printf("%s = %s\n", n, v)
		}
	case "functions":
		printFunctions(s.ev, arg)
	case "trace":
		switch arg {
		case "on":
			s.trace = true
		case "off":
			s.trace = false
		default:
			fmt.Println("usage: :trace on|off")
			return false
		}
		s.ev.EnableTracing(s.trace)
	case "metrics":
		m := s.ev.Metrics()
		fmt.Printf("%+v\n", m)
	case "check":
		s.check(ctx, arg)
	case "tests":
		s.tests(ctx, arg)
	default:
		fmt.Printf("unknown command :%s. Type :help for commands.\n", name)
	}
	return false
}

func (s *session) check(ctx context.Context, src string) {
	node, err := parser.ParseExpression(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	report, err := s.ev.Check(ctx, node, s.env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(report.Value.String())
	for _, v := range report.Violations {
		marker := " "
		if v == report.Outermost() {
			marker = "*"
		}
		fmt.Printf("%s %v\n", marker, v)
	}
}

func (s *session) tests(ctx context.Context, path string) {
	src, err := readSource(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	results, err := s.ev.ExecuteRuleTests(ctx, src, s.env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	for _, r := range results {
		name, status, message := testFields(r)
		if message != "" {
			message = ": " + message
		}
		fmt.Printf("%-5s %s%s\n", strings.ToUpper(status), name, message)
	}
}
