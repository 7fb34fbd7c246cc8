package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/sanohiro/qi-lang-sub000/internal/evaluator"
	"github.com/sanohiro/qi-lang-sub000/internal/pipeline"
)

const (
	historyFile = ".qi_history"
	promptMain  = "qi> "
	promptCont  = "... "
	banner      = "Qi REPL — Ctrl+C to cancel input, Ctrl+D to exit."
)

func main() {
	var evalStr string
	flag.StringVar(&evalStr, "e", "", "evaluate the given expression and exit")
	flag.Parse()

	args := flag.Args()
	switch {
	case evalStr != "":
		os.Exit(runSource(evalStr, "<eval>", ".", true))
	case len(args) > 0:
		os.Exit(runFile(args[0]))
	case isatty.IsTerminal(os.Stdin.Fd()):
		os.Exit(runREPL())
	default:
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "qi: cannot read stdin: %v\n", err)
			os.Exit(1)
		}
		os.Exit(runSource(string(src), "<stdin>", ".", false))
	}
}

func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qi: cannot read %s: %v\n", path, err)
		return 1
	}
	return runSource(string(src), path, filepath.Dir(path), false)
}

func runSource(src, file, baseDir string, printResult bool) int {
	exprs, errs := pipeline.Parse(src, file)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	e := evaluator.New()
	e.SetBaseDir(baseDir)
	result := e.EvalProgram(exprs, e.Global)
	if err, ok := result.(*evaluator.Error); ok {
		fmt.Fprintln(os.Stderr, err.Inspect())
		return 1
	}
	if printResult {
		fmt.Println(result.Inspect())
	}
	return 0
}

func runREPL() int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	e := evaluator.New()
	for {
		code, ok := readForm(ln)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}

		exprs, errs := pipeline.Parse(code, "<repl>")
		if len(errs) > 0 {
			for _, err := range errs {
				fmt.Println(err)
			}
			continue
		}
		result := e.EvalProgram(exprs, e.Global)
		fmt.Println(result.Inspect())
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readForm accumulates lines until every bracket opened on the first
// line is closed, so multi-line forms work at the prompt.
func readForm(ln *liner.State) (string, bool) {
	var sb strings.Builder
	prompt := promptMain
	for {
		line, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
		if bracketDepth(sb.String()) <= 0 {
			return sb.String(), true
		}
		prompt = promptCont
	}
}

func bracketDepth(src string) int {
	depth := 0
	inString := false
	inComment := false
	escaped := false
	for _, r := range src {
		switch {
		case inComment:
			if r == '\n' {
				inComment = false
			}
		case inString:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
		case r == '"':
			inString = true
		case r == ';':
			inComment = true
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		}
	}
	return depth
}
