// cmd/oberon/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"oberon/internal/debugserver"
	"oberon/internal/diag"
	"oberon/internal/oberonfmt"
	"oberon/internal/oberonlsp"
	"oberon/internal/parser"
	"oberon/internal/risc"
	"oberon/internal/tracedb"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run holds the CLI's entire argument-dispatch logic and returns a process
// exit code instead of calling os.Exit directly, so it can be driven
// end-to-end from a testscript-based fixture without forking a subprocess.
func run(args []string) int {
	if len(args) == 0 {
		showUsage()
		return 1
	}

	var (
		sourcePath string
		disasm     bool
		tracePath  string
		debugAddr  string
		doFmt      bool
		doLSP      bool
	)

	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "-h" || a == "--help" || a == "help":
			showUsage()
			return 0
		case a == "--version":
			fmt.Printf("oberon %s\n", version)
			return 0
		case a == "-s":
			disasm = true
		case a == "-fmt":
			doFmt = true
		case a == "-lsp":
			doLSP = true
		case a == "-trace":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -trace requires a path argument")
				return 1
			}
			i++
			tracePath = args[i]
		case a == "-debug-addr":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -debug-addr requires a host:port argument")
				return 1
			}
			i++
			debugAddr = args[i]
		case strings.HasPrefix(a, "-"):
			fmt.Fprintf(os.Stderr, "Error: unknown option %q\n", a)
			return 1
		default:
			sourcePath = a
		}
	}

	if doLSP {
		return startLSP()
	}

	if sourcePath == "" {
		fmt.Fprintln(os.Stderr, "Error: no source file given")
		showUsage()
		return 1
	}

	if doFmt {
		return runFmt(sourcePath)
	}

	return runCompileAndExecute(sourcePath, disasm, tracePath, debugAddr)
}

func runFmt(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		return 1
	}
	formatted, diags := oberonfmt.Format(path, string(source))
	if diags.HasErrors() {
		reportDiagnostics(diags)
		fmt.Fprintln(os.Stderr, "compilation FAILED")
		return 1
	}
	if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		return 1
	}
	fmt.Printf("%s: formatted\n", path)
	return 0
}

func startLSP() int {
	server := oberonlsp.NewServer(os.Stdin, os.Stdout)
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "LSP server error: %v\n", err)
		return 1
	}
	return 0
}

func runCompileAndExecute(path string, disasm bool, tracePath, debugAddr string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		return 1
	}

	var rec *tracedb.Recorder
	if tracePath != "" {
		rec, err = tracedb.Open(tracePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening trace database: %v\n", err)
			return 1
		}
		defer rec.Close()
		if _, err := rec.BeginSession(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting trace session: %v\n", err)
		}
	}

	diags := diag.NewSink(path)
	machine := risc.NewMachine(risc.IO{In: os.Stdin, Out: os.Stdout})
	sb, entry := parser.Compile(path, string(source), machine.Mem[:], diags)

	if rec != nil {
		for _, d := range diags.Diagnostics() {
			rec.RecordDiagnostic(d.Location.Line, d.Location.Column, d.Message)
		}
	}

	if diags.HasErrors() {
		reportDiagnostics(diags)
		fmt.Fprintln(os.Stderr, "compilation FAILED")
		return 1
	}

	if disasm {
		for _, line := range risc.Disassemble(machine.Mem[:], sb) {
			fmt.Println(line)
		}
		return 0
	}

	var result risc.Result
	if debugAddr != "" {
		srv := debugserver.New(machine, sb)
		go func() {
			if err := srv.ListenAndServe(debugAddr); err != nil {
				fmt.Fprintf(os.Stderr, "debug server: %v\n", err)
			}
		}()
		result = srv.Run(entry)
	} else {
		result = machine.Interpret(sb, entry)
	}

	if rec != nil {
		rec.RecordRun(result.Reason, result.Trap, machine.Steps)
	}

	if result.Reason != "halted" {
		fmt.Fprintf(os.Stderr, "runtime error: %s\n", result.String())
		return 1
	}
	return 0
}

// reportDiagnostics prints every recorded diagnostic, coloring the
// message in red when stderr is a real terminal (mattn/go-isatty), the
// same gate the teacher's CLI uses before emitting ANSI escapes.
func reportDiagnostics(diags *diag.Sink) {
	color := isatty.IsTerminal(os.Stderr.Fd())
	for _, d := range diags.Diagnostics() {
		if color {
			fmt.Fprintf(os.Stderr, "\x1b[31m%s\x1b[0m\n", d.Error())
		} else {
			fmt.Fprintln(os.Stderr, d.Error())
		}
	}
}

func showUsage() {
	fmt.Println("Oberon-07 compiler and RISC virtual machine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  oberon <file.Mod>                Compile and run a module")
	fmt.Println("  oberon -s <file.Mod>              Compile and print disassembly")
	fmt.Println("  oberon -fmt <file.Mod>            Reformat a module in place")
	fmt.Println("  oberon -lsp                       Start a Language Server Protocol server on stdio")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -trace <path>         Record compile diagnostics and run results to a SQLite file")
	fmt.Println("  -debug-addr <host:port>  Serve execution state over a WebSocket for remote debugging")
	fmt.Println("  -h, --help            Show this help")
	fmt.Println("  --version             Show version")
}
