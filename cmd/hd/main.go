// Command hd compiles and runs an hd expression.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	hd "github.com/xirelogy/go-hd"
	"github.com/xirelogy/go-hd/internal/config"
	"github.com/xirelogy/go-hd/internal/logging"
)

// Exit codes follow sysexits.h.
const (
	exitOK       = 0
	exitUsage    = 64
	exitCompile  = 65
	exitRuntime  = 70
	exitIOFailed = 74
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	expr := fs.String("e", "", "Evaluate the given expression")
	disasm := fs.Bool("disasm", false, "Print the bytecode listing before running")
	trace := fs.Bool("trace", false, "Print each instruction as it executes")
	verbose := fs.Bool("v", false, "Verbose (debug) logging")
	configPath := fs.String("config", "", "Path to hd.toml (default: search upwards from the working directory)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: hd [flags] [file | -]\n\n")
		fmt.Fprintf(stderr, "Evaluates an arithmetic expression and prints its value.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	hasExpr := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "e" {
			hasExpr = true
		}
	})
	paths := fs.Args()
	if hasExpr == (len(paths) > 0) || len(paths) > 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "hd: %v\n", err)
		return exitUsage
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *trace {
		cfg.VM.Trace = true
	}
	if *disasm {
		cfg.Disasm.Enabled = true
	}

	logger, restore, err := logging.Install(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "hd: %v\n", err)
		return exitUsage
	}
	defer restore()
	logger = logger.Named("hd")
	logger.Debug("configuration",
		zap.String("path", cfg.Path),
		zap.String("level", cfg.Log.Level),
		zap.Int("max_stack", cfg.VM.MaxStack),
		zap.Bool("trace", cfg.VM.Trace))

	opts := []hd.Option{
		hd.WithLogger(logger),
		hd.WithMaxStack(cfg.VM.MaxStack),
	}
	if cfg.VM.Trace {
		opts = append(opts, hd.WithTraceHook(func(info hd.TraceInfo) {
			fmt.Fprintf(stderr, "trace %04d line %d depth %d %s\n", info.IP, info.Line, info.Depth, info.Op)
		}))
	}
	in := hd.NewInterpreter(opts...)

	var prog *hd.Program
	switch {
	case hasExpr:
		prog, err = in.Compile(*expr)
	case paths[0] == "-":
		var src []byte
		src, err = io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "hd: reading stdin: %v\n", err)
			return exitIOFailed
		}
		prog, err = in.Compile(string(src))
	default:
		prog, err = in.CompileFile(paths[0])
	}
	if err != nil {
		fmt.Fprintf(stderr, "hd: %v\n", err)
		if hd.IsCompileError(err) {
			return exitCompile
		}
		return exitIOFailed
	}

	if cfg.Disasm.Enabled {
		if err := prog.Disassemble(stdout); err != nil {
			fmt.Fprintf(stderr, "hd: %v\n", err)
			return exitIOFailed
		}
	}

	result, err := prog.Run()
	if err != nil {
		fmt.Fprintf(stderr, "hd: %v\n", err)
		return exitRuntime
	}
	logger.Debug("run finished", zap.Stringer("result", result))
	fmt.Fprintln(stdout, result)
	return exitOK
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.FindAndLoad(".")
}
