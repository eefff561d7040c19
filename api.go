package hd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/xirelogy/go-hd/internal/bytecode"
	"github.com/xirelogy/go-hd/internal/compiler"
	"github.com/xirelogy/go-hd/internal/lexer"
	"github.com/xirelogy/go-hd/internal/parser"
	"github.com/xirelogy/go-hd/internal/value"
	"github.com/xirelogy/go-hd/internal/vm"
)

// Value is a runtime value produced by a program.
type Value = value.Value

// Compile-time failure classes.
var (
	ErrUnrecognizedToken  = lexer.ErrUnrecognizedToken
	ErrUnterminatedString = lexer.ErrUnterminatedString
	ErrInvalidNumFormat   = lexer.ErrInvalidNumFormat
	ErrInvalidEncoding    = lexer.ErrInvalidEncoding
	ErrSyntax             = parser.ErrSyntax
	ErrUnsupported        = compiler.ErrUnsupported
	ErrTooManyConstants   = bytecode.ErrTooManyConstants
)

// Run-time failure classes.
var (
	ErrStackUnderflow   = vm.ErrStackUnderflow
	ErrStackOverflow    = vm.ErrStackOverflow
	ErrInvalidOpcode    = vm.ErrInvalidOpcode
	ErrTypeMismatch     = vm.ErrTypeMismatch
	ErrConstantIndex    = vm.ErrConstantIndex
	ErrTruncatedOperand = vm.ErrTruncatedOperand
	ErrMissingReturn    = vm.ErrMissingReturn
)

// CompileError reports source that could not be turned into bytecode.
type CompileError struct {
	Line    int
	Message string
	Cause   error
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile error: line %d: %s", e.Line, e.Message)
	}
	return "compile error: " + e.Message
}

// Unwrap exposes the underlying cause (if any) for errors.Is/As.
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// RuntimeError is a source-aware execution error surfaced from the VM.
type RuntimeError struct {
	Message string
	// Op is the mnemonic of the failing instruction.
	Op    string
	IP    int
	Line  int
	Cause error
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%v at %s", e.Cause, msg)
	}
	if e.Line > 0 {
		return fmt.Sprintf("runtime error: line %d: %s", e.Line, msg)
	}
	return "runtime error: " + msg
}

// Unwrap exposes the underlying cause (if any) for errors.Is/As.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// IsCompileError reports whether err carries a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// IsRuntimeError reports whether err carries a *RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}

// TraceInfo captures execution steps for debug hooks.
type TraceInfo struct {
	Op    string
	IP    int
	Line  int
	Depth int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

func convertCompileError(err error) error {
	if err == nil {
		return nil
	}
	var (
		lexErr  *lexer.Error
		synErr  *parser.Error
		compErr *compiler.Error
	)
	switch {
	case errors.As(err, &lexErr):
		msg := lexErr.Kind.Error()
		if lexErr.Lexeme != "" {
			msg = fmt.Sprintf("%s %q", msg, lexErr.Lexeme)
		}
		return &CompileError{Line: lexErr.Line, Message: msg, Cause: err}
	case errors.As(err, &synErr):
		return &CompileError{Line: synErr.Line, Message: synErr.Message, Cause: err}
	case errors.As(err, &compErr):
		return &CompileError{Line: compErr.Line, Message: compErr.Err.Error(), Cause: err}
	}
	return &CompileError{Message: err.Error(), Cause: err}
}

func convertRuntimeError(err error) error {
	if err == nil {
		return nil
	}
	var rte *vm.RuntimeError
	if errors.As(err, &rte) {
		return &RuntimeError{
			Message: rte.Message,
			Op:      rte.OpName(),
			IP:      rte.IP,
			Line:    rte.Line,
			Cause:   rte.Cause,
		}
	}
	return err
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger routes compiler and VM debug output to l. The zap global
// logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(in *Interpreter) {
		in.logger = l
	}
}

// WithMaxStack caps the operand stack depth of every run.
func WithMaxStack(n int) Option {
	return func(in *Interpreter) {
		in.maxStack = n
	}
}

// WithTraceHook calls h before each instruction is dispatched.
func WithTraceHook(h TraceHook) Option {
	return func(in *Interpreter) {
		in.traceHook = h
	}
}

// Interpreter compiles and runs source text. It holds only configuration,
// so it is safe to share; each run gets a fresh VM.
type Interpreter struct {
	logger    *zap.Logger
	maxStack  int
	traceHook TraceHook
}

// NewInterpreter returns an interpreter with the default stack limit and
// the given options applied.
func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{maxStack: vm.DefaultMaxStack}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

func (in *Interpreter) log() *zap.Logger {
	if in.logger != nil {
		return in.logger
	}
	return zap.L()
}

// Compile turns source text into a runnable program.
// Failures are *CompileError values.
func (in *Interpreter) Compile(source string) (*Program, error) {
	return in.compile("<input>", []byte(source))
}

// CompileFile loads and compiles a script from a filesystem path.
// Read failures are returned as-is, not as *CompileError.
func (in *Interpreter) CompileFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return in.compile(path, data)
}

func (in *Interpreter) compile(name string, src []byte) (*Program, error) {
	prog, err := parser.Parse(src)
	if err == nil {
		var chunk *bytecode.Chunk
		chunk, err = compiler.Compile(prog)
		if err == nil {
			return &Program{name: name, chunk: chunk, interp: in}, nil
		}
	}
	err = convertCompileError(err)
	in.log().Debug("compile failed",
		zap.String("source", name),
		zap.Error(err))
	return nil, err
}

// Interpret compiles and runs source. A compile failure returns a
// *CompileError before any VM is built; a run failure returns a *RuntimeError.
func (in *Interpreter) Interpret(source string) error {
	_, err := in.Eval(source)
	return err
}

// Eval is Interpret that also returns the program's result.
func (in *Interpreter) Eval(source string) (Value, error) {
	p, err := in.Compile(source)
	if err != nil {
		return value.Nil(), err
	}
	return p.Run()
}

func (in *Interpreter) newVM(chunk *bytecode.Chunk) *vm.VM {
	opts := []vm.Opt{
		vm.LoggerOpt(in.log()),
		vm.MaxStackOpt(in.maxStack),
	}
	if h := in.traceHook; h != nil {
		opts = append(opts, vm.TraceOpt(func(info vm.TraceInfo) {
			h(TraceInfo{
				Op:    info.Op.String(),
				IP:    info.IP,
				Line:  info.Line,
				Depth: info.Depth,
			})
		}))
	}
	return vm.New(chunk, opts...)
}

// Program is compiled bytecode. It is immutable and may be run any number
// of times, concurrently.
type Program struct {
	name   string
	chunk  *bytecode.Chunk
	interp *Interpreter
}

// Name is the source name used in listings: a file path or "<input>".
func (p *Program) Name() string {
	return p.name
}

// Run executes the program on a fresh VM and returns the value left on top
// of the stack, or Nil when the stack is empty.
func (p *Program) Run() (Value, error) {
	machine := p.interp.newVM(p.chunk)
	if err := machine.Run(); err != nil {
		return value.Nil(), convertRuntimeError(err)
	}
	res, _ := machine.Result()
	return res, nil
}

// Disassemble writes the program's bytecode listing to w.
func (p *Program) Disassemble(w io.Writer) error {
	return bytecode.NewDisassembler(w).DisassembleChunk(p.name, p.chunk)
}

// RunFuture represents an in-flight program run.
type RunFuture struct {
	ch <-chan RunResult
}

// RunResult is the outcome of a program run.
type RunResult struct {
	Value Value
	Err   error
}

// Await waits for completion or context cancellation.
func (f RunFuture) Await(ctx context.Context) (Value, error) {
	select {
	case <-ctx.Done():
		return value.Nil(), ctx.Err()
	case res := <-f.ch:
		return res.Value, res.Err
	}
}

// RunAsync runs the program on its own goroutine. Cancelling ctx stops a
// run that has not started yet; a started run always completes.
func (p *Program) RunAsync(ctx context.Context) RunFuture {
	ch := make(chan RunResult, 1)
	go func() {
		select {
		case <-ctx.Done():
			ch <- RunResult{Err: ctx.Err()}
			return
		default:
		}
		v, err := p.Run()
		ch <- RunResult{Value: v, Err: err}
	}()
	return RunFuture{ch: ch}
}

var defaultInterpreter = NewInterpreter()

// Interpret compiles and runs source with default settings.
func Interpret(source string) error {
	return defaultInterpreter.Interpret(source)
}

// Eval compiles and runs source with default settings and returns its result.
func Eval(source string) (Value, error) {
	return defaultInterpreter.Eval(source)
}

// Compile compiles source with default settings.
func Compile(source string) (*Program, error) {
	return defaultInterpreter.Compile(source)
}
