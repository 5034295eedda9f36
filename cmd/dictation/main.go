// Command dictation records speech, transcribes it and keeps a short
// history of transcripts.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/kbukum/dictation/bootstrap"
	"github.com/kbukum/dictation/errors"
	"github.com/kbukum/dictation/version"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitCancelled = 130
)

// command is one subcommand. run receives the arguments after its name.
type command struct {
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"record":     {"record [--browser]", runRecord},
	"transcribe": {"transcribe <file> [--mime type]", runTranscribe},
	"history":    {"history [--clear] [--delete id]", runHistory},
	"settings":   {"settings [key=value ...]", runSettings},
	"key":        {"key set [value] | key clear | key show", runKey},
	"recover":    {"recover [--discard]", runRecover},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	g := newGlobalFlags()
	g.fs.SetOutput(stderr)
	g.fs.Usage = func() { usage(stderr, g.fs) }
	if err := g.fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := g.fs.Args()
	if len(rest) == 0 {
		usage(stderr, g.fs)
		return exitUsage
	}
	name, cmdArgs := rest[0], rest[1:]
	if name == "version" {
		fmt.Fprintln(stdout, version.Get())
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr, g.fs)
		return exitUsage
	}

	cfg, err := loadConfig(g)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", errors.Message(err))
		return exitFailure
	}

	e := &env{app: app, cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	app.OnStart(e.setupObservability)

	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		return cmd.run(ctx, e, cmdArgs)
	})
	switch {
	case err == nil:
		return exitOK
	case stderrors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.IsCancelled(err):
		fmt.Fprintln(stderr, "Cancelled.")
		return exitCancelled
	case stderrors.Is(err, errUsage):
		fmt.Fprintf(stderr, "error: %v\nusage: dictation %s\n", err, cmd.usage)
		return exitUsage
	case e.reported(err):
		return exitFailure
	default:
		fmt.Fprintln(stderr, "error:", errors.Message(err))
		return exitFailure
	}
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: dictation [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(w, "  version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fmt.Fprint(w, fs.FlagUsages())
}
