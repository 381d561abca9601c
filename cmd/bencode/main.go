package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
)

const usage = `usage: bencode <command> [flags] args

commands:
  decode [--format json|yaml|tree] [--max-depth N] [--strict-keys] [--inline] FILE
  encode [--force] FILE.json
  verify [--workers N] [--strict-keys] FILE...
  info   [--digest sha1|blake3] FILE

FILE may be "-" for stdin. Files ending in .gz or .zst are decompressed.
Set DEBUG=1 or pass --debug to log to stderr.
`

var errUsage = errors.New("invalid usage")

type cli struct {
	stdout io.Writer
	stderr io.Writer
	debug  bool
	logger *slog.Logger
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	c := &cli{
		stdout: stdout,
		stderr: stderr,
		debug:  os.Getenv("DEBUG") == "1",
	}

	var err error
	switch command := args[0]; command {
	case "decode":
		err = c.decode(args[1:])
	case "encode":
		err = c.encode(args[1:])
	case "verify":
		err = c.verify(args[1:])
	case "info":
		err = c.info(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command: %s", command)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func (c *cli) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.BoolVar(&c.debug, "debug", c.debug, "log debug output to stderr")
	return fs
}

// parse parses args and sets up the logger once --debug is known.
func (c *cli) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if c.debug {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func expectArgs(fs *pflag.FlagSet, n int) error {
	if fs.NArg() != n {
		return fmt.Errorf("%w: %s expects %d argument(s), got %d", errUsage, fs.Name(), n, fs.NArg())
	}
	return nil
}
