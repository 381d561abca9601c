package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/burmudar/bencoding/pkg/bt/batch"
	"github.com/burmudar/bencoding/pkg/bt/bencode"
	"github.com/burmudar/bencoding/pkg/bt/source"
	"github.com/burmudar/bencoding/pkg/bt/types"
)

var errVerifyFailed = errors.New("verification failed")

func (c *cli) decode(args []string) error {
	fs := c.flagSet("decode")
	format := fs.StringP("format", "f", "json", "output format: json, yaml or tree")
	maxDepth := fs.Int("max-depth", bencode.DefaultMaxDepth, "maximum nesting depth")
	strict := fs.Bool("strict-keys", false, "reject duplicate dictionary keys")
	inline := fs.Bool("inline", false, "treat the argument as the encoded value instead of a path")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := expectArgs(fs, 1); err != nil {
		return err
	}

	switch *format {
	case "json", "yaml", "tree":
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}

	var data []byte
	if *inline {
		data = []byte(fs.Arg(0))
	} else {
		var err error
		if data, err = source.Load(fs.Arg(0)); err != nil {
			return err
		}
	}

	value, err := bencode.Decode(data, decodeOptions(*maxDepth, *strict)...)
	if err != nil {
		return fmt.Errorf("decoding failure: %w", err)
	}
	c.logger.Debug("decoded", "input", fs.Arg(0), "size", len(data), "kind", value.Kind())

	return writeValue(c.stdout, value, *format)
}

func decodeOptions(maxDepth int, strict bool) []bencode.Option {
	opts := []bencode.Option{bencode.WithMaxDepth(maxDepth)}
	if strict {
		opts = append(opts, bencode.RejectDuplicateKeys())
	}
	return opts
}

func writeValue(w io.Writer, value bencode.Value, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(bencode.ToNative(value)); err != nil {
			return fmt.Errorf("marshalling failure: %w", err)
		}
		return enc.Close()
	case "tree":
		_, err := fmt.Fprintln(w, value.String())
		return err
	default:
		out, err := json.Marshal(bencode.ToNative(value))
		if err != nil {
			return fmt.Errorf("marshalling failure: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
}

func (c *cli) encode(args []string) error {
	fs := c.flagSet("encode")
	force := fs.Bool("force", false, "write binary output even when stdout is a terminal")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := expectArgs(fs, 1); err != nil {
		return err
	}

	if f, ok := c.stdout.(*os.File); ok && !*force && isatty.IsTerminal(f.Fd()) {
		return fmt.Errorf("%w: refusing to write bencode to a terminal, use --force", errUsage)
	}

	data, err := source.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var native any
	if err := dec.Decode(&native); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid json: trailing data at offset %d", dec.InputOffset())
	}

	value, err := bencode.FromNative(native)
	if err != nil {
		return fmt.Errorf("encoding failure: %w", err)
	}

	encoded := bencode.Encode(value)
	c.logger.Debug("encoded", "input", fs.Arg(0), "size", len(encoded), "kind", value.Kind())
	_, err = c.stdout.Write(encoded)
	return err
}

func (c *cli) verify(args []string) error {
	fs := c.flagSet("verify")
	workers := fs.IntP("workers", "w", runtime.NumCPU(), "number of inputs verified at once")
	strict := fs.Bool("strict-keys", false, "reject duplicate dictionary keys")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: verify expects at least one argument", errUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := batch.NewVerifier(batch.Config{
		Workers:       *workers,
		Logger:        c.logger,
		DecodeOptions: decodeOptions(bencode.DefaultMaxDepth, *strict),
	})
	defer v.Close()

	results, err := v.Verify(ctx, fs.Args())

	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(c.stdout, "%s %s: %v\n", fail("FAIL"), r.Path, r.Err)
			continue
		}
		fmt.Fprintf(c.stdout, "%s %s (%s, %d bytes)\n", ok("OK"), r.Path, r.Kind, r.Size)
	}

	if err != nil {
		c.logger.Debug("verify failed", "err", err)
		return fmt.Errorf("%w: %d of %d inputs", errVerifyFailed, failed, len(results))
	}
	return nil
}

func (c *cli) info(args []string) error {
	fs := c.flagSet("info")
	digest := fs.String("digest", types.DigestSHA1, "info hash digest: sha1 or blake3")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := expectArgs(fs, 1); err != nil {
		return err
	}

	data, err := source.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	torrent, err := types.DecodeTorrent(data)
	if err != nil {
		return err
	}

	sum, err := torrent.Digest(*digest)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "Tracker URL: %s\n", torrent.Announce)
	fmt.Fprintf(c.stdout, "Name: %s\n", torrent.Name)
	fmt.Fprintf(c.stdout, "Length: %d\n", torrent.TotalLength())
	for i, f := range torrent.Files {
		c.logger.Debug("file", "index", i, "paths", f.Paths, "length", f.Length)
	}
	fmt.Fprintf(c.stdout, "Info Hash: %x\n", sum)
	fmt.Fprintf(c.stdout, "Piece Length: %d\n", torrent.PieceLength)
	fmt.Fprintln(c.stdout, "Piece Hashes:")
	for _, h := range torrent.PieceHashes {
		fmt.Fprintln(c.stdout, hex.EncodeToString([]byte(h)))
	}
	return nil
}
