// Package batch round-trips many independent buffers concurrently: each
// input is decoded and re-encoded, and the result compared with the
// original bytes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/puddle"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/burmudar/bencoding/pkg/bt/bencode"
	"github.com/burmudar/bencoding/pkg/bt/source"
)

var ErrNotCanonical = errors.New("input is not in canonical form")

type NotCanonicalErr struct {
	// Offset is the first byte where the canonical encoding differs.
	Offset int
}

func (e *NotCanonicalErr) Error() string {
	return fmt.Sprintf("%v: re-encoding differs at offset %d", ErrNotCanonical, e.Offset)
}

func (e *NotCanonicalErr) Is(target error) bool {
	return target == ErrNotCanonical
}

type Config struct {
	// Workers bounds how many inputs are verified at once. Defaults to the
	// number of CPUs.
	Workers int
	Logger  *slog.Logger
	// DecodeOptions are passed to every decode.
	DecodeOptions []bencode.Option
	// Load reads one input. Defaults to source.Load.
	Load func(path string) ([]byte, error)
}

type Result struct {
	Path      string
	Size      int
	Kind      bencode.Kind
	Canonical bool
	Err       error
}

type Verifier struct {
	workers  int
	logger   *slog.Logger
	opts     []bencode.Option
	load     func(path string) ([]byte, error)
	sem      *semaphore.Weighted
	encoders *puddle.Pool
}

func NewVerifier(cfg Config) *Verifier {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Load == nil {
		cfg.Load = source.Load
	}

	constructor := func(context.Context) (interface{}, error) {
		return bencode.NewEncoder(), nil
	}
	destructor := func(interface{}) {}

	return &Verifier{
		workers:  cfg.Workers,
		logger:   cfg.Logger,
		opts:     cfg.DecodeOptions,
		load:     cfg.Load,
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
		encoders: puddle.NewPool(constructor, destructor, int32(cfg.Workers)),
	}
}

// Close releases pooled encoders. The Verifier must not be used afterwards.
func (v *Verifier) Close() {
	v.encoders.Close()
}

// Verify checks every path and returns one Result per distinct path, in the
// order the paths were given. The error aggregates every failed path.
func (v *Verifier) Verify(ctx context.Context, paths []string) ([]Result, error) {
	unique := Unique(paths)
	results := make([]Result, len(unique))
	for i, p := range unique {
		results[i].Path = p
	}

	g, gctx := errgroup.WithContext(ctx)
	scheduled := 0
	var stopped error
	for i, path := range unique {
		if gctx.Err() != nil {
			stopped = context.Cause(gctx)
			break
		}
		if err := v.sem.Acquire(gctx, 1); err != nil {
			stopped = err
			break
		}
		scheduled++

		i, path := i, path
		g.Go(func() error {
			defer v.sem.Release(1)
			var err error
			results[i], err = v.verifyOne(gctx, path)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		v.logger.Debug("batch stopped early", "err", err)
	}

	for i := scheduled; i < len(results); i++ {
		results[i].Err = stopped
	}

	var errs *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", r.Path, r.Err))
		}
	}
	v.logger.Debug("batch verified", "inputs", len(results), "workers", v.workers, "failed", len(errs.WrappedErrors()))
	return results, errs.ErrorOrNil()
}

// verifyOne only returns an error when the batch itself should stop; input
// failures are reported on the Result.
func (v *Verifier) verifyOne(ctx context.Context, path string) (Result, error) {
	r := Result{Path: path}

	data, err := v.load(path)
	if err != nil {
		r.Err = err
		v.logger.Debug("load failed", "path", path, "err", err)
		return r, nil
	}
	r.Size = len(data)

	value, err := bencode.Decode(data, v.opts...)
	if err != nil {
		r.Err = err
		v.logger.Debug("decode failed", "path", path, "err", err)
		return r, nil
	}
	r.Kind = value.Kind()

	res, err := v.encoders.Acquire(ctx)
	if err != nil {
		r.Err = fmt.Errorf("failed to acquire encoder: %w", err)
		return r, err
	}
	defer res.Release()

	enc := res.Value().(*bencode.Encoder)
	encoded := enc.Encode(value)
	if off := firstDifference(data, encoded); off >= 0 {
		r.Err = &NotCanonicalErr{Offset: off}
	} else {
		r.Canonical = true
	}

	v.logger.Debug("verified", "path", path, "size", r.Size, "kind", r.Kind, "canonical", r.Canonical)
	return r, nil
}

func firstDifference(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
