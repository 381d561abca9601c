// Package source loads raw buffers for decoding from files, stdin or
// compressed files.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Load reads the whole of path. ".gz" and ".zst" files are decompressed.
func Load(path string) (data []byte, err error) {
	if path == Stdin {
		return Read(os.Stdin, "")
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(fd))

	return Read(fd, path)
}

// Read reads r to the end, decompressing according to the extension of name.
func Read(r io.Reader, name string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return readGzip(r, name)
	case ".zst":
		return readZstd(r, name)
	default:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read failure: %w", err)
		}
		return data, nil
	}
}

func readGzip(r io.Reader, name string) (data []byte, err error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: gzip: %w", name, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(zr))

	data, err = io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%s: gzip: %w", name, err)
	}
	return data, nil
}

func readZstd(r io.Reader, name string) ([]byte, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: zstd: %w", name, err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, fmt.Errorf("%s: zstd: %w", name, err)
	}
	return buf.Bytes(), nil
}
