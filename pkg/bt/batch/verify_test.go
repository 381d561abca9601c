package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burmudar/bencoding/pkg/bt/bencode"
)

func memLoad(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(data), nil
	}
}

func TestVerify(t *testing.T) {
	files := map[string]string{
		"canonical":     "d3:cow3:moo4:spam4:eggse",
		"unsorted":      "d4:spam4:eggs3:cow3:mooe",
		"padded length": "03:abc",
		"broken":        "li1e",
		"number":        "i-42e",
	}

	v := NewVerifier(Config{Workers: 2, Load: memLoad(files)})
	defer v.Close()

	results, err := v.Verify(context.Background(), []string{"canonical", "unsorted", "padded length", "broken", "number", "missing"})
	require.Error(t, err)
	require.Len(t, results, 6)

	assert.Equal(t, "canonical", results[0].Path)
	assert.True(t, results[0].Canonical)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, bencode.KindDict, results[0].Kind)
	assert.Equal(t, 24, results[0].Size)

	var nc *NotCanonicalErr
	require.ErrorAs(t, results[1].Err, &nc)
	assert.Equal(t, 1, nc.Offset)
	assert.ErrorIs(t, results[1].Err, ErrNotCanonical)
	assert.False(t, results[1].Canonical)

	require.ErrorAs(t, results[2].Err, &nc)
	assert.Equal(t, 0, nc.Offset)
	assert.Equal(t, bencode.KindByteString, results[2].Kind)

	assert.ErrorIs(t, results[3].Err, bencode.ErrUnexpectedEndOfInput)

	assert.True(t, results[4].Canonical)
	assert.Equal(t, bencode.KindInteger, results[4].Kind)

	assert.ErrorIs(t, results[5].Err, os.ErrNotExist)

	assert.Contains(t, err.Error(), "unsorted")
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "missing")
	assert.NotContains(t, err.Error(), "canonical:")
}

func TestVerifyAllCanonical(t *testing.T) {
	files := map[string]string{
		"a": "le",
		"b": "d1:ad1:bi1eee",
		"c": "0:",
	}

	v := NewVerifier(Config{Load: memLoad(files)})
	defer v.Close()

	results, err := v.Verify(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Canonical, r.Path)
	}
}

func TestVerifyDeduplicatesPaths(t *testing.T) {
	var loads int32
	load := func(string) ([]byte, error) {
		atomic.AddInt32(&loads, 1)
		return []byte("i1e"), nil
	}

	v := NewVerifier(Config{Workers: 4, Load: load})
	defer v.Close()

	results, err := v.Verify(context.Background(), []string{"x", "y", "x", "x", "y"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].Path)
	assert.Equal(t, "y", results[1].Path)
	assert.EqualValues(t, 2, atomic.LoadInt32(&loads))
}

func TestVerifyBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	load := func(string) ([]byte, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return []byte("4:spam"), nil
	}

	v := NewVerifier(Config{Workers: 2, Load: load})
	defer v.Close()

	paths := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	results, err := v.Verify(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, len(paths))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestVerifyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewVerifier(Config{Workers: 1, Load: memLoad(map[string]string{"a": "i1e"})})
	defer v.Close()

	results, err := v.Verify(ctx, []string{"a", "b"})
	require.Error(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, errors.Is(r.Err, context.Canceled), "%s: %v", r.Path, r.Err)
	}
}

func TestVerifyStrictKeys(t *testing.T) {
	files := map[string]string{"dup": "d1:ai1e1:ai2ee"}

	lenient := NewVerifier(Config{Load: memLoad(files)})
	defer lenient.Close()
	results, err := lenient.Verify(context.Background(), []string{"dup"})
	require.Error(t, err)
	assert.ErrorIs(t, results[0].Err, ErrNotCanonical)

	strict := NewVerifier(Config{Load: memLoad(files), DecodeOptions: []bencode.Option{bencode.RejectDuplicateKeys()}})
	defer strict.Close()
	results, err = strict.Verify(context.Background(), []string{"dup"})
	require.Error(t, err)
	assert.ErrorIs(t, results[0].Err, bencode.ErrDuplicateKey)
}

func TestVerifyFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.torrent")
	require.NoError(t, os.WriteFile(path, []byte("d4:infod4:name4:testee"), 0o644))

	v := NewVerifier(Config{})
	defer v.Close()

	results, err := v.Verify(context.Background(), []string{path})
	require.NoError(t, err)
	assert.True(t, results[0].Canonical)
}

func TestFirstDifference(t *testing.T) {
	tt := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"equal", "i1e", "i1e", -1},
		{"both empty", "", "", -1},
		{"differ at start", "03:abc", "3:abc", 0},
		{"differ in middle", "d4:spam", "d3:cow", 1},
		{"a is prefix", "i1", "i1e", 2},
		{"b is prefix", "i1e", "i1", 2},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, firstDifference([]byte(tc.a), []byte(tc.b)))
		})
	}
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Unique([]string{"a", "b", "a", "c", "b"}))
	assert.Equal(t, []int{}, Unique([]int{}))
}
