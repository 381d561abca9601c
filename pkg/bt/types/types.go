package types

import (
	"crypto/sha1"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/burmudar/bencoding/pkg/bt"
	"github.com/burmudar/bencoding/pkg/bt/bencode"
)

// PieceHashLength is the size of one SHA-1 piece hash in the pieces string.
const PieceHashLength = 20

const (
	DigestSHA1   = "sha1"
	DigestBLAKE3 = "blake3"
)

var ErrMalformedTorrent = errors.New("malformed torrent")

type FileInfo struct {
	Length int64
	Paths  []string
}

// Torrent is a read-only view over a decoded metainfo dictionary.
type Torrent struct {
	Announce     string
	AnnounceList []string
	Name         string
	PieceLength  int64
	PieceHashes  []string
	Length       int64
	Files        []*FileInfo
	Hash         [20]byte
	Info         bencode.Dict
}

func malformed(format string, vars ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedTorrent, fmt.Sprintf(format, vars...))
}

// DecodeTorrent decodes a metainfo file and interprets it.
func DecodeTorrent(data []byte, opts ...bencode.Option) (*Torrent, error) {
	v, err := bencode.Decode(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode torrent: %w", err)
	}
	return ParseTorrent(v)
}

func ParseTorrent(v bencode.Value) (*Torrent, error) {
	dict, ok := bencode.AsDict(v)
	if !ok {
		return nil, malformed("metainfo is not a dict")
	}

	info, ok := dict.Dict("info")
	if !ok {
		return nil, malformed("info dict not found")
	}

	var m Torrent
	m.Info = info

	if raw, ok := dict["announce"]; ok {
		announce, ok := bencode.AsBytes(raw)
		if !ok {
			return nil, malformed("announce is a %s", raw.Kind())
		}
		m.Announce = string(announce)
	}

	if list, ok := dict.List("announce-list"); ok {
		m.AnnounceList = make([]string, 0)
		for i, tier := range list {
			inner, ok := bencode.AsList(tier)
			if !ok {
				return nil, malformed("announce-list tier %d is a %s", i, tier.Kind())
			}
			for _, v := range inner {
				url, ok := bencode.AsBytes(v)
				if !ok {
					return nil, malformed("announce-list tier %d holds a %s", i, v.Kind())
				}
				m.AnnounceList = append(m.AnnounceList, string(url))
			}
		}
	}

	if name, ok := info.Bytes("name"); ok {
		m.Name = string(name)
	}

	pieceLength, ok := info.Int("piece length")
	if !ok || pieceLength <= 0 {
		return nil, malformed("piece length missing or not positive")
	}
	m.PieceLength = pieceLength

	pieces, ok := info.Bytes("pieces")
	if !ok {
		return nil, malformed("pieces missing")
	}
	if len(pieces)%PieceHashLength != 0 {
		return nil, malformed("pieces length %d is not a multiple of %d", len(pieces), PieceHashLength)
	}
	m.PieceHashes = make([]string, 0, len(pieces)/PieceHashLength)
	for i := 0; i < len(pieces); i += PieceHashLength {
		m.PieceHashes = append(m.PieceHashes, string(pieces[i:i+PieceHashLength]))
	}

	if length, ok := info.Int("length"); ok {
		if length < 0 {
			return nil, malformed("negative length %d", length)
		}
		m.Length = length
	} else {
		files, ok := info.List("files")
		if !ok {
			return nil, malformed("neither length nor files present in info dict")
		}
		m.Files = make([]*FileInfo, 0, len(files))
		for i, item := range files {
			f, err := newFileInfo(item)
			if err != nil {
				return nil, fmt.Errorf("file %d: %w", i, err)
			}
			m.Files = append(m.Files, f)
		}
	}

	if expected := bt.Ceil(m.TotalLength(), m.PieceLength); expected != int64(len(m.PieceHashes)) {
		return nil, malformed("expected %d pieces for %d bytes, got %d", expected, m.TotalLength(), len(m.PieceHashes))
	}

	m.Hash = InfoHash(info)
	return &m, nil
}

func newFileInfo(value bencode.Value) (*FileInfo, error) {
	dict, ok := bencode.AsDict(value)
	if !ok {
		return nil, malformed("file entry is not a dict")
	}

	var f FileInfo
	length, ok := dict.Int("length")
	if !ok || length < 0 {
		return nil, malformed("file length missing or negative")
	}
	f.Length = length

	path, ok := dict.List("path")
	if !ok {
		return nil, malformed("file path missing")
	}
	f.Paths = []string{}
	for _, v := range path {
		p, ok := bencode.AsBytes(v)
		if !ok {
			return nil, malformed("path component is a %s", v.Kind())
		}
		f.Paths = append(f.Paths, string(p))
	}

	return &f, nil
}

// InfoHash is the SHA-1 of the canonical encoding of the info dictionary.
func InfoHash(info bencode.Dict) [20]byte {
	return sha1.Sum(bencode.Encode(info))
}

// Digest hashes the canonical info dictionary with the named algorithm.
func (m *Torrent) Digest(algo string) ([]byte, error) {
	switch algo {
	case DigestSHA1, "":
		h := InfoHash(m.Info)
		return h[:], nil
	case DigestBLAKE3:
		h := blake3.Sum256(bencode.Encode(m.Info))
		return h[:], nil
	default:
		return nil, fmt.Errorf("unknown digest %q - expected %s or %s", algo, DigestSHA1, DigestBLAKE3)
	}
}

func (m *Torrent) TotalLength() int64 {
	if len(m.Files) == 0 {
		return m.Length
	}
	var total int64
	for _, f := range m.Files {
		total += f.Length
	}
	return total
}

// LengthOf returns the size of piece p; only the last piece may be short.
func (m *Torrent) LengthOf(p int) int64 {
	if p < 0 || p >= len(m.PieceHashes) {
		return 0
	}
	if p == len(m.PieceHashes)-1 {
		if rem := m.TotalLength() % m.PieceLength; rem != 0 {
			return rem
		}
	}
	return m.PieceLength
}

func (m *Torrent) HashFor(p int) []byte {
	if p < 0 || p >= len(m.PieceHashes) {
		return nil
	}

	return []byte(m.PieceHashes[p])
}
