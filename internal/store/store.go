// Package store persists trained codebooks by domain name, either as files in
// a directory or as entries of a pebble database.
package store

import (
	"fmt"
	"regexp"

	"github.com/klauspost/compress/zstd"
	"github.com/ledgerwatch/log/v3"

	"github.com/axiomhq/wrdz"
)

// Store saves and loads codebooks by domain. Load of a missing or unreadable
// domain returns an error matching wrdz.ErrCodebookUnavailable.
type Store interface {
	Save(domain string, cb *wrdz.Codebook) error
	Load(domain string) (*wrdz.Codebook, error)
	// Delete removes the codebook for domain; a missing domain is not an error.
	Delete(domain string) error
	List() ([]string, error)
	Close() error
}

// Store kinds accepted by Open.
const (
	KindDir      = "dir"
	KindPebble   = "pebble"
	KindEmbedded = "embedded" // read-only bundled codebooks, path is ignored
)

var domainPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateDomain rejects names that cannot be used as file names or keys.
func ValidateDomain(domain string) error {
	if !domainPattern.MatchString(domain) || domain == "." || domain == ".." {
		return fmt.Errorf("invalid domain name %q", domain)
	}
	return nil
}

// Open returns the store of the given kind rooted at path.
func Open(kind, path string, compress bool, logger log.Logger) (Store, error) {
	switch kind {
	case KindDir, "":
		return OpenDir(path, compress, logger)
	case KindPebble:
		return OpenPebble(path, logger)
	case KindEmbedded:
		return NewEmbedded(logger), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

// LoadCodec loads the codebook for domain and binds it to a codec.
func LoadCodec(s Store, domain string) (*wrdz.Codec, error) {
	cb, err := s.Load(domain)
	if err != nil {
		return nil, err
	}
	return wrdz.NewCodec(domain, cb), nil
}

// unavailable wraps err so it matches both wrdz.ErrCodebookUnavailable and err.
func unavailable(domain string, err error) error {
	return fmt.Errorf("%w: %s: %w", wrdz.ErrCodebookUnavailable, domain, err)
}

// zstdCodec compresses codebook containers. EncodeAll and DecodeAll are safe
// for concurrent use.
type zstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &zstdCodec{encoder: encoder, decoder: decoder}, nil
}

func (z *zstdCodec) marshal(cb *wrdz.Codebook) ([]byte, error) {
	data, err := cb.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return z.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func (z *zstdCodec) unmarshal(data []byte) (*wrdz.Codebook, error) {
	raw, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	var cb wrdz.Codebook
	if err := cb.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &cb, nil
}

func (z *zstdCodec) close() {
	z.encoder.Close()
	z.decoder.Close()
}
