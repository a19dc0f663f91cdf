package bench

import (
	"fmt"

	"github.com/kjk/smaz"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Baseline is a reference compressor that wrdz ratios are compared against.
// Compress must be safe for concurrent use.
type Baseline interface {
	Name() string
	Compress(src []byte) []byte
}

// Smaz compresses with the fixed english dictionary of the smaz algorithm.
type Smaz struct{}

func (Smaz) Name() string { return "smaz" }

func (Smaz) Compress(src []byte) []byte { return smaz.Encode(nil, src) }

// Zstd compresses every string as a standalone zstd frame.
type Zstd struct {
	enc *zstd.Encoder
}

// NewZstd returns a Zstd baseline at the fastest level.
func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &Zstd{enc: enc}, nil
}

func (z *Zstd) Name() string { return "zstd" }

func (z *Zstd) Compress(src []byte) []byte { return z.enc.EncodeAll(src, nil) }

// Close releases the encoder.
func (z *Zstd) Close() error { return z.enc.Close() }

// LZ4 compresses every string as a raw lz4 block.
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) Compress(src []byte) []byte {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst)
	if err != nil || n == 0 {
		// incompressible: lz4 stores the input as literals
		return append(dst[:0], src...)
	}
	return dst[:n]
}

// Baselines resolves baseline names. The zstd baseline must be closed by
// the caller through CloseBaselines.
func Baselines(names ...string) ([]Baseline, error) {
	out := make([]Baseline, 0, len(names))
	for _, name := range names {
		switch name {
		case "smaz":
			out = append(out, Smaz{})
		case "lz4":
			out = append(out, LZ4{})
		case "zstd":
			z, err := NewZstd()
			if err != nil {
				CloseBaselines(out)
				return nil, err
			}
			out = append(out, z)
		default:
			CloseBaselines(out)
			return nil, fmt.Errorf("unknown baseline %q", name)
		}
	}
	return out, nil
}

// CloseBaselines closes every baseline holding resources.
func CloseBaselines(bs []Baseline) {
	for _, b := range bs {
		if c, ok := b.(interface{ Close() error }); ok {
			c.Close()
		}
	}
}
