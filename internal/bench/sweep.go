// Package bench measures wrdz compression ratios over a grid of training
// parameters and compares them with general purpose and fixed-dictionary
// compressors.
package bench

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/errgroup"

	"github.com/axiomhq/wrdz"
)

// DefaultShortThreshold splits short strings from long ones, in bytes.
const DefaultShortThreshold = 32

// Params is one point of the sweep.
type Params struct {
	DictSize  int
	MaxSubLen int
}

// Matrix returns every combination of dictSizes and maxSubLens, dictionary
// size major.
func Matrix(dictSizes, maxSubLens []int) []Params {
	out := make([]Params, 0, len(dictSizes)*len(maxSubLens))
	for _, size := range dictSizes {
		for _, subLen := range maxSubLens {
			out = append(out, Params{DictSize: size, MaxSubLen: subLen})
		}
	}
	return out
}

// Ratios holds mean compressed/original ratios for short and long strings.
// A bucket without samples is +Inf.
type Ratios struct {
	Short float64
	Long  float64
}

// Result is the outcome of one sweep point.
type Result struct {
	Params
	Codes     int
	Wrdz      Ratios
	Baselines []Ratios // in Report.Baselines order
	// Improvement is the relative gain of wrdz over the reference baseline,
	// in percent. Positive means wrdz output is smaller.
	Improvement Ratios
}

// Report collects the sweep results, best long-string improvement first.
type Report struct {
	Lines     int
	Baselines []string
	Reference string
	Results   []Result
}

// Options configures Sweep.
type Options struct {
	ShortThreshold int        // defaults to DefaultShortThreshold
	Workers        int        // defaults to GOMAXPROCS
	Baselines      []Baseline // compared against wrdz
	Reference      string     // baseline name improvements are computed against
	Logger         log.Logger
}

// Lines splits text into its non-blank lines with surrounding whitespace
// removed.
func Lines(text []byte) [][]byte {
	var out [][]byte
	for _, line := range bytes.Split(text, []byte{'\n'}) {
		if line = bytes.TrimSpace(line); len(line) > 0 {
			out = append(out, line)
		}
	}
	return out
}

// Sweep trains a codebook on corpus for every point of matrix and measures
// it on lines. Points run concurrently on opts.Workers goroutines. Every
// compressed line is decompressed again and a mismatch fails the sweep.
func Sweep(ctx context.Context, corpus []byte, lines [][]byte, matrix []Params, opts Options) (*Report, error) {
	if opts.ShortThreshold <= 0 {
		opts.ShortThreshold = DefaultShortThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New()
		logger.SetHandler(log.DiscardHandler())
	}

	report := &Report{Lines: len(lines), Reference: opts.Reference}
	ref := -1
	for i, b := range opts.Baselines {
		report.Baselines = append(report.Baselines, b.Name())
		if b.Name() == opts.Reference {
			ref = i
		}
	}
	if opts.Reference != "" && ref < 0 {
		return nil, fmt.Errorf("reference baseline %q is not configured", opts.Reference)
	}

	// Baseline ratios do not depend on the sweep point.
	baselines := make([]Ratios, len(opts.Baselines))
	for i, b := range opts.Baselines {
		var short, long mean
		for _, line := range lines {
			r := ratio(len(b.Compress(line)), len(line))
			if len(line) < opts.ShortThreshold {
				short.add(r)
			} else {
				long.add(r)
			}
		}
		baselines[i] = Ratios{Short: short.value(), Long: long.value()}
	}

	results := make([]Result, len(matrix))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, p := range matrix {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := measure(corpus, lines, p, opts.ShortThreshold)
			if err != nil {
				return err
			}
			res.Baselines = baselines
			if ref >= 0 {
				res.Improvement = improvement(baselines[ref], res.Wrdz)
			}
			results[i] = res
			logger.Info("measured", "dict_size", p.DictSize, "max_sub_len", p.MaxSubLen, "codes", res.Codes,
				"short", fmt.Sprintf("%.3f", res.Wrdz.Short), "long", fmt.Sprintf("%.3f", res.Wrdz.Long))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return higher(results[i].Improvement.Long, results[j].Improvement.Long)
	})
	report.Results = results
	return report, nil
}

func measure(corpus []byte, lines [][]byte, p Params, threshold int) (Result, error) {
	cb, err := wrdz.Train(corpus, &wrdz.Options{DictSize: p.DictSize, MaxSubLen: p.MaxSubLen})
	if err != nil {
		return Result{}, fmt.Errorf("dict_size=%d max_sub_len=%d: %w", p.DictSize, p.MaxSubLen, err)
	}
	var (
		short, long mean
		enc, dec    []byte
	)
	for _, line := range lines {
		enc = cb.Encode(enc, line)
		dec, err = cb.Decode(dec, enc)
		if err != nil {
			return Result{}, fmt.Errorf("dict_size=%d max_sub_len=%d: %w", p.DictSize, p.MaxSubLen, err)
		}
		if !bytes.Equal(dec, line) {
			return Result{}, fmt.Errorf("dict_size=%d max_sub_len=%d: roundtrip mismatch for %q", p.DictSize, p.MaxSubLen, line)
		}
		r := ratio(len(enc), len(line))
		if len(line) < threshold {
			short.add(r)
		} else {
			long.add(r)
		}
	}
	return Result{
		Params: p,
		Codes:  cb.Len(),
		Wrdz:   Ratios{Short: short.value(), Long: long.value()},
	}, nil
}

func ratio(compressed, original int) float64 {
	return float64(compressed) / float64(original)
}

func improvement(ref, got Ratios) Ratios {
	return Ratios{
		Short: (ref.Short - got.Short) / ref.Short * 100,
		Long:  (ref.Long - got.Long) / ref.Long * 100,
	}
}

// higher orders descending with NaN last.
func higher(a, b float64) bool {
	if math.IsNaN(b) {
		return !math.IsNaN(a)
	}
	return a > b
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) value() float64 {
	if m.n == 0 {
		return math.Inf(1)
	}
	return m.sum / float64(m.n)
}
