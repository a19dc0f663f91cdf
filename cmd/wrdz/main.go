// Command wrdz trains per-domain codebooks and compresses line-oriented
// files with them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/axiomhq/wrdz"
	"github.com/axiomhq/wrdz/internal/bench"
	"github.com/axiomhq/wrdz/internal/config"
	"github.com/axiomhq/wrdz/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: wrdz <command> [flags]

commands:
  train       train the configured domains and save their codebooks
  compress    compress every line of a file into length-prefixed blobs
  decompress  restore lines from length-prefixed blobs
  inspect     print a codebook summary
  delete      remove a domain's codebook from the store
  bench       sweep training parameters and compare with other compressors
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "train":
		err = runTrain(ctx, args)
	case "compress":
		err = runCompress(args)
	case "decompress":
		err = runDecompress(args)
	case "inspect":
		err = runInspect(args)
	case "delete":
		err = runDelete(args)
	case "bench":
		err = runBench(ctx, args)
	case "-h", "-help", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "wrdz: unknown command %q\n", cmd)
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "wrdz %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// setup parses the common flags and loads the configuration and logger.
func setup(fs *flag.FlagSet, args []string) (*config.Config, log.Logger, error) {
	configPath := fs.String("config", "", "YAML configuration file")
	verbosity := fs.String("verbosity", "", "log level override (crit, error, warn, info, debug, trace)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, nil, err
		}
	}
	if *verbosity != "" {
		cfg.Log.Level = *verbosity
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(level string) (log.Logger, error) {
	lvl, err := log.LvlFromString(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger := log.New()
	logger.SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.LogfmtFormat())))
	return logger, nil
}

func openStore(cfg *config.Config, logger log.Logger) (store.Store, error) {
	return store.Open(cfg.Store.Kind, cfg.Store.Path, cfg.Store.Compress, logger)
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	domain := fs.String("domain", "", "train only this domain")
	cfg, logger, err := setup(fs, args)
	if err != nil {
		return err
	}
	names := cfg.DomainNames()
	if *domain != "" {
		if _, ok := cfg.Domains[*domain]; !ok {
			return fmt.Errorf("domain %q is not configured", *domain)
		}
		names = []string{*domain}
	}
	if len(names) == 0 {
		return errors.New("no domains configured")
	}

	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := cfg.Domains[name]
		corpus, err := cfg.ReadCorpus(d.Corpus)
		if err != nil {
			return fmt.Errorf("domain %s: %w", name, err)
		}
		start := time.Now()
		cb, err := wrdz.Train(corpus, d.Options())
		if err != nil {
			return fmt.Errorf("domain %s: %w", name, err)
		}
		logger.Info("trained codebook", "domain", name, "corpus", len(corpus), "codes", cb.Len(),
			"max_sub_len", cb.MaxSubLen(), "took", time.Since(start))
		if err := s.Save(name, cb); err != nil {
			return fmt.Errorf("domain %s: %w", name, err)
		}
	}
	return nil
}

func codecFlags(fs *flag.FlagSet) (domain, in, out *string) {
	domain = fs.String("domain", "", "codebook domain (required)")
	in = fs.String("in", "", "input file (default stdin)")
	out = fs.String("out", "", "output file (default stdout)")
	return
}

func loadCodec(cfg *config.Config, logger log.Logger, domain string) (*wrdz.Codec, error) {
	if domain == "" {
		return nil, errors.New("-domain is required")
	}
	s, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return store.LoadCodec(s, domain)
}

func runCompress(args []string) error {
	fs := flag.NewFlagSet("compress", flag.ExitOnError)
	domain, in, out := codecFlags(fs)
	cfg, logger, err := setup(fs, args)
	if err != nil {
		return err
	}
	codec, err := loadCodec(cfg, logger, *domain)
	if err != nil {
		return err
	}
	return withFiles(*in, *out, func(r *os.File, w *os.File) error {
		st, err := compressLines(codec, r, w)
		if err != nil {
			return err
		}
		logger.Info("compressed", "domain", codec.Domain(), "lines", st.lines, "in", st.in, "out", st.out,
			"ratio", fmt.Sprintf("%.3f", st.ratio()))
		return nil
	})
}

func runDecompress(args []string) error {
	fs := flag.NewFlagSet("decompress", flag.ExitOnError)
	domain, in, out := codecFlags(fs)
	cfg, logger, err := setup(fs, args)
	if err != nil {
		return err
	}
	codec, err := loadCodec(cfg, logger, *domain)
	if err != nil {
		return err
	}
	return withFiles(*in, *out, func(r *os.File, w *os.File) error {
		st, err := decompressFrames(codec, r, w)
		if err != nil {
			return err
		}
		logger.Debug("decompressed", "domain", codec.Domain(), "lines", st.lines, "in", st.in, "out", st.out)
		return nil
	})
}

// withFiles opens the named input and output, falling back to stdin and
// stdout. The output file is synced before it is closed.
func withFiles(in, out string, fn func(r, w *os.File) error) error {
	r, w := os.Stdin, os.Stdout
	if in != "" {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if out == "" {
		return fn(r, w)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := fn(r, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	domain := fs.String("domain", "", "codebook domain in the configured store")
	file := fs.String("file", "", "codebook file (.dict or .dict.zst), instead of -domain")
	top := fs.Int("top", 32, "number of learned symbols to print")
	cfg, logger, err := setup(fs, args)
	if err != nil {
		return err
	}

	var cb *wrdz.Codebook
	switch {
	case *file != "":
		cb, err = store.ReadFile(*file)
	case *domain != "":
		var codec *wrdz.Codec
		if codec, err = loadCodec(cfg, logger, *domain); err == nil {
			cb = codec.Codebook()
		}
	default:
		err = errors.New("-domain or -file is required")
	}
	if err != nil {
		return err
	}
	return inspect(os.Stdout, cb, *top)
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	domain := fs.String("domain", "", "codebook domain (required)")
	cfg, logger, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *domain == "" {
		return errors.New("-domain is required")
	}
	s, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Delete(*domain)
}

func runBench(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	title := fs.String("title", "", "table title (overrides bench.title)")
	unit := fs.String("unit", "", "what a test line is called in the title (overrides bench.unit)")
	cfg, logger, err := setup(fs, args)
	if err != nil {
		return err
	}
	bc := cfg.Bench
	if *title != "" {
		bc.Title = *title
	}
	if *unit != "" {
		bc.Unit = *unit
	}
	if bc.Train == "" || bc.Test == "" {
		return errors.New("bench.train and bench.test must be configured")
	}
	corpus, err := cfg.ReadCorpus(bc.Train)
	if err != nil {
		return err
	}
	test, err := cfg.ReadCorpus(bc.Test)
	if err != nil {
		return err
	}

	baselines, err := bench.Baselines("smaz", "zstd", "lz4")
	if err != nil {
		return err
	}
	defer bench.CloseBaselines(baselines)

	report, err := bench.Sweep(ctx, corpus, bench.Lines(test), bench.Matrix(bc.DictSizes, bc.MaxSubLens), bench.Options{
		ShortThreshold: bc.ShortThreshold,
		Workers:        bc.Workers,
		Baselines:      baselines,
		Reference:      bc.Reference,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	return report.Render(os.Stdout, bc.Title, bc.Unit)
}
