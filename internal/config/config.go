// Package config loads the YAML configuration of the wrdz command.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/axiomhq/wrdz"
)

// Config is the top-level configuration.
type Config struct {
	Store         Store              `yaml:"store"`
	MaxCorpusSize datasize.ByteSize  `yaml:"max_corpus_size"`
	Log           Log                `yaml:"log"`
	Domains       map[string]*Domain `yaml:"domains"`
	Bench         Bench              `yaml:"bench"`
}

// Store selects where codebooks are persisted.
type Store struct {
	Kind     string `yaml:"kind"` // dir, pebble or embedded
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// Log configures the command logger.
type Log struct {
	Level string `yaml:"level"`
}

// Domain is a training corpus and the options to train it with.
type Domain struct {
	Corpus    string `yaml:"corpus"`
	MaxSubLen int    `yaml:"max_sub_len"`
	DictSize  int    `yaml:"dict_size"`
}

// Options returns the training options of the domain.
func (d *Domain) Options() *wrdz.Options {
	return &wrdz.Options{MaxSubLen: d.MaxSubLen, DictSize: d.DictSize}
}

// Bench configures the parameter sweep.
type Bench struct {
	Train          string `yaml:"train"`
	Test           string `yaml:"test"`
	DictSizes      []int  `yaml:"dict_sizes"`
	MaxSubLens     []int  `yaml:"max_sub_lens"`
	ShortThreshold int    `yaml:"short_threshold"`
	Workers        int    `yaml:"workers"` // 0 means GOMAXPROCS
	Reference      string `yaml:"reference"`
	Title          string `yaml:"title"`
	Unit           string `yaml:"unit"` // what a test line is called in the title
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Kind == "" {
		c.Store.Kind = "dir"
	}
	if c.Store.Path == "" {
		c.Store.Path = "dicts"
	}
	if c.MaxCorpusSize == 0 {
		c.MaxCorpusSize = 256 * datasize.MB
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	defaults := wrdz.DefaultOptions()
	for _, d := range c.Domains {
		if d == nil {
			continue
		}
		if d.MaxSubLen == 0 {
			d.MaxSubLen = defaults.MaxSubLen
		}
		if d.DictSize == 0 {
			d.DictSize = defaults.DictSize
		}
	}
	if len(c.Bench.DictSizes) == 0 {
		c.Bench.DictSizes = []int{256, 512, 1024, 2048, 4096, 8192, 16384}
	}
	if len(c.Bench.MaxSubLens) == 0 {
		c.Bench.MaxSubLens = []int{3, 4}
	}
	if c.Bench.ShortThreshold == 0 {
		c.Bench.ShortThreshold = 32
	}
	if c.Bench.Reference == "" {
		c.Bench.Reference = "smaz"
	}
	if c.Bench.Title == "" {
		c.Bench.Title = "Compression Benchmark Results"
	}
	if c.Bench.Unit == "" {
		c.Bench.Unit = "lines"
	}
}

// Validate checks every domain's training options and the sweep matrix.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case "dir", "pebble", "embedded":
	default:
		errs = append(errs, fmt.Errorf("store: unknown kind %q", c.Store.Kind))
	}
	for _, name := range c.DomainNames() {
		d := c.Domains[name]
		if d == nil {
			errs = append(errs, fmt.Errorf("domain %s: empty", name))
			continue
		}
		if d.Corpus == "" {
			errs = append(errs, fmt.Errorf("domain %s: corpus is required", name))
		}
		if err := d.Options().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("domain %s: %w", name, err))
		}
	}
	for _, size := range c.Bench.DictSizes {
		for _, subLen := range c.Bench.MaxSubLens {
			if err := (&wrdz.Options{MaxSubLen: subLen, DictSize: size}).Validate(); err != nil {
				errs = append(errs, fmt.Errorf("bench: %w", err))
			}
		}
	}
	if c.Bench.Workers < 0 {
		errs = append(errs, fmt.Errorf("bench: workers %d is negative", c.Bench.Workers))
	}
	return errors.Join(errs...)
}

// DomainNames returns the configured domain names in sorted order.
func (c *Config) DomainNames() []string {
	names := make([]string, 0, len(c.Domains))
	for name := range c.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadCorpus reads a training corpus, refusing files above MaxCorpusSize.
// Training time grows with corpus length times the maximum substring length.
func (c *Config) ReadCorpus(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if size := datasize.ByteSize(info.Size()); size > c.MaxCorpusSize {
		return nil, fmt.Errorf("corpus %s is %s, above the %s limit", path, size.HR(), c.MaxCorpusSize.HR())
	}
	return os.ReadFile(path)
}
