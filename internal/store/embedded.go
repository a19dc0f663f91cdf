package store

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/axiomhq/wrdz"
)

//go:embed corpus/*.txt
var builtinCorpora embed.FS

// builtinDomains maps the bundled domains to their training corpus.
var builtinDomains = map[string]string{
	"english": "corpus/english.txt",
	"urls":    "corpus/urls.txt",
}

// ErrReadOnly is returned when writing to the bundled codebooks.
var ErrReadOnly = errors.New("store: bundled codebooks are read-only")

// Embedded serves the bundled english and urls codebooks. Each is trained
// with wrdz.DefaultOptions from a corpus compiled into the binary the first
// time it is loaded, then reused by this Embedded. Training is deterministic,
// so every Embedded yields codebooks with the same ID.
type Embedded struct {
	mu     sync.Mutex
	books  map[string]*wrdz.Codebook
	logger log.Logger
}

// NewEmbedded returns a store over the bundled codebooks.
func NewEmbedded(logger log.Logger) *Embedded {
	return &Embedded{books: make(map[string]*wrdz.Codebook), logger: logger}
}

// Load returns the bundled codebook for domain.
func (e *Embedded) Load(domain string) (*wrdz.Codebook, error) {
	path, ok := builtinDomains[domain]
	if !ok {
		return nil, unavailable(domain, fmt.Errorf("no bundled codebook: %w", fs.ErrNotExist))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cb, ok := e.books[domain]; ok {
		return cb, nil
	}
	corpus, err := builtinCorpora.ReadFile(path)
	if err != nil {
		return nil, unavailable(domain, err)
	}
	start := time.Now()
	cb, err := wrdz.Train(corpus, wrdz.DefaultOptions())
	if err != nil {
		return nil, unavailable(domain, err)
	}
	e.books[domain] = cb
	e.logger.Debug("loaded bundled codebook", "domain", domain, "codes", cb.Len(), "took", time.Since(start))
	return cb, nil
}

func (e *Embedded) Save(domain string, _ *wrdz.Codebook) error {
	return fmt.Errorf("save %s: %w", domain, ErrReadOnly)
}

func (e *Embedded) Delete(domain string) error {
	return fmt.Errorf("delete %s: %w", domain, ErrReadOnly)
}

// List returns the bundled domains in sorted order.
func (e *Embedded) List() ([]string, error) {
	domains := make([]string, 0, len(builtinDomains))
	for domain := range builtinDomains {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains, nil
}

func (e *Embedded) Close() error { return nil }
