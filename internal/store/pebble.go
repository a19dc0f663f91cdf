package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ledgerwatch/log/v3"

	"github.com/axiomhq/wrdz"
)

const prefixCodebook = "codebook:"

// Pebble stores zstd-compressed codebook containers in a pebble database
// under the key "codebook:<domain>".
type Pebble struct {
	db     *pebble.DB
	zstd   *zstdCodec
	logger log.Logger
}

// OpenPebble opens or creates the database at path.
func OpenPebble(path string, logger log.Logger) (*Pebble, error) {
	opts := &pebble.Options{
		// Codebooks are few and written rarely.
		Cache:        pebble.NewCache(8 << 20),
		MemTableSize: 4 << 20,
	}
	defer opts.Cache.Unref()

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db: %w", err)
	}
	z, err := newZstdCodec()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Pebble{db: db, zstd: z, logger: logger}, nil
}

func codebookKey(domain string) []byte { return []byte(prefixCodebook + domain) }

// Save writes the codebook for domain with a synced write.
func (p *Pebble) Save(domain string, cb *wrdz.Codebook) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	data, err := p.zstd.marshal(cb)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", domain, err)
	}
	if err := p.db.Set(codebookKey(domain), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write codebook: %w", err)
	}
	p.logger.Info("saved codebook", "domain", domain, "codes", cb.Len(), "bytes", len(data), "id", cb.ID().String()[:12])
	return nil
}

// Load reads the codebook for domain.
func (p *Pebble) Load(domain string) (*wrdz.Codebook, error) {
	if err := ValidateDomain(domain); err != nil {
		return nil, unavailable(domain, err)
	}
	value, closer, err := p.db.Get(codebookKey(domain))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, unavailable(domain, err)
	}
	if err != nil {
		return nil, unavailable(domain, fmt.Errorf("failed to read codebook: %w", err))
	}
	// value is only valid until closer.Close.
	data := append([]byte(nil), value...)
	closer.Close()

	cb, err := p.zstd.unmarshal(data)
	if err != nil {
		return nil, unavailable(domain, err)
	}
	return cb, nil
}

// Delete removes the codebook for domain.
func (p *Pebble) Delete(domain string) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	if err := p.db.Delete(codebookKey(domain), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete codebook: %w", err)
	}
	p.logger.Info("deleted codebook", "domain", domain)
	return nil
}

// List returns the stored domains in key order.
func (p *Pebble) List() ([]string, error) {
	upper := []byte(prefixCodebook)
	upper[len(upper)-1]++
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixCodebook),
		UpperBound: upper,
	})
	if err != nil {
		return nil, err
	}
	var domains []string
	for iter.First(); iter.Valid(); iter.Next() {
		domains = append(domains, string(iter.Key()[len(prefixCodebook):]))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return domains, nil
}

// Close closes the database.
func (p *Pebble) Close() error {
	p.zstd.close()
	return p.db.Close()
}
