package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledgerwatch/log/v3"

	"github.com/axiomhq/wrdz"
)

// File extensions of persisted codebooks.
const (
	ExtDict     = ".dict"
	ExtDictZstd = ".dict.zst"
)

// Dir stores one codebook file per domain in a directory: <domain>.dict, or
// <domain>.dict.zst when compression is enabled. Load reads either form.
type Dir struct {
	path     string
	compress bool
	zstd     *zstdCodec
	logger   log.Logger
}

// OpenDir returns a Dir rooted at path, creating the directory if needed.
func OpenDir(path string, compress bool, logger log.Logger) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", path, err)
	}
	z, err := newZstdCodec()
	if err != nil {
		return nil, err
	}
	return &Dir{path: path, compress: compress, zstd: z, logger: logger}, nil
}

// Save writes the codebook for domain. Other processes see either the old or
// the new file, never a partial one: the data goes to a .tmp file which is
// synced and renamed over the target.
func (d *Dir) Save(domain string, cb *wrdz.Codebook) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	var (
		data []byte
		err  error
		ext  = ExtDict
	)
	if d.compress {
		ext = ExtDictZstd
		data, err = d.zstd.marshal(cb)
	} else {
		data, err = cb.MarshalBinary()
	}
	if err != nil {
		return fmt.Errorf("marshal %s: %w", domain, err)
	}

	target := filepath.Join(d.path, domain+ext)
	if err := writeFileAtomic(target, data); err != nil {
		return err
	}
	// Drop the other form so Load cannot pick up a stale codebook.
	stale := filepath.Join(d.path, domain+ExtDict)
	if !d.compress {
		stale = filepath.Join(d.path, domain+ExtDictZstd)
	}
	if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
		d.logger.Warn("couldn't remove stale codebook", "file", stale, "err", err)
	}

	d.logger.Info("saved codebook", "domain", domain, "file", target, "codes", cb.Len(), "bytes", len(data), "id", cb.ID().String()[:12])
	return nil
}

func writeFileAtomic(target string, data []byte) error {
	tmp := target + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("renaming: %w", err)
	}
	return nil
}

// Load reads the codebook for domain.
func (d *Dir) Load(domain string) (*wrdz.Codebook, error) {
	if err := ValidateDomain(domain); err != nil {
		return nil, unavailable(domain, err)
	}
	base := filepath.Join(d.path, domain)
	for _, ext := range []string{ExtDictZstd, ExtDict} {
		data, err := os.ReadFile(base + ext)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, unavailable(domain, err)
		}
		cb, err := d.decode(data)
		if err != nil {
			return nil, unavailable(domain, err)
		}
		return cb, nil
	}
	return nil, unavailable(domain, fmt.Errorf("no %s or %s file in %s: %w", ExtDict, ExtDictZstd, d.path, os.ErrNotExist))
}

func (d *Dir) decode(data []byte) (*wrdz.Codebook, error) {
	if isZstdFrame(data) {
		return d.zstd.unmarshal(data)
	}
	var cb wrdz.Codebook
	if err := cb.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &cb, nil
}

// ReadFile loads a codebook file outside any store, compressed or not.
func ReadFile(path string) (*wrdz.Codebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, unavailable(filepath.Base(path), err)
	}
	z, err := newZstdCodec()
	if err != nil {
		return nil, err
	}
	defer z.close()
	d := &Dir{zstd: z}
	cb, err := d.decode(data)
	if err != nil {
		return nil, unavailable(filepath.Base(path), err)
	}
	return cb, nil
}

// Delete removes the codebook files for domain.
func (d *Dir) Delete(domain string) error {
	if err := ValidateDomain(domain); err != nil {
		return err
	}
	for _, ext := range []string{ExtDictZstd, ExtDict} {
		if err := os.Remove(filepath.Join(d.path, domain+ext)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	d.logger.Info("deleted codebook", "domain", domain)
	return nil
}

// List returns the stored domains in sorted order.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for _, ext := range []string{ExtDictZstd, ExtDict} {
			if strings.HasSuffix(name, ext) {
				seen[strings.TrimSuffix(name, ext)] = struct{}{}
				break
			}
		}
	}
	domains := make([]string, 0, len(seen))
	for domain := range seen {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains, nil
}

// Close releases the compression state.
func (d *Dir) Close() error {
	d.zstd.close()
	return nil
}

// isZstdFrame reports whether data starts with the zstd frame magic.
func isZstdFrame(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0x28, 0xb5, 0x2f, 0xfd})
}
