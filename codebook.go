package wrdz

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"
)

// ID is the BLAKE3 fingerprint of a codebook's maximum substring length and
// decode table. Equal IDs mean equivalent codebooks.
type ID [32]byte

func (id ID) String() string { return hex.EncodeToString(id[:]) }

// Codebook holds a trained codebook pair: the decode table (code -> substring)
// and its exact inverse, the encode table (substring -> code). Every single
// byte has a code, so any input can be encoded.
//
// A Codebook is created by Train, NewCodebook or UnmarshalBinary and never
// modified afterwards; it is safe for concurrent use.
type Codebook struct {
	symbols   []symbol          // code -> substring
	index     map[symbol]uint32 // substring (length >= 2) -> code
	byteCodes [256]uint32       // single byte -> code
	maxSubLen int
	lenHisto  [MaxSubLenLimit]int // histogram of lengths 1..8 at indices 0..7
	id        ID
}

// codebookVersion is the persisted container format version.
const codebookVersion uint32 = 1

// newCodebook builds both tables from one ordered symbol list. The caller
// guarantees that symbols are distinct and contain every single byte.
func newCodebook(symbols []symbol, maxSubLen int) *Codebook {
	c := &Codebook{
		symbols:   symbols,
		index:     make(map[symbol]uint32, len(symbols)-MinDictSize),
		maxSubLen: maxSubLen,
	}
	for code, sym := range symbols {
		c.lenHisto[sym.length()-1]++
		if sym.length() == 1 {
			c.byteCodes[sym.first()] = uint32(code)
			continue
		}
		c.index[sym] = uint32(code)
	}
	c.id = fingerprint(symbols, maxSubLen)
	return c
}

// NewCodebook builds a Codebook from a decode table, where decode[i] is the
// substring for code i. It fails with ErrCorruptCodebook unless the table is
// a bijection over substrings of length 1..maxSubLen containing all 256
// single bytes, and with ErrInvalidConfiguration for an out of range
// maxSubLen.
func NewCodebook(decode [][]byte, maxSubLen int) (*Codebook, error) {
	if maxSubLen < 1 || maxSubLen > MaxSubLenLimit {
		return nil, fmt.Errorf("%w: max substring length %d outside [1, %d]", ErrInvalidConfiguration, maxSubLen, MaxSubLenLimit)
	}
	if uint64(len(decode)) > 1<<32 {
		return nil, fmt.Errorf("%w: %d codes", ErrCorruptCodebook, len(decode))
	}

	var (
		symbols = make([]symbol, len(decode))
		seen    = make(map[symbol]int, len(decode))
		singles int
	)
	for code, sub := range decode {
		if len(sub) == 0 || len(sub) > maxSubLen {
			return nil, fmt.Errorf("%w: code %d has length %d", ErrCorruptCodebook, code, len(sub))
		}
		sym := newSymbolFromBytes(sub)
		if prev, ok := seen[sym]; ok {
			return nil, fmt.Errorf("%w: codes %d and %d share substring %q", ErrCorruptCodebook, prev, code, sub)
		}
		seen[sym] = code
		if len(sub) == 1 {
			singles++
		}
		symbols[code] = sym
	}
	if singles != MinDictSize {
		return nil, fmt.Errorf("%w: %d of 256 single bytes present", ErrCorruptCodebook, singles)
	}
	return newCodebook(symbols, maxSubLen), nil
}

// fingerprint hashes the maximum substring length followed by every symbol as
// a length byte and its bytes, in code order.
func fingerprint(symbols []symbol, maxSubLen int) ID {
	buf := make([]byte, 0, 1+len(symbols)*5)
	buf = append(buf, byte(maxSubLen))
	for _, sym := range symbols {
		buf = append(buf, byte(sym.length()))
		buf = sym.appendTo(buf)
	}
	return blake3.Sum256(buf)
}

// Len returns the number of codes.
func (c *Codebook) Len() int { return len(c.symbols) }

// MaxSubLen returns the longest substring length the encoder tries.
func (c *Codebook) MaxSubLen() int { return c.maxSubLen }

// ID returns the codebook fingerprint.
func (c *Codebook) ID() ID { return c.id }

// LengthHistogram returns the number of codes per substring length; index i
// counts substrings of length i+1.
func (c *Codebook) LengthHistogram() [MaxSubLenLimit]int { return c.lenHisto }

// Lookup returns the code of substring s.
func (c *Codebook) Lookup(s []byte) (uint32, bool) {
	switch {
	case len(s) == 1:
		return c.byteCodes[s[0]], true
	case len(s) == 0 || len(s) > c.maxSubLen:
		return 0, false
	}
	code, ok := c.index[newSymbolFromBytes(s)]
	return code, ok
}

// Symbol returns a copy of the substring for code.
func (c *Codebook) Symbol(code uint32) ([]byte, bool) {
	if uint64(code) >= uint64(len(c.symbols)) {
		return nil, false
	}
	return c.symbols[code].bytes(), true
}

// EncodeTable returns a copy of the encode table.
func (c *Codebook) EncodeTable() map[string]uint32 {
	m := make(map[string]uint32, len(c.symbols))
	for code, sym := range c.symbols {
		m[string(sym.bytes())] = uint32(code)
	}
	return m
}

// DecodeTable returns a copy of the decode table, indexed by code.
func (c *Codebook) DecodeTable() [][]byte {
	out := make([][]byte, len(c.symbols))
	for code, sym := range c.symbols {
		out[code] = sym.bytes()
	}
	return out
}

// container is the persisted form of a Codebook, a MessagePack map.
type container struct {
	Version   uint32   `msgpack:"v"`
	MaxSubLen int      `msgpack:"m"`
	ID        []byte   `msgpack:"id"`
	Decode    [][]byte `msgpack:"d"`
}

// WriteTo serializes the Codebook to w as a MessagePack container holding the
// format version, maximum substring length, fingerprint and decode table.
func (c *Codebook) WriteTo(w io.Writer) (int64, error) {
	data, err := c.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadFrom replaces c with the Codebook read from r until EOF.
func (c *Codebook) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), err
	}
	return int64(len(data)), c.UnmarshalBinary(data)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *Codebook) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(&container{
		Version:   codebookVersion,
		MaxSubLen: c.maxSubLen,
		ID:        c.id[:],
		Decode:    c.DecodeTable(),
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. It rebuilds the
// encode table and verifies the bijection, totality and fingerprint.
func (c *Codebook) UnmarshalBinary(data []byte) error {
	var ct container
	if err := msgpack.Unmarshal(data, &ct); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptCodebook, err)
	}
	if ct.Version != codebookVersion {
		return fmt.Errorf("%w: %d", ErrBadVersion, ct.Version)
	}
	cb, err := NewCodebook(ct.Decode, ct.MaxSubLen)
	if err != nil {
		return err
	}
	if !bytes.Equal(ct.ID, cb.id[:]) {
		return fmt.Errorf("%w: fingerprint mismatch", ErrCorruptCodebook)
	}
	*c = *cb
	return nil
}
