package wrdz

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Encode compresses input, optionally reusing buf for output.
// buf can be nil or undersized; it will be grown as needed.
// Returns the compressed data (may have different backing array than buf).
//
// At each position the longest substring present in the codebook wins, trying
// lengths from min(MaxSubLen, remaining) down to 1; its code is written as an
// unsigned base-128 varint. Encode never fails.
func (c *Codebook) Encode(buf, input []byte) []byte {
	if buf == nil {
		buf = make([]byte, 0, len(input)+binary.MaxVarintLen32)
	} else {
		buf = buf[:0]
	}

	for pos := 0; pos < len(input); {
		code, n := c.findLongestSymbol(input[pos:min(pos+c.maxSubLen, len(input))])
		buf = binary.AppendUvarint(buf, uint64(code))
		pos += n
	}
	return buf
}

// EncodeAll compresses input and returns a newly allocated byte slice.
func (c *Codebook) EncodeAll(input []byte) []byte {
	return c.Encode(nil, input)
}

// findLongestSymbol returns the code and length of the longest codebook entry
// that prefixes window. window is non-empty and at most maxSubLen long.
func (c *Codebook) findLongestSymbol(window []byte) (uint32, int) {
	if len(window) > 1 {
		sym := newSymbolFromBytes(window)
		for n := sym.length(); n > 1; n-- {
			if code, ok := c.index[sym.prefix(n)]; ok {
				return code, n
			}
		}
	}
	return c.byteCodes[window[0]], 1
}

// Decode decompresses src, optionally reusing buf for output.
// buf can be nil or undersized; it will be grown as needed.
//
// A truncated, overlong or non-minimal varint fails with ErrMalformedInput
// and a code outside the codebook with ErrCodebookMismatch, both wrapped in
// a *DecodeError. On failure no output is returned. Every accepted input is
// the unique encoding of its code sequence.
func (c *Codebook) Decode(buf, src []byte) ([]byte, error) {
	if buf == nil {
		buf = make([]byte, 0, len(src)*2)
	} else {
		buf = buf[:0]
	}

	for pos := 0; pos < len(src); {
		code, n := binary.Uvarint(src[pos:])
		if n <= 0 || n != uvarintLen(code) {
			return nil, &DecodeError{Offset: pos, Codebook: c.id, Err: ErrMalformedInput}
		}
		if code >= uint64(len(c.symbols)) {
			return nil, &DecodeError{Offset: pos, Code: code, Codebook: c.id, Err: ErrCodebookMismatch}
		}
		buf = c.symbols[code].appendTo(buf)
		pos += n
	}
	return buf, nil
}

// uvarintLen returns the number of bytes binary.AppendUvarint uses for x.
func uvarintLen(x uint64) int {
	return max(1, (bits.Len64(x)+6)/7)
}

// DecodeAll decompresses src and returns a newly allocated byte slice.
func (c *Codebook) DecodeAll(src []byte) ([]byte, error) {
	return c.Decode(nil, src)
}

// Codec binds a Codebook to the domain it was trained for, such as english
// text or URLs. Construct one per domain at initialization and share it.
type Codec struct {
	domain   string
	codebook *Codebook
}

// NewCodec returns a Codec for domain backed by cb.
func NewCodec(domain string, cb *Codebook) *Codec {
	return &Codec{domain: domain, codebook: cb}
}

// Domain returns the domain name the codec was created with.
func (c *Codec) Domain() string { return c.domain }

// Codebook returns the underlying codebook.
func (c *Codec) Codebook() *Codebook { return c.codebook }

// Compress encodes text.
func (c *Codec) Compress(text []byte) []byte {
	return c.codebook.EncodeAll(text)
}

// CompressString encodes s without copying it.
func (c *Codec) CompressString(s string) []byte {
	return c.codebook.EncodeAll(stringBytes(s))
}

// Decompress decodes blob.
func (c *Codec) Decompress(blob []byte) ([]byte, error) {
	out, err := c.codebook.DecodeAll(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.domain, err)
	}
	return out, nil
}

// DecompressString decodes blob into a string.
func (c *Codec) DecompressString(blob []byte) (string, error) {
	out, err := c.Decompress(blob)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
